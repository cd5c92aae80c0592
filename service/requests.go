// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package service

import (
	"context"
	"fmt"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/Fantom-foundation/statequery/state/chainstate"
)

// RequestKind enumerates the queries accepted by the service.
type RequestKind int

const (
	KindGet RequestKind = iota
	KindGetWithProof
	KindGetAccountState
	KindGetAccountStateSet
	KindStateRoot
	KindGetWithProofByRoot
	KindGetAccountStateByRoot
	KindGetWithTableItemProof
	KindGetWithTableItemProofByRoot
)

// ResponseKind enumerates the results produced by the service.
type ResponseKind int

const (
	KindState ResponseKind = iota
	KindStateWithProof
	KindAccountState
	KindAccountStateSet
	KindStateRootResponse
	KindStateWithTableItemProof
)

var requestKindNames = map[RequestKind]string{
	KindGet:                         "Get",
	KindGetWithProof:                "GetWithProof",
	KindGetAccountState:             "GetAccountState",
	KindGetAccountStateSet:          "GetAccountStateSet",
	KindStateRoot:                   "StateRoot",
	KindGetWithProofByRoot:          "GetWithProofByRoot",
	KindGetAccountStateByRoot:       "GetAccountStateByRoot",
	KindGetWithTableItemProof:       "GetWithTableItemProof",
	KindGetWithTableItemProofByRoot: "GetWithTableItemProofByRoot",
}

func (k RequestKind) String() string {
	if name, found := requestKindNames[k]; found {
		return name
	}
	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// ResponseKind returns the kind of response produced for requests of this
// kind. Every request kind yields exactly one response kind.
func (k RequestKind) ResponseKind() ResponseKind {
	switch k {
	case KindGet:
		return KindState
	case KindGetWithProof, KindGetWithProofByRoot:
		return KindStateWithProof
	case KindGetAccountState, KindGetAccountStateByRoot:
		return KindAccountState
	case KindGetAccountStateSet:
		return KindAccountStateSet
	case KindStateRoot:
		return KindStateRootResponse
	case KindGetWithTableItemProof, KindGetWithTableItemProofByRoot:
		return KindStateWithTableItemProof
	}
	panic(fmt.Sprintf("unknown request kind %d", int(k)))
}

func (k ResponseKind) String() string {
	switch k {
	case KindState:
		return "State"
	case KindStateWithProof:
		return "StateWithProof"
	case KindAccountState:
		return "AccountState"
	case KindAccountStateSet:
		return "AccountStateSet"
	case KindStateRootResponse:
		return "StateRoot"
	case KindStateWithTableItemProof:
		return "StateWithTableItemProof"
	}
	return fmt.Sprintf("ResponseKind(%d)", int(k))
}

// Request is a query accepted by the service. The set of requests is closed;
// all implementations are defined in this package.
type Request interface {
	Kind() RequestKind
	dispatch(ctx context.Context, s *Service) (Response, error)
}

// Response is the result of a Request.
type Response interface {
	Kind() ResponseKind
}

// typedRequest is a request producing responses of type Resp. Pairing a
// request with a response type it does not produce fails to compile.
type typedRequest[Resp Response] interface {
	Request
	handle(reader chainstate.StateReader) (Resp, error)
}

// dispatchAs sends a typed request and returns its response as a generic
// Response.
func dispatchAs[Resp Response, Req typedRequest[Resp]](ctx context.Context, s *Service, req Req) (Response, error) {
	resp, err := call[Resp](ctx, s, req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// StateResponse is the optional raw value of an access path.
type StateResponse struct {
	Value []byte
}

func (*StateResponse) Kind() ResponseKind { return KindState }

type StateWithProofResponse struct {
	State *state.StateWithProof
}

func (*StateWithProofResponse) Kind() ResponseKind { return KindStateWithProof }

// AccountStateResponse carries nil if the account does not exist.
type AccountStateResponse struct {
	State *state.AccountState
}

func (*AccountStateResponse) Kind() ResponseKind { return KindAccountState }

// AccountStateSetResponse carries nil if the account does not exist.
type AccountStateSetResponse struct {
	Set *state.AccountStateSet
}

func (*AccountStateSetResponse) Kind() ResponseKind { return KindAccountStateSet }

type StateRootResponse struct {
	Root common.Hash
}

func (*StateRootResponse) Kind() ResponseKind { return KindStateRootResponse }

type StateWithTableItemProofResponse struct {
	State *state.StateWithTableItemProof
}

func (*StateWithTableItemProofResponse) Kind() ResponseKind { return KindStateWithTableItemProof }

func getState(reader chainstate.StateReader, path state.AccessPath, root *common.Hash) (*StateResponse, error) {
	value, err := reader.Get(path, root)
	if err != nil {
		return nil, err
	}
	return &StateResponse{Value: value}, nil
}

func getWithProof(reader chainstate.StateReader, path state.AccessPath, root *common.Hash) (*StateWithProofResponse, error) {
	res, err := reader.GetWithProof(path, root)
	if err != nil {
		return nil, err
	}
	return &StateWithProofResponse{State: res}, nil
}

func getAccountState(reader chainstate.StateReader, addr common.Address, root *common.Hash) (*AccountStateResponse, error) {
	res, err := reader.GetAccountState(addr, root)
	if err != nil {
		return nil, err
	}
	return &AccountStateResponse{State: res}, nil
}

func getWithTableItemProof(reader chainstate.StateReader, handle common.TableHandle, key []byte, root *common.Hash) (*StateWithTableItemProofResponse, error) {
	res, err := reader.GetWithTableItemProof(handle, key, root)
	if err != nil {
		return nil, err
	}
	return &StateWithTableItemProofResponse{State: res}, nil
}

// GetRequest reads the value of an access path at the current root.
type GetRequest struct {
	Path state.AccessPath
}

func (GetRequest) Kind() RequestKind { return KindGet }

func (q GetRequest) handle(reader chainstate.StateReader) (*StateResponse, error) {
	return getState(reader, q.Path, nil)
}

func (q GetRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateResponse](ctx, s, q)
}

// GetWithProofRequest reads the value of an access path at the current root
// together with a proof.
type GetWithProofRequest struct {
	Path state.AccessPath
}

func (GetWithProofRequest) Kind() RequestKind { return KindGetWithProof }

func (q GetWithProofRequest) handle(reader chainstate.StateReader) (*StateWithProofResponse, error) {
	return getWithProof(reader, q.Path, nil)
}

func (q GetWithProofRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateWithProofResponse](ctx, s, q)
}

// GetWithProofByRootRequest is GetWithProofRequest for a given root.
type GetWithProofByRootRequest struct {
	Path state.AccessPath
	Root common.Hash
}

func (GetWithProofByRootRequest) Kind() RequestKind { return KindGetWithProofByRoot }

func (q GetWithProofByRootRequest) handle(reader chainstate.StateReader) (*StateWithProofResponse, error) {
	return getWithProof(reader, q.Path, &q.Root)
}

func (q GetWithProofByRootRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateWithProofResponse](ctx, s, q)
}

// GetAccountStateRequest reads the state of an account at the current root.
type GetAccountStateRequest struct {
	Address common.Address
}

func (GetAccountStateRequest) Kind() RequestKind { return KindGetAccountState }

func (q GetAccountStateRequest) handle(reader chainstate.StateReader) (*AccountStateResponse, error) {
	return getAccountState(reader, q.Address, nil)
}

func (q GetAccountStateRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*AccountStateResponse](ctx, s, q)
}

// GetAccountStateByRootRequest is GetAccountStateRequest for a given root.
type GetAccountStateByRootRequest struct {
	Address common.Address
	Root    common.Hash
}

func (GetAccountStateByRootRequest) Kind() RequestKind { return KindGetAccountStateByRoot }

func (q GetAccountStateByRootRequest) handle(reader chainstate.StateReader) (*AccountStateResponse, error) {
	return getAccountState(reader, q.Address, &q.Root)
}

func (q GetAccountStateByRootRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*AccountStateResponse](ctx, s, q)
}

// GetAccountStateSetRequest exports all data of an account. A nil root
// selects the current root.
type GetAccountStateSetRequest struct {
	Address common.Address
	Root    *common.Hash
}

func (GetAccountStateSetRequest) Kind() RequestKind { return KindGetAccountStateSet }

func (q GetAccountStateSetRequest) handle(reader chainstate.StateReader) (*AccountStateSetResponse, error) {
	res, err := reader.GetAccountStateSet(q.Address, q.Root)
	if err != nil {
		return nil, err
	}
	return &AccountStateSetResponse{Set: res}, nil
}

func (q GetAccountStateSetRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*AccountStateSetResponse](ctx, s, q)
}

// StateRootRequest fetches the current state root.
type StateRootRequest struct{}

func (StateRootRequest) Kind() RequestKind { return KindStateRoot }

func (StateRootRequest) handle(reader chainstate.StateReader) (*StateRootResponse, error) {
	return &StateRootResponse{Root: reader.StateRoot()}, nil
}

func (q StateRootRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateRootResponse](ctx, s, q)
}

// GetWithTableItemProofRequest reads a table item at the current root.
type GetWithTableItemProofRequest struct {
	Handle common.TableHandle
	Key    []byte
}

func (GetWithTableItemProofRequest) Kind() RequestKind { return KindGetWithTableItemProof }

func (q GetWithTableItemProofRequest) handle(reader chainstate.StateReader) (*StateWithTableItemProofResponse, error) {
	return getWithTableItemProof(reader, q.Handle, q.Key, nil)
}

func (q GetWithTableItemProofRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateWithTableItemProofResponse](ctx, s, q)
}

// GetWithTableItemProofByRootRequest is GetWithTableItemProofRequest for a
// given root.
type GetWithTableItemProofByRootRequest struct {
	Handle common.TableHandle
	Key    []byte
	Root   common.Hash
}

func (GetWithTableItemProofByRootRequest) Kind() RequestKind { return KindGetWithTableItemProofByRoot }

func (q GetWithTableItemProofByRootRequest) handle(reader chainstate.StateReader) (*StateWithTableItemProofResponse, error) {
	return getWithTableItemProof(reader, q.Handle, q.Key, &q.Root)
}

func (q GetWithTableItemProofByRootRequest) dispatch(ctx context.Context, s *Service) (Response, error) {
	return dispatchAs[*StateWithTableItemProofResponse](ctx, s, q)
}
