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

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/state"
)

//go:generate mockgen -source facade.go -destination facade_mocks.go -package service

// ChainStateAsyncService is the typed client interface of the state query
// service. Each operation sends one request and waits for its response or
// the cancellation of the context. Absent values are reported as nil
// results; failures are ErrServiceUnavailable, context errors,
// chainstate.ErrStateRootUnavailable or backend errors.
type ChainStateAsyncService interface {
	Get(ctx context.Context, path state.AccessPath) ([]byte, error)
	GetWithProof(ctx context.Context, path state.AccessPath) (*state.StateWithProof, error)
	GetAccountState(ctx context.Context, addr common.Address) (*state.AccountState, error)
	// GetAccountStateSet exports all data of an account, a nil root selects
	// the current root.
	GetAccountStateSet(ctx context.Context, addr common.Address, root *common.Hash) (*state.AccountStateSet, error)
	StateRoot(ctx context.Context) (common.Hash, error)
	GetWithProofByRoot(ctx context.Context, path state.AccessPath, root common.Hash) (*state.StateWithProof, error)
	GetAccountStateByRoot(ctx context.Context, addr common.Address, root common.Hash) (*state.AccountState, error)
	GetWithTableItemProof(ctx context.Context, handle common.TableHandle, key []byte) (*state.StateWithTableItemProof, error)
	GetWithTableItemProofByRoot(ctx context.Context, handle common.TableHandle, key []byte, root common.Hash) (*state.StateWithTableItemProof, error)
}

// ServiceRef implements ChainStateAsyncService by sending requests to a
// Service. References are cheap and may be shared freely.
type ServiceRef struct {
	service *Service
}

var _ ChainStateAsyncService = (*ServiceRef)(nil)

func (r *ServiceRef) Get(ctx context.Context, path state.AccessPath) ([]byte, error) {
	resp, err := call[*StateResponse](ctx, r.service, GetRequest{Path: path})
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

func (r *ServiceRef) GetWithProof(ctx context.Context, path state.AccessPath) (*state.StateWithProof, error) {
	resp, err := call[*StateWithProofResponse](ctx, r.service, GetWithProofRequest{Path: path})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (r *ServiceRef) GetAccountState(ctx context.Context, addr common.Address) (*state.AccountState, error) {
	resp, err := call[*AccountStateResponse](ctx, r.service, GetAccountStateRequest{Address: addr})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (r *ServiceRef) GetAccountStateSet(ctx context.Context, addr common.Address, root *common.Hash) (*state.AccountStateSet, error) {
	resp, err := call[*AccountStateSetResponse](ctx, r.service, GetAccountStateSetRequest{Address: addr, Root: root})
	if err != nil {
		return nil, err
	}
	return resp.Set, nil
}

func (r *ServiceRef) StateRoot(ctx context.Context) (common.Hash, error) {
	resp, err := call[*StateRootResponse](ctx, r.service, StateRootRequest{})
	if err != nil {
		return common.Hash{}, err
	}
	return resp.Root, nil
}

func (r *ServiceRef) GetWithProofByRoot(ctx context.Context, path state.AccessPath, root common.Hash) (*state.StateWithProof, error) {
	resp, err := call[*StateWithProofResponse](ctx, r.service, GetWithProofByRootRequest{Path: path, Root: root})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (r *ServiceRef) GetAccountStateByRoot(ctx context.Context, addr common.Address, root common.Hash) (*state.AccountState, error) {
	resp, err := call[*AccountStateResponse](ctx, r.service, GetAccountStateByRootRequest{Address: addr, Root: root})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (r *ServiceRef) GetWithTableItemProof(ctx context.Context, handle common.TableHandle, key []byte) (*state.StateWithTableItemProof, error) {
	resp, err := call[*StateWithTableItemProofResponse](ctx, r.service, GetWithTableItemProofRequest{Handle: handle, Key: key})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (r *ServiceRef) GetWithTableItemProofByRoot(ctx context.Context, handle common.TableHandle, key []byte, root common.Hash) (*state.StateWithTableItemProof, error) {
	resp, err := call[*StateWithTableItemProofResponse](ctx, r.service, GetWithTableItemProofByRootRequest{Handle: handle, Key: key, Root: root})
	if err != nil {
		return nil, err
	}
	return resp.State, nil
}

// GetResource reads the resource of type R stored under the given account.
// It returns nil if the account has no such resource and a *state.DecodeError
// if the stored bytes are not a valid R.
func GetResource[R any, PR state.ResourceType[R]](ctx context.Context, service ChainStateAsyncService, addr common.Address) (*R, error) {
	value, err := service.Get(ctx, state.ResourceAccessPath[R, PR](addr))
	if err != nil || value == nil {
		return nil, err
	}
	return state.DecodeResource[R, PR](value)
}
