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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Fantom-foundation/statequery/backend/kv/memory"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/Fantom-foundation/statequery/state/resources"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	testOwner  = common.Address{15: 1}
	testHandle = common.TableHandle{15: 2}
)

// newTestService creates a running service on top of a state containing a
// balance, a table with one item and an account with a malformed balance.
func newTestService(t *testing.T) (*Service, *chainstate.DB) {
	t.Helper()
	db, err := chainstate.Open(memory.NewStore(), chainstate.DefaultConfig, logging.Discard())
	require.NoError(t, err)
	w := db.Writer()
	require.NoError(t, w.Set(state.NewResourceAccessPath(testOwner, resources.BalanceTag), []byte{1, 2, 3}))
	require.NoError(t, w.RegisterTable(testHandle, testOwner))
	require.NoError(t, w.SetTableItem(testHandle, []byte("key"), []byte("value")))
	require.NoError(t, w.SetResource(common.Address{15: 2}, resources.NewBalance(42)))
	_, err = w.Commit()
	require.NoError(t, err)

	service := New(db.Reader(), Config{Workers: 4, QueueSize: 16}, logging.Discard())
	service.Start()
	t.Cleanup(func() {
		service.Stop()
		db.Close()
	})
	return service, db
}

func allRequests(root common.Hash) []Request {
	path := state.NewResourceAccessPath(testOwner, resources.BalanceTag)
	return []Request{
		GetRequest{Path: path},
		GetWithProofRequest{Path: path},
		GetAccountStateRequest{Address: testOwner},
		GetAccountStateSetRequest{Address: testOwner},
		StateRootRequest{},
		GetWithProofByRootRequest{Path: path, Root: root},
		GetAccountStateByRootRequest{Address: testOwner, Root: root},
		GetWithTableItemProofRequest{Handle: testHandle, Key: []byte("key")},
		GetWithTableItemProofByRootRequest{Handle: testHandle, Key: []byte("key"), Root: root},
	}
}

func TestService_EveryRequestYieldsItsResponseKind(t *testing.T) {
	service, db := newTestService(t)
	requests := allRequests(db.StateRoot())
	seen := map[RequestKind]bool{}
	for _, req := range requests {
		resp, err := service.Dispatch(context.Background(), req)
		if err != nil {
			t.Errorf("request %v failed: %v", req.Kind(), err)
			continue
		}
		if got, want := resp.Kind(), req.Kind().ResponseKind(); got != want {
			t.Errorf("request %v produced %v, expected %v", req.Kind(), got, want)
		}
		seen[req.Kind()] = true
	}
	if len(seen) != len(requestKindNames) {
		t.Errorf("not all request kinds covered, got %d of %d", len(seen), len(requestKindNames))
	}
}

func TestRequestKind_ResponseKindsAreDefinedForAllKinds(t *testing.T) {
	for kind, name := range requestKindNames {
		if kind.String() != name {
			t.Errorf("unexpected name %v for %s", kind, name)
		}
		if response := kind.ResponseKind(); response.String() == fmt.Sprintf("ResponseKind(%d)", int(response)) {
			t.Errorf("kind %v maps to unknown response kind %d", kind, int(response))
		}
	}
	require.Panics(t, func() { RequestKind(99).ResponseKind() })
	require.Equal(t, "RequestKind(99)", RequestKind(99).String())
}

func TestService_GetWithProofByRootExample(t *testing.T) {
	service, db := newTestService(t)
	r0 := db.StateRoot()
	path := state.NewResourceAccessPath(testOwner, resources.BalanceTag)

	resp, err := service.Dispatch(context.Background(), GetWithProofByRootRequest{Path: path, Root: r0})
	require.NoError(t, err)
	res := resp.(*StateWithProofResponse).State
	require.Equal(t, []byte{1, 2, 3}, res.Value)
	require.NoError(t, res.Proof.Verify(r0, path, []byte{1, 2, 3}))
}

func TestService_UnavailableRootsAreReported(t *testing.T) {
	service, _ := newTestService(t)
	unknown := common.Hash{0xab}
	path := state.NewResourceAccessPath(testOwner, resources.BalanceTag)
	for _, req := range []Request{
		GetWithProofByRootRequest{Path: path, Root: unknown},
		GetAccountStateByRootRequest{Address: testOwner, Root: unknown},
		GetAccountStateSetRequest{Address: testOwner, Root: &unknown},
		GetWithTableItemProofByRootRequest{Handle: testHandle, Root: unknown},
	} {
		resp, err := service.Dispatch(context.Background(), req)
		require.ErrorIs(t, err, chainstate.ErrStateRootUnavailable, "request %v", req.Kind())
		require.Nil(t, resp)
	}
}

func TestServiceRef_OperationsReturnStoredData(t *testing.T) {
	service, db := newTestService(t)
	ref := service.Ref()
	ctx := context.Background()
	root := db.StateRoot()

	first, err := ref.StateRoot(ctx)
	require.NoError(t, err)
	second, err := ref.StateRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, root, first)

	value, err := ref.Get(ctx, state.NewResourceAccessPath(testOwner, resources.AccountTag))
	require.NoError(t, err)
	require.Nil(t, value)

	proof, err := ref.GetWithProof(ctx, state.NewResourceAccessPath(testOwner, resources.AccountTag))
	require.NoError(t, err)
	require.Nil(t, proof.Value)
	require.NoError(t, proof.Verify(root, state.NewResourceAccessPath(testOwner, resources.AccountTag)))

	account, err := ref.GetAccountState(ctx, testOwner)
	require.NoError(t, err)
	require.NotNil(t, account.StorageRoot(state.DataTypeTable))
	byRoot, err := ref.GetAccountStateByRoot(ctx, testOwner, root)
	require.NoError(t, err)
	require.True(t, account.Equal(*byRoot))

	implicit, err := ref.GetAccountStateSet(ctx, testOwner, nil)
	require.NoError(t, err)
	explicit, err := ref.GetAccountStateSet(ctx, testOwner, &root)
	require.NoError(t, err)
	require.Equal(t, explicit, implicit)

	item, err := ref.GetWithTableItemProof(ctx, testHandle, []byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), item.Value())
	require.NoError(t, item.Verify(root, testHandle, []byte("key"), []byte("value")))

	missing, err := ref.GetWithTableItemProofByRoot(ctx, common.TableHandle{1}, []byte("key"), root)
	require.NoError(t, err)
	require.Nil(t, missing.Owner)
	require.NoError(t, missing.Verify(root, common.TableHandle{1}, []byte("key"), nil))
}

func TestService_StoppedServiceIsUnavailable(t *testing.T) {
	service, _ := newTestService(t)
	service.Stop()
	_, err := service.Ref().StateRoot(context.Background())
	require.ErrorIs(t, err, ErrServiceUnavailable)
	_, err = service.Dispatch(context.Background(), StateRootRequest{})
	require.ErrorIs(t, err, ErrServiceUnavailable)
	service.Stop()
}

func TestService_QueuedRequestsFailWhenStopped(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := chainstate.NewMockStateReader(ctrl)
	service := New(reader, Config{Workers: 1, QueueSize: 4}, nil)

	done := make(chan error, 1)
	go func() {
		_, err := service.Ref().StateRoot(context.Background())
		done <- err
	}()
	// the service is never started, the request stays queued
	time.Sleep(10 * time.Millisecond)
	service.Stop()
	require.ErrorIs(t, <-done, ErrServiceUnavailable)
}

func TestService_CanceledCallersDoNotAffectLaterRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := chainstate.NewMockStateReader(ctrl)
	release := make(chan struct{})
	root := common.Hash{1}
	reader.EXPECT().Get(gomock.Any(), gomock.Any()).DoAndReturn(func(state.AccessPath, *common.Hash) ([]byte, error) {
		<-release
		return []byte{1}, nil
	}).MaxTimes(1)
	reader.EXPECT().StateRoot().Return(root)

	service := New(reader, Config{Workers: 2, QueueSize: 4}, nil)
	service.Start()
	defer service.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := service.Ref().Get(ctx, state.AccessPath{})
		done <- err
	}()
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	close(release)

	got, err := service.Ref().StateRoot(context.Background())
	require.NoError(t, err)
	require.Equal(t, root, got)
}

func TestService_CanceledRequestsAreNotSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := chainstate.NewMockStateReader(ctrl)
	service := New(reader, Config{Workers: 1, QueueSize: 0}, nil)
	defer service.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := service.Ref().StateRoot(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestService_ConcurrencyIsBoundedByWorkers(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := chainstate.NewMockStateReader(ctrl)
	const workers = 3
	var running, peak atomic.Int32
	reader.EXPECT().StateRoot().DoAndReturn(func() common.Hash {
		cur := running.Add(1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return common.Hash{}
	}).Times(30)

	service := New(reader, Config{Workers: workers, QueueSize: 8}, nil)
	service.Start()
	defer service.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.Ref().StateRoot(context.Background()); err != nil {
				t.Errorf("request failed: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := peak.Load(); got > workers {
		t.Errorf("too many concurrent requests, limit %d, got %d", workers, got)
	}
}

func TestService_ReaderErrorsArePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := chainstate.NewMockStateReader(ctrl)
	injected := errors.New("injected")
	reader.EXPECT().GetWithProof(gomock.Any(), nil).Return(nil, injected)

	service := New(reader, DefaultConfig, nil)
	service.Start()
	defer service.Stop()

	res, err := service.Ref().GetWithProof(context.Background(), state.AccessPath{})
	require.ErrorIs(t, err, injected)
	require.Nil(t, res)
}
