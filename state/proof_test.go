// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import (
	"errors"
	"testing"

	"github.com/Fantom-foundation/statequery/backend/kv/memory"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/database/smt"
)

// testState is a minimal two level state used to check proof verification
// independently of the chain state writer.
type testState struct {
	t     *testing.T
	store *smt.NodeStore
	root  common.Hash
}

func newTestState(t *testing.T) *testState {
	return &testState{t: t, store: smt.NewNodeStore(memory.NewStore(), 1024), root: smt.Placeholder}
}

func (s *testState) put(source common.Hash, key []byte, keyHash common.Hash, value []byte) common.Hash {
	s.t.Helper()
	updater := smt.NewUpdater(s.store, source)
	if err := updater.Put(key, keyHash, value); err != nil {
		s.t.Fatalf("failed to update tree: %v", err)
	}
	if err := s.store.WriteNodes(updater.Nodes()); err != nil {
		s.t.Fatalf("failed to write nodes: %v", err)
	}
	return updater.Root()
}

func (s *testState) account(addr common.Address) AccountState {
	s.t.Helper()
	blob, err := smt.NewTree(s.store, s.root).Get(AccountKeyHash(addr))
	if err != nil {
		s.t.Fatalf("failed to read account: %v", err)
	}
	if blob == nil {
		return AccountState{}
	}
	res, err := DecodeAccountState(blob)
	if err != nil {
		s.t.Fatalf("failed to decode account: %v", err)
	}
	return res
}

func (s *testState) set(path AccessPath, value []byte) {
	s.t.Helper()
	account := s.account(path.Address)
	subRoot := smt.Placeholder
	if r := account.StorageRoot(path.Path.Type()); r != nil {
		subRoot = *r
	}
	subRoot = s.put(subRoot, path.Path.Key(), path.Path.KeyHash(), value)
	account = account.WithStorageRoot(path.Path.Type(), &subRoot)
	blob, err := account.Encode()
	if err != nil {
		s.t.Fatalf("failed to encode account: %v", err)
	}
	s.root = s.put(s.root, path.Address[:], AccountKeyHash(path.Address), blob)
}

func (s *testState) prove(path AccessPath) StateWithProof {
	s.t.Helper()
	blob, accountProof, err := smt.NewTree(s.store, s.root).GetWithProof(AccountKeyHash(path.Address))
	if err != nil {
		s.t.Fatalf("failed to prove account: %v", err)
	}
	res := StateWithProof{Proof: StateProof{AccountState: blob, AccountProof: accountProof}}
	if blob == nil {
		return res
	}
	account, err := DecodeAccountState(blob)
	if err != nil {
		s.t.Fatalf("failed to decode account: %v", err)
	}
	subRoot := smt.Placeholder
	if r := account.StorageRoot(path.Path.Type()); r != nil {
		subRoot = *r
	}
	res.Value, res.Proof.DataProof, err = smt.NewTree(s.store, subRoot).GetWithProof(path.Path.KeyHash())
	if err != nil {
		s.t.Fatalf("failed to prove data path: %v", err)
	}
	return res
}

var testTag = StructTag{Address: common.Address{15: 1}, Module: "Account", Name: "Balance"}

func TestStateProof_MembershipAndAbsence(t *testing.T) {
	s := newTestState(t)
	present := NewResourceAccessPath(common.Address{15: 1}, testTag)
	s.set(present, []byte{1, 2, 3})

	proof := s.prove(present)
	if string(proof.Value) != string([]byte{1, 2, 3}) {
		t.Fatalf("unexpected value %v", proof.Value)
	}
	if err := proof.Verify(s.root, present); err != nil {
		t.Errorf("valid proof rejected: %v", err)
	}
	if err := proof.Proof.Verify(s.root, present, []byte{1, 2, 4}); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("proof accepted for wrong value: %v", err)
	}
	if err := proof.Proof.Verify(s.root, present, nil); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("proof accepted for absence: %v", err)
	}

	absentInAccount := NewResourceAccessPath(common.Address{15: 1}, StructTag{Module: "Other", Name: "Thing"})
	proof = s.prove(absentInAccount)
	if proof.Value != nil {
		t.Fatalf("unexpected value %v", proof.Value)
	}
	if err := proof.Verify(s.root, absentInAccount); err != nil {
		t.Errorf("valid absence proof rejected: %v", err)
	}

	missingAccount := NewResourceAccessPath(common.Address{15: 2}, testTag)
	proof = s.prove(missingAccount)
	if proof.Value != nil || proof.Proof.AccountState != nil {
		t.Fatalf("unexpected result for missing account: %v", proof)
	}
	if err := proof.Verify(s.root, missingAccount); err != nil {
		t.Errorf("valid absence proof rejected: %v", err)
	}
	if err := proof.Proof.Verify(s.root, missingAccount, []byte{1}); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("missing account accepted as membership: %v", err)
	}
}

func TestStateProof_TableItemsLiveInTableSubTree(t *testing.T) {
	s := newTestState(t)
	owner := common.Address{15: 1}
	resource := NewResourceAccessPath(owner, testTag)
	item := NewTableItemAccessPath(owner, common.TableHandle{1}, []byte("key"))
	s.set(resource, []byte{1})
	s.set(item, []byte{2})

	for path, want := range map[*AccessPath][]byte{&resource: {1}, &item: {2}} {
		proof := s.prove(*path)
		if string(proof.Value) != string(want) {
			t.Errorf("unexpected value for %v: %v", path, proof.Value)
		}
		if err := proof.Verify(s.root, *path); err != nil {
			t.Errorf("valid proof for %v rejected: %v", path, err)
		}
	}

	// a proof of one path does not prove another one
	proof := s.prove(resource)
	if err := proof.Proof.Verify(s.root, item, []byte{1}); err == nil {
		t.Errorf("proof of a resource accepted for a table item")
	}
}

func TestStateProof_CorruptedAccountBlobIsRejected(t *testing.T) {
	s := newTestState(t)
	path := NewResourceAccessPath(common.Address{15: 1}, testTag)
	s.set(path, []byte{1})
	proof := s.prove(path)
	proof.Proof.AccountState = []byte{0xff}
	if err := proof.Verify(s.root, path); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("expected ErrInvalidProof, got %v", err)
	}
}

func TestStateWithTableItemProof_Verification(t *testing.T) {
	s := newTestState(t)
	owner := common.Address{15: 5}
	handle := common.TableHandle{15: 9}
	key := []byte("key")

	registry := s.put(smt.Placeholder, handle[:], HandleKeyHash(handle), owner.Bytes())
	s.set(TableRegistryAccessPath(), registry[:])
	s.set(NewTableItemAccessPath(owner, handle, key), []byte("value"))

	registryProof := s.prove(TableRegistryAccessPath())
	_, handleProof, err := smt.NewTree(s.store, registry).GetWithProof(HandleKeyHash(handle))
	if err != nil {
		t.Fatalf("failed to prove handle: %v", err)
	}
	itemProof := s.prove(NewTableItemAccessPath(owner, handle, key))
	proof := StateWithTableItemProof{
		Registry:    registryProof,
		Owner:       &owner,
		HandleProof: handleProof,
		Item:        &itemProof,
	}
	if string(proof.Value()) != "value" {
		t.Errorf("unexpected value %q", proof.Value())
	}
	if err := proof.Verify(s.root, handle, key, []byte("value")); err != nil {
		t.Errorf("valid proof rejected: %v", err)
	}

	wrongOwner := common.Address{15: 6}
	tampered := proof
	tampered.Owner = &wrongOwner
	if err := tampered.Verify(s.root, handle, key, []byte("value")); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("proof accepted with wrong owner: %v", err)
	}
	if err := proof.Verify(s.root, handle, key, []byte("other")); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("proof accepted with wrong value: %v", err)
	}
	if err := proof.Verify(s.root, common.TableHandle{1}, key, []byte("value")); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("proof accepted for other handle: %v", err)
	}

	// an unregistered handle is proven absent by the registry
	unknown := common.TableHandle{15: 1}
	_, absence, err := smt.NewTree(s.store, registry).GetWithProof(HandleKeyHash(unknown))
	if err != nil {
		t.Fatalf("failed to prove handle absence: %v", err)
	}
	missing := StateWithTableItemProof{Registry: registryProof, HandleProof: absence}
	if missing.Value() != nil {
		t.Errorf("unregistered handle must not have a value")
	}
	if err := missing.Verify(s.root, unknown, key, nil); err != nil {
		t.Errorf("valid absence proof rejected: %v", err)
	}
	if err := missing.Verify(s.root, unknown, key, []byte("value")); !errors.Is(err, smt.ErrInvalidProof) {
		t.Errorf("absence proof accepted as membership: %v", err)
	}
}
