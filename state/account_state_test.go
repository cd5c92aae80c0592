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

	"github.com/Fantom-foundation/statequery/common"
	"github.com/ethereum/go-ethereum/rlp"
)

func TestAccountState_EncodingRoundTrip(t *testing.T) {
	resources := common.Hash{1}
	tables := common.Hash{2}
	states := []AccountState{
		NewAccountState(nil, nil),
		NewAccountState(&resources, nil),
		NewAccountState(nil, &tables),
		NewAccountState(&resources, &tables),
	}
	for _, state := range states {
		data, err := state.Encode()
		if err != nil {
			t.Fatalf("failed to encode %v: %v", state, err)
		}
		restored, err := DecodeAccountState(data)
		if err != nil {
			t.Fatalf("failed to decode %v: %v", state, err)
		}
		if !restored.Equal(state) {
			t.Errorf("round trip failed, wanted %v, got %v", state, restored)
		}
	}
}

func TestAccountState_MalformedInputIsRejected(t *testing.T) {
	oneRoot, _ := rlp.EncodeToBytes(encodedAccountState{Roots: [][]byte{{}}})
	shortRoot, _ := rlp.EncodeToBytes(encodedAccountState{Roots: [][]byte{{1, 2}, {}}})
	for _, data := range [][]byte{nil, {0xff}, oneRoot, shortRoot} {
		if _, err := DecodeAccountState(data); !errors.Is(err, ErrInvalidAccountState) {
			t.Errorf("expected ErrInvalidAccountState for %x, got %v", data, err)
		}
	}
}

func TestAccountState_IsImmutable(t *testing.T) {
	root := common.Hash{1}
	state := NewAccountState(&root, nil)
	root[0] = 2
	if got := state.StorageRoot(DataTypeResource); got == nil || *got != (common.Hash{1}) {
		t.Errorf("state affected by modification of input")
	}
	*state.StorageRoot(DataTypeResource) = common.Hash{3}
	if got := state.StorageRoot(DataTypeResource); *got != (common.Hash{1}) {
		t.Errorf("state affected by modification of result")
	}

	modified := state.WithStorageRoot(DataTypeResource, nil)
	if !modified.IsEmpty() || state.IsEmpty() {
		t.Errorf("WithStorageRoot must not modify the original")
	}
}

func TestAccountStateSet_AccessByDataType(t *testing.T) {
	resources := &StateSet{}
	resources.Add([]byte("a"), []byte{1})
	set := NewAccountStateSet(resources, nil)

	if set.ResourceSet().Len() != 1 || set.TableSet() != nil {
		t.Errorf("unexpected sets: %v / %v", set.ResourceSet(), set.TableSet())
	}
	if value, found := set.ResourceSet().Get([]byte("a")); !found || value[0] != 1 {
		t.Errorf("entry not found")
	}
	if _, found := set.TableSet().Get([]byte("a")); found {
		t.Errorf("entry found in nil set")
	}
	if set.StateSet(DataType(9)) != nil {
		t.Errorf("unknown data types have no set")
	}
}
