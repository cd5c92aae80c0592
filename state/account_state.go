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
	"bytes"
	"fmt"
	"strings"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// AccountState is the decoded content of an account's leaf in the account
// tree: the roots of the account's resource and table sub-trees. A missing
// root denotes an empty sub-tree. AccountState values are immutable; the
// With* methods return modified copies.
type AccountState struct {
	storageRoots [numDataTypes]*common.Hash
}

// NewAccountState creates an account state from the given sub-tree roots,
// where nil denotes an empty sub-tree.
func NewAccountState(resourceRoot, tableRoot *common.Hash) AccountState {
	var res AccountState
	res.storageRoots[DataTypeResource.index()] = copyHash(resourceRoot)
	res.storageRoots[DataTypeTable.index()] = copyHash(tableRoot)
	return res
}

// StorageRoot returns the root of the sub-tree of the given data type or nil
// if the account has no data of this type.
func (s AccountState) StorageRoot(t DataType) *common.Hash {
	if !t.Valid() {
		return nil
	}
	return copyHash(s.storageRoots[t.index()])
}

// WithStorageRoot returns a copy of the state with the root of the given
// data type's sub-tree replaced.
func (s AccountState) WithStorageRoot(t DataType, root *common.Hash) AccountState {
	if t.Valid() {
		s.storageRoots[t.index()] = copyHash(root)
	}
	return s
}

// IsEmpty is true if the account owns no data. Empty accounts are not
// stored in the account tree.
func (s AccountState) IsEmpty() bool {
	for _, root := range s.storageRoots {
		if root != nil {
			return false
		}
	}
	return true
}

func (s AccountState) Equal(other AccountState) bool {
	for i := range s.storageRoots {
		a, b := s.storageRoots[i], other.storageRoots[i]
		if (a == nil) != (b == nil) || (a != nil && *a != *b) {
			return false
		}
	}
	return true
}

func (s AccountState) String() string {
	parts := make([]string, 0, numDataTypes)
	for i, root := range s.storageRoots {
		t := DataType(i + 1)
		if root == nil {
			parts = append(parts, fmt.Sprintf("%v: -", t))
		} else {
			parts = append(parts, fmt.Sprintf("%v: %v", t, root))
		}
	}
	return "AccountState{" + strings.Join(parts, ", ") + "}"
}

type encodedAccountState struct {
	Roots [][]byte
}

// Encode produces the blob stored at the account's leaf.
func (s AccountState) Encode() ([]byte, error) {
	enc := encodedAccountState{Roots: make([][]byte, numDataTypes)}
	for i, root := range s.storageRoots {
		if root == nil {
			enc.Roots[i] = []byte{}
		} else {
			enc.Roots[i] = root[:]
		}
	}
	return rlp.EncodeToBytes(enc)
}

// DecodeAccountState restores an account state from its leaf blob.
func DecodeAccountState(data []byte) (AccountState, error) {
	var enc encodedAccountState
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return AccountState{}, fmt.Errorf("%w: %v", ErrInvalidAccountState, err)
	}
	if len(enc.Roots) != numDataTypes {
		return AccountState{}, fmt.Errorf("%w: expected %d roots, got %d", ErrInvalidAccountState, numDataTypes, len(enc.Roots))
	}
	var res AccountState
	for i, root := range enc.Roots {
		switch len(root) {
		case 0:
		case common.HashSize:
			h := common.BytesToHash(root)
			res.storageRoots[i] = &h
		default:
			return AccountState{}, fmt.Errorf("%w: root of %d bytes", ErrInvalidAccountState, len(root))
		}
	}
	return res, nil
}

func copyHash(h *common.Hash) *common.Hash {
	if h == nil {
		return nil
	}
	res := *h
	return &res
}

// StateSet is the content of one sub-tree as a list of raw key/value pairs
// ordered by key hash.
type StateSet struct {
	Keys   [][]byte
	Values [][]byte
}

// Len returns the number of entries.
func (s *StateSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keys)
}

// Add appends an entry.
func (s *StateSet) Add(key, value []byte) {
	s.Keys = append(s.Keys, bytes.Clone(key))
	s.Values = append(s.Values, bytes.Clone(value))
}

// Get looks up the value of a raw key.
func (s *StateSet) Get(key []byte) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	for i, k := range s.Keys {
		if bytes.Equal(k, key) {
			return s.Values[i], true
		}
	}
	return nil, false
}

// AccountStateSet is a full snapshot of the data owned by one account, one
// StateSet per data type. The set of a data type the account owns no data
// of is nil.
type AccountStateSet struct {
	sets [numDataTypes]*StateSet
}

// NewAccountStateSet creates a snapshot from the given per-type sets.
func NewAccountStateSet(resources, tables *StateSet) *AccountStateSet {
	res := &AccountStateSet{}
	res.sets[DataTypeResource.index()] = resources
	res.sets[DataTypeTable.index()] = tables
	return res
}

// StateSet returns the set of the given data type, nil if there is none.
func (s *AccountStateSet) StateSet(t DataType) *StateSet {
	if s == nil || !t.Valid() {
		return nil
	}
	return s.sets[t.index()]
}

// ResourceSet is a shortcut for StateSet(DataTypeResource).
func (s *AccountStateSet) ResourceSet() *StateSet {
	return s.StateSet(DataTypeResource)
}

// TableSet is a shortcut for StateSet(DataTypeTable).
func (s *AccountStateSet) TableSet() *StateSet {
	return s.StateSet(DataTypeTable)
}
