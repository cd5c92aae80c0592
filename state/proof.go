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

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/database/smt"
)

// StateProof proves the value, or the absence, of an access path against a
// state root. The proof has two levels: the account's leaf in the account
// tree and the data path's leaf in the account's sub-tree.
type StateProof struct {
	// AccountState is the blob stored at the account's leaf, nil if the
	// account does not exist.
	AccountState []byte
	AccountProof smt.SparseMerkleProof
	DataProof    smt.SparseMerkleProof
}

// Verify checks that the proof attests value for path under root. A nil
// value requests verification of absence.
func (p *StateProof) Verify(root common.Hash, path AccessPath, value []byte) error {
	if err := p.AccountProof.Verify(root, AccountKeyHash(path.Address), p.AccountState); err != nil {
		return fmt.Errorf("account %v: %w", path.Address, err)
	}
	if p.AccountState == nil {
		if value != nil {
			return fmt.Errorf("%w: account %v does not exist", smt.ErrInvalidProof, path.Address)
		}
		return nil
	}
	account, err := DecodeAccountState(p.AccountState)
	if err != nil {
		return fmt.Errorf("%w: %v", smt.ErrInvalidProof, err)
	}
	subRoot := smt.Placeholder
	if r := account.StorageRoot(path.Path.Type()); r != nil {
		subRoot = *r
	}
	if err := p.DataProof.Verify(subRoot, path.Path.KeyHash(), value); err != nil {
		return fmt.Errorf("data path %v: %w", path.Path, err)
	}
	return nil
}

// StateWithProof is the value of an access path, nil if absent, together
// with the proof of that result.
type StateWithProof struct {
	Value []byte
	Proof StateProof
}

func (s *StateWithProof) Verify(root common.Hash, path AccessPath) error {
	return s.Proof.Verify(root, path, s.Value)
}

// StateWithTableItemProof is the result of a table item lookup. It proves
// the resolution of the table handle through the registry and, if the
// handle is registered, the item within the owner's table sub-tree.
type StateWithTableItemProof struct {
	// Registry is the registry root stored at TableRegistryAccessPath.
	Registry StateWithProof
	// Owner is the account the handle resolves to, nil if unregistered.
	Owner *common.Address
	// HandleProof proves Owner against the registry root.
	HandleProof smt.SparseMerkleProof
	// Item is the table item with proof against the state root, nil if
	// the handle is not registered.
	Item *StateWithProof
}

// Value returns the value of the table item, nil if absent.
func (p *StateWithTableItemProof) Value() []byte {
	if p.Item == nil {
		return nil
	}
	return p.Item.Value
}

// Verify checks that the proof attests value for the item key of the table
// with the given handle under root. A nil value requests verification of
// absence, either of the handle or of the item.
func (p *StateWithTableItemProof) Verify(root common.Hash, handle common.TableHandle, key []byte, value []byte) error {
	if err := p.Registry.Verify(root, TableRegistryAccessPath()); err != nil {
		return fmt.Errorf("table registry: %w", err)
	}
	registryRoot := smt.Placeholder
	if p.Registry.Value != nil {
		if len(p.Registry.Value) != common.HashSize {
			return fmt.Errorf("%w: registry root of %d bytes", smt.ErrInvalidProof, len(p.Registry.Value))
		}
		registryRoot = common.BytesToHash(p.Registry.Value)
	}

	var owner []byte
	if p.Owner != nil {
		owner = p.Owner.Bytes()
	}
	if err := p.HandleProof.Verify(registryRoot, HandleKeyHash(handle), owner); err != nil {
		return fmt.Errorf("table handle %v: %w", handle, err)
	}

	if p.Owner == nil {
		if p.Item != nil || value != nil {
			return fmt.Errorf("%w: table handle %v is not registered", smt.ErrInvalidProof, handle)
		}
		return nil
	}
	if p.Item == nil {
		return fmt.Errorf("%w: missing item proof", smt.ErrInvalidProof)
	}
	if (p.Item.Value == nil) != (value == nil) || !bytes.Equal(p.Item.Value, value) {
		return fmt.Errorf("%w: item value mismatch", smt.ErrInvalidProof)
	}
	return p.Item.Verify(root, NewTableItemAccessPath(*p.Owner, handle, key))
}
