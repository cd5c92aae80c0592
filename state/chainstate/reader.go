// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chainstate

import (
	"fmt"
	"sync/atomic"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/database/smt"
	"github.com/Fantom-foundation/statequery/state"
	lru "github.com/hashicorp/golang-lru/v2"
)

//go:generate mockgen -source reader.go -destination reader_mocks.go -package chainstate

// StateReader provides read access to current and historical versions of
// the chain state. Every query takes a root selector: nil selects the
// current state root, any other value must be a retained root or the query
// fails with ErrStateRootUnavailable. Absent values are reported as nil
// results, never as errors.
type StateReader interface {
	// StateRoot returns the current state root.
	StateRoot() common.Hash
	// Get returns the value stored at the given path.
	Get(path state.AccessPath, root *common.Hash) ([]byte, error)
	// GetWithProof returns the value stored at the given path together
	// with a proof against the selected root.
	GetWithProof(path state.AccessPath, root *common.Hash) (*state.StateWithProof, error)
	// GetAccountState returns the decoded leaf of an account.
	GetAccountState(addr common.Address, root *common.Hash) (*state.AccountState, error)
	// GetAccountStateSet returns all data owned by an account.
	GetAccountStateSet(addr common.Address, root *common.Hash) (*state.AccountStateSet, error)
	// GetWithTableItemProof resolves the table handle through the table
	// registry and returns the table item with a proof of both levels.
	GetWithTableItemProof(handle common.TableHandle, key []byte, root *common.Hash) (*state.StateWithTableItemProof, error)
}

// Reader implements StateReader on top of a node store and a root history.
// Since trees are never modified, a Reader takes no locks on the trees and
// may be used by any number of goroutines while a writer commits.
type Reader struct {
	nodes    smt.NodeSource
	history  *RootHistory
	accounts *lru.Cache[accountKey, *cachedAccount]
	closed   atomic.Bool
}

var _ StateReader = (*Reader)(nil)

type accountKey struct {
	root common.Hash
	addr common.Address
}

// cachedAccount is an account leaf in its raw and decoded form.
type cachedAccount struct {
	blob  []byte
	state state.AccountState
}

func newReader(nodes smt.NodeSource, history *RootHistory, cacheSize int) (*Reader, error) {
	res := &Reader{nodes: nodes, history: history}
	if cacheSize > 0 {
		cache, err := lru.New[accountKey, *cachedAccount](cacheSize)
		if err != nil {
			return nil, err
		}
		res.accounts = cache
	}
	return res, nil
}

func (r *Reader) StateRoot() common.Hash {
	return r.history.Latest().Root
}

// resolveRoot maps a root selector to a retained root.
func (r *Reader) resolveRoot(root *common.Hash) (common.Hash, error) {
	if r.closed.Load() {
		return common.Hash{}, ErrClosed
	}
	if root == nil {
		return r.StateRoot(), nil
	}
	if !r.history.HasRoot(*root) {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrStateRootUnavailable, *root)
	}
	return *root, nil
}

// account fetches the leaf of an account, nil if the account does not exist.
func (r *Reader) account(root common.Hash, addr common.Address) (*cachedAccount, error) {
	key := accountKey{root, addr}
	if r.accounts != nil {
		if res, found := r.accounts.Get(key); found {
			return res, nil
		}
	}
	blob, err := smt.NewTree(r.nodes, root).Get(state.AccountKeyHash(addr))
	if err != nil {
		return nil, fmt.Errorf("failed to read account %v: %w", addr, err)
	}
	var res *cachedAccount
	if blob != nil {
		decoded, err := state.DecodeAccountState(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: account %v: %v", ErrCorruptedState, addr, err)
		}
		res = &cachedAccount{blob: blob, state: decoded}
	}
	if r.accounts != nil {
		r.accounts.Add(key, res)
	}
	return res, nil
}

func subTreeRoot(account state.AccountState, t state.DataType) common.Hash {
	if root := account.StorageRoot(t); root != nil {
		return *root
	}
	return smt.Placeholder
}

// checkDataPath rejects paths without a known data type. Such paths have no
// sub-tree in an account and can neither be stored nor proven.
func checkDataPath(path state.AccessPath) error {
	if t := path.Path.Type(); !t.Valid() {
		return fmt.Errorf("%w: %v has unknown data type %v", state.ErrInvalidAccessPath, path.Address, t)
	}
	return nil
}

func (r *Reader) Get(path state.AccessPath, root *common.Hash) ([]byte, error) {
	if err := checkDataPath(path); err != nil {
		return nil, err
	}
	stateRoot, err := r.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	return r.get(stateRoot, path)
}

func (r *Reader) get(stateRoot common.Hash, path state.AccessPath) ([]byte, error) {
	account, err := r.account(stateRoot, path.Address)
	if err != nil || account == nil {
		return nil, err
	}
	sub := subTreeRoot(account.state, path.Path.Type())
	if sub == smt.Placeholder {
		return nil, nil
	}
	value, err := smt.NewTree(r.nodes, sub).Get(path.Path.KeyHash())
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", path, err)
	}
	return value, nil
}

func (r *Reader) GetWithProof(path state.AccessPath, root *common.Hash) (*state.StateWithProof, error) {
	if err := checkDataPath(path); err != nil {
		return nil, err
	}
	stateRoot, err := r.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	return r.prove(stateRoot, path)
}

func (r *Reader) prove(stateRoot common.Hash, path state.AccessPath) (*state.StateWithProof, error) {
	blob, accountProof, err := smt.NewTree(r.nodes, stateRoot).GetWithProof(state.AccountKeyHash(path.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to prove account %v: %w", path.Address, err)
	}
	res := &state.StateWithProof{Proof: state.StateProof{AccountState: blob, AccountProof: accountProof}}
	if blob == nil {
		return res, nil
	}
	account, err := state.DecodeAccountState(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: account %v: %v", ErrCorruptedState, path.Address, err)
	}
	sub := subTreeRoot(account, path.Path.Type())
	res.Value, res.Proof.DataProof, err = smt.NewTree(r.nodes, sub).GetWithProof(path.Path.KeyHash())
	if err != nil {
		return nil, fmt.Errorf("failed to prove %v: %w", path, err)
	}
	return res, nil
}

func (r *Reader) GetAccountState(addr common.Address, root *common.Hash) (*state.AccountState, error) {
	stateRoot, err := r.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	account, err := r.account(stateRoot, addr)
	if err != nil || account == nil {
		return nil, err
	}
	res := account.state
	return &res, nil
}

func (r *Reader) GetAccountStateSet(addr common.Address, root *common.Hash) (*state.AccountStateSet, error) {
	stateRoot, err := r.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	account, err := r.account(stateRoot, addr)
	if err != nil || account == nil {
		return nil, err
	}
	collect := func(t state.DataType) (*state.StateSet, error) {
		sub := subTreeRoot(account.state, t)
		if sub == smt.Placeholder {
			return nil, nil
		}
		set := &state.StateSet{}
		err := smt.NewTree(r.nodes, sub).ForEach(func(leaf *smt.LeafNode) bool {
			set.Add(leaf.Key, leaf.Value)
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("failed to export %v data of %v: %w", t, addr, err)
		}
		return set, nil
	}
	resources, err := collect(state.DataTypeResource)
	if err != nil {
		return nil, err
	}
	tables, err := collect(state.DataTypeTable)
	if err != nil {
		return nil, err
	}
	return state.NewAccountStateSet(resources, tables), nil
}

func (r *Reader) GetWithTableItemProof(handle common.TableHandle, key []byte, root *common.Hash) (*state.StateWithTableItemProof, error) {
	stateRoot, err := r.resolveRoot(root)
	if err != nil {
		return nil, err
	}
	registry, err := r.prove(stateRoot, state.TableRegistryAccessPath())
	if err != nil {
		return nil, err
	}
	registryRoot, err := parseRegistryRoot(registry.Value)
	if err != nil {
		return nil, err
	}
	value, handleProof, err := smt.NewTree(r.nodes, registryRoot).GetWithProof(state.HandleKeyHash(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to prove table handle %v: %w", handle, err)
	}
	res := &state.StateWithTableItemProof{Registry: *registry, HandleProof: handleProof}
	if value == nil {
		return res, nil
	}
	owner, err := parseOwner(handle, value)
	if err != nil {
		return nil, err
	}
	res.Owner = &owner
	res.Item, err = r.prove(stateRoot, state.NewTableItemAccessPath(owner, handle, key))
	if err != nil {
		return nil, err
	}
	return res, nil
}

// tableOwner resolves a table handle at the given root, nil if the handle
// is not registered.
func (r *Reader) tableOwner(stateRoot common.Hash, handle common.TableHandle) (*common.Address, error) {
	registryRoot, err := r.registryRoot(stateRoot)
	if err != nil {
		return nil, err
	}
	value, err := smt.NewTree(r.nodes, registryRoot).Get(state.HandleKeyHash(handle))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve table handle %v: %w", handle, err)
	}
	if value == nil {
		return nil, nil
	}
	owner, err := parseOwner(handle, value)
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

func (r *Reader) registryRoot(stateRoot common.Hash) (common.Hash, error) {
	value, err := r.get(stateRoot, state.TableRegistryAccessPath())
	if err != nil {
		return common.Hash{}, err
	}
	return parseRegistryRoot(value)
}

func parseRegistryRoot(value []byte) (common.Hash, error) {
	if value == nil {
		return smt.Placeholder, nil
	}
	if len(value) != common.HashSize {
		return common.Hash{}, fmt.Errorf("%w: table registry root of %d bytes", ErrCorruptedState, len(value))
	}
	return common.BytesToHash(value), nil
}

func parseOwner(handle common.TableHandle, value []byte) (common.Address, error) {
	if len(value) != common.AddressSize {
		return common.Address{}, fmt.Errorf("%w: owner of table %v has %d bytes", ErrCorruptedState, handle, len(value))
	}
	return common.BytesToAddress(value), nil
}
