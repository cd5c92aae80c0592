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
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/database/smt"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Writer buffers changes to the chain state and commits them as a new state
// root. All methods are serialized by a single lock which readers never
// take; readers observe a new root only after it has been fully persisted.
type Writer struct {
	mu            sync.Mutex
	store         kv.Store
	nodes         *smt.NodeStore
	history       *RootHistory
	reader        *Reader
	retainedRoots int
	log           logrus.FieldLogger
	buffer        *writeBuffer
}

// writeBuffer holds the uncommitted changes. It implements
// state.WriteSetTarget without locking.
type writeBuffer struct {
	reader   *Reader
	tables   map[common.TableHandle]common.Address
	accounts map[common.Address]map[state.DataType]map[string]dataChange
}

// dataChange is a pending write of a raw sub-tree key, a nil value deletes
// the key.
type dataChange struct {
	key   []byte
	value []byte
}

var _ state.WriteSetTarget = (*writeBuffer)(nil)

func newWriteBuffer(reader *Reader) *writeBuffer {
	return &writeBuffer{
		reader:   reader,
		tables:   map[common.TableHandle]common.Address{},
		accounts: map[common.Address]map[state.DataType]map[string]dataChange{},
	}
}

func (b *writeBuffer) isEmpty() bool {
	return len(b.tables) == 0 && len(b.accounts) == 0
}

func (b *writeBuffer) len() int {
	res := len(b.tables)
	for _, types := range b.accounts {
		for _, changes := range types {
			res += len(changes)
		}
	}
	return res
}

func (b *writeBuffer) clone() *writeBuffer {
	res := newWriteBuffer(b.reader)
	maps.Copy(res.tables, b.tables)
	for addr, types := range b.accounts {
		copied := map[state.DataType]map[string]dataChange{}
		for t, changes := range types {
			copied[t] = maps.Clone(changes)
		}
		res.accounts[addr] = copied
	}
	return res
}

func (b *writeBuffer) put(path state.AccessPath, value []byte) {
	putChange(b.accounts, path, value)
}

func putChange(accounts map[common.Address]map[state.DataType]map[string]dataChange, path state.AccessPath, value []byte) {
	types, found := accounts[path.Address]
	if !found {
		types = map[state.DataType]map[string]dataChange{}
		accounts[path.Address] = types
	}
	changes, found := types[path.Path.Type()]
	if !found {
		changes = map[string]dataChange{}
		types[path.Path.Type()] = changes
	}
	key := path.Path.Key()
	changes[string(key)] = dataChange{key: key, value: value}
}

// owner resolves a table handle against pending registrations first and
// the current state second.
func (b *writeBuffer) owner(handle common.TableHandle) (*common.Address, error) {
	if owner, found := b.tables[handle]; found {
		return &owner, nil
	}
	return b.reader.tableOwner(b.reader.StateRoot(), handle)
}

func (b *writeBuffer) checkPath(path state.AccessPath) error {
	if err := checkDataPath(path); err != nil {
		return err
	}
	if path.Equal(state.TableRegistryAccessPath()) {
		return fmt.Errorf("%w: %v", ErrReservedPath, path)
	}
	handle, _, isTable := path.Path.TableItem()
	if !isTable {
		return nil
	}
	owner, err := b.owner(handle)
	if err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("%w: %v", ErrTableNotRegistered, handle)
	}
	if *owner != path.Address {
		return fmt.Errorf("%w: %v is owned by %v, not %v", ErrTableNotRegistered, handle, *owner, path.Address)
	}
	return nil
}

func (b *writeBuffer) RegisterTable(handle common.TableHandle, owner common.Address) error {
	current, err := b.owner(handle)
	if err != nil {
		return err
	}
	if current != nil {
		if *current != owner {
			return fmt.Errorf("%w: %v is owned by %v", ErrTableRegistered, handle, *current)
		}
		return nil
	}
	b.tables[handle] = owner
	return nil
}

func (b *writeBuffer) Set(path state.AccessPath, value []byte) error {
	if err := b.checkPath(path); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	b.put(path, bytes.Clone(value))
	return nil
}

func (b *writeBuffer) Remove(path state.AccessPath) error {
	if err := b.checkPath(path); err != nil {
		return err
	}
	b.put(path, nil)
	return nil
}

func (b *writeBuffer) tableItemPath(handle common.TableHandle, key []byte) (state.AccessPath, error) {
	owner, err := b.owner(handle)
	if err != nil {
		return state.AccessPath{}, err
	}
	if owner == nil {
		return state.AccessPath{}, fmt.Errorf("%w: %v", ErrTableNotRegistered, handle)
	}
	return state.NewTableItemAccessPath(*owner, handle, key), nil
}

func (b *writeBuffer) SetTableItem(handle common.TableHandle, key []byte, value []byte) error {
	path, err := b.tableItemPath(handle, key)
	if err != nil {
		return err
	}
	return b.Set(path, value)
}

func (b *writeBuffer) RemoveTableItem(handle common.TableHandle, key []byte) error {
	path, err := b.tableItemPath(handle, key)
	if err != nil {
		return err
	}
	return b.Remove(path)
}

// Set buffers a value for the given path. Table item paths require the
// handle to be registered to the path's account.
func (w *Writer) Set(path state.AccessPath, value []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.buffer.Set(path, value)
}

// Remove buffers the deletion of the given path.
func (w *Writer) Remove(path state.AccessPath) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.buffer.Remove(path)
}

// SetResource buffers a resource under the given account.
func (w *Writer) SetResource(addr common.Address, resource state.Resource) error {
	data, err := resource.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode resource %v: %w", resource.StructTag(), err)
	}
	return w.Set(state.NewResourceAccessPath(addr, resource.StructTag()), data)
}

// RegisterTable buffers the registration of a table handle. Registering a
// handle again for the same owner is a no-op.
func (w *Writer) RegisterTable(handle common.TableHandle, owner common.Address) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.buffer.RegisterTable(handle, owner)
}

// SetTableItem buffers a table item. The handle must be registered, either
// in the current state or by a buffered registration.
func (w *Writer) SetTableItem(handle common.TableHandle, key []byte, value []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.buffer.SetTableItem(handle, key, value)
}

// RemoveTableItem buffers the deletion of a table item.
func (w *Writer) RemoveTableItem(handle common.TableHandle, key []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	return w.buffer.RemoveTableItem(handle, key)
}

// ApplyWriteSet buffers all changes of the write set. If any change is
// rejected, none of them is buffered.
func (w *Writer) ApplyWriteSet(ws *state.WriteSet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return err
	}
	buffer := w.buffer.clone()
	if err := ws.Apply(buffer); err != nil {
		return err
	}
	w.buffer = buffer
	return nil
}

// checkOpen must be called with the lock held.
func (w *Writer) checkOpen() error {
	if w.reader.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Pending returns the number of buffered changes.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buffer.len()
}

// Discard drops all buffered changes.
func (w *Writer) Discard() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = newWriteBuffer(w.reader)
}

// Commit applies all buffered changes to the current state, persists the
// resulting trees and advances the current state root. Without buffered
// changes the current root is returned and no version is created. On
// failure, the buffered changes are retained. Pruning of roots beyond the
// retention limit happens after the new root is persisted; it is retried
// by later commits if it fails.
func (w *Writer) Commit() (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkOpen(); err != nil {
		return common.Hash{}, err
	}

	base := w.history.Latest()
	if w.buffer.isEmpty() {
		return base.Root, nil
	}
	start := time.Now()

	changes := w.buffer.clone().accounts
	nodes := map[common.Hash]smt.Node{}

	if len(w.buffer.tables) > 0 {
		registryRoot, err := w.reader.registryRoot(base.Root)
		if err != nil {
			return common.Hash{}, err
		}
		updater := smt.NewUpdater(w.nodes, registryRoot)
		handles := maps.Keys(w.buffer.tables)
		slices.SortFunc(handles, func(a, b common.TableHandle) int { return bytes.Compare(a[:], b[:]) })
		for _, handle := range handles {
			owner := w.buffer.tables[handle]
			if err := updater.Put(handle.Bytes(), state.HandleKeyHash(handle), owner.Bytes()); err != nil {
				return common.Hash{}, fmt.Errorf("failed to register table %v: %w", handle, err)
			}
		}
		maps.Copy(nodes, updater.Nodes())
		registryRoot = updater.Root()
		putChange(changes, state.TableRegistryAccessPath(), registryRoot[:])
	}

	addresses := maps.Keys(changes)
	slices.SortFunc(addresses, func(a, b common.Address) int { return bytes.Compare(a[:], b[:]) })
	accounts := smt.NewUpdater(w.nodes, base.Root)
	for _, addr := range addresses {
		current := state.AccountState{}
		if account, err := w.reader.account(base.Root, addr); err != nil {
			return common.Hash{}, err
		} else if account != nil {
			current = account.state
		}
		for _, t := range []state.DataType{state.DataTypeResource, state.DataTypeTable} {
			pending := changes[addr][t]
			if len(pending) == 0 {
				continue
			}
			updater := smt.NewUpdater(w.nodes, subTreeRoot(current, t))
			for _, change := range pending {
				var err error
				if change.value == nil {
					err = updater.Delete(common.HashKey(change.key))
				} else {
					err = updater.Put(change.key, common.HashKey(change.key), change.value)
				}
				if err != nil {
					return common.Hash{}, fmt.Errorf("failed to update %v data of %v: %w", t, addr, err)
				}
			}
			maps.Copy(nodes, updater.Nodes())
			if root := updater.Root(); root == smt.Placeholder {
				current = current.WithStorageRoot(t, nil)
			} else {
				current = current.WithStorageRoot(t, &root)
			}
		}
		var err error
		if current.IsEmpty() {
			err = accounts.Delete(state.AccountKeyHash(addr))
		} else {
			var blob []byte
			if blob, err = current.Encode(); err == nil {
				err = accounts.Put(addr.Bytes(), state.AccountKeyHash(addr), blob)
			}
		}
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to update account %v: %w", addr, err)
		}
	}
	maps.Copy(nodes, accounts.Nodes())
	root := accounts.Root()

	batch := kv.NewBatch()
	if err := w.nodes.AddNodes(batch, nodes); err != nil {
		return common.Hash{}, err
	}
	entry := w.history.next(batch, root)
	if err := w.store.Write(batch); err != nil {
		return common.Hash{}, fmt.Errorf("failed to persist state: %w", err)
	}
	w.history.append(entry)
	w.buffer = newWriteBuffer(w.reader)

	w.log.WithFields(logrus.Fields{
		"version":  entry.Version,
		"root":     root,
		"accounts": len(addresses),
		"nodes":    len(nodes),
		"elapsed":  time.Since(start),
	}).Info("Committed state")

	if w.retainedRoots > 0 {
		pruned, err := w.history.pruneOldest(w.retainedRoots)
		if err != nil {
			w.log.WithError(err).WithField("root", root).Warn("Failed to prune state roots")
		}
		if len(pruned) > 0 {
			w.log.WithField("count", len(pruned)).Debug("Pruned state roots")
		}
	}
	return root, nil
}
