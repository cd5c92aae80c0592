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
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/database/smt"
)

// RootEntry records the state root produced by one commit.
type RootEntry struct {
	Version uint64
	Root    common.Hash
}

func (e RootEntry) String() string {
	return fmt.Sprintf("%d: %v", e.Version, e.Root)
}

// rootKeyPrefix is the key space of the root history in the kv store.
var rootKeyPrefix = []byte("r/")

func rootKey(version uint64) []byte {
	res := make([]byte, len(rootKeyPrefix)+8)
	copy(res, rootKeyPrefix)
	binary.BigEndian.PutUint64(res[len(rootKeyPrefix):], version)
	return res
}

// RootHistory is the list of retained state roots in commit order. Readers
// may only query retained roots. Entries are appended by the writer and
// removed by pruning; the latest entry is the current state root and is
// never pruned.
type RootHistory struct {
	db      kv.Store
	mu      sync.RWMutex
	entries []RootEntry
	counts  map[common.Hash]int
}

// HasState reports whether the store contains a chain state, which is the
// case once a DB has been opened on it.
func HasState(store kv.Store) (bool, error) {
	found := false
	err := store.Iterate(rootKeyPrefix, func(_, _ []byte) bool {
		found = true
		return false
	})
	if err != nil {
		return false, fmt.Errorf("failed to look up root history: %w", err)
	}
	return found, nil
}

// openRootHistory loads the history from the store. A store without history
// is initialized with the empty tree's root as version 0.
func openRootHistory(db kv.Store) (*RootHistory, error) {
	res := &RootHistory{db: db, counts: map[common.Hash]int{}}
	var failure error
	err := db.Iterate(rootKeyPrefix, func(key, value []byte) bool {
		if len(key) != len(rootKeyPrefix)+8 || len(value) != common.HashSize {
			failure = fmt.Errorf("%w: invalid root history entry %x", ErrCorruptedState, key)
			return false
		}
		res.insert(RootEntry{
			Version: binary.BigEndian.Uint64(key[len(rootKeyPrefix):]),
			Root:    common.BytesToHash(value),
		})
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load root history: %w", err)
	}
	if failure != nil {
		return nil, failure
	}
	if len(res.entries) == 0 {
		genesis := RootEntry{Version: 0, Root: smt.Placeholder}
		batch := kv.NewBatch()
		res.record(batch, genesis)
		if err := db.Write(batch); err != nil {
			return nil, fmt.Errorf("failed to initialize root history: %w", err)
		}
		res.insert(genesis)
	}
	return res, nil
}

func (h *RootHistory) insert(entry RootEntry) {
	h.entries = append(h.entries, entry)
	h.counts[entry.Root]++
}

func (h *RootHistory) record(batch *kv.Batch, entry RootEntry) {
	batch.Put(rootKey(entry.Version), entry.Root[:])
}

// Latest returns the entry of the current state root.
func (h *RootHistory) Latest() RootEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entries[len(h.entries)-1]
}

// HasRoot returns true if the given root is retained.
func (h *RootHistory) HasRoot(root common.Hash) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[root] > 0
}

// Roots returns all retained entries in ascending version order.
func (h *RootHistory) Roots() []RootEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]RootEntry(nil), h.entries...)
}

// Len returns the number of retained entries.
func (h *RootHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// next prepares the entry of a new root in the given batch. The entry has
// to be published with append once the batch is written. Only one entry may
// be prepared at a time.
func (h *RootHistory) next(batch *kv.Batch, root common.Hash) RootEntry {
	entry := RootEntry{Version: h.Latest().Version + 1, Root: root}
	h.record(batch, entry)
	return entry
}

func (h *RootHistory) append(entry RootEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.insert(entry)
}

// Prune drops every entry of the given root. The nodes of the tree are
// kept since they may be shared with retained roots.
func (h *RootHistory) Prune(root common.Hash) ([]RootEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.entries[len(h.entries)-1].Root == root {
		return nil, fmt.Errorf("%w: %v", ErrPruneCurrentRoot, root)
	}
	if h.counts[root] == 0 {
		return nil, fmt.Errorf("%w: %v", ErrStateRootUnavailable, root)
	}
	return h.remove(func(e RootEntry) bool { return e.Root == root })
}

// pruneOldest drops the oldest entries until at most keep remain.
func (h *RootHistory) pruneOldest(keep int) ([]RootEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if keep < 1 || len(h.entries) <= keep {
		return nil, nil
	}
	limit := h.entries[len(h.entries)-keep].Version
	return h.remove(func(e RootEntry) bool { return e.Version < limit })
}

// remove deletes all matching entries, the caller must hold the lock.
func (h *RootHistory) remove(match func(RootEntry) bool) ([]RootEntry, error) {
	batch := kv.NewBatch()
	var removed []RootEntry
	for _, e := range h.entries {
		if match(e) {
			batch.Delete(rootKey(e.Version))
			removed = append(removed, e)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}
	if err := h.db.Write(batch); err != nil {
		return nil, fmt.Errorf("failed to prune roots: %w", err)
	}
	kept := h.entries[:0]
	for _, e := range h.entries {
		if match(e) {
			if h.counts[e.Root]--; h.counts[e.Root] == 0 {
				delete(h.counts, e.Root)
			}
		} else {
			kept = append(kept, e)
		}
	}
	h.entries = kept
	return removed, nil
}
