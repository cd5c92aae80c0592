// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"bytes"
	"sync"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Store is an in-memory kv.Store implementation.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

const errClosed = kv.ErrClosed

// NewStore constructs a new, empty instance of the Store.
func NewStore() *Store {
	return &Store{data: map[string][]byte{}}
}

func (m *Store) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errClosed
	}
	val, exists := m.data[string(key)]
	if !exists {
		return nil, kv.ErrNotFound
	}
	return bytes.Clone(val), nil
}

func (m *Store) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, errClosed
	}
	_, exists := m.data[string(key)]
	return exists, nil
}

func (m *Store) Write(batch *kv.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errClosed
	}
	return batch.Replay(func(op kv.Op) error {
		if op.Value == nil {
			delete(m.data, string(op.Key))
		} else {
			m.data[string(op.Key)] = op.Value
		}
		return nil
	})
}

func (m *Store) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return errClosed
	}
	keys := maps.Keys(m.data)
	selected := keys[:0]
	for _, k := range keys {
		if bytes.HasPrefix([]byte(k), prefix) {
			selected = append(selected, k)
		}
	}
	slices.Sort(selected)
	values := make([][]byte, len(selected))
	for i, k := range selected {
		values[i] = m.data[k]
	}
	m.mu.RUnlock()

	for i, k := range selected {
		if !fn([]byte(k), values[i]) {
			break
		}
	}
	return nil
}

func (m *Store) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
