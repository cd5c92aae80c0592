// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package kv defines the physical key-value storage engine beneath the state
// tree. Implementations live in the memory, ldb and badger sub-packages.
package kv

import (
	"io"

	"github.com/Fantom-foundation/statequery/common"
)

const (
	// ErrNotFound is returned by Get if the key is not present.
	ErrNotFound = common.ConstError("kv: key not found")
	// ErrClosed is returned by all operations on a closed store.
	ErrClosed = common.ConstError("kv: store closed")
)

// Store is a persistent key-value store. All implementations are safe for
// concurrent use.
type Store interface {
	// Get returns a copy of the value stored for the key or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Has reports whether the key is present.
	Has(key []byte) (bool, error)

	// Write applies all operations recorded in the batch in order. A batch
	// exceeding the transaction limit of a backend may be committed in
	// several steps, so its last operation is the last to become visible.
	Write(batch *Batch) error

	// Iterate calls fn for every key with the given prefix in ascending key
	// order until fn returns false. Slices passed to fn are only valid
	// during the call.
	Iterate(prefix []byte, fn func(key, value []byte) bool) error

	io.Closer
}

// Batch records put and delete operations to be applied by Store.Write.
type Batch struct {
	ops []Op
}

// Op is a single batch operation. A nil Value marks a delete.
type Op struct {
	Key   []byte
	Value []byte
}

func NewBatch() *Batch {
	return &Batch{}
}

// Put records a write. The batch keeps its own copies of key and value.
func (b *Batch) Put(key, value []byte) {
	v := make([]byte, len(value))
	copy(v, value)
	b.ops = append(b.ops, Op{Key: clone(key), Value: v})
}

// Delete records a removal.
func (b *Batch) Delete(key []byte) {
	b.ops = append(b.ops, Op{Key: clone(key)})
}

// Len returns the number of recorded operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

// Replay passes all recorded operations in insertion order to fn.
func (b *Batch) Replay(fn func(op Op) error) error {
	for _, op := range b.ops {
		if err := fn(op); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	res := make([]byte, len(b))
	copy(res, b)
	return res
}
