// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package badger

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/dgraph-io/badger/v3"
)

// Store is a Badger based kv.Store implementation.
type Store struct {
	db *badger.DB
}

// OpenStore opens or creates a Badger database in the given directory. An
// empty directory opens a purely in-memory instance.
func OpenStore(directory string) (*Store, error) {
	opts := badger.DefaultOptions(directory).WithLogger(nil)
	if directory == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger in %q: %w", directory, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	var res []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		res, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, convertError(err)
	}
	return res, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Write applies the batch in a single transaction if it fits. Larger
// batches are split into consecutive transactions following the order of
// the batch.
func (s *Store) Write(batch *kv.Batch) error {
	if s.db.IsClosed() {
		return kv.ErrClosed
	}
	txn := s.db.NewTransaction(true)
	defer func() { txn.Discard() }()
	err := batch.Replay(func(op kv.Op) error {
		err := apply(txn, op)
		if !errors.Is(err, badger.ErrTxnTooBig) {
			return err
		}
		if err := txn.Commit(); err != nil {
			return err
		}
		txn = s.db.NewTransaction(true)
		return apply(txn, op)
	})
	if err != nil {
		return convertError(err)
	}
	return convertError(txn.Commit())
}

func apply(txn *badger.Txn, op kv.Op) error {
	if op.Value == nil {
		return txn.Delete(op.Key)
	}
	return txn.Set(op.Key, op.Value)
}

func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !fn(item.Key(), val) {
				return nil
			}
		}
		return nil
	})
	return convertError(err)
}

func (s *Store) Close() error {
	return convertError(s.db.Close())
}

func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return kv.ErrNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return kv.ErrClosed
	}
	return err
}
