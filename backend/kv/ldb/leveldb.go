// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Store is a LevelDB based kv.Store implementation.
type Store struct {
	db *leveldb.DB
}

// Options tunes the LevelDB instance. Zero values select LevelDB defaults.
type Options struct {
	BlockCacheCapacity int
	WriteBuffer        int
	Sync               bool
}

// OpenStore opens or creates a LevelDB database in the given directory.
func OpenStore(directory string, options Options) (*Store, error) {
	db, err := leveldb.OpenFile(directory, &opt.Options{
		BlockCacheCapacity: options.BlockCacheCapacity,
		WriteBuffer:        options.WriteBuffer,
		NoSync:             !options.Sync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb in %s: %w", directory, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if err != nil {
		return nil, convertError(err)
	}
	return val, nil
}

func (s *Store) Has(key []byte) (bool, error) {
	exists, err := s.db.Has(key, nil)
	return exists, convertError(err)
}

func (s *Store) Write(batch *kv.Batch) error {
	b := new(leveldb.Batch)
	_ = batch.Replay(func(op kv.Op) error {
		if op.Value == nil {
			b.Delete(op.Key)
		} else {
			b.Put(op.Key, op.Value)
		}
		return nil
	})
	return convertError(s.db.Write(b, nil))
}

func (s *Store) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	iter := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer iter.Release()
	for iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}
	return convertError(iter.Error())
}

func (s *Store) Close() error {
	return convertError(s.db.Close())
}

func convertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return kv.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return kv.ErrClosed
	}
	return err
}
