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
	"errors"
	"fmt"
	"sync"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/database/smt"
	"github.com/sirupsen/logrus"
)

// Config tunes a chain state DB.
type Config struct {
	// NodeCacheSize is the number of decoded tree nodes kept in memory.
	NodeCacheSize int
	// AccountCacheSize is the number of decoded account leaves kept in
	// memory, 0 disables the cache.
	AccountCacheSize int
	// RetainedRoots is the number of most recent roots kept queryable,
	// 0 retains all roots.
	RetainedRoots int
}

// DefaultConfig is a configuration suitable for tests and tools.
var DefaultConfig = Config{
	NodeCacheSize:    1 << 16,
	AccountCacheSize: 1 << 12,
}

// DB is a versioned authenticated store of chain state. It combines a
// single Writer advancing the state with a Reader serving queries against
// any retained root.
type DB struct {
	store   kv.Store
	history *RootHistory
	reader  *Reader
	writer  *Writer
	log     logrus.FieldLogger

	closeOnce sync.Once
	closeErr  error
}

// Open creates a chain state DB on top of the given store. The DB takes
// ownership of the store and closes it on Close.
func Open(store kv.Store, config Config, logger logrus.FieldLogger) (*DB, error) {
	log := logging.Component(logger, "chainstate")
	history, err := openRootHistory(store)
	if err != nil {
		return nil, err
	}
	nodes := smt.NewNodeStore(store, config.NodeCacheSize)
	reader, err := newReader(nodes, history, config.AccountCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create reader: %w", err)
	}
	writer := &Writer{
		store:         store,
		nodes:         nodes,
		history:       history,
		reader:        reader,
		retainedRoots: config.RetainedRoots,
		log:           log,
		buffer:        newWriteBuffer(reader),
	}
	latest := history.Latest()
	log.WithFields(logrus.Fields{
		"version": latest.Version,
		"root":    latest.Root,
		"roots":   history.Len(),
	}).Info("Opened chain state")
	return &DB{
		store:   store,
		history: history,
		reader:  reader,
		writer:  writer,
		log:     log,
	}, nil
}

// Reader returns the query interface of the DB.
func (db *DB) Reader() *Reader {
	return db.reader
}

// Writer returns the single writer of the DB.
func (db *DB) Writer() *Writer {
	return db.writer
}

// History returns the retained roots.
func (db *DB) History() *RootHistory {
	return db.history
}

// StateRoot returns the current state root.
func (db *DB) StateRoot() common.Hash {
	return db.history.Latest().Root
}

// Prune releases the retention of a historical root. Queries against the
// root fail with ErrStateRootUnavailable afterwards.
func (db *DB) Prune(root common.Hash) error {
	db.writer.mu.Lock()
	defer db.writer.mu.Unlock()
	if err := db.writer.checkOpen(); err != nil {
		return err
	}
	removed, err := db.history.Prune(root)
	if err != nil {
		return err
	}
	db.log.WithFields(logrus.Fields{"root": root, "versions": len(removed)}).Info("Pruned state root")
	return nil
}

// Close releases the underlying store. Buffered changes of the writer are
// discarded. Afterwards, queries and writes fail with ErrClosed.
func (db *DB) Close() error {
	db.closeOnce.Do(func() {
		db.writer.mu.Lock()
		db.reader.closed.Store(true)
		db.writer.buffer = newWriteBuffer(db.reader)
		db.writer.mu.Unlock()
		if err := db.store.Close(); err != nil && !errors.Is(err, kv.ErrClosed) {
			db.closeErr = fmt.Errorf("failed to close store: %w", err)
		}
		db.log.Info("Closed chain state")
	})
	return db.closeErr
}
