// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package smt

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/common"
	lru "github.com/hashicorp/golang-lru/v2"
)

//go:generate mockgen -source node_store.go -destination node_store_mocks.go -package smt

// NodeSource provides read access to tree nodes by their hash.
type NodeSource interface {
	// GetNode returns the node with the given hash. Implementations must
	// report absent nodes with an error matching ErrMissingNode.
	GetNode(hash common.Hash) (Node, error)
}

// nodeKeyPrefix is the key space of tree nodes in the kv store.
var nodeKeyPrefix = []byte("n/")

// NodeStore is a content addressed NodeSource backed by a kv.Store with an
// LRU cache of decoded nodes. Since nodes are immutable, cached nodes never
// need invalidation and the store can be shared by any number of readers.
type NodeStore struct {
	db    kv.Store
	cache *lru.Cache[common.Hash, Node]
}

// NewNodeStore creates a node store on top of db caching up to cacheSize nodes.
func NewNodeStore(db kv.Store, cacheSize int) *NodeStore {
	// lru.New only fails for non-positive sizes
	cache, _ := lru.New[common.Hash, Node](max(cacheSize, 1))
	return &NodeStore{db: db, cache: cache}
}

func nodeKey(hash common.Hash) []byte {
	return append(append(make([]byte, 0, len(nodeKeyPrefix)+common.HashSize), nodeKeyPrefix...), hash[:]...)
}

func (s *NodeStore) GetNode(hash common.Hash) (Node, error) {
	if node, found := s.cache.Get(hash); found {
		return node, nil
	}
	data, err := s.db.Get(nodeKey(hash))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrMissingNode, hash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node %v: %w", hash, err)
	}
	node, err := DecodeNode(data)
	if err != nil {
		return nil, err
	}
	if node.Hash() != hash {
		return nil, fmt.Errorf("%w: node stored under %v hashes to %v", ErrCorruptedNode, hash, node.Hash())
	}
	s.cache.Add(hash, node)
	return node, nil
}

// AddNodes records the given nodes in batch. The nodes become visible once
// the batch is written to the underlying store.
func (s *NodeStore) AddNodes(batch *kv.Batch, nodes map[common.Hash]Node) error {
	for hash, node := range nodes {
		data, err := EncodeNode(node)
		if err != nil {
			return fmt.Errorf("failed to encode node %v: %w", hash, err)
		}
		batch.Put(nodeKey(hash), data)
	}
	return nil
}

// WriteNodes persists the given nodes immediately.
func (s *NodeStore) WriteNodes(nodes map[common.Hash]Node) error {
	batch := kv.NewBatch()
	if err := s.AddNodes(batch, nodes); err != nil {
		return err
	}
	return s.db.Write(batch)
}
