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
	"fmt"

	"github.com/Fantom-foundation/statequery/common"
)

// Tree is a read-only view of one version of a sparse Merkle tree. Since
// nodes are never modified, a Tree may be used concurrently and remains
// valid while new versions are written.
type Tree struct {
	source NodeSource
	root   common.Hash
}

// NewTree creates a view on the tree with the given root.
func NewTree(source NodeSource, root common.Hash) *Tree {
	return &Tree{source: source, root: root}
}

func (t *Tree) Root() common.Hash {
	return t.root
}

// Get returns the value stored for the key hash or nil if there is none.
func (t *Tree) Get(keyHash common.Hash) ([]byte, error) {
	leaf, _, err := t.walk(keyHash, false)
	if err != nil || leaf == nil || leaf.KeyHash != keyHash {
		return nil, err
	}
	return leafValue(leaf), nil
}

// GetWithProof returns the value stored for the key hash, or nil, together
// with a proof of membership or non-membership against the tree's root.
func (t *Tree) GetWithProof(keyHash common.Hash) ([]byte, SparseMerkleProof, error) {
	leaf, siblings, err := t.walk(keyHash, true)
	if err != nil {
		return nil, SparseMerkleProof{}, err
	}
	proof := SparseMerkleProof{Siblings: siblings}
	if leaf == nil {
		return nil, proof, nil
	}
	proof.Leaf = &LeafInfo{KeyHash: leaf.KeyHash, ValueHash: common.HashValue(leaf.Value)}
	if leaf.KeyHash != keyHash {
		return nil, proof, nil
	}
	return leafValue(leaf), proof, nil
}

// walk descends towards the key hash and returns the leaf terminating the
// path, or nil if the path ends in an empty sub-tree.
func (t *Tree) walk(keyHash common.Hash, collect bool) (*LeafNode, []common.Hash, error) {
	var siblings []common.Hash
	hash := t.root
	for depth := 0; ; depth++ {
		if hash == Placeholder {
			return nil, siblings, nil
		}
		node, err := t.source.GetNode(hash)
		if err != nil {
			return nil, nil, err
		}
		switch n := node.(type) {
		case *LeafNode:
			return n, siblings, nil
		case *InternalNode:
			if depth >= maxDepth {
				return nil, nil, fmt.Errorf("%w: tree deeper than %d levels", ErrCorruptedNode, maxDepth)
			}
			if bit(keyHash, depth) {
				if collect {
					siblings = append(siblings, n.Left)
				}
				hash = n.Right
			} else {
				if collect {
					siblings = append(siblings, n.Right)
				}
				hash = n.Left
			}
		default:
			return nil, nil, fmt.Errorf("%w: unexpected node type %T", ErrCorruptedNode, node)
		}
	}
}

// ForEach visits all leaves in ascending key hash order until fn returns false.
func (t *Tree) ForEach(fn func(leaf *LeafNode) bool) error {
	_, err := t.forEach(t.root, 0, fn)
	return err
}

func (t *Tree) forEach(hash common.Hash, depth int, fn func(*LeafNode) bool) (bool, error) {
	if hash == Placeholder {
		return true, nil
	}
	node, err := t.source.GetNode(hash)
	if err != nil {
		return false, err
	}
	switch n := node.(type) {
	case *LeafNode:
		return fn(n), nil
	case *InternalNode:
		if depth >= maxDepth {
			return false, fmt.Errorf("%w: tree deeper than %d levels", ErrCorruptedNode, maxDepth)
		}
		if cont, err := t.forEach(n.Left, depth+1, fn); !cont || err != nil {
			return cont, err
		}
		return t.forEach(n.Right, depth+1, fn)
	}
	return false, fmt.Errorf("%w: unexpected node type %T", ErrCorruptedNode, node)
}

// leafValue never returns nil for an existing leaf; nil means absent.
func leafValue(leaf *LeafNode) []byte {
	if leaf.Value == nil {
		return []byte{}
	}
	return leaf.Value
}
