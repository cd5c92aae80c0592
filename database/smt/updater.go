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

// Updater derives a new tree version from an existing root. Updates never
// modify existing nodes; new nodes are kept in memory until they are
// collected with Nodes and persisted by the caller. An Updater is not safe
// for concurrent use.
type Updater struct {
	source  NodeSource
	root    common.Hash
	pending map[common.Hash]Node
}

func NewUpdater(source NodeSource, root common.Hash) *Updater {
	return &Updater{
		source:  source,
		root:    root,
		pending: map[common.Hash]Node{},
	}
}

// Root returns the root reflecting all updates applied so far.
func (u *Updater) Root() common.Hash {
	return u.root
}

// Put sets the value of a key. The key hash determines the position in the tree.
func (u *Updater) Put(key []byte, keyHash common.Hash, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	root, err := u.insert(u.root, 0, NewLeafNode(key, keyHash, value))
	if err != nil {
		return err
	}
	u.root = root
	return nil
}

// Delete removes the key with the given hash. Deleting an absent key is a no-op.
func (u *Updater) Delete(keyHash common.Hash) error {
	root, err := u.delete(u.root, 0, keyHash)
	if err != nil {
		return err
	}
	u.root = root
	return nil
}

// Nodes returns the new nodes reachable from the current root. Nodes created
// by intermediate updates and no longer referenced are omitted.
func (u *Updater) Nodes() map[common.Hash]Node {
	res := map[common.Hash]Node{}
	var collect func(hash common.Hash)
	collect = func(hash common.Hash) {
		node, found := u.pending[hash]
		if !found {
			return
		}
		if _, seen := res[hash]; seen {
			return
		}
		res[hash] = node
		if n, ok := node.(*InternalNode); ok {
			collect(n.Left)
			collect(n.Right)
		}
	}
	collect(u.root)
	return res
}

func (u *Updater) getNode(hash common.Hash) (Node, error) {
	if node, found := u.pending[hash]; found {
		return node, nil
	}
	return u.source.GetNode(hash)
}

func (u *Updater) add(node Node) common.Hash {
	hash := node.Hash()
	u.pending[hash] = node
	return hash
}

func (u *Updater) insert(hash common.Hash, depth int, leaf *LeafNode) (common.Hash, error) {
	if hash == Placeholder {
		return u.add(leaf), nil
	}
	node, err := u.getNode(hash)
	if err != nil {
		return common.Hash{}, err
	}
	switch n := node.(type) {
	case *LeafNode:
		if n.KeyHash == leaf.KeyHash {
			return u.add(leaf), nil
		}
		return u.split(n, leaf, depth)
	case *InternalNode:
		if depth >= maxDepth {
			return common.Hash{}, fmt.Errorf("%w: tree deeper than %d levels", ErrCorruptedNode, maxDepth)
		}
		if bit(leaf.KeyHash, depth) {
			right, err := u.insert(n.Right, depth+1, leaf)
			if err != nil {
				return common.Hash{}, err
			}
			return u.add(NewInternalNode(n.Left, right)), nil
		}
		left, err := u.insert(n.Left, depth+1, leaf)
		if err != nil {
			return common.Hash{}, err
		}
		return u.add(NewInternalNode(left, n.Right)), nil
	}
	return common.Hash{}, fmt.Errorf("%w: unexpected node type %T", ErrCorruptedNode, node)
}

// split creates the internal nodes separating two leaves sharing the
// first depth bits of their key hashes.
func (u *Updater) split(existing, leaf *LeafNode, depth int) (common.Hash, error) {
	if depth >= maxDepth {
		return common.Hash{}, fmt.Errorf("%w: distinct keys with equal hash", ErrCorruptedNode)
	}
	existingBit, newBit := bit(existing.KeyHash, depth), bit(leaf.KeyHash, depth)
	if existingBit == newBit {
		child, err := u.split(existing, leaf, depth+1)
		if err != nil {
			return common.Hash{}, err
		}
		if newBit {
			return u.add(NewInternalNode(Placeholder, child)), nil
		}
		return u.add(NewInternalNode(child, Placeholder)), nil
	}
	if newBit {
		return u.add(NewInternalNode(existing.Hash(), u.add(leaf))), nil
	}
	return u.add(NewInternalNode(u.add(leaf), existing.Hash())), nil
}

func (u *Updater) delete(hash common.Hash, depth int, keyHash common.Hash) (common.Hash, error) {
	if hash == Placeholder {
		return hash, nil
	}
	node, err := u.getNode(hash)
	if err != nil {
		return common.Hash{}, err
	}
	switch n := node.(type) {
	case *LeafNode:
		if n.KeyHash == keyHash {
			return Placeholder, nil
		}
		return hash, nil
	case *InternalNode:
		if depth >= maxDepth {
			return common.Hash{}, fmt.Errorf("%w: tree deeper than %d levels", ErrCorruptedNode, maxDepth)
		}
		left, right := n.Left, n.Right
		if bit(keyHash, depth) {
			right, err = u.delete(right, depth+1, keyHash)
		} else {
			left, err = u.delete(left, depth+1, keyHash)
		}
		if err != nil {
			return common.Hash{}, err
		}
		if left == n.Left && right == n.Right {
			return hash, nil
		}
		return u.canonical(left, right)
	}
	return common.Hash{}, fmt.Errorf("%w: unexpected node type %T", ErrCorruptedNode, node)
}

// canonical builds the node for the given children, collapsing sub-trees
// holding a single leaf so that the root only depends on the tree content.
func (u *Updater) canonical(left, right common.Hash) (common.Hash, error) {
	switch {
	case left == Placeholder && right == Placeholder:
		return Placeholder, nil
	case left == Placeholder:
		if leaf, err := u.isLeaf(right); err != nil || leaf {
			return right, err
		}
	case right == Placeholder:
		if leaf, err := u.isLeaf(left); err != nil || leaf {
			return left, err
		}
	}
	return u.add(NewInternalNode(left, right)), nil
}

func (u *Updater) isLeaf(hash common.Hash) (bool, error) {
	node, err := u.getNode(hash)
	if err != nil {
		return false, err
	}
	_, ok := node.(*LeafNode)
	return ok, nil
}
