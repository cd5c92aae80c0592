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
	"github.com/ethereum/go-ethereum/rlp"
)

// Placeholder is the hash of an empty sub-tree and the root of an empty tree.
var Placeholder = common.Sha3([]byte("SPARSE_MERKLE_PLACEHOLDER_HASH"))

var (
	leafHasher     = common.NewHasher("SparseMerkleLeafNode")
	internalHasher = common.NewHasher("SparseMerkleInternalNode")
)

// Node is a node of the sparse Merkle tree. Nodes are immutable and
// identified by their hash.
type Node interface {
	Hash() common.Hash
	encode() ([]byte, error)
}

// InternalNode has exactly two children. An empty child is referenced by
// the Placeholder hash. In a canonical tree every internal node covers at
// least two leaves.
type InternalNode struct {
	Left, Right common.Hash
	hash        common.Hash
}

func NewInternalNode(left, right common.Hash) *InternalNode {
	return &InternalNode{
		Left:  left,
		Right: right,
		hash:  internalHasher.Hash(left[:], right[:]),
	}
}

func (n *InternalNode) Hash() common.Hash {
	return n.hash
}

func (n *InternalNode) String() string {
	return fmt.Sprintf("Internal(%s, %s)", n.Left.ShortString(), n.Right.ShortString())
}

// LeafNode holds one key-value pair. The raw key is kept next to its hash
// so that the content of a tree can be exported.
type LeafNode struct {
	KeyHash common.Hash
	Key     []byte
	Value   []byte
	hash    common.Hash
}

func NewLeafNode(key []byte, keyHash common.Hash, value []byte) *LeafNode {
	return &LeafNode{
		KeyHash: keyHash,
		Key:     key,
		Value:   value,
		hash:    hashLeaf(keyHash, common.HashValue(value)),
	}
}

func (n *LeafNode) Hash() common.Hash {
	return n.hash
}

func (n *LeafNode) String() string {
	return fmt.Sprintf("Leaf(%s -> %d bytes)", n.KeyHash.ShortString(), len(n.Value))
}

func hashLeaf(keyHash, valueHash common.Hash) common.Hash {
	return leafHasher.Hash(keyHash[:], valueHash[:])
}

func hashInternal(left, right common.Hash) common.Hash {
	return internalHasher.Hash(left[:], right[:])
}

const (
	internalNodeTag byte = 1
	leafNodeTag     byte = 2
)

type encodedInternal struct {
	Left, Right common.Hash
}

type encodedLeaf struct {
	KeyHash common.Hash
	Key     []byte
	Value   []byte
}

func (n *InternalNode) encode() ([]byte, error) {
	data, err := rlp.EncodeToBytes(encodedInternal{Left: n.Left, Right: n.Right})
	if err != nil {
		return nil, err
	}
	return append([]byte{internalNodeTag}, data...), nil
}

func (n *LeafNode) encode() ([]byte, error) {
	data, err := rlp.EncodeToBytes(encodedLeaf{KeyHash: n.KeyHash, Key: n.Key, Value: n.Value})
	if err != nil {
		return nil, err
	}
	return append([]byte{leafNodeTag}, data...), nil
}

// EncodeNode serializes a node for storage.
func EncodeNode(n Node) ([]byte, error) {
	return n.encode()
}

// DecodeNode restores a node serialized by EncodeNode.
func DecodeNode(data []byte) (Node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorruptedNode)
	}
	switch data[0] {
	case internalNodeTag:
		var enc encodedInternal
		if err := rlp.DecodeBytes(data[1:], &enc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptedNode, err)
		}
		return NewInternalNode(enc.Left, enc.Right), nil
	case leafNodeTag:
		var enc encodedLeaf
		if err := rlp.DecodeBytes(data[1:], &enc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptedNode, err)
		}
		if enc.Value == nil {
			enc.Value = []byte{}
		}
		return NewLeafNode(enc.Key, enc.KeyHash, enc.Value), nil
	}
	return nil, fmt.Errorf("%w: unknown node tag %d", ErrCorruptedNode, data[0])
}

// bit returns the i-th bit of the hash, most significant bit first.
func bit(h common.Hash, i int) bool {
	return h[i/8]&(0x80>>(i%8)) != 0
}

// commonPrefixBits returns the number of leading bits shared by a and b.
func commonPrefixBits(a, b common.Hash) int {
	for i := 0; i < common.HashSize; i++ {
		if x := a[i] ^ b[i]; x != 0 {
			n := 0
			for x&0x80 == 0 {
				x <<= 1
				n++
			}
			return i*8 + n
		}
	}
	return common.HashSize * 8
}
