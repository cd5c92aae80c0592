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
	"strings"

	"github.com/Fantom-foundation/statequery/common"
)

// LeafInfo is the part of a leaf committed to by its hash.
type LeafInfo struct {
	KeyHash   common.Hash
	ValueHash common.Hash
}

func (l LeafInfo) Hash() common.Hash {
	return hashLeaf(l.KeyHash, l.ValueHash)
}

// SparseMerkleProof proves the presence or absence of a key in a tree with a
// known root. Siblings are ordered from the root towards the leaf. Leaf is
// the leaf terminating the path of the key, which for a non-membership proof
// is either nil (the path ends in an empty sub-tree) or a leaf of another key
// sharing the path prefix.
type SparseMerkleProof struct {
	Leaf     *LeafInfo
	Siblings []common.Hash
}

// Verify checks that the proof attests value for keyHash under root. A nil
// value requests verification of non-membership. Verification is a pure
// function of its inputs.
func (p SparseMerkleProof) Verify(root common.Hash, keyHash common.Hash, value []byte) error {
	if len(p.Siblings) > maxDepth {
		return fmt.Errorf("%w: %d siblings exceed the maximum depth", ErrInvalidProof, len(p.Siblings))
	}

	if value != nil {
		if p.Leaf == nil {
			return fmt.Errorf("%w: expected membership proof, found empty sub-tree", ErrInvalidProof)
		}
		if p.Leaf.KeyHash != keyHash {
			return fmt.Errorf("%w: expected membership proof, found leaf of key %v", ErrInvalidProof, p.Leaf.KeyHash)
		}
		if p.Leaf.ValueHash != common.HashValue(value) {
			return fmt.Errorf("%w: value hash mismatch", ErrInvalidProof)
		}
	} else if p.Leaf != nil {
		if p.Leaf.KeyHash == keyHash {
			return fmt.Errorf("%w: expected non-membership proof, key is present", ErrInvalidProof)
		}
		if commonPrefixBits(p.Leaf.KeyHash, keyHash) < len(p.Siblings) {
			return fmt.Errorf("%w: leaf %v is not on the path of the key", ErrInvalidProof, p.Leaf.KeyHash)
		}
	}

	current := Placeholder
	if p.Leaf != nil {
		current = p.Leaf.Hash()
	}
	for i := len(p.Siblings) - 1; i >= 0; i-- {
		if bit(keyHash, i) {
			current = hashInternal(p.Siblings[i], current)
		} else {
			current = hashInternal(current, p.Siblings[i])
		}
	}
	if current != root {
		return fmt.Errorf("%w: computed root %v, expected %v", ErrInvalidProof, current, root)
	}
	return nil
}

// IsValid is a boolean form of Verify.
func (p SparseMerkleProof) IsValid(root common.Hash, keyHash common.Hash, value []byte) bool {
	return p.Verify(root, keyHash, value) == nil
}

// Equals returns true if both proofs have the same content.
func (p SparseMerkleProof) Equals(other SparseMerkleProof) bool {
	if (p.Leaf == nil) != (other.Leaf == nil) {
		return false
	}
	if p.Leaf != nil && *p.Leaf != *other.Leaf {
		return false
	}
	if len(p.Siblings) != len(other.Siblings) {
		return false
	}
	for i := range p.Siblings {
		if p.Siblings[i] != other.Siblings[i] {
			return false
		}
	}
	return true
}

func (p SparseMerkleProof) String() string {
	var b strings.Builder
	if p.Leaf == nil {
		b.WriteString("leaf: <empty>\n")
	} else {
		b.WriteString(fmt.Sprintf("leaf: %v -> %v\n", p.Leaf.KeyHash, p.Leaf.ValueHash))
	}
	for i, s := range p.Siblings {
		b.WriteString(fmt.Sprintf("%3d: %v\n", i, s))
	}
	return b.String()
}
