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
	"testing"

	"github.com/Fantom-foundation/statequery/common"
)

func buildProofTestTree(t *testing.T) (*Tree, map[string][]byte) {
	t.Helper()
	store := newTestStore()
	content := map[string][]byte{}
	for i := 0; i < 64; i++ {
		content[fmt.Sprintf("key-%d", i)] = []byte(fmt.Sprintf("value-%d", i))
	}
	return NewTree(store, build(t, store, Placeholder, content)), content
}

func TestProof_MembershipProofsVerify(t *testing.T) {
	tree, content := buildProofTestTree(t)
	for key, want := range content {
		keyHash := common.HashKey([]byte(key))
		value, proof, err := tree.GetWithProof(keyHash)
		if err != nil {
			t.Fatalf("failed to get proof for %s: %v", key, err)
		}
		if string(value) != string(want) {
			t.Errorf("unexpected value for %s: %s", key, value)
		}
		if err := proof.Verify(tree.Root(), keyHash, want); err != nil {
			t.Errorf("valid proof for %s rejected: %v", key, err)
		}
		if proof.IsValid(tree.Root(), keyHash, nil) {
			t.Errorf("membership proof for %s accepted as non-membership", key)
		}
		if proof.IsValid(tree.Root(), keyHash, []byte("other")) {
			t.Errorf("proof for %s accepted with wrong value", key)
		}
	}
}

func TestProof_NonMembershipProofsVerify(t *testing.T) {
	tree, _ := buildProofTestTree(t)
	for i := 0; i < 64; i++ {
		keyHash := common.HashKey([]byte(fmt.Sprintf("missing-%d", i)))
		value, proof, err := tree.GetWithProof(keyHash)
		if err != nil {
			t.Fatalf("failed to get proof: %v", err)
		}
		if value != nil {
			t.Errorf("unexpected value for missing key: %v", value)
		}
		if err := proof.Verify(tree.Root(), keyHash, nil); err != nil {
			t.Errorf("valid non-membership proof rejected: %v\n%v", err, proof)
		}
		if proof.IsValid(tree.Root(), keyHash, []byte{}) {
			t.Errorf("non-membership proof accepted as membership")
		}
	}
}

func TestProof_EmptyTreeProvesAbsence(t *testing.T) {
	tree := NewTree(newTestStore(), Placeholder)
	keyHash := common.HashKey([]byte("a"))
	_, proof, err := tree.GetWithProof(keyHash)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if proof.Leaf != nil || len(proof.Siblings) != 0 {
		t.Errorf("empty tree should produce an empty proof, got %v", proof)
	}
	if err := proof.Verify(Placeholder, keyHash, nil); err != nil {
		t.Errorf("absence in empty tree not proven: %v", err)
	}
}

func TestProof_SingleLeafTree(t *testing.T) {
	store := newTestStore()
	root := build(t, store, Placeholder, map[string][]byte{"a": {1}})
	tree := NewTree(store, root)

	_, proof, err := tree.GetWithProof(common.HashKey([]byte("a")))
	if err != nil || len(proof.Siblings) != 0 {
		t.Fatalf("unexpected proof for single leaf: %v, %v", proof, err)
	}
	if err := proof.Verify(root, common.HashKey([]byte("a")), []byte{1}); err != nil {
		t.Errorf("single leaf proof rejected: %v", err)
	}

	// any other key ends in the same leaf and is proven absent by it
	other := common.HashKey([]byte("b"))
	_, proof, err = tree.GetWithProof(other)
	if err != nil || proof.Leaf == nil {
		t.Fatalf("unexpected absence proof: %v, %v", proof, err)
	}
	if err := proof.Verify(root, other, nil); err != nil {
		t.Errorf("absence proof rejected: %v", err)
	}
}

func TestProof_ProofsAreBoundToTheirRoot(t *testing.T) {
	store := newTestStore()
	v1 := build(t, store, Placeholder, map[string][]byte{"a": {1}, "b": {2}})
	v2 := build(t, store, v1, map[string][]byte{"a": {3}})
	keyHash := common.HashKey([]byte("a"))

	_, proof, err := NewTree(store, v1).GetWithProof(keyHash)
	if err != nil {
		t.Fatalf("failed to get proof: %v", err)
	}
	if err := proof.Verify(v1, keyHash, []byte{1}); err != nil {
		t.Errorf("proof rejected for its own root: %v", err)
	}
	if err := proof.Verify(v2, keyHash, []byte{1}); !errors.Is(err, ErrInvalidProof) {
		t.Errorf("proof accepted for a different root: %v", err)
	}
}

func TestProof_TamperedProofsAreRejected(t *testing.T) {
	tree, content := buildProofTestTree(t)
	key := "key-7"
	keyHash := common.HashKey([]byte(key))
	_, proof, err := tree.GetWithProof(keyHash)
	if err != nil || len(proof.Siblings) == 0 {
		t.Fatalf("unexpected proof: %v, %v", proof, err)
	}

	tests := map[string]func(p *SparseMerkleProof){
		"flipped sibling": func(p *SparseMerkleProof) {
			p.Siblings[len(p.Siblings)-1][0] ^= 1
		},
		"dropped sibling": func(p *SparseMerkleProof) {
			p.Siblings = p.Siblings[1:]
		},
		"extra sibling": func(p *SparseMerkleProof) {
			p.Siblings = append(p.Siblings, Placeholder)
		},
		"wrong leaf key": func(p *SparseMerkleProof) {
			p.Leaf.KeyHash[31] ^= 1
		},
		"removed leaf": func(p *SparseMerkleProof) {
			p.Leaf = nil
		},
		"too deep": func(p *SparseMerkleProof) {
			p.Siblings = make([]common.Hash, maxDepth+1)
		},
	}
	for name, tamper := range tests {
		t.Run(name, func(t *testing.T) {
			copied := SparseMerkleProof{Siblings: append([]common.Hash(nil), proof.Siblings...)}
			leaf := *proof.Leaf
			copied.Leaf = &leaf
			tamper(&copied)
			if err := copied.Verify(tree.Root(), keyHash, content[key]); !errors.Is(err, ErrInvalidProof) {
				t.Errorf("tampered proof accepted: %v", err)
			}
		})
	}
}

func TestProof_EqualsComparesContent(t *testing.T) {
	tree, _ := buildProofTestTree(t)
	_, a, _ := tree.GetWithProof(common.HashKey([]byte("key-1")))
	_, b, _ := tree.GetWithProof(common.HashKey([]byte("key-1")))
	_, c, _ := tree.GetWithProof(common.HashKey([]byte("key-2")))
	if !a.Equals(b) {
		t.Errorf("equal proofs reported different")
	}
	if a.Equals(c) {
		t.Errorf("different proofs reported equal")
	}
}
