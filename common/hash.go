// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

var sha3HasherPool = sync.Pool{New: func() any { return sha3.New256() }}

// Sha3 computes the SHA3-256 digest of the concatenation of the given slices.
func Sha3(data ...[]byte) Hash {
	hasher := sha3HasherPool.Get().(hash.Hash)
	hasher.Reset()
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	sha3HasherPool.Put(hasher)
	return res
}

// Hasher is a domain separated SHA3-256 hasher. Every digest is prefixed
// with a salt derived from the domain name so that digests of different
// kinds of objects can never collide.
type Hasher struct {
	salt Hash
}

// NewHasher creates a hasher for the given domain.
func NewHasher(domain string) Hasher {
	return Hasher{salt: Sha3([]byte("STATEQUERY::" + domain))}
}

// Hash computes the salted digest of the concatenation of the given slices.
func (h Hasher) Hash(data ...[]byte) Hash {
	hasher := sha3HasherPool.Get().(hash.Hash)
	hasher.Reset()
	hasher.Write(h.salt[:])
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	sha3HasherPool.Put(hasher)
	return res
}

var (
	keyHasher   = NewHasher("StateKey")
	valueHasher = NewHasher("StateValue")
)

// HashKey computes the tree position of a raw state key.
func HashKey(key []byte) Hash {
	return keyHasher.Hash(key)
}

// HashValue computes the digest of a raw state value as committed in tree leaves.
func HashValue(value []byte) Hash {
	return valueHasher.Hash(value)
}
