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

import "github.com/Fantom-foundation/statequery/common"

const (
	// ErrMissingNode is reported if a node referenced by a tree is not in the store.
	ErrMissingNode = common.ConstError("smt: missing node")
	// ErrCorruptedNode is reported if a stored node cannot be decoded or the
	// tree structure is inconsistent.
	ErrCorruptedNode = common.ConstError("smt: corrupted node")
	// ErrInvalidProof is reported if a proof does not verify.
	ErrInvalidProof = common.ConstError("smt: invalid proof")
)

// maxDepth is the number of bits of a key hash and thus the maximum depth of a tree.
const maxDepth = common.HashSize * 8
