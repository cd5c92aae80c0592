// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package state

import "github.com/Fantom-foundation/statequery/common"

const (
	ErrInvalidAccessPath   = common.ConstError("invalid access path")
	ErrInvalidStructTag    = common.ConstError("invalid struct tag")
	ErrInvalidAccountState = common.ConstError("invalid account state encoding")
	ErrInvalidWriteSet     = common.ConstError("invalid write set")
	// ErrResourceDecode is matched by every *DecodeError.
	ErrResourceDecode = common.ConstError("failed to decode resource")
)
