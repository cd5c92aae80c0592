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

import "github.com/Fantom-foundation/statequery/common"

const (
	// ErrStateRootUnavailable is reported for queries against a root that
	// was never committed or has been pruned.
	ErrStateRootUnavailable = common.ConstError("state root unavailable")
	ErrPruneCurrentRoot     = common.ConstError("the current state root can not be pruned")
	ErrTableNotRegistered   = common.ConstError("table handle not registered")
	ErrTableRegistered      = common.ConstError("table handle already registered to another account")
	ErrReservedPath         = common.ConstError("access path is reserved")
	ErrCorruptedState       = common.ConstError("corrupted state")
	ErrClosed               = common.ConstError("chain state is closed")
)
