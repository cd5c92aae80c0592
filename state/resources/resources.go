// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package resources contains well-known resource types stored under user
// accounts.
package resources

import (
	"fmt"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// CoreAddress is the account defining the resource types of this package.
var CoreAddress = common.Address{15: 1}

var (
	BalanceTag = state.StructTag{Address: CoreAddress, Module: "Account", Name: "Balance"}
	AccountTag = state.StructTag{Address: CoreAddress, Module: "Account", Name: "Account"}
)

const balanceSize = 32

// Balance is the token balance of an account. It is encoded as a 32-byte
// big-endian amount.
type Balance struct {
	Amount uint256.Int
}

// NewBalance creates a balance of the given amount.
func NewBalance(amount uint64) *Balance {
	res := &Balance{}
	res.Amount.SetUint64(amount)
	return res
}

func (*Balance) StructTag() state.StructTag {
	return BalanceTag
}

func (b *Balance) Encode() ([]byte, error) {
	res := b.Amount.Bytes32()
	return res[:], nil
}

func (b *Balance) Decode(data []byte) error {
	if len(data) != balanceSize {
		return fmt.Errorf("balance must have %d bytes, got %d", balanceSize, len(data))
	}
	b.Amount.SetBytes32(data)
	return nil
}

func (b *Balance) String() string {
	return b.Amount.ToBig().String()
}

// Account is the core resource of an account, holding its authentication
// key and the number of transactions sent.
type Account struct {
	AuthenticationKey []byte
	SequenceNumber    uint64
}

func (*Account) StructTag() state.StructTag {
	return AccountTag
}

func (a *Account) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

func (a *Account) Decode(data []byte) error {
	return rlp.DecodeBytes(data, a)
}
