// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package resources

import (
	"errors"
	"testing"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/stretchr/testify/require"
)

func TestBalance_EncodingRoundTrip(t *testing.T) {
	data, err := NewBalance(1234).Encode()
	require.NoError(t, err)
	require.Len(t, data, balanceSize)

	restored, err := state.DecodeResource[Balance](data)
	require.NoError(t, err)
	require.Equal(t, uint64(1234), restored.Amount.Uint64())
	require.Equal(t, "1234", restored.String())
}

func TestBalance_MalformedInputIsDecodeError(t *testing.T) {
	_, err := state.DecodeResource[Balance]([]byte{1, 2, 3})
	require.True(t, errors.Is(err, state.ErrResourceDecode))

	var decodeErr *state.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	require.Equal(t, BalanceTag, decodeErr.Tag)
}

func TestAccount_EncodingRoundTrip(t *testing.T) {
	account := &Account{AuthenticationKey: []byte{1, 2, 3}, SequenceNumber: 7}
	data, err := account.Encode()
	require.NoError(t, err)

	restored, err := state.DecodeResource[Account](data)
	require.NoError(t, err)
	require.Equal(t, account, restored)

	_, err = state.DecodeResource[Account]([]byte{0xff})
	require.ErrorIs(t, err, state.ErrResourceDecode)
}

func TestTags_AreDistinctAndParsable(t *testing.T) {
	require.NotEqual(t, BalanceTag.String(), AccountTag.String())
	parsed, err := state.ParseStructTag("0x1::Account::Balance")
	require.NoError(t, err)
	require.Equal(t, BalanceTag, parsed)

	path := state.ResourceAccessPath[Balance](common.Address{15: 2})
	tag, ok := path.Path.StructTag()
	require.True(t, ok)
	require.Equal(t, BalanceTag, tag)
}
