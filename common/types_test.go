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
	"errors"
	"testing"
)

func TestParseAddress_ShortFormsArePadded(t *testing.T) {
	tests := map[string]Address{
		"0x1":                                  {15: 1},
		"1":                                    {15: 1},
		"0xa550c18":                            {12: 0x0a, 13: 0x55, 14: 0x0c, 15: 0x18},
		"0x000102030405060708090a0b0c0d0e0f":   {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		"0X000102030405060708090A0B0C0D0E0F":   {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
	}
	for input, want := range tests {
		got, err := ParseAddress(input)
		if err != nil {
			t.Errorf("failed to parse %q: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("unexpected address for %q, wanted %v, got %v", input, want, got)
		}
	}
}

func TestParseAddress_InvalidInputsAreRejected(t *testing.T) {
	for _, input := range []string{"", "0x", "0xzz", "0x000102030405060708090a0b0c0d0e0f10"} {
		if _, err := ParseAddress(input); !errors.Is(err, ErrInvalidHex) {
			t.Errorf("expected ErrInvalidHex for %q, got %v", input, err)
		}
	}
}

func TestAddress_StringRoundTrip(t *testing.T) {
	addr := Address{1, 2, 3, 15: 0xff}
	parsed, err := ParseAddress(addr.String())
	if err != nil || parsed != addr {
		t.Errorf("round trip failed: %v, %v", parsed, err)
	}
}

func TestParseHash_RequiresFullLength(t *testing.T) {
	h := Sha3([]byte("x"))
	parsed, err := ParseHash(h.String())
	if err != nil || parsed != h {
		t.Errorf("round trip failed: %v, %v", parsed, err)
	}
	if _, err := ParseHash("0x01"); !errors.Is(err, ErrInvalidHex) {
		t.Errorf("short hash should be rejected, got %v", err)
	}
}

func TestHasher_DomainsAreSeparated(t *testing.T) {
	data := []byte{1, 2, 3}
	if HashKey(data) == HashValue(data) {
		t.Errorf("key and value hashes must differ")
	}
	if NewHasher("a").Hash(data) != NewHasher("a").Hash(data) {
		t.Errorf("hashing is not deterministic")
	}
	if NewHasher("a").Hash(data) == Sha3(data) {
		t.Errorf("salted hash must differ from plain hash")
	}
	if Sha3([]byte{1}, []byte{2, 3}) != Sha3(data) {
		t.Errorf("hashing of fragments should equal hashing of the concatenation")
	}
}

func TestBytesToAddress_KeepsTrailingBytes(t *testing.T) {
	in := make([]byte, 20)
	in[19] = 7
	if got := BytesToAddress(in); got != (Address{15: 7}) {
		t.Errorf("unexpected address %v", got)
	}
	if got := BytesToAddress([]byte{9}); got != (Address{15: 9}) {
		t.Errorf("unexpected address %v", got)
	}
}
