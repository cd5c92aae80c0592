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
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// HashSize is the number of bytes of a Hash.
	HashSize = 32
	// AddressSize is the number of bytes of an account Address.
	AddressSize = 16
	// TableHandleSize is the number of bytes of a TableHandle.
	TableHandleSize = 16
)

// Hash is a 32-byte cryptographic digest. State roots, node identifiers
// and key hashes are all represented by this type.
type Hash [HashSize]byte

// Address identifies an account in the state tree.
type Address [AddressSize]byte

// TableHandle is an opaque identifier of a table instance. A handle is
// resolved to its owning account through the table handle registry.
type TableHandle [TableHandleSize]byte

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// ShortString renders the last four bytes of the hash, for logging.
func (h Hash) ShortString() string {
	return fmt.Sprintf("%x", h[HashSize-4:])
}

// Compare orders hashes lexicographically.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	res := make([]byte, AddressSize)
	copy(res, a[:])
	return res
}

func (t TableHandle) String() string {
	return "0x" + hex.EncodeToString(t[:])
}

func (t TableHandle) Bytes() []byte {
	res := make([]byte, TableHandleSize)
	copy(res, t[:])
	return res
}

// ParseHash parses a 0x-prefixed or plain hex string of exactly 32 bytes.
func ParseHash(s string) (Hash, error) {
	var res Hash
	raw, err := decodeHex(s)
	if err != nil {
		return res, err
	}
	if len(raw) != HashSize {
		return res, fmt.Errorf("%w: hash must have %d bytes, got %d", ErrInvalidHex, HashSize, len(raw))
	}
	copy(res[:], raw)
	return res, nil
}

// ParseAddress parses a hex address. Short forms like 0x1 are left-padded
// with zeros.
func ParseAddress(s string) (Address, error) {
	var res Address
	if err := parsePadded(s, res[:]); err != nil {
		return res, err
	}
	return res, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// It is intended for constants.
func MustParseAddress(s string) Address {
	res, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return res
}

// ParseTableHandle parses a hex table handle, accepting short forms.
func ParseTableHandle(s string) (TableHandle, error) {
	var res TableHandle
	if err := parsePadded(s, res[:]); err != nil {
		return res, err
	}
	return res, nil
}

// BytesToHash copies b into a Hash. Longer inputs keep their trailing bytes.
func BytesToHash(b []byte) Hash {
	var res Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(res[HashSize-len(b):], b)
	return res
}

// BytesToAddress copies b into an Address. Longer inputs keep their trailing bytes.
func BytesToAddress(b []byte) Address {
	var res Address
	if len(b) > AddressSize {
		b = b[len(b)-AddressSize:]
	}
	copy(res[AddressSize-len(b):], b)
	return res
}

func parsePadded(s string, out []byte) error {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(digits) == 0 {
		return fmt.Errorf("%w: empty input", ErrInvalidHex)
	}
	if len(digits) > 2*len(out) {
		return fmt.Errorf("%w: %q exceeds %d bytes", ErrInvalidHex, s, len(out))
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	copy(out[len(out)-len(raw):], raw)
	return nil
}

func decodeHex(s string) ([]byte, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return raw, nil
}

// ParseBytes decodes a hex string with an optional 0x prefix. The empty
// string and "0x" decode to an empty slice.
func ParseBytes(s string) ([]byte, error) {
	return decodeHex(s)
}
