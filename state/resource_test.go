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

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Fantom-foundation/statequery/common"
)

var testResourceTag = StructTag{Address: common.Address{15: 1}, Module: "Test", Name: "Counter"}

// testResource is a single non-zero byte.
type testResource struct {
	value byte
}

func (*testResource) StructTag() StructTag {
	return testResourceTag
}

func (r *testResource) Encode() ([]byte, error) {
	if r.value == 0 {
		return nil, fmt.Errorf("zero value")
	}
	return []byte{r.value}, nil
}

func (r *testResource) Decode(data []byte) error {
	if len(data) != 1 || data[0] == 0 {
		return fmt.Errorf("invalid encoding %x", data)
	}
	r.value = data[0]
	return nil
}

func TestDecodeResource_ValidInput(t *testing.T) {
	res, err := DecodeResource[testResource]([]byte{5})
	if err != nil || res.value != 5 {
		t.Errorf("unexpected result %v, %v", res, err)
	}
}

func TestDecodeResource_FailuresAreDecodeErrors(t *testing.T) {
	for _, data := range [][]byte{nil, {}, {0}, {1, 2}} {
		res, err := DecodeResource[testResource](data)
		if res != nil {
			t.Errorf("unexpected result for %x: %v", data, res)
		}
		if !errors.Is(err, ErrResourceDecode) {
			t.Errorf("expected ErrResourceDecode for %x, got %v", data, err)
		}
		var decodeErr *DecodeError
		if !errors.As(err, &decodeErr) || decodeErr.Tag != testResourceTag {
			t.Errorf("expected DecodeError with tag, got %v", err)
		}
	}
}

func TestTagOf_ReturnsTagOfType(t *testing.T) {
	if got := TagOf[testResource](); got != testResourceTag {
		t.Errorf("unexpected tag %v", got)
	}
	path := ResourceAccessPath[testResource](common.Address{1})
	if !path.Equal(NewResourceAccessPath(common.Address{1}, testResourceTag)) {
		t.Errorf("unexpected path %v", path)
	}
}
