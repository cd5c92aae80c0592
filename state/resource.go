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
	"fmt"

	"github.com/Fantom-foundation/statequery/common"
)

// Resource is a typed value stored in an account's resource sub-tree under
// the resource's struct tag.
type Resource interface {
	StructTag() StructTag
	Encode() ([]byte, error)
}

// ResourceType is the capability required to read resources of type R: a
// pointer to R must know the tag of R and how to decode it. The tag must
// not depend on the content of the value.
//
// A typical implementation looks like this:
//
//	type Balance struct{ ... }
//	func (*Balance) StructTag() state.StructTag { return balanceTag }
//	func (b *Balance) Encode() ([]byte, error) { ... }
//	func (b *Balance) Decode(data []byte) error { ... }
type ResourceType[R any] interface {
	*R
	Resource
	Decode(data []byte) error
}

// TagOf returns the struct tag of resources of type R.
func TagOf[R any, PR ResourceType[R]]() StructTag {
	return PR(new(R)).StructTag()
}

// ResourceAccessPath returns the path of the resource of type R under the
// given account.
func ResourceAccessPath[R any, PR ResourceType[R]](addr common.Address) AccessPath {
	return NewResourceAccessPath(addr, TagOf[R, PR]())
}

// DecodeResource decodes the raw value of a resource of type R. Failures are
// reported as *DecodeError.
func DecodeResource[R any, PR ResourceType[R]](data []byte) (*R, error) {
	res := PR(new(R))
	if err := res.Decode(data); err != nil {
		return nil, &DecodeError{Tag: res.StructTag(), Err: err}
	}
	return (*R)(res), nil
}

// DecodeError reports bytes stored for a resource that cannot be decoded as
// the requested type. It is a failure of the request, not of the storage.
type DecodeError struct {
	Tag StructTag
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode resource %v: %v", e.Tag, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrResourceDecode
}
