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
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Fantom-foundation/statequery/common"
)

// DataType discriminates the two kinds of data an account may own. Each
// kind is kept in its own sub-tree below the account's leaf.
type DataType uint8

const (
	DataTypeResource DataType = 1
	DataTypeTable    DataType = 2
)

// numDataTypes is the number of sub-trees an account may have.
const numDataTypes = 2

func (t DataType) String() string {
	switch t {
	case DataTypeResource:
		return "Resource"
	case DataTypeTable:
		return "Table"
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Valid reports whether t is one of the known data types.
func (t DataType) Valid() bool {
	return t == DataTypeResource || t == DataTypeTable
}

// index is the position of the data type's sub-tree root in an AccountState.
func (t DataType) index() int {
	return int(t) - 1
}

// StructTag names a resource type, rendered as <address>::<module>::<name>.
type StructTag struct {
	Address common.Address
	Module  string
	Name    string
}

func (t StructTag) String() string {
	return t.Address.String() + "::" + t.Module + "::" + t.Name
}

// ParseStructTag parses the textual form of a struct tag. The address may be
// given in short form, e.g. 0x1::Account::Balance.
func ParseStructTag(s string) (StructTag, error) {
	parts := strings.Split(s, "::")
	if len(parts) != 3 {
		return StructTag{}, fmt.Errorf("%w: %q", ErrInvalidStructTag, s)
	}
	addr, err := common.ParseAddress(parts[0])
	if err != nil {
		return StructTag{}, fmt.Errorf("%w: %q: %v", ErrInvalidStructTag, s, err)
	}
	if !isIdentifier(parts[1]) || !isIdentifier(parts[2]) {
		return StructTag{}, fmt.Errorf("%w: %q", ErrInvalidStructTag, s)
	}
	return StructTag{Address: addr, Module: parts[1], Name: parts[2]}, nil
}

func isIdentifier(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// DataPath locates a value within an account: either a resource identified
// by its struct tag or an item of a table identified by handle and key.
type DataPath struct {
	typ    DataType
	tag    StructTag
	handle common.TableHandle
	key    []byte
}

// ResourcePath creates the data path of a resource.
func ResourcePath(tag StructTag) DataPath {
	return DataPath{typ: DataTypeResource, tag: tag}
}

// TableItemPath creates the data path of a table item.
func TableItemPath(handle common.TableHandle, key []byte) DataPath {
	return DataPath{typ: DataTypeTable, handle: handle, key: bytes.Clone(key)}
}

func (p DataPath) Type() DataType {
	return p.typ
}

// StructTag returns the tag of a resource path.
func (p DataPath) StructTag() (StructTag, bool) {
	return p.tag, p.typ == DataTypeResource
}

// TableItem returns handle and key of a table item path.
func (p DataPath) TableItem() (common.TableHandle, []byte, bool) {
	return p.handle, p.key, p.typ == DataTypeTable
}

// Key returns the raw key of the path within the account's sub-tree of
// the path's data type.
func (p DataPath) Key() []byte {
	if p.typ == DataTypeTable {
		res := make([]byte, 0, common.TableHandleSize+len(p.key))
		res = append(res, p.handle[:]...)
		return append(res, p.key...)
	}
	return []byte(p.tag.String())
}

// KeyHash returns the position of the path within the account's sub-tree.
func (p DataPath) KeyHash() common.Hash {
	return common.HashKey(p.Key())
}

func (p DataPath) Equal(other DataPath) bool {
	return p.typ == other.typ && bytes.Equal(p.Key(), other.Key())
}

// Compare orders paths by data type first and raw key second.
func (p DataPath) Compare(other DataPath) int {
	if p.typ != other.typ {
		if p.typ < other.typ {
			return -1
		}
		return 1
	}
	return bytes.Compare(p.Key(), other.Key())
}

func (p DataPath) String() string {
	switch p.typ {
	case DataTypeResource:
		return fmt.Sprintf("%d/%v", p.typ, p.tag)
	case DataTypeTable:
		return fmt.Sprintf("%d/%v/0x%x", p.typ, p.handle, p.key)
	}
	return fmt.Sprintf("%d/?", p.typ)
}

// AccessPath identifies a single value in the state: an account together
// with the location of the value within the account.
type AccessPath struct {
	Address common.Address
	Path    DataPath
}

// NewResourceAccessPath creates the path of the resource with the given tag
// stored under the given account.
func NewResourceAccessPath(addr common.Address, tag StructTag) AccessPath {
	return AccessPath{Address: addr, Path: ResourcePath(tag)}
}

// NewTableItemAccessPath creates the path of a table item stored under the
// table's owner.
func NewTableItemAccessPath(owner common.Address, handle common.TableHandle, key []byte) AccessPath {
	return AccessPath{Address: owner, Path: TableItemPath(handle, key)}
}

func (p AccessPath) String() string {
	return p.Address.String() + "/" + p.Path.String()
}

func (p AccessPath) Equal(other AccessPath) bool {
	return p.Address == other.Address && p.Path.Equal(other.Path)
}

func (p AccessPath) Compare(other AccessPath) int {
	if c := bytes.Compare(p.Address[:], other.Address[:]); c != 0 {
		return c
	}
	return p.Path.Compare(other.Path)
}

// ParseAccessPath parses the textual form produced by AccessPath.String:
//
//	<address>/1/<struct tag>
//	<address>/2/<table handle>/<hex key>
func ParseAccessPath(s string) (AccessPath, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 {
		return AccessPath{}, fmt.Errorf("%w: %q", ErrInvalidAccessPath, s)
	}
	addr, err := common.ParseAddress(parts[0])
	if err != nil {
		return AccessPath{}, fmt.Errorf("%w: %q: %v", ErrInvalidAccessPath, s, err)
	}
	code, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil || !DataType(code).Valid() {
		return AccessPath{}, fmt.Errorf("%w: %q: unknown data type %q", ErrInvalidAccessPath, s, parts[1])
	}
	switch DataType(code) {
	case DataTypeResource:
		tag, err := ParseStructTag(parts[2])
		if err != nil {
			return AccessPath{}, fmt.Errorf("%w: %q: %v", ErrInvalidAccessPath, s, err)
		}
		return NewResourceAccessPath(addr, tag), nil
	default:
		item := strings.SplitN(parts[2], "/", 2)
		if len(item) != 2 {
			return AccessPath{}, fmt.Errorf("%w: %q: missing table key", ErrInvalidAccessPath, s)
		}
		handle, err := common.ParseTableHandle(item[0])
		if err != nil {
			return AccessPath{}, fmt.Errorf("%w: %q: %v", ErrInvalidAccessPath, s, err)
		}
		key, err := common.ParseBytes(item[1])
		if err != nil {
			return AccessPath{}, fmt.Errorf("%w: %q: %v", ErrInvalidAccessPath, s, err)
		}
		return NewTableItemAccessPath(addr, handle, key), nil
	}
}

// SystemTableAddress is the reserved account holding the table handle registry.
var SystemTableAddress = common.MustParseAddress("0x0000000000000000000000000a550c18")

var tablePath = sync.OnceValue(func() DataPath {
	s := fmt.Sprintf("%v/%d/%v::TableHandles::TableHandles", SystemTableAddress, DataTypeResource, SystemTableAddress)
	path, err := ParseAccessPath(s)
	if err != nil {
		panic(fmt.Sprintf("invalid table registry path %q: %v", s, err))
	}
	return path.Path
})

// TablePath returns the data path of the table handle registry below the
// SystemTableAddress. The value stored there is the root of the registry
// tree mapping table handles to their owning accounts.
func TablePath() DataPath {
	return tablePath()
}

// TableRegistryAccessPath is the access path of the table handle registry.
func TableRegistryAccessPath() AccessPath {
	return AccessPath{Address: SystemTableAddress, Path: TablePath()}
}

// AccountKeyHash is the position of an account in the account tree.
func AccountKeyHash(addr common.Address) common.Hash {
	return common.HashKey(addr[:])
}

// HandleKeyHash is the position of a table handle in the registry tree.
func HandleKeyHash(handle common.TableHandle) common.Hash {
	return common.HashKey(handle[:])
}
