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
	"sort"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// WriteSet summarizes the effective changes to the state produced by one
// block. It combines table registrations, writes of access paths and writes
// of table items.
//
// An example use of a write set would look like this:
//
//	// Create a write set.
//	ws := WriteSet{}
//	// Fill in changes.
//	ws.AppendRegisterTable(handle, owner)
//	ws.AppendSet(path, value)
//	ws.AppendSetTableItem(handle, key, value)
//	...
//	// Optionally, sort and deduplicate the changes.
//	err := ws.Normalize()
//
// Write sets are applied by a state writer in a fixed order: registrations
// first, then access path writes, then table item writes.
type WriteSet struct {
	tables     []tableRegistration
	writes     []pathWrite
	tableItems []tableItemWrite
}

type tableRegistration struct {
	handle common.TableHandle
	owner  common.Address
}

type pathWrite struct {
	path  AccessPath
	value []byte // nil for removals
}

type tableItemWrite struct {
	handle common.TableHandle
	key    []byte
	value  []byte // nil for removals
}

// WriteSetTarget is the receiver of the changes of a write set.
type WriteSetTarget interface {
	RegisterTable(handle common.TableHandle, owner common.Address) error
	Set(path AccessPath, value []byte) error
	Remove(path AccessPath) error
	SetTableItem(handle common.TableHandle, key []byte, value []byte) error
	RemoveTableItem(handle common.TableHandle, key []byte) error
}

// AppendRegisterTable registers a table handle to be owned by the given account.
func (w *WriteSet) AppendRegisterTable(handle common.TableHandle, owner common.Address) {
	w.tables = append(w.tables, tableRegistration{handle, owner})
}

// AppendSet registers a value to be stored at the given path. A nil value
// is stored as an empty value, use AppendRemove to delete a path.
func (w *WriteSet) AppendSet(path AccessPath, value []byte) {
	if value == nil {
		value = []byte{}
	}
	w.writes = append(w.writes, pathWrite{path, bytes.Clone(value)})
}

// AppendRemove registers the removal of the value at the given path.
func (w *WriteSet) AppendRemove(path AccessPath) {
	w.writes = append(w.writes, pathWrite{path: path})
}

// AppendSetResource registers a resource to be stored under the given account.
func (w *WriteSet) AppendSetResource(addr common.Address, resource Resource) error {
	data, err := resource.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode resource %v: %w", resource.StructTag(), err)
	}
	w.AppendSet(NewResourceAccessPath(addr, resource.StructTag()), data)
	return nil
}

// AppendSetTableItem registers a table item to be stored.
func (w *WriteSet) AppendSetTableItem(handle common.TableHandle, key, value []byte) {
	if value == nil {
		value = []byte{}
	}
	w.tableItems = append(w.tableItems, tableItemWrite{handle, bytes.Clone(key), bytes.Clone(value)})
}

// AppendRemoveTableItem registers the removal of a table item.
func (w *WriteSet) AppendRemoveTableItem(handle common.TableHandle, key []byte) {
	w.tableItems = append(w.tableItems, tableItemWrite{handle: handle, key: bytes.Clone(key)})
}

// IsEmpty is true if the write set contains no changes.
func (w *WriteSet) IsEmpty() bool {
	return len(w.tables) == 0 && len(w.writes) == 0 && len(w.tableItems) == 0
}

// Len returns the number of changes.
func (w *WriteSet) Len() int {
	return len(w.tables) + len(w.writes) + len(w.tableItems)
}

// Normalize sorts all changes and removes duplicates. Conflicting changes
// of the same key are reported as an error.
func (w *WriteSet) Normalize() error {
	var err error
	w.tables, err = sortAndMakeUnique(w.tables, registrationLess, registrationEqual)
	if err != nil {
		return err
	}
	w.writes, err = sortAndMakeUnique(w.writes, pathWriteLess, pathWriteEqual)
	if err != nil {
		return err
	}
	w.tableItems, err = sortAndMakeUnique(w.tableItems, tableItemLess, tableItemEqual)
	if err != nil {
		return err
	}
	return nil
}

// Check verifies that all changes are unique and in order.
func (w *WriteSet) Check() error {
	if !isSortedAndUnique(w.tables, registrationLess) {
		return fmt.Errorf("%w: table registrations are not in order or unique", ErrInvalidWriteSet)
	}
	if !isSortedAndUnique(w.writes, pathWriteLess) {
		return fmt.Errorf("%w: path writes are not in order or unique", ErrInvalidWriteSet)
	}
	if !isSortedAndUnique(w.tableItems, tableItemLess) {
		return fmt.Errorf("%w: table item writes are not in order or unique", ErrInvalidWriteSet)
	}
	return nil
}

// Apply forwards all changes to the given target.
func (w *WriteSet) Apply(target WriteSetTarget) error {
	for _, cur := range w.tables {
		if err := target.RegisterTable(cur.handle, cur.owner); err != nil {
			return err
		}
	}
	for _, cur := range w.writes {
		var err error
		if cur.value == nil {
			err = target.Remove(cur.path)
		} else {
			err = target.Set(cur.path, cur.value)
		}
		if err != nil {
			return err
		}
	}
	for _, cur := range w.tableItems {
		var err error
		if cur.value == nil {
			err = target.RemoveTableItem(cur.handle, cur.key)
		} else {
			err = target.SetTableItem(cur.handle, cur.key, cur.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

const writeSetEncodingVersion uint = 0

type encodedWriteSet struct {
	Version uint
	Tables  []encodedRegistration
	Writes  []encodedChange
	Items   []encodedChange
}

type encodedRegistration struct {
	Handle common.TableHandle
	Owner  common.Address
}

// encodedChange carries either an access path or a table handle and item
// key in Key. Removals are flagged explicitly since rlp does not
// distinguish nil and empty values.
type encodedChange struct {
	Key    []byte
	Value  []byte
	Remove bool
}

// ToBytes serializes the write set.
func (w *WriteSet) ToBytes() ([]byte, error) {
	enc := encodedWriteSet{Version: writeSetEncodingVersion}
	for _, cur := range w.tables {
		enc.Tables = append(enc.Tables, encodedRegistration{cur.handle, cur.owner})
	}
	for _, cur := range w.writes {
		enc.Writes = append(enc.Writes, encodedChange{Key: []byte(cur.path.String()), Value: cur.value, Remove: cur.value == nil})
	}
	for _, cur := range w.tableItems {
		key := append(cur.handle.Bytes(), cur.key...)
		enc.Items = append(enc.Items, encodedChange{Key: key, Value: cur.value, Remove: cur.value == nil})
	}
	return rlp.EncodeToBytes(&enc)
}

// WriteSetFromBytes restores a write set serialized by ToBytes.
func WriteSetFromBytes(data []byte) (WriteSet, error) {
	var enc encodedWriteSet
	if err := rlp.DecodeBytes(data, &enc); err != nil {
		return WriteSet{}, fmt.Errorf("%w: %v", ErrInvalidWriteSet, err)
	}
	if enc.Version != writeSetEncodingVersion {
		return WriteSet{}, fmt.Errorf("%w: unknown encoding version: %d", ErrInvalidWriteSet, enc.Version)
	}
	res := WriteSet{}
	for _, cur := range enc.Tables {
		res.AppendRegisterTable(cur.Handle, cur.Owner)
	}
	for _, cur := range enc.Writes {
		path, err := ParseAccessPath(string(cur.Key))
		if err != nil {
			return WriteSet{}, fmt.Errorf("%w: %v", ErrInvalidWriteSet, err)
		}
		if cur.Remove {
			res.AppendRemove(path)
		} else {
			res.AppendSet(path, cur.Value)
		}
	}
	for _, cur := range enc.Items {
		if len(cur.Key) < common.TableHandleSize {
			return WriteSet{}, fmt.Errorf("%w: truncated table item key", ErrInvalidWriteSet)
		}
		var handle common.TableHandle
		copy(handle[:], cur.Key)
		if cur.Remove {
			res.AppendRemoveTableItem(handle, cur.Key[common.TableHandleSize:])
		} else {
			res.AppendSetTableItem(handle, cur.Key[common.TableHandleSize:], cur.Value)
		}
	}
	return res, nil
}

func registrationLess(a, b *tableRegistration) bool {
	return bytes.Compare(a.handle[:], b.handle[:]) < 0
}

func registrationEqual(a, b *tableRegistration) bool {
	return *a == *b
}

func pathWriteLess(a, b *pathWrite) bool {
	return a.path.Compare(b.path) < 0
}

func pathWriteEqual(a, b *pathWrite) bool {
	return a.path.Equal(b.path) && valuesEqual(a.value, b.value)
}

func tableItemLess(a, b *tableItemWrite) bool {
	if c := bytes.Compare(a.handle[:], b.handle[:]); c != 0 {
		return c < 0
	}
	return bytes.Compare(a.key, b.key) < 0
}

func tableItemEqual(a, b *tableItemWrite) bool {
	return a.handle == b.handle && bytes.Equal(a.key, b.key) && valuesEqual(a.value, b.value)
}

// valuesEqual distinguishes removals (nil) from empty values.
func valuesEqual(a, b []byte) bool {
	return (a == nil) == (b == nil) && bytes.Equal(a, b)
}

func sortAndMakeUnique[T any](list []T, less func(a, b *T) bool, equal func(a, b *T) bool) ([]T, error) {
	if len(list) <= 1 {
		return list, nil
	}
	sort.SliceStable(list, func(i, j int) bool { return less(&list[i], &list[j]) })
	res := make([]T, 0, len(list))
	res = append(res, list[0])
	for i := 1; i < len(list); i++ {
		end := &res[len(res)-1]
		if less(end, &list[i]) {
			res = append(res, list[i])
		} else if equal(end, &list[i]) {
			// skip duplicates
		} else {
			return nil, fmt.Errorf("%w: unable to resolve duplicate element: %v and %v", ErrInvalidWriteSet, *end, list[i])
		}
	}
	return res, nil
}

func isSortedAndUnique[T any](list []T, less func(a, b *T) bool) bool {
	for i := 0; i < len(list)-1; i++ {
		if !less(&list[i], &list[i+1]) {
			return false
		}
	}
	return true
}
