// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package kvtest contains a conformance suite run against every kv.Store
// implementation.
package kvtest

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Fantom-foundation/statequery/backend/kv"
)

// Factory creates a fresh, empty store for a single test.
type Factory func(t *testing.T) kv.Store

// RunStoreTests runs the conformance suite using stores produced by the factory.
func RunStoreTests(t *testing.T, factory Factory) {
	t.Run("MissingKey", func(t *testing.T) { testMissingKey(t, factory(t)) })
	t.Run("PutAndGet", func(t *testing.T) { testPutAndGet(t, factory(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("ReturnedValuesAreCopies", func(t *testing.T) { testReturnedValuesAreCopies(t, factory(t)) })
	t.Run("IterateByPrefix", func(t *testing.T) { testIterateByPrefix(t, factory(t)) })
	t.Run("IterateStopsEarly", func(t *testing.T) { testIterateStopsEarly(t, factory(t)) })
	t.Run("ConcurrentReads", func(t *testing.T) { testConcurrentReads(t, factory(t)) })
	t.Run("EmptyValue", func(t *testing.T) { testEmptyValue(t, factory(t)) })
	t.Run("LargeBatch", func(t *testing.T) { testLargeBatch(t, factory(t)) })
}

func closeStore(t *testing.T, s kv.Store) {
	if err := s.Close(); err != nil {
		t.Errorf("failed to close store: %v", err)
	}
}

func write(t *testing.T, s kv.Store, kvs ...string) {
	t.Helper()
	batch := kv.NewBatch()
	for i := 0; i+1 < len(kvs); i += 2 {
		batch.Put([]byte(kvs[i]), []byte(kvs[i+1]))
	}
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to write batch: %v", err)
	}
}

func testMissingKey(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	if _, err := s.Get([]byte("missing")); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if exists, err := s.Has([]byte("missing")); err != nil || exists {
		t.Errorf("missing key reported as present: %t, %v", exists, err)
	}
}

func testPutAndGet(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "a", "1", "b", "2")
	for key, want := range map[string]string{"a": "1", "b": "2"} {
		got, err := s.Get([]byte(key))
		if err != nil || string(got) != want {
			t.Errorf("unexpected value for %s, wanted %s, got %s (%v)", key, want, got, err)
		}
		if exists, err := s.Has([]byte(key)); err != nil || !exists {
			t.Errorf("key %s should exist", key)
		}
	}
	write(t, s, "a", "3")
	if got, _ := s.Get([]byte("a")); string(got) != "3" {
		t.Errorf("value not overwritten, got %s", got)
	}
}

func testDelete(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "a", "1")
	batch := kv.NewBatch()
	batch.Delete([]byte("a"))
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := s.Get([]byte("a")); !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("deleted key still present: %v", err)
	}
}

func testReturnedValuesAreCopies(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "a", "123")
	got, _ := s.Get([]byte("a"))
	got[0] = 'x'
	if again, _ := s.Get([]byte("a")); string(again) != "123" {
		t.Errorf("store content modified through returned slice: %s", again)
	}
}

func testIterateByPrefix(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "p/2", "b", "q/1", "x", "p/1", "a", "p/3", "c")
	var keys, values []string
	err := s.Iterate([]byte("p/"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		values = append(values, string(value))
		return true
	})
	if err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if want, got := "[p/1 p/2 p/3]", fmt.Sprintf("%v", keys); want != got {
		t.Errorf("unexpected keys, wanted %v, got %v", want, got)
	}
	if fmt.Sprintf("%v", values) != "[a b c]" {
		t.Errorf("unexpected values %v", values)
	}
}

func testIterateStopsEarly(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "k1", "1", "k2", "2", "k3", "3")
	count := 0
	if err := s.Iterate([]byte("k"), func(_, _ []byte) bool {
		count++
		return count < 2
	}); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if count != 2 {
		t.Errorf("iteration should stop after 2 elements, visited %d", count)
	}
}

func testConcurrentReads(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	write(t, s, "a", "1")
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if val, err := s.Get([]byte("a")); err != nil || string(val) != "1" {
					errs <- fmt.Errorf("unexpected read: %s, %v", val, err)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func testEmptyValue(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	batch := kv.NewBatch()
	batch.Put([]byte("e"), []byte{})
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if exists, err := s.Has([]byte("e")); err != nil || !exists {
		t.Errorf("empty value must be stored, not treated as delete")
	}
}

// largeBatchSize exceeds the entry limit of a single Badger transaction.
const largeBatchSize = 200_000

func largeBatchKey(i int) []byte {
	return []byte(fmt.Sprintf("large/%08d", i))
}

func testLargeBatch(t *testing.T, s kv.Store) {
	defer closeStore(t, s)
	value := make([]byte, 64)
	batch := kv.NewBatch()
	for i := 0; i < largeBatchSize; i++ {
		batch.Put(largeBatchKey(i), value)
	}
	batch.Put([]byte("last"), []byte("done"))
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to write large batch: %v", err)
	}

	count := 0
	if err := s.Iterate([]byte("large/"), func(key, _ []byte) bool {
		count++
		return true
	}); err != nil {
		t.Fatalf("failed to iterate: %v", err)
	}
	if count != largeBatchSize {
		t.Errorf("unexpected number of entries, wanted %d, got %d", largeBatchSize, count)
	}
	if got, err := s.Get([]byte("last")); err != nil || string(got) != "done" {
		t.Errorf("last operation of the batch not applied: %s, %v", got, err)
	}

	batch = kv.NewBatch()
	for i := 0; i < largeBatchSize; i++ {
		batch.Delete(largeBatchKey(i))
	}
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to delete large batch: %v", err)
	}
	if exists, err := s.Has(largeBatchKey(largeBatchSize - 1)); err != nil || exists {
		t.Errorf("deleted key still present: %t, %v", exists, err)
	}
}
