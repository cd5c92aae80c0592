// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"testing"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/backend/kv/kvtest"
)

func TestStoreImplements(t *testing.T) {
	var s Store
	var _ kv.Store = &s
}

func TestStore_Conformance(t *testing.T) {
	kvtest.RunStoreTests(t, func(t *testing.T) kv.Store {
		s, err := OpenStore(t.TempDir(), Options{})
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		return s
	})
}

func TestStore_DataIsPersisted(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStore(dir, Options{Sync: true})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	batch := kv.NewBatch()
	batch.Put([]byte("key"), []byte("value"))
	if err := s.Write(batch); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}

	s, err = OpenStore(dir, Options{})
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer s.Close()
	if val, err := s.Get([]byte("key")); err != nil || string(val) != "value" {
		t.Errorf("value not persisted: %s, %v", val, err)
	}
}
