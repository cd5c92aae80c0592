// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"errors"
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
		return NewStore()
	})
}

func TestStore_ClosedStoreFails(t *testing.T) {
	s := NewStore()
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if _, err := s.Get([]byte("a")); !errors.Is(err, kv.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := s.Write(kv.NewBatch()); !errors.Is(err, kv.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
