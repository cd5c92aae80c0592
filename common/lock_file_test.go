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
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryLock_ZeroLockIsInvalid(t *testing.T) {
	var lock *DirectoryLock
	if lock.Valid() || (&DirectoryLock{}).Valid() {
		t.Errorf("zero lock should be invalid")
	}
}

func TestDirectoryLock_CanBeAcquiredAndReleased(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	path := filepath.Join(dir, LockFileName)

	lock, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}
	if !lock.Valid() {
		t.Errorf("acquired lock is not valid")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file should exist while acquired: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}
	if lock.Valid() {
		t.Errorf("released lock is still valid")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file should be gone after release, got %v", err)
	}
	if err := lock.Release(); !errors.Is(err, ErrLockReleased) {
		t.Errorf("second release should fail with ErrLockReleased, got %v", err)
	}
}

func TestDirectoryLock_LocksAreExclusive(t *testing.T) {
	dir := t.TempDir()
	first, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}
	if _, err := LockDirectory(dir); !errors.Is(err, ErrDirectoryLocked) {
		t.Errorf("expected ErrDirectoryLocked, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}
	second, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("lock should be available after release: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Errorf("failed to release lock: %v", err)
	}
}
