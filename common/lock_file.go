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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
)

const (
	// ErrDirectoryLocked is reported if another process owns a data directory.
	ErrDirectoryLocked = ConstError("directory is locked by another process")
	// ErrLockReleased is reported when releasing a lock a second time.
	ErrLockReleased = ConstError("lock already released")
)

// LockFileName is the name of the lock file created in locked directories.
const LockFileName = "statequery.lock"

// DirectoryLock marks a data directory as owned by this process. The lock
// file is created atomically and removed again on Release; a lock that is
// never released survives the process and has to be removed manually.
type DirectoryLock struct {
	path string
	fd   int
}

// LockDirectory acquires the lock of the given directory, creating the
// directory if needed.
func LockDirectory(dir string) (*DirectoryLock, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, LockFileName)
	fd, err := syscall.Open(path, syscall.O_CREAT|syscall.O_EXCL|syscall.O_RDWR, 0600)
	if errors.Is(err, syscall.EEXIST) {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryLocked, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock of %s: %w", dir, err)
	}
	// the owner's pid is informational only
	_, _ = syscall.Write(fd, []byte(strconv.Itoa(os.Getpid())))
	return &DirectoryLock{path: path, fd: fd}, nil
}

// Valid reports whether the lock is still held.
func (l *DirectoryLock) Valid() bool {
	return l != nil && l.fd != 0
}

// Release gives up the lock by deleting the lock file.
func (l *DirectoryLock) Release() error {
	if !l.Valid() {
		return ErrLockReleased
	}
	if err := syscall.Close(l.fd); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	l.fd = 0
	if err := syscall.Unlink(l.path); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
