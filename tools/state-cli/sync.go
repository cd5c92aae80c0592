// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/interrupt"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/config"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	dbSourceDirFlag = cli.StringFlag{
		Name:     "src-dir",
		Usage:    "the source of the synchronization",
		Required: true,
	}
	dbSourceBackendFlag = cli.StringFlag{
		Name:  "src-backend",
		Usage: "the storage backend of the source",
		Value: string(config.BackendLevelDB),
	}
	dbTargetDirFlag = cli.StringFlag{
		Name:     "trg-dir",
		Usage:    "the target of the synchronization, it must not contain a state DB",
		Required: true,
	}
	dbTargetBackendFlag = cli.StringFlag{
		Name:  "trg-backend",
		Usage: "the storage backend of the target",
		Value: string(config.BackendLevelDB),
	}
)

var syncCommand = cli.Command{
	Action: sync,
	Name:   "sync",
	Usage:  "copies a state DB into a new directory, possibly converting its storage backend",
	Flags: []cli.Flag{
		&configFileFlag,
		&dbSourceDirFlag,
		&dbSourceBackendFlag,
		&dbTargetDirFlag,
		&dbTargetBackendFlag,
		&logLevelFlag,
		&cpuProfilingFlag,
	},
}

const syncBatchSize = 1 << 12

func sync(ctx *cli.Context) (err error) {
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	srcConfig, err := loadConfig(ctx, ctx.String(dbSourceDirFlag.Name), ctx.String(dbSourceBackendFlag.Name))
	if err != nil {
		return err
	}
	trgConfig, err := loadConfig(ctx, ctx.String(dbTargetDirFlag.Name), ctx.String(dbTargetBackendFlag.Name))
	if err != nil {
		return err
	}
	log, err := logging.New(srcConfig.LogLevel, srcConfig.LogFormat)
	if err != nil {
		return err
	}

	source, err := openLocked(srcConfig, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, source.Close()) }()

	target, err := openLocked(trgConfig, log)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, target.Close()) }()

	// the target is only opened as a state DB once the copy is complete
	if empty, err := isEmpty(target.store); err != nil || !empty {
		return errors.Join(err, fmt.Errorf("target %s is not empty", trgConfig.Directory))
	}

	// opening a state DB on a store without state would initialize it
	if exists, err := chainstate.HasState(source.store); err != nil || !exists {
		return errors.Join(err, fmt.Errorf("source %s contains no state DB", srcConfig.Directory))
	}

	sourceDB, err := chainstate.Open(source.store, srcConfig.ChainState, log)
	if err != nil {
		return err
	}
	sourceRoot := sourceDB.StateRoot()
	fmt.Printf("Source state root: %v\n", sourceRoot)

	log.Info("Synching states ...")
	start := time.Now()
	copied, err := copyStore(interrupt.Register(ctx.Context, log), source.store, target.store)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"entries": copied,
		"elapsed": time.Since(start),
	}).Info("Synching complete")

	targetDB, err := chainstate.Open(target.store, trgConfig.ChainState, log)
	if err != nil {
		return err
	}
	targetRoot := targetDB.StateRoot()
	fmt.Printf("Target state root: %v\n", targetRoot)
	if sourceRoot != targetRoot {
		return fmt.Errorf("sync failed, state roots are not equivalent")
	}
	return nil
}

// lockedStore is a kv store of a locked data directory.
type lockedStore struct {
	store kv.Store
	lock  *common.DirectoryLock
}

func openLocked(cfg config.Config, log logrus.FieldLogger) (*lockedStore, error) {
	if cfg.Backend == config.BackendMemory {
		return nil, fmt.Errorf("cannot sync %s backends", cfg.Backend)
	}
	lock, err := common.LockDirectory(cfg.Directory)
	if err != nil {
		return nil, err
	}
	log.WithField("directory", cfg.Directory).Info("Opening store")
	store, err := config.OpenStore(cfg)
	if err != nil {
		return nil, errors.Join(err, lock.Release())
	}
	return &lockedStore{store: store, lock: lock}, nil
}

// Close closes the store and releases the directory. A chain state DB
// opened on the store closes it as well, which is tolerated.
func (s *lockedStore) Close() error {
	err := s.store.Close()
	if errors.Is(err, kv.ErrClosed) {
		err = nil
	}
	return errors.Join(err, s.lock.Release())
}

func isEmpty(store kv.Store) (bool, error) {
	empty := true
	err := store.Iterate(nil, func(_, _ []byte) bool {
		empty = false
		return false
	})
	return empty, err
}

// copyStore copies all entries of the source into the target in batches.
func copyStore(ctx context.Context, source, target kv.Store) (int, error) {
	copied := 0
	batch := kv.NewBatch()
	var copyErr error
	err := source.Iterate(nil, func(key, value []byte) bool {
		batch.Put(key, value)
		if batch.Len() < syncBatchSize {
			return true
		}
		if interrupt.IsCancelled(ctx) {
			copyErr = interrupt.ErrCanceled
			return false
		}
		if copyErr = target.Write(batch); copyErr != nil {
			return false
		}
		copied += batch.Len()
		batch = kv.NewBatch()
		return true
	})
	if err = errors.Join(err, copyErr); err != nil {
		return copied, err
	}
	if batch.Len() > 0 {
		if err := target.Write(batch); err != nil {
			return copied, err
		}
		copied += batch.Len()
	}
	return copied, nil
}
