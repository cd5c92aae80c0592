// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package config

import (
	"errors"
	"fmt"

	"github.com/Fantom-foundation/statequery/backend/kv"
	"github.com/Fantom-foundation/statequery/backend/kv/badger"
	"github.com/Fantom-foundation/statequery/backend/kv/ldb"
	"github.com/Fantom-foundation/statequery/backend/kv/memory"
	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/service"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/sirupsen/logrus"
)

// Node bundles the components of a running state query node.
type Node struct {
	Log     *logrus.Logger
	DB      *chainstate.DB
	Service *service.Service

	lock *common.DirectoryLock
}

// Open assembles a node from the given configuration and starts its query
// service. On-disk backends lock their directory for the lifetime of the
// node.
func Open(config Config) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger, err := logging.New(config.LogLevel, config.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return OpenWithLogger(config, logger)
}

// OpenWithLogger is like Open but uses the given logger.
func OpenWithLogger(config Config, logger *logrus.Logger) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	var lock *common.DirectoryLock
	if config.Backend != BackendMemory {
		l, err := common.LockDirectory(config.Directory)
		if err != nil {
			return nil, err
		}
		lock = l
	}
	store, err := OpenStore(config)
	if err != nil {
		return nil, errors.Join(err, releaseLock(lock))
	}
	db, err := chainstate.Open(store, config.ChainState, logger)
	if err != nil {
		return nil, errors.Join(err, store.Close(), releaseLock(lock))
	}
	svc := service.New(db.Reader(), config.Service, logger)
	svc.Start()
	logger.WithFields(logrus.Fields{
		"backend":   config.Backend,
		"directory": config.Directory,
		"root":      db.StateRoot(),
	}).Info("Opened state query node")
	return &Node{Log: logger, DB: db, Service: svc, lock: lock}, nil
}

// OpenStore opens the kv store selected by the configuration.
func OpenStore(config Config) (kv.Store, error) {
	switch config.Backend {
	case BackendMemory:
		return memory.NewStore(), nil
	case BackendLevelDB:
		return ldb.OpenStore(config.Directory, ldb.Options{Sync: true})
	case BackendBadger:
		return badger.OpenStore(config.Directory)
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, config.Backend)
}

func releaseLock(lock *common.DirectoryLock) error {
	if lock == nil {
		return nil
	}
	return lock.Release()
}

// Close stops the service, closes the DB and releases the directory lock.
func (n *Node) Close() error {
	n.Service.Stop()
	err := n.DB.Close()
	if n.lock.Valid() {
		err = errors.Join(err, n.lock.Release())
	}
	n.Log.Info("Closed state query node")
	return err
}
