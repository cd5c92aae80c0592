// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package config loads the settings of a state query node and assembles its
// components: the kv backend, the chain state DB and the query service.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/common/logging"
	"github.com/Fantom-foundation/statequery/service"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/spf13/viper"
)

// Backend names a kv storage engine.
type Backend string

const (
	BackendMemory  Backend = "memory"
	BackendLevelDB Backend = "leveldb"
	BackendBadger  Backend = "badger"
)

const ErrInvalidConfig = common.ConstError("invalid configuration")

// EnvPrefix is the prefix of environment variables overriding settings,
// e.g. STATEQUERY_SERVICE_WORKERS.
const EnvPrefix = "STATEQUERY"

const (
	keyBackend          = "backend"
	keyDirectory        = "directory"
	keyNodeCacheSize    = "node_cache_size"
	keyAccountCacheSize = "account_cache_size"
	keyRetainedRoots    = "retained_roots"
	keyWorkers          = "service.workers"
	keyQueueSize        = "service.queue_size"
	keyLogLevel         = "log.level"
	keyLogFormat        = "log.format"
)

// Config holds all settings of a node.
type Config struct {
	Backend    Backend
	Directory  string
	ChainState chainstate.Config
	Service    service.Config
	LogLevel   string
	LogFormat  string
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Backend:    BackendMemory,
		ChainState: chainstate.DefaultConfig,
		Service:    service.DefaultConfig,
		LogLevel:   "info",
		LogFormat:  logging.FormatText,
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	def := Default()
	v.SetDefault(keyBackend, string(def.Backend))
	v.SetDefault(keyDirectory, def.Directory)
	v.SetDefault(keyNodeCacheSize, def.ChainState.NodeCacheSize)
	v.SetDefault(keyAccountCacheSize, def.ChainState.AccountCacheSize)
	v.SetDefault(keyRetainedRoots, def.ChainState.RetainedRoots)
	v.SetDefault(keyWorkers, def.Service.Workers)
	v.SetDefault(keyQueueSize, def.Service.QueueSize)
	v.SetDefault(keyLogLevel, def.LogLevel)
	v.SetDefault(keyLogFormat, def.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration from the given file, if not empty, applying
// defaults for missing keys and environment overrides on top. The file
// format is derived from its extension (yaml, toml, json, ...).
func Load(file string) (Config, error) {
	v := newViper()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	config := Config{
		Backend:   Backend(strings.ToLower(v.GetString(keyBackend))),
		Directory: v.GetString(keyDirectory),
		ChainState: chainstate.Config{
			NodeCacheSize:    v.GetInt(keyNodeCacheSize),
			AccountCacheSize: v.GetInt(keyAccountCacheSize),
			RetainedRoots:    v.GetInt(keyRetainedRoots),
		},
		Service: service.Config{
			Workers:   v.GetInt(keyWorkers),
			QueueSize: v.GetInt(keyQueueSize),
		},
		LogLevel:  v.GetString(keyLogLevel),
		LogFormat: v.GetString(keyLogFormat),
	}
	return config, config.Validate()
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory:
	case BackendLevelDB, BackendBadger:
		if c.Directory == "" {
			errs = append(errs, fmt.Errorf("%w: backend %s requires a directory", ErrInvalidConfig, c.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend))
	}
	if c.ChainState.NodeCacheSize < 0 || c.ChainState.AccountCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: cache sizes must not be negative", ErrInvalidConfig))
	}
	if c.ChainState.RetainedRoots < 0 {
		errs = append(errs, fmt.Errorf("%w: retained roots must not be negative", ErrInvalidConfig))
	}
	if c.Service.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: at least one worker is required", ErrInvalidConfig))
	}
	if c.Service.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("%w: queue size must not be negative", ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
