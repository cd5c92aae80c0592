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
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/config"
	"github.com/urfave/cli/v2"
)

var (
	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "a configuration file, settings may also be given as STATEQUERY_* environment variables",
	}
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted directory",
		Required: true,
	}
	backendFlag = cli.StringFlag{
		Name:  "backend",
		Usage: "the storage backend of the directory, leveldb or badger",
		Value: string(config.BackendLevelDB),
	}
	rootFlag = cli.StringFlag{
		Name:  "root",
		Usage: "the state root to query, the current root if omitted",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "the log level, e.g. debug, info or warn",
		Value: "warn",
	}
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
)

// dbFlags are accepted by all commands operating on a single directory.
var dbFlags = []cli.Flag{
	&configFileFlag,
	&dbDirectoryFlag,
	&backendFlag,
	&logLevelFlag,
}

func loadConfig(ctx *cli.Context, dir, backend string) (config.Config, error) {
	cfg, err := config.Load(ctx.String(configFileFlag.Name))
	if err != nil {
		return cfg, err
	}
	cfg.Directory = dir
	cfg.Backend = config.Backend(backend)
	cfg.LogLevel = ctx.String(logLevelFlag.Name)
	return cfg, cfg.Validate()
}

// open opens the node configured by the command line flags.
func open(ctx *cli.Context) (*config.Node, error) {
	cfg, err := loadConfig(ctx, ctx.String(dbDirectoryFlag.Name), ctx.String(backendFlag.Name))
	if err != nil {
		return nil, err
	}
	return config.Open(cfg)
}

// withNode runs the given action on an opened node and closes the node
// afterwards.
func withNode(action func(*cli.Context, *config.Node) error) cli.ActionFunc {
	return func(ctx *cli.Context) (err error) {
		node, err := open(ctx)
		if err != nil {
			return err
		}
		defer func() {
			if closeError := node.Close(); closeError != nil {
				if err == nil {
					err = closeError
				} else {
					node.Log.WithError(closeError).Error("Failure closing DB")
				}
			}
		}()
		return action(ctx, node)
	}
}

// parseRoot returns the root selected by the root flag, nil for the current one.
func parseRoot(ctx *cli.Context) (*common.Hash, error) {
	s := ctx.String(rootFlag.Name)
	if s == "" {
		return nil, nil
	}
	root, err := common.ParseHash(s)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", s, err)
	}
	return &root, nil
}

func formatValue(value []byte) string {
	if value == nil {
		return "<absent>"
	}
	return fmt.Sprintf("0x%x", value)
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}
