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

	"github.com/Fantom-foundation/statequery/common"
	"github.com/Fantom-foundation/statequery/config"
	"github.com/Fantom-foundation/statequery/state"
	"github.com/Fantom-foundation/statequery/state/chainstate"
	"github.com/urfave/cli/v2"
)

var (
	pathFlag = cli.StringFlag{
		Name:     "path",
		Usage:    "an access path, e.g. 0x1/1/0x1::Account::Balance",
		Required: true,
	}
	valueFlag = cli.StringFlag{
		Name:     "value",
		Usage:    "a hex encoded value",
		Required: true,
	}
	handleFlag = cli.StringFlag{
		Name:     "handle",
		Usage:    "a table handle",
		Required: true,
	}
	ownerFlag = cli.StringFlag{
		Name:     "owner",
		Usage:    "the account owning a table",
		Required: true,
	}
	keyFlag = cli.StringFlag{
		Name:     "key",
		Usage:    "a hex encoded table key",
		Required: true,
	}
)

var setCommand = cli.Command{
	Action: withNode(commitWith(setValue)),
	Name:   "set",
	Usage:  "stores a value under an access path and commits a new state root",
	Flags:  append([]cli.Flag{&pathFlag, &valueFlag}, dbFlags...),
}

var removeCommand = cli.Command{
	Action: withNode(commitWith(removeValue)),
	Name:   "remove",
	Usage:  "removes the value of an access path and commits a new state root",
	Flags:  append([]cli.Flag{&pathFlag}, dbFlags...),
}

var registerTableCommand = cli.Command{
	Action: withNode(commitWith(registerTable)),
	Name:   "register-table",
	Usage:  "registers the owner of a table handle and commits a new state root",
	Flags:  append([]cli.Flag{&handleFlag, &ownerFlag}, dbFlags...),
}

var setTableItemCommand = cli.Command{
	Action: withNode(commitWith(setTableItem)),
	Name:   "table-set",
	Usage:  "stores an item of a registered table and commits a new state root",
	Flags:  append([]cli.Flag{&handleFlag, &keyFlag, &valueFlag}, dbFlags...),
}

// commitWith runs an update against the node's writer and commits it.
func commitWith(update func(*cli.Context, *chainstate.Writer) error) func(*cli.Context, *config.Node) error {
	return func(ctx *cli.Context, node *config.Node) error {
		writer := node.DB.Writer()
		if err := update(ctx, writer); err != nil {
			writer.Discard()
			return err
		}
		root, err := writer.Commit()
		if err != nil {
			return err
		}
		fmt.Printf("State root: %v\n", root)
		return nil
	}
}

func setValue(ctx *cli.Context, writer *chainstate.Writer) error {
	path, err := state.ParseAccessPath(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	value, err := common.ParseBytes(ctx.String(valueFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	return writer.Set(path, value)
}

func removeValue(ctx *cli.Context, writer *chainstate.Writer) error {
	path, err := state.ParseAccessPath(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	return writer.Remove(path)
}

func registerTable(ctx *cli.Context, writer *chainstate.Writer) error {
	handle, err := common.ParseTableHandle(ctx.String(handleFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid handle: %w", err)
	}
	owner, err := common.ParseAddress(ctx.String(ownerFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid owner: %w", err)
	}
	return writer.RegisterTable(handle, owner)
}

func setTableItem(ctx *cli.Context, writer *chainstate.Writer) error {
	handle, err := common.ParseTableHandle(ctx.String(handleFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid handle: %w", err)
	}
	key, err := common.ParseBytes(ctx.String(keyFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	value, err := common.ParseBytes(ctx.String(valueFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}
	return writer.SetTableItem(handle, key, value)
}
