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

	"github.com/Fantom-foundation/statequery/config"
	"github.com/urfave/cli/v2"
)

var getInfoCommand = cli.Command{
	Action: withNode(getInfo),
	Name:   "info",
	Usage:  "prints summary information about a state DB directory",
	Flags:  dbFlags,
}

func getInfo(ctx *cli.Context, node *config.Node) error {
	root, err := node.Service.Ref().StateRoot(ctx.Context)
	if err != nil {
		return err
	}
	history := node.DB.History()
	latest := history.Latest()
	fmt.Printf("State root:     %v\n", root)
	fmt.Printf("Version:        %d\n", latest.Version)
	fmt.Printf("Retained roots: %d\n", history.Len())
	return nil
}

var listRootsCommand = cli.Command{
	Action: withNode(listRoots),
	Name:   "roots",
	Usage:  "lists the retained state roots in ascending version order",
	Flags:  dbFlags,
}

func listRoots(ctx *cli.Context, node *config.Node) error {
	for _, entry := range node.DB.History().Roots() {
		fmt.Printf("%d\t%v\n", entry.Version, entry.Root)
	}
	return nil
}

var pruneCommand = cli.Command{
	Action: withNode(prune),
	Name:   "prune",
	Usage:  "drops the retention of a state root, queries against it fail afterwards",
	Flags: append([]cli.Flag{
		&cli.StringFlag{Name: rootFlag.Name, Usage: "the state root to prune", Required: true},
	}, dbFlags...),
}

func prune(ctx *cli.Context, node *config.Node) error {
	root, err := parseRoot(ctx)
	if err != nil {
		return err
	}
	if err := node.DB.Prune(*root); err != nil {
		return err
	}
	fmt.Printf("Pruned %v\n", *root)
	return nil
}
