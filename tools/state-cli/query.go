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
	"github.com/urfave/cli/v2"
)

var addressFlag = cli.StringFlag{
	Name:     "address",
	Usage:    "an account address",
	Required: true,
}

var getCommand = cli.Command{
	Action: withNode(getValue),
	Name:   "get",
	Usage:  "prints the value stored under an access path",
	Flags:  append([]cli.Flag{&pathFlag}, dbFlags...),
}

var proveCommand = cli.Command{
	Action: withNode(proveValue),
	Name:   "prove",
	Usage:  "prints and verifies the value of an access path together with its proof",
	Flags:  append([]cli.Flag{&pathFlag, &rootFlag}, dbFlags...),
}

var getAccountCommand = cli.Command{
	Action: withNode(getAccount),
	Name:   "account",
	Usage:  "prints the account state and all values owned by an account",
	Flags:  append([]cli.Flag{&addressFlag, &rootFlag}, dbFlags...),
}

var getTableItemCommand = cli.Command{
	Action: withNode(getTableItem),
	Name:   "table-get",
	Usage:  "prints and verifies a table item together with its proof",
	Flags:  append([]cli.Flag{&handleFlag, &keyFlag, &rootFlag}, dbFlags...),
}

func getValue(ctx *cli.Context, node *config.Node) error {
	path, err := state.ParseAccessPath(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	value, err := node.Service.Ref().Get(ctx.Context, path)
	if err != nil {
		return err
	}
	fmt.Println(formatValue(value))
	return nil
}

// resolveRoot returns the explicitly selected root or the current one.
func resolveRoot(ctx *cli.Context, node *config.Node) (common.Hash, error) {
	root, err := parseRoot(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if root != nil {
		return *root, nil
	}
	return node.Service.Ref().StateRoot(ctx.Context)
}

func proveValue(ctx *cli.Context, node *config.Node) error {
	path, err := state.ParseAccessPath(ctx.String(pathFlag.Name))
	if err != nil {
		return err
	}
	root, err := resolveRoot(ctx, node)
	if err != nil {
		return err
	}
	res, err := node.Service.Ref().GetWithProofByRoot(ctx.Context, path, root)
	if err != nil {
		return err
	}
	fmt.Printf("Root:          %v\n", root)
	fmt.Printf("Value:         %s\n", formatValue(res.Value))
	fmt.Printf("Account proof: %d siblings\n", len(res.Proof.AccountProof.Siblings))
	fmt.Printf("Data proof:    %d siblings\n", len(res.Proof.DataProof.Siblings))
	if err := res.Verify(root, path); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	fmt.Println("Proof verified")
	return nil
}

func getAccount(ctx *cli.Context, node *config.Node) error {
	addr, err := common.ParseAddress(ctx.String(addressFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	root, err := resolveRoot(ctx, node)
	if err != nil {
		return err
	}
	ref := node.Service.Ref()
	account, err := ref.GetAccountStateByRoot(ctx.Context, addr, root)
	if err != nil {
		return err
	}
	if account == nil {
		fmt.Printf("Account %v does not exist at %v\n", addr, root)
		return nil
	}
	fmt.Printf("Account state: %v\n", account)
	set, err := ref.GetAccountStateSet(ctx.Context, addr, &root)
	if err != nil {
		return err
	}
	for _, typ := range []state.DataType{state.DataTypeResource, state.DataTypeTable} {
		values := set.StateSet(typ)
		for i := 0; i < values.Len(); i++ {
			fmt.Printf("%v\t0x%x\t%s\n", typ, values.Keys[i], formatValue(values.Values[i]))
		}
	}
	return nil
}

func getTableItem(ctx *cli.Context, node *config.Node) error {
	handle, err := common.ParseTableHandle(ctx.String(handleFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid handle: %w", err)
	}
	key, err := common.ParseBytes(ctx.String(keyFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	root, err := resolveRoot(ctx, node)
	if err != nil {
		return err
	}
	res, err := node.Service.Ref().GetWithTableItemProofByRoot(ctx.Context, handle, key, root)
	if err != nil {
		return err
	}
	if res.Owner == nil {
		fmt.Printf("Table %v is not registered\n", handle)
	} else {
		fmt.Printf("Owner: %v\n", *res.Owner)
	}
	fmt.Printf("Value: %s\n", formatValue(res.Value()))
	if err := res.Verify(root, handle, key, res.Value()); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	fmt.Println("Proof verified")
	return nil
}
