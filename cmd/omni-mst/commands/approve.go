// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/mst"
)

func approveCommand() *cli.Command {
	var (
		configPath string
		chainID    string
		callHash   string
		final      bool
	)

	return &cli.Command{
		Name:    "approve",
		Summary: "Send a multisig approval to a coordination room",
		Description: `Announce this signatory's on-chain approval of a pending multisig
call to the room. Use --final for the threshold-reaching approval that
executes the call.`,
		Usage: "omni-mst approve <room-id> --chain-id <id> --call-hash <hash> [flags]",
		Examples: []cli.Example{
			{
				Description: "Announce an intermediate approval",
				Command:     "omni-mst approve '!abc123:example.org' --chain-id 0x91b1 --call-hash 0xdead",
			},
			{
				Description: "Announce the executing approval",
				Command:     "omni-mst approve '!abc123:example.org' --chain-id 0x91b1 --call-hash 0xdead --final",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("approve", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			flags.StringVar(&chainID, "chain-id", "", "chain the multisig call lives on")
			flags.StringVar(&callHash, "call-hash", "", "hash of the pending multisig call")
			flags.BoolVar(&final, "final", false, "this approval reaches the threshold and executes the call")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("room ID is required\n\nUsage: omni-mst approve <room-id> [flags]")
			}
			if chainID == "" || callHash == "" {
				return fmt.Errorf("--chain-id and --call-hash are required")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			application, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.close()

			if err := application.messenger.LoginFromCache(ctx); err != nil {
				return err
			}
			application.messenger.SetRoom(roomID)

			params := mst.MstBaseParams{ChainID: chainID, CallHash: callHash}
			if final {
				return application.messenger.MstFinalApprove(ctx, params)
			}
			return application.messenger.MstApprove(ctx, params)
		},
	}
}
