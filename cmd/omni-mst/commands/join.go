// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/lib/ref"
)

func joinCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "join",
		Summary: "Accept an invitation to a coordination room",
		Usage:   "omni-mst join <room-id> [flags]",
		Examples: []cli.Example{
			{Command: "omni-mst join '!abc123:example.org'"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("join", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("room ID is required\n\nUsage: omni-mst join <room-id>")
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
			if err := application.messenger.JoinRoom(ctx, roomID); err != nil {
				return err
			}

			if account, ok := application.messenger.RoomAccount(roomID); ok {
				fmt.Fprintf(os.Stderr, "Joined %s: MST account %s, threshold %d of %d signatories.\n",
					roomID, account.Address, account.Threshold, len(account.Signatories))
				return nil
			}
			fmt.Fprintf(os.Stderr, "Joined %s.\n", roomID)
			return nil
		},
	}
}
