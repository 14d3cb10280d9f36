// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/mst"
)

func roomsCommand() *cli.Command {
	var configPath, membership string

	return &cli.Command{
		Name:    "rooms",
		Summary: "List coordination rooms",
		Description: `List the multisig coordination rooms the account is joined to or
invited to, as seen by the initial sync.`,
		Usage: "omni-mst rooms [flags]",
		Examples: []cli.Example{
			{Description: "List joined coordination rooms", Command: "omni-mst rooms"},
			{Description: "List pending invitations", Command: "omni-mst rooms --membership invited"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("rooms", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			flags.StringVar(&membership, "membership", "joined", "membership filter: joined or invited")
			return flags
		},
		Run: func(args []string) error {
			var filter mst.Membership
			switch membership {
			case "joined":
				filter = mst.MembershipJoin
			case "invited":
				filter = mst.MembershipInvite
			default:
				return fmt.Errorf("invalid --membership %q: want joined or invited", membership)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			application, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.close()

			if err := application.resume(ctx); err != nil {
				return err
			}

			rooms, err := application.messenger.ListOfOmniRooms(filter)
			if err != nil {
				return err
			}
			if len(rooms) == 0 {
				fmt.Fprintf(os.Stderr, "No %s coordination rooms.\n", membership)
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "ROOM ID\tNAME\tENCRYPTED")
			for _, room := range rooms {
				fmt.Fprintf(tw, "%s\t%s\t%t\n", room.RoomID, room.Name, room.Encrypted)
			}
			return tw.Flush()
		},
	}
}
