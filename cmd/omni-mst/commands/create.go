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
	"github.com/Asmadek/omni-desktop/mst"
	"github.com/Asmadek/omni-desktop/signing"
)

func createCommand() *cli.Command {
	var (
		configPath  string
		address     string
		publicKey   string
		inviter     string
		threshold   int
		signatories []string
	)

	return &cli.Command{
		Name:    "create",
		Summary: "Create a coordination room for a multisig account",
		Description: `Create the private coordination room for a new multisig account:
set the encryption and account-metadata state, invite the co-signers,
and verify their devices.

The invite signature is produced over the console signing round trip:
the command prints the signing request, and the signature produced by
the cold wallet is entered back.`,
		Usage: "omni-mst create [flags]",
		Examples: []cli.Example{
			{
				Description: "Create a 2-of-3 coordination room",
				Command: "omni-mst create --address 0xAB12 --public-key 0xPK --threshold 2 " +
					"--inviter @alice:example.org " +
					"--signatory @alice:example.org=5Alice " +
					"--signatory @bob:example.org=5Bob " +
					"--signatory @charlie:example.org=5Charlie",
			},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("create", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			flags.StringVar(&address, "address", "", "multisig account address (names the room)")
			flags.StringVar(&publicKey, "public-key", "", "inviter public key published in the room topic")
			flags.StringVar(&inviter, "inviter", "", "Matrix ID of the signatory creating the room")
			flags.IntVar(&threshold, "threshold", 0, "number of approvals required to execute")
			flags.StringArrayVar(&signatories, "signatory", nil, "signatory as matrixID=networkAddress (repeatable)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			if address == "" || publicKey == "" || inviter == "" {
				return fmt.Errorf("--address, --public-key, and --inviter are required")
			}
			if threshold < 1 {
				return fmt.Errorf("--threshold must be at least 1")
			}
			parsed, err := parseSignatories(signatories, inviter)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			application, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.close()

			if err := application.messenger.LoginFromCache(ctx); err != nil {
				return err
			}

			signer := signing.NewSigner(consoleTransport{}, address)
			roomID, err := application.messenger.CreateRoom(ctx, mst.RoomParams{
				MstAccountAddress: address,
				InviterPublicKey:  publicKey,
				Threshold:         threshold,
				Signatories:       parsed,
			}, signer)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "%s\n", roomID)
			return nil
		},
	}
}
