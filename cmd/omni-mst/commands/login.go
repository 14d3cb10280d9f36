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
)

func loginCommand() *cli.Command {
	var configPath, passwordFile string

	return &cli.Command{
		Name:    "login",
		Summary: "Authenticate with the Matrix homeserver",
		Description: `Log in with username and password and persist the session locally.
Subsequent commands resume the persisted session; password login is
only needed again after logout.`,
		Usage: "omni-mst login <username> [flags]",
		Examples: []cli.Example{
			{Description: "Log in interactively (prompts for password)", Command: "omni-mst login alice"},
			{Description: "Log in with password from a file", Command: "omni-mst login alice --password-file /path/to/password"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("login", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			flags.StringVar(&passwordFile, "password-file", "", "path to file containing the password, or - for stdin (default: prompt)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("username is required\n\nUsage: omni-mst login <username> [flags]")
			}
			username := args[0]

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			application, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.close()

			password, err := readPassword(passwordFile)
			if err != nil {
				return err
			}
			defer password.Close()

			if err := application.messenger.LoginWithCreds(ctx, username, password); err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s; session persisted.\n", username)
			return nil
		},
	}
}
