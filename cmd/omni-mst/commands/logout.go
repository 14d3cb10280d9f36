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

func logoutCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "logout",
		Summary: "End the Matrix session and delete persisted credentials",
		Usage:   "omni-mst logout [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("logout", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
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
			if err := application.messenger.Logout(ctx); err != nil {
				return err
			}

			fmt.Fprintln(os.Stderr, "Logged out; persisted credentials deleted.")
			return nil
		},
	}
}
