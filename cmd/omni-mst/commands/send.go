// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/lib/ref"
)

func sendCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "send",
		Summary: "Send a text message to a coordination room",
		Usage:   "omni-mst send <room-id> <message...> [flags]",
		Examples: []cli.Example{
			{Command: "omni-mst send '!abc123:example.org' ready to sign"},
		},
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("send", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("room ID and message are required\n\nUsage: omni-mst send <room-id> <message...>")
			}
			roomID, err := ref.ParseRoomID(args[0])
			if err != nil {
				return err
			}
			body := strings.Join(args[1:], " ")

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
			return application.messenger.SendMessage(ctx, body)
		},
	}
}
