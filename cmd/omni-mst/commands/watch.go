// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/mst"
)

func watchCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "watch",
		Summary: "Stream coordination events as they arrive",
		Description: `Resume the session and print coordination activity — room invites,
messages, and multisig approval events — until interrupted.`,
		Usage: "omni-mst watch [flags]",
		Flags: func() *pflag.FlagSet {
			flags := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			flags.StringVar(&configPath, "config", "", "path to config file (default: $OMNI_CONFIG)")
			return flags
		},
		Run: func(args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := newApp(ctx, configPath)
			if err != nil {
				return err
			}
			defer application.close()

			logger := application.logger
			printEvent := func(kind string) func(event mst.MstEvent) {
				return func(event mst.MstEvent) {
					logger.Info(kind,
						"room_id", event.RoomID,
						"sender", event.Sender,
						"call_hash", event.Content["callHash"],
						"at", event.Date)
				}
			}
			application.messenger.SetupSubscribers(mst.Callbacks{
				OnSyncEnd: func() { logger.Info("initial sync complete, watching") },
				OnInvite: func(roomID ref.RoomID) {
					logger.Info("room invitation", "room_id", roomID)
				},
				OnMessage: func(body string) {
					logger.Info("room message", "body", body)
				},
				OnMstInitiate:     printEvent("multisig transaction initiated"),
				OnMstApprove:      printEvent("multisig approval"),
				OnMstFinalApprove: printEvent("multisig final approval"),
				OnMstCancel:       printEvent("multisig cancellation"),
			})

			if err := application.messenger.LoginFromCache(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "Stopping.")
			return nil
		},
	}
}
