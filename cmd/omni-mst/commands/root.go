// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the omni-mst command tree.
package commands

import (
	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
)

// Root returns the top-level omni-mst command.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "omni-mst",
		Summary: "Multisig transaction coordination over Matrix",
		Description: `omni-mst drives the wallet's multisig coordination backend from the
command line: authenticate with the Matrix homeserver, manage
coordination rooms, and exchange approval events with co-signers.

Configuration is read from the file named by --config or the
OMNI_CONFIG environment variable.`,
		Subcommands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			roomsCommand(),
			createCommand(),
			joinCommand(),
			watchCommand(),
			sendCommand(),
			approveCommand(),
		},
	}
}
