// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// omni-mst is the operator CLI for the wallet's multisig coordination
// backend: Matrix login, coordination room management, and the
// approval workflow commands.
package main

import (
	"fmt"
	"os"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
