// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the small command framework behind the
// omni-mst binary: a declarative command tree where each node has a
// name, help text, pflag flags, and either subcommands or a Run
// function. Commands are assembled in cmd/omni-mst/commands and
// dispatched from main.
package cli
