// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable Matrix identifier
// values for the Omni wallet: user IDs, room IDs, event IDs, device
// IDs, and event types.
//
// Identifiers arrive from the homeserver (login responses, room
// creation, /sync) or from user input (signatory addresses typed into
// the wallet) and are parsed into these types at the boundary. All
// constructors validate their inputs and return errors for malformed
// identifiers; once constructed, a ref is immutable.
//
// JSON marshaling uses the canonical Matrix string form via
// encoding.TextMarshaler, so sync responses keyed by room ID decode
// with validation for free.
package ref
