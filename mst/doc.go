// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package mst is the multisig coordination core: a single
// authenticated Matrix session multiplexed into per-wallet
// coordination rooms, with room lifecycle and timeline events routed
// onto the multisig approval workflow (init, approve, final-approve,
// cancel).
//
// [Messenger] is the process-wide session manager. Application code
// constructs one instance, calls Init then LoginWithCreds or
// LoginFromCache, registers callbacks via SetupSubscribers, and then
// drives room creation, joining, and command emission. A background
// sync loop invokes the registered callbacks as membership, message,
// and coordination events arrive from the homeserver.
//
// Coordination rooms are recognized by name: `OMNI MST | 0x<hex>`.
// Events in rooms outside that convention, and all events arriving
// before the initial sync completes, are dropped.
//
// Every public operation validates session-state preconditions before
// touching the network and fails with one of the package's sentinel
// errors (ErrNotLoggedIn, ErrNoActiveRoom, ...), wrapping the
// transport cause where one exists.
package mst
