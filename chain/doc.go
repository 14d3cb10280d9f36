// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package chain models the on-chain side of multisig coordination: the
// pending multisig calls a chain node reports for an account, and the
// reconciliation of that state against locally stored transactions.
//
// The package does not speak to a node itself. Client is the narrow
// interface a node adapter implements; everything else is pure data
// transformation, so the reconciliation logic is testable without a
// chain connection.
package chain
