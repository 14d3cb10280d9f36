// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for the
// wallet's multisig coordination needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login and availability checks,
// returning authenticated [Session] values. Client holds the
// homeserver URL and HTTP transport, shared across all Sessions
// derived from it.
//
// [Session] wraps a Client with an access token for authenticated
// operations: room management (create, join, leave, invite), event
// sending (idempotent PUT with transaction IDs), paginated room
// history, incremental sync with long-polling, device key queries for
// signatory verification, and logout.
//
// The access token is held in mmap-backed secret.Buffer memory
// (locked against swap, excluded from core dumps); callers must call
// Session.Close to release it.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_UNKNOWN_TOKEN, etc.) and HTTP
// status code. [IsMatrixError] tests for a specific code. Request
// URLs are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments.
package messaging
