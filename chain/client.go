// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package chain

import "context"

// Client is the chain node surface the wallet consumes. A node
// adapter (RPC, light client) implements it; the coordination backend
// only ever programs against this interface.
type Client interface {
	// PendingMultisigs returns the open multisig calls registered for
	// the given multisig account address.
	PendingMultisigs(ctx context.Context, address string) ([]PendingMultisig, error)

	// SubmitExtrinsic broadcasts a signed extrinsic and returns the
	// transaction hash the node reports.
	SubmitExtrinsic(ctx context.Context, signed []byte) (string, error)

	// EstimateFee returns the estimated inclusion fee for encoded call
	// data, as a decimal string in the chain's smallest unit.
	EstimateFee(ctx context.Context, callData []byte) (string, error)
}
