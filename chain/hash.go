// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// CallHash computes the multisig call hash for encoded call data:
// blake2b-256, 0x-hex encoded. This is the hash signatories exchange
// in coordination events and the key of the chain's pending multisig
// storage.
func CallHash(callData []byte) string {
	digest := blake2b.Sum256(callData)
	return "0x" + hex.EncodeToString(digest[:])
}

// CallHashHex computes the call hash for 0x-hex encoded call data, the
// form call data takes inside coordination events.
func CallHashHex(callData string) (string, error) {
	raw, err := DecodeHex(callData)
	if err != nil {
		return "", fmt.Errorf("chain: decoding call data: %w", err)
	}
	return CallHash(raw), nil
}

// DecodeHex decodes a hex string with or without the 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}
