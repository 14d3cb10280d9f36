// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package signing carries transaction payloads across the air gap to a
// cold-wallet signer and signatures back.
//
// The hot side encodes a Request (the bytes to sign plus the signing
// address), renders it as a QR code, and the cold wallet scans it. The
// cold wallet answers with a Result QR carrying the signature over the
// same request ID. The codec is the wallet's deterministic CBOR
// (lib/codec), so a request renders to the same QR every time, and
// payloads are bounded by what a QR code can physically hold.
//
// The mst package consumes the round trip through its Signer function
// type; this package provides NewSigner to adapt a Transport (the
// QR display/scan surface) into that shape.
package signing
