// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the wallet's standard CBOR encoding
// configuration.
//
// The wallet uses two serialization formats with a clear boundary:
//
//   - JSON for the Matrix Client-Server API and for the content of
//     coordination events, which other Matrix clients must read.
//   - CBOR for the offline signing QR payloads, where every byte of
//     QR capacity counts and the encoding must be reproducible.
//
// This package provides the shared CBOR encoding and decoding modes so
// every package encodes identically without duplicating configuration.
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, smallest integer encoding, no indefinite-length items.
// Same logical data always produces identical bytes, so the same
// signing request always renders the same QR code.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations:
//
//	encoder := codec.NewEncoder(w)
//	decoder := codec.NewDecoder(r)
//
// Struct tag rules: types only ever serialized as CBOR carry `cbor`
// tags; types that serve both JSON and CBOR carry `json` tags and rely
// on fxamacker's json-tag fallback. Never both on one field.
package codec
