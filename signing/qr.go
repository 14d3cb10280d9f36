// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package signing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Asmadek/omni-desktop/lib/codec"
)

// MaxEncodedSize is the largest encoded payload a single QR code can
// carry: version 40, binary mode, error correction level L.
const MaxEncodedSize = 2953

var (
	// ErrPayloadTooLarge means the encoded request or result exceeds
	// QR capacity. The caller must shrink the call data (or split it,
	// which the wallet does not support yet).
	ErrPayloadTooLarge = errors.New("signing: payload exceeds QR capacity")

	// ErrResultMismatch means a scanned result answers a different
	// request than the one displayed.
	ErrResultMismatch = errors.New("signing: result does not match request")
)

// Request is the hot-side half of a signing round trip: the bytes to
// sign and the address whose key must sign them. ID correlates the
// Result scanned back.
type Request struct {
	ID      uuid.UUID `cbor:"id"`
	Address string    `cbor:"address"`
	Payload []byte    `cbor:"payload"`
}

// Result is the cold-side half: the signature over the request's
// payload, 0x-hex encoded, echoing the request ID.
type Result struct {
	ID        uuid.UUID `cbor:"id"`
	Signature string    `cbor:"signature"`
}

// NewRequest builds a signing request with a fresh correlation ID.
func NewRequest(address string, payload []byte) Request {
	return Request{ID: uuid.New(), Address: address, Payload: payload}
}

// EncodeRequest encodes a request for QR rendering. Deterministic:
// the same request always produces identical bytes.
func EncodeRequest(request Request) ([]byte, error) {
	data, err := codec.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("signing: encoding request: %w", err)
	}
	if len(data) > MaxEncodedSize {
		return nil, fmt.Errorf("%w: %d bytes encoded, limit %d", ErrPayloadTooLarge, len(data), MaxEncodedSize)
	}
	return data, nil
}

// DecodeRequest decodes a scanned request payload.
func DecodeRequest(data []byte) (Request, error) {
	if len(data) > MaxEncodedSize {
		return Request{}, fmt.Errorf("%w: %d bytes scanned, limit %d", ErrPayloadTooLarge, len(data), MaxEncodedSize)
	}
	var request Request
	if err := codec.Unmarshal(data, &request); err != nil {
		return Request{}, fmt.Errorf("signing: decoding request: %w", err)
	}
	return request, nil
}

// EncodeResult encodes a signing result for QR rendering.
func EncodeResult(result Result) ([]byte, error) {
	data, err := codec.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("signing: encoding result: %w", err)
	}
	if len(data) > MaxEncodedSize {
		return nil, fmt.Errorf("%w: %d bytes encoded, limit %d", ErrPayloadTooLarge, len(data), MaxEncodedSize)
	}
	return data, nil
}

// DecodeResult decodes a scanned result payload.
func DecodeResult(data []byte) (Result, error) {
	var result Result
	if err := codec.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("signing: decoding result: %w", err)
	}
	return result, nil
}

// Transport is the QR display-and-scan surface: show the request to
// the cold wallet, return the result scanned back. Implementations
// block until the user completes the round trip or ctx ends.
type Transport interface {
	Exchange(ctx context.Context, request Request) (Result, error)
}

// NewSigner adapts a Transport into the signer function the room
// creation flow consumes: the payload string goes out as a request for
// the given address, the scanned signature comes back. Results
// answering a different request are rejected.
func NewSigner(transport Transport, address string) func(ctx context.Context, payload string) (string, error) {
	return func(ctx context.Context, payload string) (string, error) {
		request := NewRequest(address, []byte(payload))
		if _, err := EncodeRequest(request); err != nil {
			return "", err
		}
		result, err := transport.Exchange(ctx, request)
		if err != nil {
			return "", fmt.Errorf("signing: QR round trip: %w", err)
		}
		if result.ID != request.ID {
			return "", fmt.Errorf("%w: got %s, want %s", ErrResultMismatch, result.ID, request.ID)
		}
		return result.Signature, nil
	}
}
