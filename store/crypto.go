// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Asmadek/omni-desktop/lib/ref"
)

// Crypto is the store-backed encryption capability consumed by the
// coordination layer. Device trust decisions are recorded in the
// verified_devices table; the cryptographic ratchet itself lives in
// the external messaging runtime.
type Crypto struct {
	store *Store
}

// NewCrypto returns a Crypto recording device trust in s.
func NewCrypto(s *Store) *Crypto {
	return &Crypto{store: s}
}

// Init checks that the trust store is reachable. Called once by the
// session manager before any login.
func (c *Crypto) Init(ctx context.Context) error {
	conn, err := c.store.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("store: crypto init: %w", err)
	}
	defer c.store.pool.Put(conn)

	if err := sqlitex.Execute(conn, `SELECT count(*) FROM verified_devices`, nil); err != nil {
		return fmt.Errorf("store: crypto init: %w", err)
	}
	return nil
}

// MarkDeviceVerified records trust for a signatory device.
func (c *Crypto) MarkDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) error {
	return c.store.MarkDeviceVerified(ctx, userID, deviceID)
}

// IsDeviceVerified reports recorded trust for a device.
func (c *Crypto) IsDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) (bool, error) {
	return c.store.IsDeviceVerified(ctx, userID, deviceID)
}

// RoomEncryptionContent is the m.room.encryption state content set on
// new coordination rooms.
func (c *Crypto) RoomEncryptionContent() any {
	return map[string]any{
		"algorithm": "m.megolm.v1.aes-sha2",
	}
}
