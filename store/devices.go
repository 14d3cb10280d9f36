// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Asmadek/omni-desktop/lib/ref"
)

// MarkDeviceVerified records that the local user has verified one of
// another signatory's devices. Idempotent.
func (s *Store) MarkDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO verified_devices (user_id, device_id) VALUES (?, ?)
		 ON CONFLICT (user_id, device_id) DO NOTHING`,
		&sqlitex.ExecOptions{
			Args: []any{userID.String(), deviceID.String()},
		})
	if err != nil {
		return fmt.Errorf("store: mark device verified: %w", err)
	}
	return nil
}

// IsDeviceVerified reports whether a device was previously verified.
func (s *Store) IsDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) (bool, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return false, err
	}
	defer s.pool.Put(conn)

	var found bool
	err = sqlitex.Execute(conn,
		`SELECT 1 FROM verified_devices WHERE user_id = ? AND device_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{userID.String(), deviceID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("store: query device: %w", err)
	}
	return found, nil
}

// VerifiedDevices lists all devices verified for a user, in insertion
// order.
func (s *Store) VerifiedDevices(ctx context.Context, userID ref.UserID) ([]ref.DeviceID, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var devices []ref.DeviceID
	err = sqlitex.Execute(conn,
		`SELECT device_id FROM verified_devices WHERE user_id = ? ORDER BY rowid`,
		&sqlitex.ExecOptions{
			Args: []any{userID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				deviceID, err := ref.ParseDeviceID(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("stored device ID: %w", err)
				}
				devices = append(devices, deviceID)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: list devices: %w", err)
	}
	return devices, nil
}
