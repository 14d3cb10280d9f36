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

// AuthState records whether a stored credential row is live.
type AuthState string

const (
	LoggedIn  AuthState = "LOGGED_IN"
	LoggedOut AuthState = "LOGGED_OUT"
)

// Credentials is one saved Matrix session.
type Credentials struct {
	UserID      ref.UserID
	AccessToken string
	DeviceID    ref.DeviceID
	State       AuthState
}

// SaveCredentials records a session as the active one. Any previously
// active credentials are demoted to LOGGED_OUT in the same
// transaction, so at most one row is LOGGED_IN at a time.
func (s *Store) SaveCredentials(ctx context.Context, creds Credentials) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	done := sqlitex.Transaction(conn)
	defer done(&err)

	err = sqlitex.Execute(conn,
		`UPDATE matrix_credentials SET state = ? WHERE state = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(LoggedOut), string(LoggedIn)},
		})
	if err != nil {
		return fmt.Errorf("store: demote credentials: %w", err)
	}

	err = sqlitex.Execute(conn,
		`INSERT INTO matrix_credentials (user_id, access_token, device_id, state)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		     access_token = excluded.access_token,
		     device_id = excluded.device_id,
		     state = excluded.state`,
		&sqlitex.ExecOptions{
			Args: []any{
				creds.UserID.String(),
				creds.AccessToken,
				creds.DeviceID.String(),
				string(LoggedIn),
			},
		})
	if err != nil {
		return fmt.Errorf("store: save credentials: %w", err)
	}
	return nil
}

// LoggedInCredentials returns the active saved session, or (nil, nil)
// when no session is active.
func (s *Store) LoggedInCredentials(ctx context.Context) (*Credentials, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var creds *Credentials
	err = sqlitex.Execute(conn,
		`SELECT user_id, access_token, device_id, state
		 FROM matrix_credentials WHERE state = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(LoggedIn)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				userID, err := ref.ParseUserID(stmt.ColumnText(0))
				if err != nil {
					return fmt.Errorf("stored user ID: %w", err)
				}
				deviceID, err := ref.ParseDeviceID(stmt.ColumnText(2))
				if err != nil {
					return fmt.Errorf("stored device ID: %w", err)
				}
				creds = &Credentials{
					UserID:      userID,
					AccessToken: stmt.ColumnText(1),
					DeviceID:    deviceID,
					State:       AuthState(stmt.ColumnText(3)),
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: load credentials: %w", err)
	}
	return creds, nil
}

// MarkLoggedOut demotes the given user's credentials without deleting
// the row, so the device ID survives for the next login.
func (s *Store) MarkLoggedOut(ctx context.Context, userID ref.UserID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE matrix_credentials SET state = ?, access_token = '' WHERE user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{string(LoggedOut), userID.String()},
		})
	if err != nil {
		return fmt.Errorf("store: mark logged out: %w", err)
	}
	return nil
}

// DeleteCredentials removes a user's saved session entirely.
func (s *Store) DeleteCredentials(ctx context.Context, userID ref.UserID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM matrix_credentials WHERE user_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{userID.String()},
		})
	if err != nil {
		return fmt.Errorf("store: delete credentials: %w", err)
	}
	return nil
}
