// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the wallet's local persistence layer: Matrix
// credentials, verified signatory devices, and multisig wallet
// records, all in one SQLite database.
//
// The store is a collaborator of the coordination layer, not part of
// it — mst talks to the interfaces the messenger config declares, and
// this package provides the production implementation.
package store

import (
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/Asmadek/omni-desktop/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS matrix_credentials (
	user_id      TEXT PRIMARY KEY,
	access_token TEXT NOT NULL,
	device_id    TEXT NOT NULL,
	state        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS verified_devices (
	user_id   TEXT NOT NULL,
	device_id TEXT NOT NULL,
	PRIMARY KEY (user_id, device_id)
);

CREATE TABLE IF NOT EXISTS wallets (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	address   TEXT NOT NULL UNIQUE,
	threshold INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wallet_signatories (
	wallet_id       TEXT NOT NULL REFERENCES wallets(id) ON DELETE CASCADE,
	network_address TEXT NOT NULL,
	matrix_address  TEXT NOT NULL,
	PRIMARY KEY (wallet_id, network_address)
);
`

// Config holds the parameters for opening a Store.
type Config struct {
	// DatabasePath is the path to the SQLite database file, or
	// ":memory:" for tests.
	DatabasePath string

	// PoolSize is the SQLite connection pool size. Zero uses the pool
	// default. Must be 1 for ":memory:".
	PoolSize int

	// Logger receives operational messages. If nil, slog.Default() is
	// used.
	Logger *slog.Logger
}

// Store provides persistence for credentials, device trust, and
// wallets. Safe for concurrent use.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// Open opens (and if necessary creates) the wallet database.
// The caller must call Close when done.
func Open(cfg Config) (*Store, error) {
	if cfg.DatabasePath == "" {
		return nil, fmt.Errorf("store: DatabasePath is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.DatabasePath,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &Store{pool: pool, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
