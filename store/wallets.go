// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Signatory is one co-signer of a multisig wallet: the on-chain
// address that contributes a signature and the Matrix account used to
// coordinate it.
type Signatory struct {
	NetworkAddress string
	MatrixAddress  string
}

// Wallet is a stored multisig account. Address is the derived
// multisig address; Threshold is the number of approvals required.
type Wallet struct {
	ID          string
	Name        string
	Address     string
	Threshold   int
	Signatories []Signatory
}

// SaveWallet inserts or updates a wallet and its signatory list.
// When w.ID is empty a new UUID is assigned; the stored ID is
// returned either way.
func (s *Store) SaveWallet(ctx context.Context, w Wallet) (id string, err error) {
	if w.Address == "" {
		return "", fmt.Errorf("store: wallet address is required")
	}
	if w.Threshold < 1 {
		return "", fmt.Errorf("store: wallet threshold must be at least 1, got %d", w.Threshold)
	}
	id = w.ID
	if id == "" {
		id = uuid.NewString()
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", err
	}
	defer s.pool.Put(conn)

	done := sqlitex.Transaction(conn)
	defer done(&err)

	err = sqlitex.Execute(conn,
		`INSERT INTO wallets (id, name, address, threshold) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     address = excluded.address,
		     threshold = excluded.threshold`,
		&sqlitex.ExecOptions{
			Args: []any{id, w.Name, w.Address, w.Threshold},
		})
	if err != nil {
		return "", fmt.Errorf("store: save wallet: %w", err)
	}

	err = sqlitex.Execute(conn,
		`DELETE FROM wallet_signatories WHERE wallet_id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return "", fmt.Errorf("store: clear signatories: %w", err)
	}

	for _, sig := range w.Signatories {
		err = sqlitex.Execute(conn,
			`INSERT INTO wallet_signatories (wallet_id, network_address, matrix_address)
			 VALUES (?, ?, ?)`,
			&sqlitex.ExecOptions{
				Args: []any{id, sig.NetworkAddress, sig.MatrixAddress},
			})
		if err != nil {
			return "", fmt.Errorf("store: save signatory %s: %w", sig.NetworkAddress, err)
		}
	}
	return id, nil
}

// WalletByAddress loads a wallet by its multisig address, or
// (nil, nil) when none matches.
func (s *Store) WalletByAddress(ctx context.Context, address string) (*Wallet, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var w *Wallet
	err = sqlitex.Execute(conn,
		`SELECT id, name, address, threshold FROM wallets WHERE address = ?`,
		&sqlitex.ExecOptions{
			Args: []any{address},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				w = &Wallet{
					ID:        stmt.ColumnText(0),
					Name:      stmt.ColumnText(1),
					Address:   stmt.ColumnText(2),
					Threshold: stmt.ColumnInt(3),
				}
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: load wallet: %w", err)
	}
	if w == nil {
		return nil, nil
	}
	w.Signatories, err = s.signatories(conn, w.ID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Wallets lists all stored wallets, ordered by name.
func (s *Store) Wallets(ctx context.Context) ([]Wallet, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var wallets []Wallet
	err = sqlitex.Execute(conn,
		`SELECT id, name, address, threshold FROM wallets ORDER BY name, id`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				wallets = append(wallets, Wallet{
					ID:        stmt.ColumnText(0),
					Name:      stmt.ColumnText(1),
					Address:   stmt.ColumnText(2),
					Threshold: stmt.ColumnInt(3),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: list wallets: %w", err)
	}
	for i := range wallets {
		wallets[i].Signatories, err = s.signatories(conn, wallets[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return wallets, nil
}

// DeleteWallet removes a wallet and, via the foreign key cascade, its
// signatory rows.
func (s *Store) DeleteWallet(ctx context.Context, id string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`DELETE FROM wallets WHERE id = ?`,
		&sqlitex.ExecOptions{Args: []any{id}})
	if err != nil {
		return fmt.Errorf("store: delete wallet: %w", err)
	}
	return nil
}

func (s *Store) signatories(conn *sqlite.Conn, walletID string) ([]Signatory, error) {
	var sigs []Signatory
	err := sqlitex.Execute(conn,
		`SELECT network_address, matrix_address FROM wallet_signatories
		 WHERE wallet_id = ? ORDER BY rowid`,
		&sqlitex.ExecOptions{
			Args: []any{walletID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				sigs = append(sigs, Signatory{
					NetworkAddress: stmt.ColumnText(0),
					MatrixAddress:  stmt.ColumnText(1),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("store: list signatories: %w", err)
	}
	return sigs, nil
}
