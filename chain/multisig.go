// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package chain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionStatus is the lifecycle state of a stored transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
)

// TransactionType classifies a stored transaction.
type TransactionType string

// TypeMultisigTransfer is a transfer from a multisig account. The only
// type the coordination workflow produces today.
const TypeMultisigTransfer TransactionType = "MULTISIG_TRANSFER"

// BlockRef points at the block where a multisig call was registered.
type BlockRef struct {
	Height uint64
	Hash   string
}

// PendingMultisig is one open multisig call as reported by the chain's
// multisig pallet for an account.
type PendingMultisig struct {
	// CallHash identifies the call awaiting approvals, 0x-hex.
	CallHash string

	// Depositor is the address that initiated the call and reserved
	// the deposit.
	Depositor string

	// Approvals are the addresses that have approved so far.
	Approvals []string

	// Deposit is the reserved amount in the chain's smallest unit.
	// Kept as a decimal string: chain balances overflow uint64.
	Deposit string

	// When is the block where the call was registered.
	When BlockRef
}

// Transaction is a multisig transaction as stored locally. It mirrors
// the chain's pending entry plus the wallet-side bookkeeping needed to
// present and resume it.
type Transaction struct {
	ID        string
	WalletID  string
	ChainID   string
	Address   string // depositor
	Type      TransactionType
	Status    TransactionStatus
	CreatedAt time.Time

	BlockHeight uint64
	BlockHash   string
	CallHash    string
	Deposit     string
	Approvals   []string
}

// SameTransaction reports whether a stored transaction and a pending
// chain entry describe the same multisig call. All identifying fields
// must agree: depositor, block height, deposit, and call hash.
func SameTransaction(tx Transaction, pending PendingMultisig) bool {
	return tx.Type == TypeMultisigTransfer &&
		tx.Address == pending.Depositor &&
		tx.BlockHeight == pending.When.Height &&
		tx.Deposit == pending.Deposit &&
		tx.CallHash == pending.CallHash
}

// Apply refreshes a stored transaction from its pending chain entry:
// block position, deposit, and the current approval set.
func Apply(tx Transaction, pending PendingMultisig) Transaction {
	tx.BlockHeight = pending.When.Height
	tx.BlockHash = pending.When.Hash
	tx.Deposit = pending.Deposit
	tx.Approvals = append([]string(nil), pending.Approvals...)
	return tx
}

// NewTransaction builds the stored record for a pending multisig call
// seen for the first time.
func NewTransaction(pending PendingMultisig, chainID, walletID string, now time.Time) Transaction {
	return Transaction{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		ChainID:     chainID,
		Address:     pending.Depositor,
		Type:        TypeMultisigTransfer,
		Status:      StatusPending,
		CreatedAt:   now,
		BlockHeight: pending.When.Height,
		BlockHash:   pending.When.Hash,
		CallHash:    pending.CallHash,
		Deposit:     pending.Deposit,
		Approvals:   append([]string(nil), pending.Approvals...),
	}
}

// Reconcile folds the chain's pending set into the locally stored
// transactions. Each pending entry either refreshes the stored record
// it matches or becomes a new record. Returns the records to persist;
// stored transactions with no pending counterpart are left alone (they
// were executed or cancelled, which the coordination events handle).
func Reconcile(saved []Transaction, pending []PendingMultisig, chainID, walletID string, now time.Time) []Transaction {
	var changed []Transaction
	for _, entry := range pending {
		matched := false
		for _, tx := range saved {
			if SameTransaction(tx, entry) {
				changed = append(changed, Apply(tx, entry))
				matched = true
				break
			}
		}
		if !matched {
			changed = append(changed, NewTransaction(entry, chainID, walletID, now))
		}
	}
	return changed
}
