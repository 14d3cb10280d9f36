// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Asmadek/omni-desktop/lib/ref"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{
		DatabasePath: filepath.Join(t.TempDir(), "omni.db"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return s
}

func TestCredentialsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.LoggedInCredentials(ctx)
	if err != nil {
		t.Fatalf("LoggedInCredentials: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no credentials in fresh store, got %+v", got)
	}

	creds := Credentials{
		UserID:      ref.MustParseUserID("@alice:example.org"),
		AccessToken: "syt_token_1",
		DeviceID:    mustDevice(t, "DEVICEONE"),
	}
	if err := s.SaveCredentials(ctx, creds); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}

	got, err = s.LoggedInCredentials(ctx)
	if err != nil {
		t.Fatalf("LoggedInCredentials: %v", err)
	}
	if got == nil {
		t.Fatal("expected saved credentials")
	}
	if got.UserID != creds.UserID || got.AccessToken != creds.AccessToken || got.DeviceID != creds.DeviceID {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, creds)
	}
	if got.State != LoggedIn {
		t.Errorf("state = %q, want %q", got.State, LoggedIn)
	}
}

func TestSaveCredentialsDemotesPrevious(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := Credentials{
		UserID:      ref.MustParseUserID("@alice:example.org"),
		AccessToken: "syt_alice",
		DeviceID:    mustDevice(t, "ALICEDEV"),
	}
	bob := Credentials{
		UserID:      ref.MustParseUserID("@bob:example.org"),
		AccessToken: "syt_bob",
		DeviceID:    mustDevice(t, "BOBDEV"),
	}
	if err := s.SaveCredentials(ctx, alice); err != nil {
		t.Fatalf("save alice: %v", err)
	}
	if err := s.SaveCredentials(ctx, bob); err != nil {
		t.Fatalf("save bob: %v", err)
	}

	got, err := s.LoggedInCredentials(ctx)
	if err != nil {
		t.Fatalf("LoggedInCredentials: %v", err)
	}
	if got == nil || got.UserID != bob.UserID {
		t.Fatalf("active credentials = %+v, want bob", got)
	}
}

func TestMarkLoggedOutClearsToken(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	creds := Credentials{
		UserID:      ref.MustParseUserID("@alice:example.org"),
		AccessToken: "syt_token",
		DeviceID:    mustDevice(t, "ALICEDEV"),
	}
	if err := s.SaveCredentials(ctx, creds); err != nil {
		t.Fatalf("SaveCredentials: %v", err)
	}
	if err := s.MarkLoggedOut(ctx, creds.UserID); err != nil {
		t.Fatalf("MarkLoggedOut: %v", err)
	}

	got, err := s.LoggedInCredentials(ctx)
	if err != nil {
		t.Fatalf("LoggedInCredentials: %v", err)
	}
	if got != nil {
		t.Errorf("expected no active credentials after logout, got %+v", got)
	}
}

func TestDeviceVerification(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	user := ref.MustParseUserID("@bob:example.org")
	dev := mustDevice(t, "BOBDEV")

	verified, err := s.IsDeviceVerified(ctx, user, dev)
	if err != nil {
		t.Fatalf("IsDeviceVerified: %v", err)
	}
	if verified {
		t.Error("device verified before marking")
	}

	// Marking twice must not error.
	for i := 0; i < 2; i++ {
		if err := s.MarkDeviceVerified(ctx, user, dev); err != nil {
			t.Fatalf("MarkDeviceVerified (attempt %d): %v", i+1, err)
		}
	}

	verified, err = s.IsDeviceVerified(ctx, user, dev)
	if err != nil {
		t.Fatalf("IsDeviceVerified: %v", err)
	}
	if !verified {
		t.Error("device not verified after marking")
	}

	devices, err := s.VerifiedDevices(ctx, user)
	if err != nil {
		t.Fatalf("VerifiedDevices: %v", err)
	}
	if len(devices) != 1 || devices[0] != dev {
		t.Errorf("VerifiedDevices = %v, want [%v]", devices, dev)
	}
}

func TestWalletRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	w := Wallet{
		Name:      "treasury",
		Address:   "0xdeadbeef",
		Threshold: 2,
		Signatories: []Signatory{
			{NetworkAddress: "5Alice", MatrixAddress: "@alice:example.org"},
			{NetworkAddress: "5Bob", MatrixAddress: "@bob:example.org"},
			{NetworkAddress: "5Carol", MatrixAddress: "@carol:example.org"},
		},
	}
	id, err := s.SaveWallet(ctx, w)
	if err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if id == "" {
		t.Fatal("SaveWallet returned empty ID")
	}

	got, err := s.WalletByAddress(ctx, "0xdeadbeef")
	if err != nil {
		t.Fatalf("WalletByAddress: %v", err)
	}
	if got == nil {
		t.Fatal("wallet not found")
	}
	if got.ID != id || got.Name != w.Name || got.Threshold != w.Threshold {
		t.Errorf("wallet mismatch: got %+v", got)
	}
	if len(got.Signatories) != 3 || got.Signatories[1].NetworkAddress != "5Bob" {
		t.Errorf("signatories mismatch: %+v", got.Signatories)
	}

	// Updating under the same ID replaces the signatory list.
	w.ID = id
	w.Signatories = w.Signatories[:2]
	if _, err := s.SaveWallet(ctx, w); err != nil {
		t.Fatalf("SaveWallet update: %v", err)
	}
	got, err = s.WalletByAddress(ctx, "0xdeadbeef")
	if err != nil {
		t.Fatalf("WalletByAddress: %v", err)
	}
	if len(got.Signatories) != 2 {
		t.Errorf("signatories after update = %d, want 2", len(got.Signatories))
	}
}

func TestWalletValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.SaveWallet(ctx, Wallet{Name: "x", Threshold: 2}); err == nil {
		t.Error("expected error for missing address")
	}
	if _, err := s.SaveWallet(ctx, Wallet{Name: "x", Address: "0xa", Threshold: 0}); err == nil {
		t.Error("expected error for zero threshold")
	}
}

func TestDeleteWalletCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveWallet(ctx, Wallet{
		Name:      "treasury",
		Address:   "0xabc",
		Threshold: 2,
		Signatories: []Signatory{
			{NetworkAddress: "5Alice", MatrixAddress: "@alice:example.org"},
		},
	})
	if err != nil {
		t.Fatalf("SaveWallet: %v", err)
	}
	if err := s.DeleteWallet(ctx, id); err != nil {
		t.Fatalf("DeleteWallet: %v", err)
	}

	wallets, err := s.Wallets(ctx)
	if err != nil {
		t.Fatalf("Wallets: %v", err)
	}
	if len(wallets) != 0 {
		t.Errorf("wallets after delete = %v, want none", wallets)
	}
}

func mustDevice(t *testing.T, raw string) ref.DeviceID {
	t.Helper()
	d, err := ref.ParseDeviceID(raw)
	if err != nil {
		t.Fatalf("ParseDeviceID(%q): %v", raw, err)
	}
	return d
}
