// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/mst"
)

// MessengerStore adapts Store to the credential interface the session
// manager consumes.
type MessengerStore struct {
	store *Store
}

var _ mst.CredentialStore = (*MessengerStore)(nil)

// NewMessengerStore returns a MessengerStore over s.
func NewMessengerStore(s *Store) *MessengerStore {
	return &MessengerStore{store: s}
}

// SaveCredentials records a session as the active one.
func (ms *MessengerStore) SaveCredentials(ctx context.Context, creds mst.Credentials) error {
	return ms.store.SaveCredentials(ctx, Credentials{
		UserID:      creds.UserID,
		AccessToken: creds.AccessToken,
		DeviceID:    creds.DeviceID,
	})
}

// LoggedInCredentials returns the active cached session, or nil.
func (ms *MessengerStore) LoggedInCredentials(ctx context.Context) (*mst.Credentials, error) {
	creds, err := ms.store.LoggedInCredentials(ctx)
	if err != nil || creds == nil {
		return nil, err
	}
	return &mst.Credentials{
		UserID:      creds.UserID,
		AccessToken: creds.AccessToken,
		DeviceID:    creds.DeviceID,
	}, nil
}

// DeleteCredentials removes a user's cached session.
func (ms *MessengerStore) DeleteCredentials(ctx context.Context, userID ref.UserID) error {
	return ms.store.DeleteCredentials(ctx, userID)
}
