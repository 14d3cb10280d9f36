// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import "errors"

// Sentinel errors for session-state preconditions and wrapped
// transport failures. Operations wrap the underlying cause alongside
// the sentinel, so both errors.Is(err, ErrLoginFailed) and
// errors.As(err, &matrixErr) work on the same value.
var (
	// ErrNotInitialized: a login was attempted before Init.
	ErrNotInitialized = errors.New("mst: encryption not initialized")

	// ErrAlreadyInitialized: Init was called twice.
	ErrAlreadyInitialized = errors.New("mst: already initialized")

	// ErrEncryptionInitFailed: the crypto engine could not load.
	ErrEncryptionInitFailed = errors.New("mst: encryption init failed")

	// ErrNotLoggedIn: the operation requires an authenticated session.
	ErrNotLoggedIn = errors.New("mst: not logged in")

	// ErrAlreadyLoggedIn: a login was attempted over a live session.
	ErrAlreadyLoggedIn = errors.New("mst: already logged in")

	// ErrLoginFailed wraps any authentication or persistence failure
	// during login.
	ErrLoginFailed = errors.New("mst: login failed")

	// ErrNoCachedCredentials: LoginFromCache found no LOGGED_IN record.
	ErrNoCachedCredentials = errors.New("mst: no cached credentials")

	// ErrLogoutFailed wraps failures during logout. The session may be
	// left partially torn down; the caller should treat the persisted
	// credential record as suspect.
	ErrLogoutFailed = errors.New("mst: logout failed")

	// ErrNoActiveRoom: a command was issued before SetRoom.
	ErrNoActiveRoom = errors.New("mst: no active room set")

	// ErrRoomNotFound: the active room is not known to the session.
	ErrRoomNotFound = errors.New("mst: room not found")

	// ErrRoomCreationFailed wraps the first failing step of CreateRoom.
	// Earlier steps are not rolled back: the room, topic, and some
	// invites may already exist remotely.
	ErrRoomCreationFailed = errors.New("mst: room creation failed")

	// ErrJoinFailed wraps a failed room join.
	ErrJoinFailed = errors.New("mst: join failed")

	// ErrInviteFailed wraps a failed signatory invite.
	ErrInviteFailed = errors.New("mst: invite failed")

	// ErrDeviceVerificationFailed wraps any failure in the batched
	// device verification; a single failing device fails the batch.
	ErrDeviceVerificationFailed = errors.New("mst: device verification failed")

	// ErrSendFailed wraps a failed message or coordination event send.
	ErrSendFailed = errors.New("mst: send failed")

	// ErrInvalidUserID: the given Matrix user ID is malformed.
	ErrInvalidUserID = errors.New("mst: invalid user ID")
)
