// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"fmt"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/messaging"
)

// activeTarget validates the preconditions shared by every command:
// logged in, active room set. Returns the session and room to send to.
func (m *Messenger) activeTarget() (*messaging.Session, ref.RoomID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ref.RoomID{}, ErrNotLoggedIn
	}
	if m.activeRoom.IsZero() {
		return nil, ref.RoomID{}, ErrNoActiveRoom
	}
	return m.session, m.activeRoom, nil
}

// SendMessage sends a plain text message to the active room.
func (m *Messenger) SendMessage(ctx context.Context, body string) error {
	session, roomID, err := m.activeTarget()
	if err != nil {
		return err
	}
	if _, err := session.SendMessage(ctx, roomID, messaging.NewTextMessage(body)); err != nil {
		return fmt.Errorf("%w: message: %w", ErrSendFailed, err)
	}
	return nil
}

// MstInitiate announces a new multisig transaction to the active
// room's signatories.
func (m *Messenger) MstInitiate(ctx context.Context, params MstInitParams) error {
	return m.sendCommand(ctx, EventMstInit, params)
}

// MstApprove records this signatory's approval of a pending call.
func (m *Messenger) MstApprove(ctx context.Context, params MstBaseParams) error {
	return m.sendCommand(ctx, EventMstApprove, params)
}

// MstFinalApprove records the threshold-reaching approval that
// executes the call.
func (m *Messenger) MstFinalApprove(ctx context.Context, params MstBaseParams) error {
	return m.sendCommand(ctx, EventMstFinalApprove, params)
}

// MstCancel withdraws a pending multisig transaction.
func (m *Messenger) MstCancel(ctx context.Context, params MstCancelParams) error {
	return m.sendCommand(ctx, EventMstCancel, params)
}

func (m *Messenger) sendCommand(ctx context.Context, eventType ref.EventType, payload any) error {
	session, roomID, err := m.activeTarget()
	if err != nil {
		return err
	}
	if _, err := session.SendEvent(ctx, roomID, eventType, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSendFailed, eventType, err)
	}
	return nil
}
