// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/messaging"
)

// syncFilter restricts /sync responses to what the router consumes:
// room timelines and state. Presence and account data are dropped at
// the homeserver.
const syncFilter = `{"room":{"timeline":{"limit":50}},"presence":{"types":[]},"account_data":{"types":[]}}`

const maxSyncBackoff = 30 * time.Second

// startRouter launches the background sync loop for the given
// session. Caller holds m.lifecycle.
func (m *Messenger) startRouter(session *messaging.Session) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	m.syncCancel = cancel
	m.syncDone = done
	m.mu.Unlock()

	go m.runSyncLoop(ctx, session, done)
}

// stopRouter cancels the sync loop and waits for it to exit. Caller
// holds m.lifecycle. No-op when the router is not running.
func (m *Messenger) stopRouter() {
	m.mu.Lock()
	cancel := m.syncCancel
	done := m.syncDone
	m.syncCancel = nil
	m.syncDone = nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// runSyncLoop drives the /sync long-poll loop. The first response
// (no since token) is the initial snapshot: it seeds the room cache
// and flips the synced gate but is never dispatched — events that
// predate sync completion are dropped. Every later response is
// dispatched to the registered callbacks.
//
// Transient errors retry with exponential backoff. A rejected since
// token resets the gate and restarts from initial sync. A rejected
// access token ends the loop: the session was invalidated remotely
// and only a fresh login can recover.
func (m *Messenger) runSyncLoop(ctx context.Context, session *messaging.Session, done chan<- struct{}) {
	defer close(done)

	backoff := time.Second
	since := ""

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		m.mu.Lock()
		initial := !m.isSynced
		m.mu.Unlock()

		options := messaging.SyncOptions{
			Since:  since,
			Filter: syncFilter,
		}
		if !initial {
			options.Timeout = int(m.syncTimeout.Milliseconds())
			options.SetTimeout = true
		}

		response, err := session.Sync(ctx, options)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if messaging.IsUnknownToken(err) {
				m.logger.Error("access token rejected by homeserver, stopping sync", "error", err)
				return
			}
			var matrixErr *messaging.MatrixError
			if errors.As(err, &matrixErr) && matrixErr.StatusCode == http.StatusBadRequest {
				// The homeserver no longer recognizes the since token.
				// Drop the gate and restart from an initial snapshot.
				m.mu.Lock()
				m.isSynced = false
				m.mu.Unlock()
				since = ""
			}
			m.logger.Error("sync failed, retrying", "error", err, "backoff", backoff)
			select {
			case <-ctx.Done():
				return
			case <-m.clock.After(backoff):
			}
			backoff *= 2
			if backoff > maxSyncBackoff {
				backoff = maxSyncBackoff
			}
			continue
		}

		backoff = time.Second
		since = response.NextBatch

		if initial {
			m.handleInitialSync(response)
		} else {
			m.handleIncrementalSync(response)
		}
	}
}

// handleInitialSync seeds the room cache from the snapshot and opens
// the synced gate. Nothing in the snapshot is dispatched.
func (m *Messenger) handleInitialSync(response *messaging.SyncResponse) {
	m.updateRoomCache(response)

	m.mu.Lock()
	m.isSynced = true
	roomCount := len(m.rooms)
	m.mu.Unlock()

	m.logger.Info("initial sync complete", "rooms", roomCount)

	callbacks := m.snapshotCallbacks()
	if callbacks.OnSyncEnd != nil {
		callbacks.OnSyncEnd()
	}
}

// handleIncrementalSync dispatches one incremental response: sync
// progress, new invites to coordination rooms, room messages, and the
// four coordination event types.
func (m *Messenger) handleIncrementalSync(response *messaging.SyncResponse) {
	callbacks := m.snapshotCallbacks()
	if callbacks.OnSyncProgress != nil {
		callbacks.OnSyncProgress()
	}

	newInvites := m.updateRoomCache(response)
	for _, roomID := range newInvites {
		m.logger.Info("invited to coordination room", "room_id", roomID)
		if callbacks.OnInvite != nil {
			callbacks.OnInvite(roomID)
		}
	}

	for roomID, joinedRoom := range response.Rooms.Join {
		if !IsOmniRoom(m.roomName(roomID)) {
			continue
		}
		for _, event := range joinedRoom.Timeline.Events {
			m.dispatchTimelineEvent(callbacks, roomID, event)
		}
	}
}

// dispatchTimelineEvent routes one timeline event from a coordination
// room. Room messages and coordination commands are independent
// dispatch paths; event types matching neither are ignored.
func (m *Messenger) dispatchTimelineEvent(callbacks Callbacks, roomID ref.RoomID, event messaging.Event) {
	if event.Type == "m.room.message" {
		body, ok := event.Content["body"].(string)
		if ok && callbacks.OnMessage != nil {
			callbacks.OnMessage(body)
		}
		return
	}

	var handler func(MstEvent)
	switch event.Type {
	case EventMstInit:
		handler = callbacks.OnMstInitiate
	case EventMstApprove:
		handler = callbacks.OnMstApprove
	case EventMstFinalApprove:
		handler = callbacks.OnMstFinalApprove
	case EventMstCancel:
		handler = callbacks.OnMstCancel
	default:
		return
	}
	if handler == nil {
		return
	}

	handler(MstEvent{
		RoomID:  roomID,
		Sender:  event.Sender,
		Content: event.Content,
		Date:    time.UnixMilli(event.OriginServerTS),
	})
}

// updateRoomCache folds one sync response into the room-state cache
// (name, membership, encryption). Returns the rooms that newly
// entered the invited state and carry a coordination room name — the
// router fires OnInvite for those.
func (m *Messenger) updateRoomCache(response *messaging.SyncResponse) []ref.RoomID {
	m.mu.Lock()
	defer m.mu.Unlock()

	var newInvites []ref.RoomID

	for roomID, invitedRoom := range response.Rooms.Invite {
		state := m.roomStateLocked(roomID)
		for _, event := range invitedRoom.InviteState.Events {
			applyStateEvent(state, event)
		}
		if state.membership != MembershipInvite {
			state.membership = MembershipInvite
			if IsOmniRoom(state.name) {
				newInvites = append(newInvites, roomID)
			}
		}
	}

	for roomID, joinedRoom := range response.Rooms.Join {
		state := m.roomStateLocked(roomID)
		state.membership = MembershipJoin
		for _, event := range joinedRoom.State.Events {
			applyStateEvent(state, event)
		}
		for _, event := range joinedRoom.Timeline.Events {
			applyStateEvent(state, event)
		}
	}

	for roomID := range response.Rooms.Leave {
		state := m.roomStateLocked(roomID)
		state.membership = MembershipLeave
	}

	return newInvites
}

// roomStateLocked returns the cache entry for a room, creating it if
// needed. Caller holds m.mu.
func (m *Messenger) roomStateLocked(roomID ref.RoomID) *roomState {
	state, ok := m.rooms[roomID]
	if !ok {
		state = &roomState{}
		m.rooms[roomID] = state
	}
	return state
}

// applyStateEvent folds a single state event into a room cache entry.
func applyStateEvent(state *roomState, event messaging.Event) {
	switch event.Type {
	case "m.room.name":
		if name, ok := event.Content["name"].(string); ok {
			state.name = name
		}
	case "m.room.encryption":
		state.encrypted = true
	}
}

// roomName reads a room's cached display name.
func (m *Messenger) roomName(roomID ref.RoomID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.rooms[roomID]; ok {
		return state.name
	}
	return ""
}
