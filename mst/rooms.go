// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/messaging"
)

// Membership is a room membership state as reported by sync.
type Membership string

const (
	MembershipInvite Membership = "invite"
	MembershipJoin   Membership = "join"
	MembershipLeave  Membership = "leave"
)

// roomState is the cached view of one room, maintained by the router
// from sync responses.
type roomState struct {
	name       string
	membership Membership
	encrypted  bool

	// account is the multisig account metadata from the room topic,
	// populated when the room is joined through JoinRoom.
	account *MstAccount
}

// RoomInfo is a room as reported by ListOfOmniRooms.
type RoomInfo struct {
	RoomID     ref.RoomID
	Name       string
	Membership Membership
	Encrypted  bool
}

// Signatory is one co-signer of the multisig account being set up.
type Signatory struct {
	// MatrixAddress is the signatory's Matrix user ID, used for the
	// room invite and device verification.
	MatrixAddress ref.UserID

	// NetworkAddress is the signatory's on-chain address, recorded in
	// the room topic.
	NetworkAddress string

	// IsInviter marks the signatory creating the room; they are not
	// invited to their own room.
	IsInviter bool
}

// RoomParams configures a new coordination room.
type RoomParams struct {
	// MstAccountAddress is the derived multisig account address; it
	// names the room.
	MstAccountAddress string

	// InviterPublicKey is published in the topic so joiners can check
	// the invite signature.
	InviterPublicKey string

	Threshold   int
	Signatories []Signatory
}

// Signer produces a signature over the given payload with a key the
// messenger never sees, typically a cold wallet reached over a QR
// round trip.
type Signer func(ctx context.Context, payload string) (string, error)

// CreateRoom creates a coordination room for a new multisig account:
// creates the private room, obtains the inviter's signature over
// "<address><roomId>", sets the encryption and topic state events,
// invites every signatory except the inviter, and verifies all
// signatories' devices.
//
// Steps are not rolled back on failure — the room, topic, and some
// invites may already exist remotely when an error is returned.
// Recovering from that partial state is the caller's responsibility.
func (m *Messenger) CreateRoom(ctx context.Context, params RoomParams, signer Signer) (ref.RoomID, error) {
	session, err := m.currentSession()
	if err != nil {
		return ref.RoomID{}, err
	}
	if signer == nil {
		return ref.RoomID{}, fmt.Errorf("%w: signer is required", ErrRoomCreationFailed)
	}

	name := "OMNI MST | " + params.MstAccountAddress
	createResponse, err := session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Name:       name,
		Visibility: "private",
		Preset:     "trusted_private_chat",
	})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: %w", ErrRoomCreationFailed, err)
	}
	roomID := createResponse.RoomID

	signature, err := signer(ctx, params.MstAccountAddress+roomID.String())
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: invite signature: %w", ErrRoomCreationFailed, err)
	}

	if err := m.setInitialState(ctx, session, roomID, params, signature); err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: %w", ErrRoomCreationFailed, err)
	}

	if err := inviteSignatories(ctx, session, roomID, params.Signatories); err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: %w", ErrRoomCreationFailed, err)
	}

	members := make([]ref.UserID, len(params.Signatories))
	for i, signatory := range params.Signatories {
		members[i] = signatory.MatrixAddress
	}
	if err := m.verifyDeviceBatch(ctx, session, members); err != nil {
		return ref.RoomID{}, fmt.Errorf("%w: %w", ErrRoomCreationFailed, err)
	}

	// Record the room locally so it is usable before the next sync
	// response arrives.
	networkAddresses := make([]string, len(params.Signatories))
	for i, signatory := range params.Signatories {
		networkAddresses[i] = signatory.NetworkAddress
	}
	m.mu.Lock()
	state := m.roomStateLocked(roomID)
	state.name = name
	state.membership = MembershipJoin
	state.encrypted = true
	state.account = &MstAccount{
		Threshold:   params.Threshold,
		Signatories: networkAddresses,
		Address:     params.MstAccountAddress,
	}
	m.mu.Unlock()

	return roomID, nil
}

// setInitialState sets the encryption and topic state events on a
// freshly created room.
func (m *Messenger) setInitialState(ctx context.Context, session *messaging.Session, roomID ref.RoomID, params RoomParams, signature string) error {
	if _, err := session.SendStateEvent(ctx, roomID, "m.room.encryption", "", m.crypto.RoomEncryptionContent()); err != nil {
		return err
	}

	networkAddresses := make([]string, len(params.Signatories))
	for i, signatory := range params.Signatories {
		networkAddresses[i] = signatory.NetworkAddress
	}
	topic := TopicContent{
		Topic: fmt.Sprintf("Room for communications for %s MST account", params.MstAccountAddress),
		OmniExtras: OmniExtras{
			MstAccount: MstAccount{
				Threshold:   params.Threshold,
				Signatories: networkAddresses,
				Address:     params.MstAccountAddress,
			},
			Invite: InviteMeta{
				Signature: signature,
				PublicKey: params.InviterPublicKey,
			},
		},
	}
	_, err := session.SendStateEvent(ctx, roomID, "m.room.topic", "", topic)
	return err
}

// inviteSignatories invites every non-inviter signatory concurrently
// and joins the batch. The first failing invite fails the batch.
func inviteSignatories(ctx context.Context, session *messaging.Session, roomID ref.RoomID, signatories []Signatory) error {
	var invitees []ref.UserID
	for _, signatory := range signatories {
		if !signatory.IsInviter {
			invitees = append(invitees, signatory.MatrixAddress)
		}
	}

	errs := make([]error, len(invitees))
	var wg sync.WaitGroup
	for i, userID := range invitees {
		wg.Add(1)
		go func(i int, userID ref.UserID) {
			defer wg.Done()
			errs[i] = session.InviteUser(ctx, roomID, userID)
		}(i, userID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// JoinRoom joins an existing coordination room by ID, then reads the
// multisig account metadata from the room topic and verifies the
// devices of every joined member. This is the joiner's side of the
// trust bootstrap CreateRoom performs for the inviter. A room whose
// topic carries no account metadata is left as a plain join.
func (m *Messenger) JoinRoom(ctx context.Context, roomID ref.RoomID) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}

	if _, err := session.JoinRoom(ctx, roomID); err != nil {
		return fmt.Errorf("%w: room %s: %w", ErrJoinFailed, roomID, err)
	}

	m.mu.Lock()
	m.roomStateLocked(roomID).membership = MembershipJoin
	m.mu.Unlock()

	raw, err := session.GetStateEvent(ctx, roomID, "m.room.topic", "")
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return nil
		}
		return fmt.Errorf("%w: room %s topic: %w", ErrJoinFailed, roomID, err)
	}
	var topic TopicContent
	if err := json.Unmarshal(raw, &topic); err != nil {
		return fmt.Errorf("%w: room %s topic: %w", ErrJoinFailed, roomID, err)
	}
	account := topic.OmniExtras.MstAccount
	if account.Address == "" {
		return nil
	}

	m.mu.Lock()
	m.roomStateLocked(roomID).account = &account
	m.mu.Unlock()

	members, err := session.RoomMembers(ctx, roomID)
	if err != nil {
		return fmt.Errorf("%w: room %s members: %w", ErrJoinFailed, roomID, err)
	}
	var joined []ref.UserID
	for _, member := range members {
		if member.Membership == "join" {
			joined = append(joined, member.UserID)
		}
	}
	return m.verifyDeviceBatch(ctx, session, joined)
}

// RoomAccount returns the multisig account metadata read from a
// room's topic on join. The second return is false when the room is
// unknown or its topic carried no account.
func (m *Messenger) RoomAccount(roomID ref.RoomID) (MstAccount, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.rooms[roomID]
	if !ok || state.account == nil {
		return MstAccount{}, false
	}
	return *state.account, true
}

// Invite invites a signatory to an existing coordination room.
func (m *Messenger) Invite(ctx context.Context, roomID ref.RoomID, signatoryID ref.UserID) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}

	if err := session.InviteUser(ctx, roomID, signatoryID); err != nil {
		return fmt.Errorf("%w: %s to room %s: %w", ErrInviteFailed, signatoryID, roomID, err)
	}
	return nil
}

// ListOfOmniRooms returns the known rooms whose name follows the
// coordination convention and whose membership matches the filter.
// Pure query over the sync-maintained cache.
func (m *Messenger) ListOfOmniRooms(membership Membership) ([]RoomInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrNotLoggedIn
	}

	var rooms []RoomInfo
	for roomID, state := range m.rooms {
		if state.membership != membership || !IsOmniRoom(state.name) {
			continue
		}
		rooms = append(rooms, RoomInfo{
			RoomID:     roomID,
			Name:       state.name,
			Membership: state.membership,
			Encrypted:  state.encrypted,
		})
	}
	return rooms, nil
}

// SetRoom sets the active room for subsequent message and command
// operations. The room is not validated here; commands check it
// lazily on use.
func (m *Messenger) SetRoom(roomID ref.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeRoom = roomID
}

// TimelineMessages returns the active room's recent timeline event
// contents in chronological order. A finite snapshot, recomputed on
// each call.
func (m *Messenger) TimelineMessages(ctx context.Context) ([]map[string]any, error) {
	session, err := m.currentSession()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	roomID := m.activeRoom
	_, known := m.rooms[roomID]
	m.mu.Unlock()
	if roomID.IsZero() || !known {
		return nil, ErrRoomNotFound
	}

	response, err := session.RoomMessages(ctx, roomID, messaging.RoomMessagesOptions{
		Direction: "b",
		Limit:     100,
	})
	if err != nil {
		return nil, fmt.Errorf("mst: timeline for room %s: %w", roomID, err)
	}

	// The backward pagination returns newest first; reverse into
	// timeline order.
	contents := make([]map[string]any, len(response.Chunk))
	for i, event := range response.Chunk {
		contents[len(response.Chunk)-1-i] = event.Content
	}
	return contents, nil
}
