// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"regexp"
	"time"

	"github.com/Asmadek/omni-desktop/lib/ref"
)

// Coordination event types exchanged in MST rooms. Custom types in
// the io.omni namespace travel through the normal room timeline
// alongside m.room.message events.
const (
	EventMstInit         ref.EventType = "io.omni.mst_init"
	EventMstApprove      ref.EventType = "io.omni.mst_approve"
	EventMstFinalApprove ref.EventType = "io.omni.mst_final_approve"
	EventMstCancel       ref.EventType = "io.omni.mst_cancel"
)

// omniRoomPattern is the room naming convention that marks a room as
// belonging to this application. Literal prefix, case-insensitive hex
// suffix, nothing trailing.
var omniRoomPattern = regexp.MustCompile(`^OMNI MST \| 0x[a-fA-F0-9]+$`)

// IsOmniRoom reports whether a room name follows the MST coordination
// room convention.
func IsOmniRoom(name string) bool {
	return omniRoomPattern.MatchString(name)
}

// MstBaseParams references a pending multisig call. Sent with approve
// and final-approve events.
type MstBaseParams struct {
	ChainID  string `json:"chainId"`
	CallHash string `json:"callHash"`
}

// MstInitParams initiates a multisig transaction: the call reference
// plus the call data needed by co-signers to reconstruct it.
type MstInitParams struct {
	MstBaseParams
	CallData    string `json:"callData"`
	Description string `json:"description,omitempty"`
}

// MstCancelParams cancels a pending multisig transaction.
type MstCancelParams struct {
	MstBaseParams
	Description string `json:"description,omitempty"`
}

// MstEvent is a coordination event received from a room timeline,
// delivered to the matching MST callback.
type MstEvent struct {
	RoomID  ref.RoomID
	Sender  ref.UserID
	Content map[string]any
	Date    time.Time
}

// Callbacks aggregates the application handlers the event router
// dispatches to. At most one handler per category; nil handlers are
// skipped. Replaced wholesale by SetupSubscribers, cleared by
// ClearSubscribers.
type Callbacks struct {
	OnSyncProgress func()
	OnSyncEnd      func()
	OnInvite       func(roomID ref.RoomID)
	OnMessage      func(body string)

	OnMstInitiate     func(event MstEvent)
	OnMstApprove      func(event MstEvent)
	OnMstFinalApprove func(event MstEvent)
	OnMstCancel       func(event MstEvent)
}

// MstAccount is the multisig account metadata embedded in a
// coordination room's topic.
type MstAccount struct {
	Threshold   int      `json:"threshold"`
	Signatories []string `json:"signatories"`
	Address     string   `json:"address"`
}

// InviteMeta carries the inviter's signature over
// "<mstAccountAddress><roomId>" so joiners can authenticate the room.
type InviteMeta struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// OmniExtras is the application metadata attached to the room topic.
type OmniExtras struct {
	MstAccount MstAccount `json:"mst_account"`
	Invite     InviteMeta `json:"invite"`
}

// TopicContent is the content of the m.room.topic state event set on
// coordination rooms.
type TopicContent struct {
	Topic      string     `json:"topic"`
	OmniExtras OmniExtras `json:"omni_extras"`
}
