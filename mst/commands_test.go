// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Asmadek/omni-desktop/lib/ref"
)

func TestCommandPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	params := MstBaseParams{ChainID: "0x91b1", CallHash: "0xdead"}

	if err := env.messenger.MstApprove(ctx, params); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("MstApprove before login error = %v, want ErrNotLoggedIn", err)
	}
	if err := env.messenger.SendMessage(ctx, "hi"); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("SendMessage before login error = %v, want ErrNotLoggedIn", err)
	}

	env.login(t)

	if err := env.messenger.MstApprove(ctx, params); !errors.Is(err, ErrNoActiveRoom) {
		t.Fatalf("MstApprove without room error = %v, want ErrNoActiveRoom", err)
	}
	if err := env.messenger.SendMessage(ctx, "hi"); !errors.Is(err, ErrNoActiveRoom) {
		t.Fatalf("SendMessage without room error = %v, want ErrNoActiveRoom", err)
	}
}

func TestSendMessage(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	roomID := ref.MustParseRoomID("!mst:example.org")
	env.messenger.SetRoom(roomID)

	if err := env.messenger.SendMessage(context.Background(), "ready to sign"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	events := env.server.sentEvents()
	if len(events) != 1 {
		t.Fatalf("sent events = %+v, want 1", events)
	}
	if events[0].RoomID != "!mst:example.org" || events[0].Type != "m.room.message" {
		t.Fatalf("sent event = %+v", events[0])
	}
	var content map[string]string
	if err := json.Unmarshal(events[0].Content, &content); err != nil {
		t.Fatalf("decoding message content: %v", err)
	}
	if content["msgtype"] != "m.text" || content["body"] != "ready to sign" {
		t.Errorf("message content = %v", content)
	}
}

func TestMstInitiate(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.messenger.SetRoom(ref.MustParseRoomID("!mst:example.org"))

	err := env.messenger.MstInitiate(context.Background(), MstInitParams{
		MstBaseParams: MstBaseParams{ChainID: "0x91b1", CallHash: "0xdead"},
		CallData:      "0xcall",
		Description:   "payout",
	})
	if err != nil {
		t.Fatalf("MstInitiate: %v", err)
	}

	events := env.server.sentEvents()
	if len(events) != 1 {
		t.Fatalf("sent events = %+v, want 1", events)
	}
	if events[0].Type != "io.omni.mst_init" {
		t.Errorf("event type = %s", events[0].Type)
	}
	var content map[string]string
	if err := json.Unmarshal(events[0].Content, &content); err != nil {
		t.Fatalf("decoding command payload: %v", err)
	}
	if content["chainId"] != "0x91b1" || content["callHash"] != "0xdead" || content["callData"] != "0xcall" {
		t.Errorf("command payload = %v", content)
	}
	if content["description"] != "payout" {
		t.Errorf("command description = %q", content["description"])
	}
}

func TestMstCommandEventTypes(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.messenger.SetRoom(ref.MustParseRoomID("!mst:example.org"))
	ctx := context.Background()
	params := MstBaseParams{ChainID: "0x91b1", CallHash: "0xdead"}

	if err := env.messenger.MstApprove(ctx, params); err != nil {
		t.Fatalf("MstApprove: %v", err)
	}
	if err := env.messenger.MstFinalApprove(ctx, params); err != nil {
		t.Fatalf("MstFinalApprove: %v", err)
	}
	if err := env.messenger.MstCancel(ctx, MstCancelParams{MstBaseParams: params, Description: "fat finger"}); err != nil {
		t.Fatalf("MstCancel: %v", err)
	}

	events := env.server.sentEvents()
	if len(events) != 3 {
		t.Fatalf("sent events = %+v, want 3", events)
	}
	wantTypes := []string{"io.omni.mst_approve", "io.omni.mst_final_approve", "io.omni.mst_cancel"}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event %d type = %s, want %s", i, events[i].Type, want)
		}
	}
}

func TestSendFailure(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.messenger.SetRoom(ref.MustParseRoomID("!forbidden:example.org"))

	err := env.messenger.SendMessage(context.Background(), "hi")
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("SendMessage error = %v, want ErrSendFailed", err)
	}
	err = env.messenger.MstApprove(context.Background(), MstBaseParams{ChainID: "1", CallHash: "0x1"})
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("MstApprove error = %v, want ErrSendFailed", err)
	}
}
