// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/Asmadek/omni-desktop/lib/clock"
	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/lib/secret"
)

// syncPush is one queued /sync response for the fake homeserver.
type syncPush struct {
	status int
	body   string
}

// sentEvent records a PUT to the send or state endpoints.
type sentEvent struct {
	RoomID   string
	Type     string
	StateKey string
	Content  json.RawMessage
}

// fakeHomeserver implements the slice of the Matrix client-server API
// the messenger touches. Sync responses are fed through a channel so
// tests control exactly what the router sees and when; an empty queue
// blocks the handler like a real long poll.
type fakeHomeserver struct {
	t      *testing.T
	server *httptest.Server

	syncBodies chan syncPush

	mu          sync.Mutex
	loginCalls  int
	logoutCalls int
	created     []string // created room names
	invited     []string // "roomID:userID"
	events      []sentEvent
	stateEvents []sentEvent
	deviceKeys  map[string][]string // userID -> device IDs for /keys/query
	messages    []map[string]any    // /messages chunk, newest first
	roomTopics  map[string]string   // roomID -> m.room.topic content JSON
	roomMembers map[string][]string // roomID -> joined member user IDs
}

func newFakeHomeserver(t *testing.T) *fakeHomeserver {
	t.Helper()
	h := &fakeHomeserver{
		t:           t,
		syncBodies:  make(chan syncPush, 16),
		deviceKeys:  make(map[string][]string),
		roomTopics:  make(map[string]string),
		roomMembers: make(map[string][]string),
	}
	h.server = httptest.NewServer(http.HandlerFunc(h.handle))
	t.Cleanup(h.server.Close)
	return h
}

func (h *fakeHomeserver) URL() string { return h.server.URL }

// pushSync queues one /sync response. The body must carry next_batch.
func (h *fakeHomeserver) pushSync(body string) {
	h.syncBodies <- syncPush{status: http.StatusOK, body: body}
}

// pushSyncError queues one failing /sync response.
func (h *fakeHomeserver) pushSyncError(status int, errcode string) {
	h.syncBodies <- syncPush{
		status: status,
		body:   fmt.Sprintf(`{"errcode": %q, "error": "sync rejected"}`, errcode),
	}
}

func (h *fakeHomeserver) handle(writer http.ResponseWriter, request *http.Request) {
	path := request.URL.Path
	writer.Header().Set("Content-Type", "application/json")

	switch {
	case path == "/_matrix/client/v3/login":
		h.mu.Lock()
		h.loginCalls++
		h.mu.Unlock()
		json.NewEncoder(writer).Encode(map[string]string{
			"user_id":      "@alice:example.org",
			"access_token": "syt_alice",
			"device_id":    "ALICEDEV",
		})

	case path == "/_matrix/client/v3/logout":
		h.mu.Lock()
		h.logoutCalls++
		h.mu.Unlock()
		writer.Write([]byte("{}"))

	case path == "/_matrix/client/v3/sync":
		select {
		case push := <-h.syncBodies:
			if push.status != http.StatusOK {
				writer.WriteHeader(push.status)
			}
			writer.Write([]byte(push.body))
		case <-request.Context().Done():
		}

	case path == "/_matrix/client/v3/createRoom":
		var body struct {
			Name string `json:"name"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		h.mu.Lock()
		h.created = append(h.created, body.Name)
		roomNumber := len(h.created)
		h.mu.Unlock()
		json.NewEncoder(writer).Encode(map[string]string{
			"room_id": fmt.Sprintf("!created%d:example.org", roomNumber),
		})

	case path == "/_matrix/client/v3/keys/query":
		var body struct {
			DeviceKeys map[string][]string `json:"device_keys"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		h.mu.Lock()
		keys := map[string]any{}
		for userID := range body.DeviceKeys {
			devices := map[string]any{}
			for _, deviceID := range h.deviceKeys[userID] {
				devices[deviceID] = map[string]any{
					"user_id":   userID,
					"device_id": deviceID,
					"keys":      map[string]string{"ed25519:" + deviceID: "key"},
				}
			}
			keys[userID] = devices
		}
		h.mu.Unlock()
		json.NewEncoder(writer).Encode(map[string]any{"device_keys": keys})

	case path == "/_matrix/client/v3/register/available":
		if request.URL.Query().Get("username") == "taken" {
			writer.WriteHeader(http.StatusBadRequest)
			writer.Write([]byte(`{"errcode": "M_USER_IN_USE", "error": "taken"}`))
			return
		}
		writer.Write([]byte(`{"available": true}`))

	case strings.Contains(path, "/invite"):
		var body struct {
			UserID string `json:"user_id"`
		}
		json.NewDecoder(request.Body).Decode(&body)
		h.mu.Lock()
		h.invited = append(h.invited, pathSegment(path, "rooms")+":"+body.UserID)
		h.mu.Unlock()
		writer.Write([]byte("{}"))

	case strings.Contains(path, "/join/"):
		roomID, _ := url.PathUnescape(strings.TrimPrefix(path, "/_matrix/client/v3/join/"))
		json.NewEncoder(writer).Encode(map[string]string{"room_id": roomID})

	case strings.Contains(path, "/state/"):
		if request.Method == http.MethodGet {
			h.mu.Lock()
			topic, ok := h.roomTopics[pathSegment(path, "rooms")]
			h.mu.Unlock()
			if !ok || pathSegment(path, "state") != "m.room.topic" {
				writer.WriteHeader(http.StatusNotFound)
				writer.Write([]byte(`{"errcode": "M_NOT_FOUND", "error": "no such state event"}`))
				return
			}
			writer.Write([]byte(topic))
			return
		}
		h.recordEvent(writer, request, path, true)

	case strings.HasSuffix(path, "/members"):
		h.mu.Lock()
		userIDs := h.roomMembers[pathSegment(path, "rooms")]
		h.mu.Unlock()
		chunk := make([]map[string]any, 0, len(userIDs))
		for _, userID := range userIDs {
			chunk = append(chunk, map[string]any{
				"type":      "m.room.member",
				"state_key": userID,
				"sender":    userID,
				"content":   map[string]any{"membership": "join"},
			})
		}
		json.NewEncoder(writer).Encode(map[string]any{"chunk": chunk})

	case strings.Contains(path, "/send/"):
		if strings.Contains(path, "!forbidden") {
			writer.WriteHeader(http.StatusForbidden)
			writer.Write([]byte(`{"errcode": "M_FORBIDDEN", "error": "not in room"}`))
			return
		}
		h.recordEvent(writer, request, path, false)

	case strings.Contains(path, "/messages"):
		h.mu.Lock()
		chunk := make([]map[string]any, len(h.messages))
		copy(chunk, h.messages)
		h.mu.Unlock()
		json.NewEncoder(writer).Encode(map[string]any{
			"start": "s", "end": "e", "chunk": chunk,
		})

	default:
		writer.WriteHeader(http.StatusNotFound)
		writer.Write([]byte(`{"errcode": "M_NOT_FOUND", "error": "unhandled path"}`))
	}
}

func (h *fakeHomeserver) recordEvent(writer http.ResponseWriter, request *http.Request, path string, state bool) {
	content, _ := io.ReadAll(request.Body)
	segments := strings.Split(path, "/")
	event := sentEvent{Content: content}
	for i, segment := range segments {
		if segment == "rooms" && i+1 < len(segments) {
			event.RoomID, _ = url.PathUnescape(segments[i+1])
		}
		if (segment == "send" || segment == "state") && i+1 < len(segments) {
			event.Type, _ = url.PathUnescape(segments[i+1])
			if state && i+2 < len(segments) {
				event.StateKey, _ = url.PathUnescape(segments[i+2])
			}
		}
	}
	h.mu.Lock()
	if state {
		h.stateEvents = append(h.stateEvents, event)
	} else {
		h.events = append(h.events, event)
	}
	eventNumber := len(h.events) + len(h.stateEvents)
	h.mu.Unlock()
	json.NewEncoder(writer).Encode(map[string]string{
		"event_id": fmt.Sprintf("$event%d", eventNumber),
	})
}

func pathSegment(path, after string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment == after && i+1 < len(segments) {
			unescaped, _ := url.PathUnescape(segments[i+1])
			return unescaped
		}
	}
	return ""
}

func (h *fakeHomeserver) sentEvents() []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]sentEvent, len(h.events))
	copy(events, h.events)
	return events
}

func (h *fakeHomeserver) sentStateEvents() []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	events := make([]sentEvent, len(h.stateEvents))
	copy(events, h.stateEvents)
	return events
}

func (h *fakeHomeserver) invitedUsers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	invited := make([]string, len(h.invited))
	copy(invited, h.invited)
	return invited
}

func (h *fakeHomeserver) setDeviceKeys(userID string, deviceIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deviceKeys[userID] = deviceIDs
}

func (h *fakeHomeserver) setMessages(chunk []map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = chunk
}

func (h *fakeHomeserver) setRoomTopic(roomID, contentJSON string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomTopics[roomID] = contentJSON
}

func (h *fakeHomeserver) setRoomMembers(roomID string, userIDs ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomMembers[roomID] = userIDs
}

// fakeStore is an in-memory CredentialStore.
type fakeStore struct {
	mu      sync.Mutex
	creds   *Credentials
	saves   int
	deletes int
	saveErr error
}

func (s *fakeStore) SaveCredentials(ctx context.Context, creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := creds
	s.creds = &copied
	s.saves++
	return nil
}

func (s *fakeStore) LoggedInCredentials(ctx context.Context) (*Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil, nil
	}
	copied := *s.creds
	return &copied, nil
}

func (s *fakeStore) DeleteCredentials(ctx context.Context, userID ref.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds != nil && s.creds.UserID == userID {
		s.creds = nil
	}
	s.deletes++
	return nil
}

func (s *fakeStore) savedCreds() *Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds == nil {
		return nil
	}
	copied := *s.creds
	return &copied
}

// fakeCrypto records device trust in memory.
type fakeCrypto struct {
	mu        sync.Mutex
	initErr   error
	verifyErr error
	verified  map[string]bool
}

func (c *fakeCrypto) Init(ctx context.Context) error {
	return c.initErr
}

func (c *fakeCrypto) MarkDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verifyErr != nil {
		return c.verifyErr
	}
	if c.verified == nil {
		c.verified = make(map[string]bool)
	}
	c.verified[userID.String()+"/"+deviceID.String()] = true
	return nil
}

func (c *fakeCrypto) IsDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified[userID.String()+"/"+deviceID.String()], nil
}

func (c *fakeCrypto) RoomEncryptionContent() any {
	return map[string]any{"algorithm": "m.megolm.v1.aes-sha2"}
}

func (c *fakeCrypto) isVerified(userID, deviceID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verified[userID+"/"+deviceID]
}

// testEnv bundles a messenger wired to the fake homeserver.
type testEnv struct {
	messenger *Messenger
	server    *fakeHomeserver
	store     *fakeStore
	crypto    *fakeCrypto
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithClock(t, clock.Real())
}

func newTestEnvWithClock(t *testing.T, clk clock.Clock) *testEnv {
	t.Helper()
	server := newFakeHomeserver(t)
	credStore := &fakeStore{}
	crypto := &fakeCrypto{}

	messenger, err := newMessenger(Config{
		HomeserverURL: server.URL(),
		Store:         credStore,
		Crypto:        crypto,
		Clock:         clk,
	})
	if err != nil {
		t.Fatalf("newMessenger: %v", err)
	}
	t.Cleanup(func() {
		// Terminate the router goroutine if a test left the session
		// live.
		messenger.StopClient()
	})

	return &testEnv{
		messenger: messenger,
		server:    server,
		store:     credStore,
		crypto:    crypto,
	}
}

// login initializes and logs the messenger in with password creds.
func (env *testEnv) login(t *testing.T) {
	t.Helper()
	if err := env.messenger.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	password := testPassword(t)
	if err := env.messenger.LoginWithCreds(context.Background(), "alice", password); err != nil {
		t.Fatalf("LoginWithCreds: %v", err)
	}
}

func testPassword(t *testing.T) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString("correct horse")
	if err != nil {
		t.Fatalf("creating password buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}
