// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/lib/secret"
)

// testBuffer creates a secret.Buffer from a string for testing. The
// buffer is automatically closed when the test completes.
func testBuffer(t *testing.T, value string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromString(value)
	if err != nil {
		t.Fatalf("creating test buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{HomeserverURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/login" {
				t.Errorf("unexpected path: %s", request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}
			var body LoginRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.Type != "m.login.password" {
				t.Errorf("unexpected login type: %s", body.Type)
			}
			if body.User != "alice" {
				t.Errorf("unexpected user: %s", body.User)
			}
			if body.Password != "password123" {
				t.Errorf("unexpected password: %s", body.Password)
			}
			if body.DeviceID != "" {
				t.Errorf("expected no device ID, got %q", body.DeviceID)
			}

			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(map[string]string{
				"user_id":      "@alice:example.org",
				"access_token": "syt_alice_token",
				"device_id":    "ALICEDEV",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		session, err := client.Login(context.Background(), "alice", testBuffer(t, "password123"), ref.DeviceID{})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		defer session.Close()

		if got := session.UserID().String(); got != "@alice:example.org" {
			t.Errorf("UserID = %q, want @alice:example.org", got)
		}
		if got := session.DeviceID().String(); got != "ALICEDEV" {
			t.Errorf("DeviceID = %q, want ALICEDEV", got)
		}
		if got := session.AccessToken(); got != "syt_alice_token" {
			t.Errorf("AccessToken = %q, want syt_alice_token", got)
		}
	})

	t.Run("reuses device ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var body LoginRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.DeviceID != "OLDDEV" {
				t.Errorf("device ID = %q, want OLDDEV", body.DeviceID)
			}
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(map[string]string{
				"user_id":      "@alice:example.org",
				"access_token": "syt_token_2",
				"device_id":    "OLDDEV",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		deviceID, err := ref.ParseDeviceID("OLDDEV")
		if err != nil {
			t.Fatalf("ParseDeviceID: %v", err)
		}
		session, err := client.Login(context.Background(), "alice", testBuffer(t, "pw"), deviceID)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		session.Close()
	})

	t.Run("bad credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(map[string]string{
				"errcode": "M_FORBIDDEN",
				"error":   "Invalid password",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		_, err = client.Login(context.Background(), "alice", testBuffer(t, "wrong"), ref.DeviceID{})
		if err == nil {
			t.Fatal("expected error for bad credentials")
		}
		var matrixErr *MatrixError
		if !errors.As(err, &matrixErr) {
			t.Fatalf("expected *MatrixError, got %T: %v", err, err)
		}
		if matrixErr.Code != ErrCodeForbidden {
			t.Errorf("error code = %q, want %q", matrixErr.Code, ErrCodeForbidden)
		}
		if matrixErr.StatusCode != http.StatusForbidden {
			t.Errorf("status code = %d, want 403", matrixErr.StatusCode)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := client.Login(context.Background(), "", testBuffer(t, "pw"), ref.DeviceID{}); err == nil {
			t.Error("expected error for empty username")
		}
		if _, err := client.Login(context.Background(), "alice", nil, ref.DeviceID{}); err == nil {
			t.Error("expected error for nil password")
		}
	})
}

func TestUsernameAvailable(t *testing.T) {
	t.Run("available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/register/available" {
				t.Errorf("unexpected path: %s", request.URL.Path)
			}
			if got := request.URL.Query().Get("username"); got != "newuser" {
				t.Errorf("username query = %q, want newuser", got)
			}
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(map[string]bool{"available": true})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		available, err := client.UsernameAvailable(context.Background(), "newuser")
		if err != nil {
			t.Fatalf("UsernameAvailable failed: %v", err)
		}
		if !available {
			t.Error("expected username to be available")
		}
	})

	t.Run("in use", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(writer).Encode(map[string]string{
				"errcode": "M_USER_IN_USE",
				"error":   "Desired user ID is already taken.",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		available, err := client.UsernameAvailable(context.Background(), "alice")
		if err != nil {
			t.Fatalf("UsernameAvailable failed: %v", err)
		}
		if available {
			t.Error("expected username to be unavailable")
		}
	})

	t.Run("invalid localpart", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := client.UsernameAvailable(context.Background(), "Not Valid!"); err == nil {
			t.Error("expected error for invalid localpart")
		}
	})
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	userID := ref.MustParseUserID("@alice:example.org")
	deviceID, err := ref.ParseDeviceID("ALICEDEV")
	if err != nil {
		t.Fatalf("ParseDeviceID: %v", err)
	}

	session, err := client.SessionFromToken(userID, deviceID, "syt_cached_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	defer session.Close()

	if session.UserID() != userID {
		t.Errorf("UserID = %v, want %v", session.UserID(), userID)
	}
	if session.AccessToken() != "syt_cached_token" {
		t.Errorf("AccessToken = %q, want syt_cached_token", session.AccessToken())
	}
}
