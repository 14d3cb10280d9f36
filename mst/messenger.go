// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package mst

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Asmadek/omni-desktop/lib/clock"
	"github.com/Asmadek/omni-desktop/lib/ref"
	"github.com/Asmadek/omni-desktop/lib/secret"
	"github.com/Asmadek/omni-desktop/messaging"
)

// Credentials is a cached Matrix session as the messenger sees it.
type Credentials struct {
	UserID      ref.UserID
	AccessToken string
	DeviceID    ref.DeviceID
}

// CredentialStore persists the cached session. Implemented by the
// store package; LoggedInCredentials returns (nil, nil) when no
// session is cached.
type CredentialStore interface {
	SaveCredentials(ctx context.Context, creds Credentials) error
	LoggedInCredentials(ctx context.Context) (*Credentials, error)
	DeleteCredentials(ctx context.Context, userID ref.UserID) error
}

// CryptoEngine is the encryption capability the messenger consumes.
// The cryptographic ratchet itself is an external runtime; this
// interface covers what the coordination layer drives: activating the
// subsystem, recording device trust, and naming the room encryption
// algorithm.
type CryptoEngine interface {
	// Init activates the encryption subsystem. Called exactly once,
	// before any login.
	Init(ctx context.Context) error

	// MarkDeviceVerified records that a signatory device is trusted.
	MarkDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) error

	// IsDeviceVerified reports recorded trust for a device.
	IsDeviceVerified(ctx context.Context, userID ref.UserID, deviceID ref.DeviceID) (bool, error)

	// RoomEncryptionContent returns the m.room.encryption state event
	// content set on newly created coordination rooms.
	RoomEncryptionContent() any
}

// Config holds the parameters for constructing a Messenger.
type Config struct {
	// HomeserverURL is the Matrix homeserver base URL.
	HomeserverURL string

	// HTTPClient overrides the transport. If nil, http.DefaultClient.
	HTTPClient *http.Client

	// Store persists cached credentials. Required.
	Store CredentialStore

	// Crypto is the encryption capability. Required.
	Crypto CryptoEngine

	// Logger receives operational messages. If nil, slog.Default().
	Logger *slog.Logger

	// Clock is the time source for the sync loop's backoff. If nil,
	// clock.Real().
	Clock clock.Clock

	// SyncTimeout is the /sync long-poll duration. Default 30s.
	SyncTimeout time.Duration
}

// Messenger owns the single authenticated Matrix session and routes
// its events onto the multisig approval workflow. See the package
// documentation for the lifecycle.
//
// All methods are safe for concurrent use. Lifecycle operations
// (Init, login, StopClient, Logout) are serialized through an
// internal mutex, so a second login issued during an in-flight first
// one blocks and then fails the precondition check instead of racing.
type Messenger struct {
	client      *messaging.Client
	store       CredentialStore
	crypto      CryptoEngine
	logger      *slog.Logger
	clock       clock.Clock
	syncTimeout time.Duration

	// lifecycle serializes Init/LoginWithCreds/LoginFromCache/
	// StopClient/Logout end to end, including their network calls.
	lifecycle sync.Mutex

	// mu guards the mutable session state below.
	mu          sync.Mutex
	initialized bool
	session     *messaging.Session

	// isSynced is the synced gate: false until an initial snapshot
	// has seeded the room cache. The sync loop reads it to decide
	// between initial and incremental handling, so dropping it (on
	// a rejected since token, or when the session is torn down)
	// forces the next response through the non-dispatching initial
	// path.
	isSynced   bool
	activeRoom ref.RoomID
	callbacks  Callbacks
	rooms      map[ref.RoomID]*roomState

	// sync loop lifetime; nil when the router is not running.
	syncCancel context.CancelFunc
	syncDone   chan struct{}
}

var (
	instanceMu sync.Mutex
	instance   *Messenger
)

// NewMessenger returns the process-wide Messenger, constructing it on
// the first call. Subsequent calls return the existing instance and
// ignore the new config.
func NewMessenger(cfg Config) (*Messenger, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}
	m, err := newMessenger(cfg)
	if err != nil {
		return nil, err
	}
	instance = m
	return m, nil
}

// newMessenger constructs an unshared Messenger. Tests use this
// directly to avoid the process-wide singleton.
func newMessenger(cfg Config) (*Messenger, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("mst: Store is required")
	}
	if cfg.Crypto == nil {
		return nil, fmt.Errorf("mst: Crypto is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	syncTimeout := cfg.SyncTimeout
	if syncTimeout == 0 {
		syncTimeout = 30 * time.Second
	}

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.HomeserverURL,
		HTTPClient:    cfg.HTTPClient,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	return &Messenger{
		client:      client,
		store:       cfg.Store,
		crypto:      cfg.Crypto,
		logger:      logger,
		clock:       clk,
		syncTimeout: syncTimeout,
		rooms:       make(map[ref.RoomID]*roomState),
	}, nil
}

// Init activates the encryption subsystem. Must complete before any
// login call; a second call fails with ErrAlreadyInitialized.
func (m *Messenger) Init(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	initialized := m.initialized
	m.mu.Unlock()
	if initialized {
		return ErrAlreadyInitialized
	}

	if err := m.crypto.Init(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrEncryptionInitFailed, err)
	}

	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	return nil
}

// LoginWithCreds authenticates with username and password, persists
// the credentials, and starts continuous synchronization. The
// password Buffer is read but not closed.
func (m *Messenger) LoginWithCreds(ctx context.Context, login string, password *secret.Buffer) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.checkLoginPreconditions(); err != nil {
		return err
	}

	session, err := m.client.Login(ctx, login, password, ref.DeviceID{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	err = m.store.SaveCredentials(ctx, Credentials{
		UserID:      session.UserID(),
		AccessToken: session.AccessToken(),
		DeviceID:    session.DeviceID(),
	})
	if err != nil {
		session.Close()
		return fmt.Errorf("%w: persisting credentials: %w", ErrLoginFailed, err)
	}

	m.adoptSession(session)
	return nil
}

// LoginFromCache resumes a session from persisted credentials and
// starts continuous synchronization. Does not re-persist credentials.
func (m *Messenger) LoginFromCache(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if err := m.checkLoginPreconditions(); err != nil {
		return err
	}

	creds, err := m.store.LoggedInCredentials(ctx)
	if err != nil {
		return fmt.Errorf("%w: reading credentials: %w", ErrLoginFailed, err)
	}
	if creds == nil {
		return ErrNoCachedCredentials
	}

	session, err := m.client.SessionFromToken(creds.UserID, creds.DeviceID, creds.AccessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	m.logger.Info("resumed matrix session from cache", "user_id", creds.UserID)
	m.adoptSession(session)
	return nil
}

// checkLoginPreconditions validates state for both login paths. Fails
// fast, before any network call.
func (m *Messenger) checkLoginPreconditions() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return ErrNotInitialized
	}
	if m.session != nil {
		return ErrAlreadyLoggedIn
	}
	return nil
}

// adoptSession installs the authenticated session and starts the
// event router. Caller holds m.lifecycle.
func (m *Messenger) adoptSession(session *messaging.Session) {
	m.mu.Lock()
	m.session = session
	m.isSynced = false
	m.rooms = make(map[ref.RoomID]*roomState)
	m.mu.Unlock()

	m.startRouter(session)
}

// IsLoggedIn reports whether an authenticated session is active.
func (m *Messenger) IsLoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

// StopClient halts synchronization, detaches all handlers, and resets
// to a fresh unauthenticated state. The messenger is reusable
// afterward; persisted credentials are untouched.
func (m *Messenger) StopClient() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	session := m.session
	m.mu.Unlock()
	if session == nil {
		return ErrNotLoggedIn
	}

	m.stopRouter()
	m.resetSession(session)
	return nil
}

// Logout ends the session on the homeserver, deletes the persisted
// credential record, and resets to unauthenticated state. On failure
// the state may be partially torn down — the caller should treat the
// stored credentials as requiring manual cleanup.
func (m *Messenger) Logout(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	session := m.session
	m.mu.Unlock()
	if session == nil {
		return ErrNotLoggedIn
	}

	userID := session.UserID()

	if err := session.Logout(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	m.stopRouter()

	if err := m.store.DeleteCredentials(ctx, userID); err != nil {
		m.resetSession(session)
		return fmt.Errorf("%w: deleting credentials: %w", ErrLogoutFailed, err)
	}

	m.resetSession(session)
	m.logger.Info("logged out of matrix", "user_id", userID)
	return nil
}

// resetSession clears all session state and releases the token
// buffer. Caller holds m.lifecycle; the router must already be
// stopped.
func (m *Messenger) resetSession(session *messaging.Session) {
	session.Close()

	m.mu.Lock()
	m.session = nil
	m.isSynced = false
	m.activeRoom = ref.RoomID{}
	m.callbacks = Callbacks{}
	m.rooms = make(map[ref.RoomID]*roomState)
	m.mu.Unlock()
}

// CheckUserExists reports whether a Matrix account exists for the
// given fully-qualified user ID. Uses the homeserver's registration
// availability check: an unavailable localpart means the account
// exists.
func (m *Messenger) CheckUserExists(ctx context.Context, rawUserID string) (bool, error) {
	userID, err := ref.ParseUserID(rawUserID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidUserID, err)
	}

	available, err := m.client.UsernameAvailable(ctx, userID.Localpart())
	if err != nil {
		return false, fmt.Errorf("mst: user existence check: %w", err)
	}
	return !available, nil
}

// SetupSubscribers replaces the callback registry wholesale.
func (m *Messenger) SetupSubscribers(callbacks Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = callbacks
}

// ClearSubscribers removes all registered callbacks. Events received
// afterward are dropped.
func (m *Messenger) ClearSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = Callbacks{}
}

// snapshotCallbacks returns the current registry for dispatch.
func (m *Messenger) snapshotCallbacks() Callbacks {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callbacks
}

// currentSession returns the active session or ErrNotLoggedIn.
func (m *Messenger) currentSession() (*messaging.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, ErrNotLoggedIn
	}
	return m.session, nil
}
