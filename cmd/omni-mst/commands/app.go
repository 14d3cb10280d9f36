// Copyright 2026 The Omni Desktop Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Asmadek/omni-desktop/cmd/omni-mst/cli"
	"github.com/Asmadek/omni-desktop/lib/config"
	"github.com/Asmadek/omni-desktop/mst"
	"github.com/Asmadek/omni-desktop/store"
)

// app bundles the wired-up backend a command operates on: the loaded
// config, the open store, and the messenger with encryption
// initialized. Commands call close when done.
type app struct {
	cfg       *config.Config
	store     *store.Store
	messenger *mst.Messenger
	logger    *slog.Logger
}

// newApp loads configuration, opens the store, and constructs the
// messenger with its encryption subsystem initialized. configPath
// comes from --config; empty falls back to OMNI_CONFIG.
func newApp(ctx context.Context, configPath string) (*app, error) {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger := cli.NewCommandLogger(cfg.Logging.Level)

	walletStore, err := store.Open(store.Config{
		DatabasePath: cfg.Storage.DatabasePath,
		PoolSize:     cfg.Storage.PoolSize,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	messenger, err := mst.NewMessenger(mst.Config{
		HomeserverURL: cfg.Matrix.HomeserverURL,
		Store:         store.NewMessengerStore(walletStore),
		Crypto:        store.NewCrypto(walletStore),
		Logger:        logger,
		SyncTimeout:   time.Duration(cfg.Matrix.SyncTimeoutMillis) * time.Millisecond,
	})
	if err != nil {
		walletStore.Close()
		return nil, err
	}
	if err := messenger.Init(ctx); err != nil {
		walletStore.Close()
		return nil, err
	}

	return &app{cfg: cfg, store: walletStore, messenger: messenger, logger: logger}, nil
}

// resume restores the cached Matrix session and waits for the initial
// sync to complete, so room queries see a populated cache.
func (a *app) resume(ctx context.Context) error {
	synced := make(chan struct{}, 1)
	a.messenger.SetupSubscribers(mst.Callbacks{
		OnSyncEnd: func() {
			select {
			case synced <- struct{}{}:
			default:
			}
		},
	})

	if err := a.messenger.LoginFromCache(ctx); err != nil {
		return err
	}

	select {
	case <-synced:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for initial sync: %w", ctx.Err())
	}
}

func (a *app) close() {
	if a.messenger.IsLoggedIn() {
		a.messenger.StopClient()
	}
	a.store.Close()
}
