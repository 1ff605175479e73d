package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sweetshop-dev/sweetshop/internal/config"
	"github.com/sweetshop-dev/sweetshop/pkg/api"
	"github.com/sweetshop-dev/sweetshop/pkg/credstore"
	"github.com/sweetshop-dev/sweetshop/pkg/store"
)

// cliStores bundles the stores a CLI command works against, backed by
// the SQLite credential store so logins persist between invocations.
type cliStores struct {
	session   *store.SessionStore
	inventory *store.InventoryStore
	creds     *credstore.SQLStore
}

// openStores builds the store pair and restores any saved session.
func openStores(ctx context.Context, apiURL string) (*cliStores, error) {
	cfg, err := config.Load(config.ConfigFileName)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}

	creds, err := credstore.OpenSQLite(stateDBPath(cfg.StateDB))
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	client := api.New(cfg.APIBaseURL)
	session := store.NewSessionStore(client, creds,
		store.WithSessionLogger(slog.Default().With("store", "session")))
	session.Restore(ctx)

	return &cliStores{
		session: session,
		inventory: store.NewInventoryStore(client,
			store.WithInventoryLogger(slog.Default().With("store", "inventory"))),
		creds: creds,
	}, nil
}

func (c *cliStores) Close() {
	if err := c.creds.Close(); err != nil {
		slog.Warn("closing credential store", "error", err)
	}
}

// stateDBPath keeps relative state paths under the user config dir so
// the CLI works the same from any directory.
func stateDBPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return path
	}
	dir := filepath.Join(base, "sweetshop")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return path
	}
	return filepath.Join(dir, path)
}
