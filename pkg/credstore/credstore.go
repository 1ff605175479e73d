// Package credstore persists the client's credential between runs: the
// bearer token and the username it was issued for, stored under fixed
// key names and always cleared together.
package credstore

import (
	"context"
	"sync"
)

// Fixed storage keys. These are part of the on-disk contract; changing
// them orphans previously saved credentials.
const (
	keyToken    = "token"
	keyUsername = "username"
)

// Credentials is the persisted client state.
type Credentials struct {
	Token    string
	Username string
}

// Store is the interface for credential persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists the credentials, replacing any previous ones.
	Save(ctx context.Context, creds Credentials) error

	// Load retrieves the persisted credentials.
	// Returns (nil, nil) if nothing is stored.
	Load(ctx context.Context) (*Credentials, error)

	// Clear removes the persisted credentials. Token and username are
	// always removed together. Not an error if nothing is stored.
	Clear(ctx context.Context) error
}

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu    sync.Mutex
	creds *Credentials
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save stores a copy of the credentials.
func (m *Memory) Save(_ context.Context, creds Credentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := creds
	m.creds = &c
	return nil
}

// Load returns a copy of the stored credentials, or (nil, nil).
func (m *Memory) Load(_ context.Context) (*Credentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil, nil
	}
	c := *m.creds
	return &c, nil
}

// Clear drops the stored credentials.
func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds = nil
	return nil
}
