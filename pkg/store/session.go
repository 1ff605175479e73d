package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
	"github.com/sweetshop-dev/sweetshop/pkg/credstore"
)

// AdminUsername is the reserved username the client treats as an admin
// before the backend has confirmed the claim. This inference is a UI
// convenience only: server-side authorization is the real guard, and
// the backend rejects admin operations regardless of this flag.
const AdminUsername = "admin"

// AuthState is the session store's lifecycle state.
type AuthState int

const (
	// StateRestoring is the initial state, before Restore has resolved.
	// Views should block (or show a spinner) until it clears.
	StateRestoring AuthState = iota

	// StateUnauthenticated means no session exists.
	StateUnauthenticated

	// StateAuthenticating means a login attempt is in flight. A second
	// login during this state is allowed to race; the last response
	// wins, so callers should disable the control while in flight.
	StateAuthenticating

	// StateAuthenticated means a session exists and the bearer token is
	// attached to the API client.
	StateAuthenticated
)

// Session is the current authenticated identity.
type Session struct {
	Username string
	IsAdmin  bool
}

// SessionStore owns the authenticated identity and its credential.
// It is safe for concurrent use.
type SessionStore struct {
	client *api.Client
	creds  credstore.Store
	logger *slog.Logger

	mu      sync.RWMutex
	state   AuthState
	session *Session
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionLogger sets the store's logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionStore creates a session store over the given API client and
// credential storage. Call Restore once at startup to resolve any
// persisted credential.
func NewSessionStore(client *api.Client, creds credstore.Store, opts ...SessionOption) *SessionStore {
	s := &SessionStore{
		client: client,
		creds:  creds,
		logger: slog.Default().With("component", "session"),
		state:  StateRestoring,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the session, if one exists.
func (s *SessionStore) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

// State returns the lifecycle state.
func (s *SessionStore) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Loading reports whether startup restoration is still unresolved.
func (s *SessionStore) Loading() bool {
	return s.State() == StateRestoring
}

// Login exchanges credentials for a token, persists it together with
// the username, and establishes the session. On failure the session is
// left exactly as it was.
func (s *SessionStore) Login(ctx context.Context, username, password string) error {
	s.mu.Lock()
	prev := s.state
	s.state = StateAuthenticating
	s.mu.Unlock()

	tok, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.mu.Lock()
		if s.state == StateAuthenticating {
			s.state = prev
			if prev == StateRestoring {
				s.state = StateUnauthenticated
			}
		}
		s.mu.Unlock()
		return err
	}

	s.client.SetToken(tok.AccessToken)
	if err := s.creds.Save(ctx, credstore.Credentials{Token: tok.AccessToken, Username: username}); err != nil {
		// The session still works for this run; only restoration after
		// a restart is affected.
		s.logger.Warn("could not persist credentials", "error", err)
	}

	session := s.identify(ctx, username)
	s.mu.Lock()
	s.session = &session
	s.state = StateAuthenticated
	s.mu.Unlock()

	s.logger.Info("logged in", "username", session.Username, "admin", session.IsAdmin)
	return nil
}

// Register creates an account and, on success, immediately logs in with
// the same credentials. On failure the session is untouched and the
// backend's message is returned.
func (s *SessionStore) Register(ctx context.Context, reg api.Registration) error {
	if _, err := s.client.Register(ctx, reg); err != nil {
		return err
	}
	return s.Login(ctx, reg.Username, reg.Password)
}

// Logout clears the persisted credential, detaches the token, and
// drops the session. It never makes a network call. The in-memory
// session is cleared even if the credential store fails.
func (s *SessionStore) Logout(ctx context.Context) error {
	err := s.creds.Clear(ctx)
	s.client.ClearToken()

	s.mu.Lock()
	s.session = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("could not clear persisted credentials", "error", err)
		return err
	}
	s.logger.Info("logged out")
	return nil
}

// Restore resolves the persisted credential at startup. A token that is
// visibly expired, or that the backend rejects, is cleared together
// with the cached username. When the backend is merely unreachable the
// session is reconstructed optimistically from the cached username so a
// flaky network does not log the user out.
func (s *SessionStore) Restore(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		if s.state == StateRestoring {
			s.state = StateUnauthenticated
		}
		s.mu.Unlock()
	}()

	creds, err := s.creds.Load(ctx)
	if err != nil {
		s.logger.Warn("could not read persisted credentials", "error", err)
		return
	}
	if creds == nil {
		return
	}

	if tokenExpired(creds.Token) {
		s.logger.Info("persisted token expired, clearing")
		s.discard(ctx)
		return
	}

	s.client.SetToken(creds.Token)
	id, err := s.client.Me(ctx)
	switch {
	case err == nil:
		s.mu.Lock()
		s.session = &Session{Username: id.Username, IsAdmin: id.IsAdmin}
		s.state = StateAuthenticated
		s.mu.Unlock()
		s.logger.Info("session restored", "username", id.Username)

	case api.IsKind(err, api.KindNetwork):
		session := Session{Username: creds.Username, IsAdmin: creds.Username == AdminUsername}
		s.mu.Lock()
		s.session = &session
		s.state = StateAuthenticated
		s.mu.Unlock()
		s.logger.Warn("backend unreachable, restored session optimistically",
			"username", creds.Username, "error", err)

	default:
		s.logger.Info("persisted token rejected, clearing", "error", err)
		s.discard(ctx)
	}
}

// identify resolves the identity after login. The backend's whoami
// claim wins; if the call fails the reserved-username inference is used
// as a fallback.
func (s *SessionStore) identify(ctx context.Context, username string) Session {
	if id, err := s.client.Me(ctx); err == nil {
		return Session{Username: id.Username, IsAdmin: id.IsAdmin}
	}
	return Session{Username: username, IsAdmin: username == AdminUsername}
}

// discard drops the persisted credential and detaches the token.
func (s *SessionStore) discard(ctx context.Context) {
	if err := s.creds.Clear(ctx); err != nil {
		s.logger.Warn("could not clear persisted credentials", "error", err)
	}
	s.client.ClearToken()
}

// tokenExpired reports whether the token is a JWT whose exp claim has
// passed. The signature is not verified; this is only a fast local
// check to skip a round trip for visibly dead tokens. Opaque or
// malformed tokens are left for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(nowFunc())
}
