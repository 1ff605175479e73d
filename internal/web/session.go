package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
	"github.com/sweetshop-dev/sweetshop/pkg/credstore"
	"github.com/sweetshop-dev/sweetshop/pkg/store"
)

// sessionCookie is the browser session cookie name.
const sessionCookie = "sweetshop_sid"

// browserSession is the per-visitor state: an API client carrying that
// visitor's bearer token and the store pair every view reads from.
type browserSession struct {
	id        string
	session   *store.SessionStore
	inventory *store.InventoryStore

	mu       sync.Mutex
	lastSeen time.Time
}

func (b *browserSession) touch(now time.Time) {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

func (b *browserSession) seen() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen
}

// sessionManager hands out browser sessions keyed by cookie and expires
// idle ones. Tokens live server-side only; the cookie is a random id.
type sessionManager struct {
	apiBaseURL string
	ttl        time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*browserSession

	done chan struct{}
}

func newSessionManager(apiBaseURL string, ttl time.Duration, logger *slog.Logger) *sessionManager {
	m := &sessionManager{
		apiBaseURL: apiBaseURL,
		ttl:        ttl,
		logger:     logger,
		sessions:   make(map[string]*browserSession),
		done:       make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// get returns the browser session for the request, creating one (and
// setting the cookie) if needed.
func (m *sessionManager) get(w http.ResponseWriter, r *http.Request) *browserSession {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		m.mu.Lock()
		bs, ok := m.sessions[cookie.Value]
		m.mu.Unlock()
		if ok {
			bs.touch(time.Now())
			return bs
		}
	}

	bs := m.create(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    bs.id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return bs
}

// lookup returns an existing browser session without creating one.
func (m *sessionManager) lookup(r *http.Request) (*browserSession, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bs, ok := m.sessions[cookie.Value]
	if ok {
		bs.touch(time.Now())
	}
	return bs, ok
}

func (m *sessionManager) create(ctx context.Context) *browserSession {
	client := api.New(m.apiBaseURL)

	// Browser sessions keep credentials in memory for their own
	// lifetime; the cookie-bound session is the durable handle. The
	// SQLite store is reserved for the single-user CLI.
	sessionStore := store.NewSessionStore(client, credstore.NewMemory(),
		store.WithSessionLogger(m.logger.With("store", "session")))
	sessionStore.Restore(ctx)

	bs := &browserSession{
		id:      newSessionID(),
		session: sessionStore,
		inventory: store.NewInventoryStore(client,
			store.WithInventoryLogger(m.logger.With("store", "inventory"))),
		lastSeen: time.Now(),
	}

	m.mu.Lock()
	m.sessions[bs.id] = bs
	count := len(m.sessions)
	m.mu.Unlock()

	webMetrics().activeSessions.Set(float64(count))
	m.logger.Debug("browser session created", "sid", bs.id, "active", count)
	return bs
}

// drop removes a browser session, e.g. after logout.
func (m *sessionManager) drop(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	count := len(m.sessions)
	m.mu.Unlock()
	webMetrics().activeSessions.Set(float64(count))
}

func (m *sessionManager) sweepLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.sweep(now)
		}
	}
}

func (m *sessionManager) sweep(now time.Time) {
	m.mu.Lock()
	for id, bs := range m.sessions {
		if now.Sub(bs.seen()) > m.ttl {
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()
	webMetrics().activeSessions.Set(float64(count))
}

// Close stops the sweeper.
func (m *sessionManager) Close() {
	close(m.done)
}

func newSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
