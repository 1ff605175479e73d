package web

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/sweetshop-dev/sweetshop/internal/config"
	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

// fakeBackend is a minimal in-process stand-in for the REST backend:
// enough of the auth and sweets surface to drive the storefront.
type fakeBackend struct {
	mu        sync.Mutex
	sweets    []api.Sweet
	passwords map[string]string
	admins    map[string]bool
}

func newFakeBackend(sweets ...api.Sweet) *fakeBackend {
	return &fakeBackend{
		sweets:    sweets,
		passwords: map[string]string{},
		admins:    map[string]bool{},
	}
}

func (b *fakeBackend) addUser(username, password string, admin bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passwords[username] = password
	b.admins[username] = admin
}

func (b *fakeBackend) username(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer tok-") {
		return "", false
	}
	name := strings.TrimPrefix(auth, "Bearer tok-")
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.passwords[name]
	return name, ok
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		password, ok := b.passwords[req.Username]
		b.mu.Unlock()
		if !ok || password != req.Password {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		json.NewEncoder(w).Encode(api.Token{AccessToken: "tok-" + req.Username, TokenType: "bearer"})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		name, ok := b.username(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		b.mu.Lock()
		admin := b.admins[name]
		b.mu.Unlock()
		json.NewEncoder(w).Encode(api.Identity{Username: name, IsAdmin: admin})
	})

	mux.HandleFunc("GET /sweets", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.sweets)
	})

	mux.HandleFunc("GET /sweets/search", func(w http.ResponseWriter, r *http.Request) {
		name := strings.ToLower(r.URL.Query().Get("name"))
		b.mu.Lock()
		defer b.mu.Unlock()
		matched := []api.Sweet{}
		for _, s := range b.sweets {
			if name == "" || strings.Contains(strings.ToLower(s.Name), name) {
				matched = append(matched, s)
			}
		}
		json.NewEncoder(w).Encode(matched)
	})

	mux.HandleFunc("POST /sweets/{id}/purchase", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.username(r); !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		var req struct {
			Quantity int `json:"quantity"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		id := r.PathValue("id")
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.sweets {
			if b.sweets[i].ID != id {
				continue
			}
			if b.sweets[i].Quantity < req.Quantity {
				writeDetail(w, http.StatusBadRequest, "Insufficient quantity in stock")
				return
			}
			b.sweets[i].Quantity -= req.Quantity
			json.NewEncoder(w).Encode(b.sweets[i])
			return
		}
		writeDetail(w, http.StatusNotFound, "Sweet not found")
	})

	return mux
}

// newTestServer wires a storefront against the fake backend and returns
// both plus a cookie-carrying client.
func newTestServer(t *testing.T, backend *fakeBackend) (*Server, *httptest.Server, *http.Client) {
	t.Helper()

	backendSrv := httptest.NewServer(backend.handler())
	t.Cleanup(backendSrv.Close)

	cfg := config.New()
	cfg.APIBaseURL = backendSrv.URL
	cfg.Upload.Dir = t.TempDir()
	cfg.Metrics.Enabled = false
	cfg.SearchDebounce = "10ms"

	server, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(server.sessions.Close)

	front := httptest.NewServer(server.Router())
	t.Cleanup(front.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return server, front, client
}

func gulabJamun() api.Sweet {
	return api.Sweet{ID: "1", Name: "Gulab Jamun", Category: "Traditional", Price: 25, Quantity: 50}
}

func kajuKatli() api.Sweet {
	return api.Sweet{ID: "2", Name: "Kaju Katli", Category: "Premium", Price: 60, Quantity: 5}
}
