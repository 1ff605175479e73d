package store

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

// fakeBackend is an in-process stand-in for the REST backend. It keeps
// a mutable sweet list, issues "tok-<username>" bearer tokens, and
// counts calls per endpoint so tests can assert what went over the wire.
type fakeBackend struct {
	mu        sync.Mutex
	sweets    []api.Sweet
	passwords map[string]string
	admins    map[string]bool

	// Canned failures.
	registerDetail string // 400 detail for register, if set
	noMe           bool   // 404 on /auth/me, if set

	// listGate, when set, blocks the next /sweets list request until
	// the channel is closed. listStarted is closed when that request
	// has been received.
	listGate    chan struct{}
	listStarted chan struct{}

	meCalls       int
	listCalls     int
	searchCalls   int
	purchaseCalls int
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

func (b *fakeBackend) setSweets(sweets ...api.Sweet) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweets = append([]api.Sweet(nil), sweets...)
}

func (b *fakeBackend) counts() (me, list, search, purchase int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meCalls, b.listCalls, b.searchCalls, b.purchaseCalls
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
		var req struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		pw, ok := b.passwords[req.Username]
		b.mu.Unlock()
		if !ok || pw != req.Password {
			writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": "tok-" + req.Username,
			"token_type":   "bearer",
		})
	})

	mux.HandleFunc("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		if b.registerDetail != "" {
			writeDetail(w, http.StatusBadRequest, b.registerDetail)
			return
		}
		var req struct{ Username, Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		b.addUser(req.Username, req.Password, false)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "User registered",
			"user_id": "u-" + req.Username,
		})
	})

	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.meCalls++
		noMe := b.noMe
		b.mu.Unlock()
		if noMe {
			writeDetail(w, http.StatusNotFound, "Not Found")
			return
		}
		name, ok := b.username(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		b.mu.Lock()
		admin := b.admins[name]
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"username": name, "is_admin": admin})
	})

	mux.HandleFunc("GET /sweets", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.listCalls++
		gate, started := b.listGate, b.listStarted
		b.listGate, b.listStarted = nil, nil
		sweets := append([]api.Sweet(nil), b.sweets...)
		b.mu.Unlock()
		if gate != nil {
			if started != nil {
				close(started)
			}
			<-gate
			// Re-read after the gate so the response reflects current state.
			b.mu.Lock()
			sweets = append([]api.Sweet(nil), b.sweets...)
			b.mu.Unlock()
		}
		json.NewEncoder(w).Encode(sweets)
	})

	mux.HandleFunc("GET /sweets/search", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.searchCalls++
		sweets := append([]api.Sweet(nil), b.sweets...)
		b.mu.Unlock()

		q := r.URL.Query()
		var out []api.Sweet
		for _, sw := range sweets {
			if name := q.Get("name"); name != "" && !strings.Contains(strings.ToLower(sw.Name), strings.ToLower(name)) {
				continue
			}
			if cat := q.Get("category"); cat != "" && !strings.Contains(strings.ToLower(sw.Category), strings.ToLower(cat)) {
				continue
			}
			if min := q.Get("price_min"); min != "" {
				if v, err := strconv.ParseFloat(min, 64); err == nil && sw.Price < v {
					continue
				}
			}
			if max := q.Get("price_max"); max != "" {
				if v, err := strconv.ParseFloat(max, 64); err == nil && sw.Price > v {
					continue
				}
			}
			out = append(out, sw)
		}
		if out == nil {
			out = []api.Sweet{}
		}
		json.NewEncoder(w).Encode(out)
	})

	mux.HandleFunc("POST /sweets/{id}/purchase", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.purchaseCalls++
		var req struct{ Quantity int }
		json.NewDecoder(r.Body).Decode(&req)
		for i := range b.sweets {
			if b.sweets[i].ID != r.PathValue("id") {
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

	mux.HandleFunc("POST /sweets/{id}/restock", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var req struct{ Quantity int }
		json.NewDecoder(r.Body).Decode(&req)
		for i := range b.sweets {
			if b.sweets[i].ID != r.PathValue("id") {
				continue
			}
			b.sweets[i].Quantity += req.Quantity
			json.NewEncoder(w).Encode(b.sweets[i])
			return
		}
		writeDetail(w, http.StatusNotFound, "Sweet not found")
	})

	mux.HandleFunc("POST /sweets", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var draft api.SweetDraft
		json.NewDecoder(r.Body).Decode(&draft)
		for _, sw := range b.sweets {
			if sw.Name == draft.Name {
				writeDetail(w, http.StatusBadRequest, "Sweet with this name already exists")
				return
			}
		}
		sweet := api.Sweet{
			ID:       "s-" + strconv.Itoa(len(b.sweets)+1),
			Name:     draft.Name,
			Category: draft.Category,
			Price:    draft.Price,
			Quantity: draft.Quantity,
		}
		b.sweets = append(b.sweets, sweet)
		json.NewEncoder(w).Encode(sweet)
	})

	mux.HandleFunc("PUT /sweets/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var draft api.SweetDraft
		json.NewDecoder(r.Body).Decode(&draft)
		for i := range b.sweets {
			if b.sweets[i].ID != r.PathValue("id") {
				continue
			}
			b.sweets[i].Name = draft.Name
			b.sweets[i].Category = draft.Category
			b.sweets[i].Price = draft.Price
			b.sweets[i].Quantity = draft.Quantity
			json.NewEncoder(w).Encode(b.sweets[i])
			return
		}
		writeDetail(w, http.StatusNotFound, "Sweet not found")
	})

	mux.HandleFunc("DELETE /sweets/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.sweets {
			if b.sweets[i].ID == r.PathValue("id") {
				b.sweets = append(b.sweets[:i], b.sweets[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, "Sweet not found")
	})

	return mux
}

// start serves the fake backend and returns an API client bound to it.
func (b *fakeBackend) start(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)
	return api.New(srv.URL)
}
