package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

// nowFunc returns the current time; overrideable for tests.
var nowFunc = time.Now

// InventoryStore owns the cached mirror of the backend's sweet list and
// mediates every mutation. The cache is disposable: each fetch, search,
// or mutation round-trip replaces it wholesale with the server's latest
// snapshot (full-refetch reconciliation, applied uniformly).
//
// The store is safe for concurrent use. When overlapping fetches
// resolve out of order, the later-issued fetch wins and stale responses
// never overwrite the cache.
type InventoryStore struct {
	client *api.Client
	logger *slog.Logger

	mu       sync.RWMutex
	sweets   []api.Sweet
	loading  bool
	fetchSeq uint64
}

// InventoryOption configures an InventoryStore.
type InventoryOption func(*InventoryStore)

// WithInventoryLogger sets the store's logger.
func WithInventoryLogger(logger *slog.Logger) InventoryOption {
	return func(s *InventoryStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewInventoryStore creates an inventory store over the given API
// client. The cache starts empty; call FetchAll to populate it.
func NewInventoryStore(client *api.Client, opts ...InventoryOption) *InventoryStore {
	s := &InventoryStore{
		client: client,
		logger: slog.Default().With("component", "inventory"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweets returns a copy of the cached list in server order.
func (s *InventoryStore) Sweets() []api.Sweet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.Sweet, len(s.sweets))
	copy(out, s.sweets)
	return out
}

// Get returns the cached sweet with the given id.
func (s *InventoryStore) Get(id string) (api.Sweet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sw := range s.sweets {
		if sw.ID == id {
			return sw, true
		}
	}
	return api.Sweet{}, false
}

// Loading reports whether a fetch is in flight.
func (s *InventoryStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// FetchAll replaces the cached list with the backend's full inventory.
func (s *InventoryStore) FetchAll(ctx context.Context) ([]api.Sweet, error) {
	return s.replaceWith(ctx, api.SearchFilter{})
}

// Search replaces the cached list with the backend's matches for the
// filter. An all-empty filter is equivalent to FetchAll.
func (s *InventoryStore) Search(ctx context.Context, filter api.SearchFilter) ([]api.Sweet, error) {
	return s.replaceWith(ctx, filter)
}

// replaceWith performs a snapshot fetch under a monotonic sequence
// number. If a later fetch was issued while this one was in flight, the
// stale response is returned to its caller but never installed.
func (s *InventoryStore) replaceWith(ctx context.Context, filter api.SearchFilter) ([]api.Sweet, error) {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.mu.Unlock()

	var (
		sweets []api.Sweet
		err    error
	)
	if filter.IsZero() {
		sweets, err = s.client.ListSweets(ctx)
	} else {
		sweets, err = s.client.SearchSweets(ctx, filter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// Superseded by a later fetch; leave the cache to the winner.
		return sweets, err
	}
	s.loading = false
	if err != nil {
		return nil, err
	}
	s.sweets = sweets
	return append([]api.Sweet(nil), sweets...), nil
}

// Create adds a new sweet and refreshes the cache.
func (s *InventoryStore) Create(ctx context.Context, draft api.SweetDraft) (*api.Sweet, error) {
	sweet, err := s.client.CreateSweet(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return sweet, nil
}

// Update replaces the sweet with the given id and refreshes the cache.
func (s *InventoryStore) Update(ctx context.Context, id string, draft api.SweetDraft) (*api.Sweet, error) {
	sweet, err := s.client.UpdateSweet(ctx, id, draft)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return sweet, nil
}

// Delete removes the sweet with the given id and refreshes the cache.
func (s *InventoryStore) Delete(ctx context.Context, id string) error {
	if err := s.client.DeleteSweet(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// Purchase buys quantity units of the sweet. The quantity is
// pre-validated against the cached stock and rejected locally, without
// a network call, when it is not a positive number within stock. The
// pre-check is advisory: the backend independently re-validates and may
// still reject the purchase under concurrent buyers, in which case the
// cache is refreshed to reconcile before the error is returned.
func (s *InventoryStore) Purchase(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return api.Validation("quantity must be a positive number")
	}
	if cached, ok := s.Get(id); ok && quantity > cached.Quantity {
		return api.Validation("requested quantity exceeds available stock")
	}

	if _, err := s.client.Purchase(ctx, id, quantity); err != nil {
		if api.IsKind(err, api.KindConflict) {
			// The cached stock was out of date; reconcile.
			s.refresh(ctx)
		}
		return err
	}
	s.refresh(ctx)
	return nil
}

// Restock adds quantity units of stock and refreshes the cache.
// Authorized-only; the backend enforces the admin requirement.
func (s *InventoryStore) Restock(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return api.Validation("quantity must be a positive number")
	}
	if _, err := s.client.Restock(ctx, id, quantity); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

// refresh re-fetches the full list after a successful mutation. The
// mutation already succeeded, so a refresh failure only means the cache
// is briefly stale; it is logged, not propagated.
func (s *InventoryStore) refresh(ctx context.Context) {
	if _, err := s.FetchAll(ctx); err != nil {
		s.logger.Warn("post-mutation refresh failed", "error", err)
	}
}
