package store

import (
	"context"
	"testing"
	"time"

	"github.com/sweetshop-dev/sweetshop/pkg/api"
)

func gulabJamun(quantity int) api.Sweet {
	return api.Sweet{ID: "1", Name: "Gulab Jamun", Category: "indian", Price: 25.0, Quantity: quantity}
}

func TestSearchEmptyEqualsFetchAll(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	inv := NewInventoryStore(backend.start(t))

	if _, err := inv.Search(ctx, api.SearchFilter{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	_, list, search, _ := backend.counts()
	if list != 1 || search != 0 {
		t.Errorf("empty search used list=%d search=%d calls, want the list endpoint", list, search)
	}
	if got := inv.Sweets(); len(got) != 1 || got[0].Name != "Gulab Jamun" {
		t.Errorf("cache = %+v", got)
	}
}

func TestSearchFiltersPassThrough(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(
		gulabJamun(50),
		api.Sweet{ID: "2", Name: "Fudge", Category: "western", Price: 10.0, Quantity: 5},
	)
	inv := NewInventoryStore(backend.start(t))

	got, err := inv.Search(ctx, api.SearchFilter{Name: "gulab"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Errorf("search result = %+v", got)
	}
	if cached := inv.Sweets(); len(cached) != 1 {
		t.Errorf("cache after search = %+v, want the filtered snapshot", cached)
	}
}

func TestPurchaseHappyPath(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-x")
	inv := NewInventoryStore(client)
	if _, err := inv.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if err := inv.Purchase(ctx, "1", 2); err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	got, ok := inv.Get("1")
	if !ok || got.Quantity != 48 {
		t.Errorf("cached quantity = %d, want 48", got.Quantity)
	}
}

func TestPurchaseValidationNeverHitsNetwork(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	inv := NewInventoryStore(backend.start(t))
	if _, err := inv.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	tests := []struct {
		name     string
		quantity int
	}{
		{"zero", 0},
		{"negative", -3},
		{"exceeds stock", 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := inv.Purchase(ctx, "1", tt.quantity)
			if !api.IsKind(err, api.KindValidation) {
				t.Fatalf("err = %v, want KindValidation", err)
			}
			if _, _, _, purchases := backend.counts(); purchases != 0 {
				t.Errorf("validation failure reached the network (%d calls)", purchases)
			}
			got, _ := inv.Get("1")
			if got.Quantity != 50 {
				t.Errorf("cached quantity = %d, want 50 untouched", got.Quantity)
			}
		})
	}

	if err := inv.Purchase(ctx, "1", 100); err == nil || err.Error() != "requested quantity exceeds available stock" {
		t.Errorf("over-stock message = %v", err)
	}
}

func TestPurchaseConflictReconcilesCache(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-x")
	inv := NewInventoryStore(client)
	if _, err := inv.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	// Another buyer drained the stock behind our back; the cache still
	// says 50, so the local pre-check passes and the backend rejects.
	backend.setSweets(gulabJamun(1))

	err := inv.Purchase(ctx, "1", 5)
	if !api.IsKind(err, api.KindConflict) {
		t.Fatalf("err = %v, want KindConflict", err)
	}
	if err.Error() != "Insufficient quantity in stock" {
		t.Errorf("error message = %q", err.Error())
	}
	got, _ := inv.Get("1")
	if got.Quantity != 1 {
		t.Errorf("cache not reconciled after conflict: quantity = %d, want 1", got.Quantity)
	}
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-x")
	inv := NewInventoryStore(client)
	if _, err := inv.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	before := inv.Sweets()

	_, err := inv.Create(ctx, api.SweetDraft{Name: "Gulab Jamun", Category: "indian", Price: 25, Quantity: 10})
	if !api.IsKind(err, api.KindConflict) {
		t.Fatalf("err = %v, want KindConflict for duplicate name", err)
	}

	after := inv.Sweets()
	if len(after) != len(before) || after[0] != before[0] {
		t.Errorf("cache changed by a failed mutation: %+v -> %+v", before, after)
	}
}

func TestCreateRefreshesCache(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-x")
	inv := NewInventoryStore(client)

	sweet, err := inv.Create(ctx, api.SweetDraft{Name: "Barfi", Category: "indian", Price: 15, Quantity: 20})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sweet.ID == "" {
		t.Error("created sweet has no id")
	}
	if got := inv.Sweets(); len(got) != 2 {
		t.Errorf("cache after create has %d sweets, want 2", len(got))
	}
}

func TestDeleteRefreshesCache(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-x")
	inv := NewInventoryStore(client)
	if _, err := inv.FetchAll(ctx); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	if err := inv.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := inv.Sweets(); len(got) != 0 {
		t.Errorf("cache after delete = %+v, want empty", got)
	}
}

func TestRestockRefreshesCache(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	client := backend.start(t)
	client.SetToken("tok-admin")
	inv := NewInventoryStore(client)

	if err := inv.Restock(ctx, "1", 10); err != nil {
		t.Fatalf("Restock: %v", err)
	}
	got, _ := inv.Get("1")
	if got.Quantity != 60 {
		t.Errorf("cached quantity = %d, want 60", got.Quantity)
	}

	if err := inv.Restock(ctx, "1", 0); !api.IsKind(err, api.KindValidation) {
		t.Errorf("restock of 0 = %v, want KindValidation", err)
	}
}

func TestStaleFetchResponseDiscarded(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(gulabJamun(50))
	inv := NewInventoryStore(backend.start(t))

	// Arm the gate: the next full fetch blocks inside the backend.
	gate := make(chan struct{})
	started := make(chan struct{})
	backend.mu.Lock()
	backend.listGate = gate
	backend.listStarted = started
	backend.mu.Unlock()

	slowDone := make(chan struct{})
	go func() {
		defer close(slowDone)
		inv.FetchAll(ctx)
	}()
	<-started

	// A later search resolves first and must win.
	if _, err := inv.Search(ctx, api.SearchFilter{Name: "no-such-sweet"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := inv.Sweets(); len(got) != 0 {
		t.Fatalf("cache after winning search = %+v, want empty", got)
	}

	close(gate)
	select {
	case <-slowDone:
	case <-time.After(5 * time.Second):
		t.Fatal("gated fetch never returned")
	}

	if got := inv.Sweets(); len(got) != 0 {
		t.Errorf("stale fetch overwrote the cache: %+v", got)
	}
}
