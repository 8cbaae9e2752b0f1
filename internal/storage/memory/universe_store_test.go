package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

func newEntry(ticker string, score int, active bool) *domain.CandidateEntry {
	return &domain.CandidateEntry{
		Ticker:   ticker,
		Category: domain.CategoryNone,
		Score:    score,
		IsActive: active,
	}
}

func TestUniverseStore_UpsertAndGet(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	name := "NVIDIA Corp"
	entry := newEntry("NVDA", 95, true)
	entry.CompanyName = &name
	entry.Category = domain.CategoryChip

	if err := store.Upsert(ctx, entry); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.Get(ctx, "NVDA")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Score != 95 {
		t.Errorf("Score mismatch: got %d, want 95", got.Score)
	}
	if got.Category != domain.CategoryChip {
		t.Errorf("Category mismatch: got %s", got.Category)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set on first insert")
	}
}

func TestUniverseStore_GetNotFound(t *testing.T) {
	store := NewUniverseStore()

	_, err := store.Get(context.Background(), "MISSING")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUniverseStore_UpsertPreservesCreatedAt(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, newEntry("AAPL", 10, true)); err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	first, _ := store.Get(ctx, "AAPL")

	replacement := newEntry("AAPL", 40, true)
	replacement.CreatedAt = time.Now().Add(time.Hour)
	if err := store.Upsert(ctx, replacement); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	second, _ := store.Get(ctx, "AAPL")
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on upsert: %v vs %v", second.CreatedAt, first.CreatedAt)
	}
	if second.Score != 40 {
		t.Errorf("Score not replaced: got %d", second.Score)
	}
}

func TestUniverseStore_DeactivationTimestamps(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, newEntry("INTC", 35, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// active → inactive sets DeactivatedAt
	if err := store.Upsert(ctx, newEntry("INTC", 10, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, _ := store.Get(ctx, "INTC")
	if got.DeactivatedAt == nil {
		t.Fatal("DeactivatedAt not set on deactivation")
	}

	// inactive → active clears it
	if err := store.Upsert(ctx, newEntry("INTC", 55, true)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	got, _ = store.Get(ctx, "INTC")
	if got.DeactivatedAt != nil {
		t.Error("DeactivatedAt not cleared on reactivation")
	}
}

func TestUniverseStore_SoftDeleteKeepsRow(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	if err := store.Upsert(ctx, newEntry("BURG", 0, false)); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Query with no isActive filter still returns it.
	all, err := store.Query(ctx, storage.UniverseFilter{})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("soft-deleted row missing from unfiltered query: got %d rows", len(all))
	}
}

func TestUniverseStore_QueryOrderingAndFilters(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	entries := []*domain.CandidateEntry{
		newEntry("BBBB", 80, true),
		newEntry("AAAA", 80, true),
		newEntry("CCCC", 90, true),
		newEntry("DDDD", 20, false),
	}
	for _, e := range entries {
		if err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	active := true
	got, err := store.Query(ctx, storage.UniverseFilter{IsActive: &active})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	wantOrder := []string{"CCCC", "AAAA", "BBBB"}
	if len(got) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(got))
	}
	for i, ticker := range wantOrder {
		if got[i].Ticker != ticker {
			t.Errorf("position %d: got %s, want %s", i, got[i].Ticker, ticker)
		}
	}

	minScore := 85
	got, _ = store.Query(ctx, storage.UniverseFilter{MinScore: &minScore})
	if len(got) != 1 || got[0].Ticker != "CCCC" {
		t.Errorf("minScore filter wrong: %+v", got)
	}

	got, _ = store.Query(ctx, storage.UniverseFilter{Limit: 2})
	if len(got) != 2 {
		t.Errorf("limit not applied: got %d", len(got))
	}
}

func TestUniverseStore_BulkUpsertIdempotent(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	entries := []*domain.CandidateEntry{
		newEntry("AAAA", 0, true),
		newEntry("BBBB", 0, true),
	}

	if err := store.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("first BulkUpsert failed: %v", err)
	}
	first, _ := store.Get(ctx, "AAAA")

	if err := store.BulkUpsert(ctx, entries); err != nil {
		t.Fatalf("second BulkUpsert failed: %v", err)
	}

	count, _ := store.Count(ctx)
	if count != 2 {
		t.Errorf("expected 2 rows after re-bootstrap, got %d", count)
	}
	second, _ := store.Get(ctx, "AAAA")
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("CreatedAt altered by re-bootstrap")
	}
}

func TestUniverseStore_ListPagination(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	for _, ticker := range []string{"CCCC", "AAAA", "DDDD", "BBBB"} {
		if err := store.Upsert(ctx, newEntry(ticker, 0, true)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	page, err := store.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 2 || page[0].Ticker != "BBBB" || page[1].Ticker != "CCCC" {
		t.Errorf("unexpected page: %+v", page)
	}

	// Offset past the end yields an empty page, not an error.
	page, err = store.List(ctx, 10, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(page) != 0 {
		t.Errorf("expected empty page, got %d", len(page))
	}
}

func TestUniverseStore_ListStale(t *testing.T) {
	store := NewUniverseStore()
	ctx := context.Background()

	cutoff := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-24 * time.Hour)
	fresh := cutoff.Add(24 * time.Hour)

	stale := newEntry("OLDC", 40, true)
	stale.LastMention = &old
	never := newEntry("NEVR", 40, true)
	recent := newEntry("FRSH", 40, true)
	recent.LastMention = &fresh
	inactive := newEntry("GONE", 0, false)
	inactive.LastMention = &old

	for _, e := range []*domain.CandidateEntry{stale, never, recent, inactive} {
		if err := store.Upsert(ctx, e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got, err := store.ListStale(ctx, cutoff, 0)
	if err != nil {
		t.Fatalf("ListStale failed: %v", err)
	}
	if len(got) != 2 || got[0].Ticker != "NEVR" || got[1].Ticker != "OLDC" {
		t.Errorf("unexpected stale set: %+v", got)
	}
}
