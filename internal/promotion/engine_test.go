package promotion

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
	"universe-curator/internal/storage/memory"
)

func newEngine(t *testing.T) (*Engine, *memory.WatchlistStore) {
	t.Helper()
	watchlist := memory.NewWatchlistStore()
	engine, err := NewEngine(watchlist, DefaultThresholds(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, watchlist
}

func active(ticker string, score int) *domain.CandidateEntry {
	return &domain.CandidateEntry{Ticker: ticker, Score: score, IsActive: true, Category: domain.CategoryChip}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Errorf("default thresholds must validate: %v", err)
	}
	bad := Thresholds{Promote: 50, Demote: 70, Deactivate: 30}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for demote > promote")
	}
	if _, err := NewEngine(memory.NewWatchlistStore(), bad, zap.NewNop()); err == nil {
		t.Error("NewEngine must reject invalid thresholds")
	}
}

func TestSync_PromotesAtThreshold(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	action, err := engine.Sync(ctx, active("NVDA", 70))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionPromoted {
		t.Errorf("expected promoted, got %s", action)
	}

	entry, err := watchlist.Get(ctx, "NVDA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Score != 70 {
		t.Errorf("expected mirrored score 70, got %d", entry.Score)
	}
	if entry.Status != domain.StatusWatching {
		t.Errorf("expected Watching, got %s", entry.Status)
	}
}

func TestSync_BelowPromoteNoPromotion(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	action, err := engine.Sync(ctx, active("NVDA", 69))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionNone {
		t.Errorf("expected none, got %s", action)
	}
	if _, err := watchlist.Get(ctx, "NVDA"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("69 must not promote")
	}
}

func TestSync_RefreshesMirroredScore(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	if _, err := engine.Sync(ctx, active("NVDA", 80)); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Survives in the dead zone with a refreshed mirror
	action, err := engine.Sync(ctx, active("NVDA", 60))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionRefreshed {
		t.Errorf("expected refreshed, got %s", action)
	}

	entry, err := watchlist.Get(ctx, "NVDA")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Score != 60 {
		t.Errorf("expected mirrored score 60, got %d", entry.Score)
	}
}

func TestSync_HysteresisNoFlapping(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	// 75 promotes, 65 keeps, 75 refreshes: one row throughout
	if _, err := engine.Sync(ctx, active("NVDA", 75)); err != nil {
		t.Fatal(err)
	}
	action, err := engine.Sync(ctx, active("NVDA", 65))
	if err != nil {
		t.Fatal(err)
	}
	if action != ActionRefreshed {
		t.Errorf("65 after promotion should refresh, got %s", action)
	}
	action, err = engine.Sync(ctx, active("NVDA", 75))
	if err != nil {
		t.Fatal(err)
	}
	if action != ActionRefreshed {
		t.Errorf("repromote of existing row should refresh, got %s", action)
	}

	entries, err := watchlist.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 watchlist row, got %d", len(entries))
	}
}

func TestSync_DemotesBelowFifty(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	if _, err := engine.Sync(ctx, active("NVDA", 80)); err != nil {
		t.Fatal(err)
	}

	entry := active("NVDA", 49)
	action, err := engine.Sync(ctx, entry)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionDemoted {
		t.Errorf("expected demoted, got %s", action)
	}
	if _, err := watchlist.Get(ctx, "NVDA"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("expected row removed")
	}
	if !entry.IsActive {
		t.Error("49 must not deactivate the candidate")
	}
}

func TestSync_DeactivatesBelowThirty(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	if _, err := engine.Sync(ctx, active("NVDA", 80)); err != nil {
		t.Fatal(err)
	}

	entry := active("NVDA", 29)
	action, err := engine.Sync(ctx, entry)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionDeactivated {
		t.Errorf("expected deactivated, got %s", action)
	}
	if entry.IsActive {
		t.Error("expected entry marked inactive")
	}
	if _, err := watchlist.Get(ctx, "NVDA"); !errors.Is(err, storage.ErrNotFound) {
		t.Error("expected row removed")
	}
}

func TestSync_DeactivateWithoutWatchlistRow(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	entry := active("XYZ", 5)
	action, err := engine.Sync(ctx, entry)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionDeactivated {
		t.Errorf("expected deactivated, got %s", action)
	}
	if entry.IsActive {
		t.Error("expected entry marked inactive")
	}
}

func TestSync_AlreadyInactiveNotReDeactivated(t *testing.T) {
	engine, _ := newEngine(t)
	ctx := context.Background()

	entry := &domain.CandidateEntry{Ticker: "XYZ", Score: 5, IsActive: false}
	action, err := engine.Sync(ctx, entry)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if action != ActionNone {
		t.Errorf("expected none for already-inactive entry, got %s", action)
	}
}

func TestSync_PinnedSurvivesZeroScore(t *testing.T) {
	engine, watchlist := newEngine(t)
	ctx := context.Background()

	if _, err := engine.Sync(ctx, active("NVDA", 90)); err != nil {
		t.Fatal(err)
	}
	if err := watchlist.SetPinned(ctx, "NVDA", true); err != nil {
		t.Fatal(err)
	}

	entry := active("NVDA", 0)
	action, err := engine.Sync(ctx, entry)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	// The candidate still deactivates; only the watchlist row is immune.
	if action != ActionDeactivated {
		t.Errorf("expected deactivated, got %s", action)
	}

	row, err := watchlist.Get(ctx, "NVDA")
	if err != nil {
		t.Fatalf("pinned row must survive: %v", err)
	}
	if !row.Pinned {
		t.Error("expected row still pinned")
	}
	if row.Score != 0 {
		t.Errorf("expected mirrored score 0, got %d", row.Score)
	}
}

func TestSync_NilEntry(t *testing.T) {
	engine, _ := newEngine(t)

	if _, err := engine.Sync(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
