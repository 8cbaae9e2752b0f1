package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"universe-curator/internal/storage"
)

func TestScanCursorStore_GetUnset(t *testing.T) {
	store := NewScanCursorStore()

	_, err := store.Get(context.Background(), "weekly_slice")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScanCursorStore_SetAndGet(t *testing.T) {
	store := NewScanCursorStore()
	ctx := context.Background()

	cursor := &storage.ScanCursor{Name: "weekly_slice", Position: 150, UpdatedAt: time.Now()}
	if err := store.Set(ctx, cursor); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "weekly_slice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Position != 150 {
		t.Errorf("Position mismatch: got %d", got.Position)
	}

	cursor.Position = 300
	if err := store.Set(ctx, cursor); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = store.Get(ctx, "weekly_slice")
	if got.Position != 300 {
		t.Errorf("Position not replaced: got %d", got.Position)
	}
}
