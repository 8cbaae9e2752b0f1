package postgres

import (
	"context"
	"fmt"

	"universe-curator/internal/storage"
)

// ScanCursorStore is a PostgreSQL implementation of storage.ScanCursorStore.
// One row per named cursor; upsert on write so restarts resume from the
// persisted position.
type ScanCursorStore struct {
	pool *Pool
}

// NewScanCursorStore creates a new PostgreSQL cursor store.
func NewScanCursorStore(pool *Pool) *ScanCursorStore {
	return &ScanCursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ScanCursorStore = (*ScanCursorStore)(nil)

// Get retrieves a cursor by name. Returns ErrNotFound if never set.
func (s *ScanCursorStore) Get(ctx context.Context, name string) (*storage.ScanCursor, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT name, position, updated_at
		FROM scan_cursors
		WHERE name = $1
	`, name)

	var cursor storage.ScanCursor
	err := row.Scan(&cursor.Name, &cursor.Position, &cursor.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scan cursor: %w", err)
	}
	return &cursor, nil
}

// Set saves a cursor position.
func (s *ScanCursorStore) Set(ctx context.Context, cursor *storage.ScanCursor) error {
	if cursor == nil || cursor.Name == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO scan_cursors (name, position, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET position = EXCLUDED.position,
		    updated_at = NOW()
	`, cursor.Name, cursor.Position)
	if err != nil {
		return fmt.Errorf("set scan cursor: %w", err)
	}
	return nil
}
