package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Put inserts or replaces an entry keyed by ticker. The pinned flag of an
// existing row is never touched by this path.
func (s *WatchlistStore) Put(ctx context.Context, entry *domain.WatchlistEntry) error {
	if entry == nil || entry.Ticker == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO watchlist (ticker, score, status, pinned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (ticker) DO UPDATE SET
			score = EXCLUDED.score,
			status = EXCLUDED.status,
			updated_at = NOW()
	`

	_, err := s.pool.Exec(ctx, query,
		entry.Ticker,
		entry.Score,
		string(entry.Status),
		entry.Pinned,
	)
	if err != nil {
		return fmt.Errorf("put watchlist entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
func (s *WatchlistStore) Get(ctx context.Context, ticker string) (*domain.WatchlistEntry, error) {
	query := `
		SELECT ticker, score, status, pinned, created_at, updated_at
		FROM watchlist
		WHERE ticker = $1
	`

	row := s.pool.QueryRow(ctx, query, ticker)
	entry, err := scanWatchlistEntry(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get watchlist entry: %w", err)
	}
	return entry, nil
}

// Remove deletes an entry by ticker. Absent tickers are not an error.
func (s *WatchlistStore) Remove(ctx context.Context, ticker string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM watchlist WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("remove watchlist entry: %w", err)
	}
	return nil
}

// List retrieves all entries ordered by score DESC, ticker ASC.
func (s *WatchlistStore) List(ctx context.Context) ([]*domain.WatchlistEntry, error) {
	query := `
		SELECT ticker, score, status, pinned, created_at, updated_at
		FROM watchlist
		ORDER BY score DESC, ticker ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WatchlistEntry
	for rows.Next() {
		var entry domain.WatchlistEntry
		var statusStr string
		if err := rows.Scan(&entry.Ticker, &entry.Score, &statusStr, &entry.Pinned, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		entry.Status = domain.WatchlistStatus(statusStr)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}

	return entries, nil
}

// SetPinned flips the manual-override pin flag.
func (s *WatchlistStore) SetPinned(ctx context.Context, ticker string, pinned bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE watchlist SET pinned = $2, updated_at = NOW() WHERE ticker = $1
	`, ticker, pinned)
	if err != nil {
		return fmt.Errorf("set pinned: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanWatchlistEntry scans a single row into a WatchlistEntry.
func scanWatchlistEntry(row pgx.Row) (*domain.WatchlistEntry, error) {
	var entry domain.WatchlistEntry
	var statusStr string

	err := row.Scan(
		&entry.Ticker,
		&entry.Score,
		&statusStr,
		&entry.Pinned,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Status = domain.WatchlistStatus(statusStr)
	return &entry, nil
}
