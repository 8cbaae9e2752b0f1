package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// UniverseStore implements storage.UniverseStore using PostgreSQL.
type UniverseStore struct {
	pool *Pool
}

// NewUniverseStore creates a new UniverseStore.
func NewUniverseStore(pool *Pool) *UniverseStore {
	return &UniverseStore{pool: pool}
}

// Compile-time interface check.
var _ storage.UniverseStore = (*UniverseStore)(nil)

const universeColumns = `ticker, company_name, sector, category, score, is_active, last_scanned, last_mention, notes, created_at, deactivated_at`

// upsertQuery preserves created_at of an existing row and manages
// deactivated_at on is_active transitions in one statement.
const upsertQuery = `
	INSERT INTO trading_universe (
		ticker, company_name, sector, category, score, is_active, last_scanned, last_mention, notes, created_at, deactivated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(),
		CASE WHEN $6 THEN NULL ELSE NOW() END
	)
	ON CONFLICT (ticker) DO UPDATE SET
		company_name = EXCLUDED.company_name,
		sector = EXCLUDED.sector,
		category = EXCLUDED.category,
		score = EXCLUDED.score,
		is_active = EXCLUDED.is_active,
		last_scanned = EXCLUDED.last_scanned,
		last_mention = EXCLUDED.last_mention,
		notes = EXCLUDED.notes,
		deactivated_at = CASE
			WHEN trading_universe.is_active AND NOT EXCLUDED.is_active THEN NOW()
			WHEN EXCLUDED.is_active THEN NULL
			ELSE trading_universe.deactivated_at
		END
`

// Upsert inserts or replaces an entry keyed by ticker.
func (s *UniverseStore) Upsert(ctx context.Context, entry *domain.CandidateEntry) error {
	if entry == nil || entry.Ticker == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertQuery,
		entry.Ticker,
		entry.CompanyName,
		entry.Sector,
		string(entry.Category),
		entry.Score,
		entry.IsActive,
		entry.LastScanned,
		entry.LastMention,
		entry.Notes,
	)
	if err != nil {
		if isCheckViolation(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("upsert universe entry: %w", err)
	}
	return nil
}

// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
func (s *UniverseStore) Get(ctx context.Context, ticker string) (*domain.CandidateEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM trading_universe WHERE ticker = $1`, universeColumns)

	row := s.pool.QueryRow(ctx, query, ticker)
	entry, err := scanEntry(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get universe entry: %w", err)
	}
	return entry, nil
}

// Query retrieves entries matching the filter, ordered by score DESC,
// ticker ASC.
func (s *UniverseStore) Query(ctx context.Context, filter storage.UniverseFilter) ([]*domain.CandidateEntry, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM trading_universe`, universeColumns)

	var clauses []string
	var args []interface{}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		clauses = append(clauses, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.MinScore != nil {
		args = append(args, *filter.MinScore)
		clauses = append(clauses, fmt.Sprintf("score >= $%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, string(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if len(clauses) > 0 {
		sb.WriteString(" WHERE " + strings.Join(clauses, " AND "))
	}
	sb.WriteString(" ORDER BY score DESC, ticker ASC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query universe: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// BulkUpsert seeds many entries in one transaction with upsert-per-ticker
// semantics. Idempotent on re-run.
func (s *UniverseStore) BulkUpsert(ctx context.Context, entries []*domain.CandidateEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, entry := range entries {
		if entry == nil || entry.Ticker == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, upsertQuery,
			entry.Ticker,
			entry.CompanyName,
			entry.Sector,
			string(entry.Category),
			entry.Score,
			entry.IsActive,
			entry.LastScanned,
			entry.LastMention,
			entry.Notes,
		)
		if err != nil {
			if isCheckViolation(err) {
				return storage.ErrInvalidInput
			}
			return fmt.Errorf("upsert %s in bulk: %w", entry.Ticker, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// List retrieves a page of the full universe ordered by ticker ASC.
func (s *UniverseStore) List(ctx context.Context, offset, limit int) ([]*domain.CandidateEntry, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	query := fmt.Sprintf(`
		SELECT %s FROM trading_universe
		ORDER BY ticker ASC
		OFFSET $1
	`, universeColumns)
	args := []interface{}{offset}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list universe: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListStale retrieves active entries whose last_mention is older than
// cutoff, including entries never mentioned.
func (s *UniverseStore) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.CandidateEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM trading_universe
		WHERE is_active AND (last_mention IS NULL OR last_mention < $1)
		ORDER BY ticker ASC
	`, universeColumns)
	args := []interface{}{cutoff}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stale universe entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Count returns the total number of entries.
func (s *UniverseStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM trading_universe`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count universe entries: %w", err)
	}
	return count, nil
}

// scanEntry scans a single row into a CandidateEntry.
func scanEntry(row pgx.Row) (*domain.CandidateEntry, error) {
	var entry domain.CandidateEntry
	var categoryStr string

	err := row.Scan(
		&entry.Ticker,
		&entry.CompanyName,
		&entry.Sector,
		&categoryStr,
		&entry.Score,
		&entry.IsActive,
		&entry.LastScanned,
		&entry.LastMention,
		&entry.Notes,
		&entry.CreatedAt,
		&entry.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Category = domain.Category(categoryStr)
	return &entry, nil
}

// scanEntries scans multiple rows into a slice of CandidateEntry.
func scanEntries(rows pgx.Rows) ([]*domain.CandidateEntry, error) {
	var entries []*domain.CandidateEntry

	for rows.Next() {
		var entry domain.CandidateEntry
		var categoryStr string

		err := rows.Scan(
			&entry.Ticker,
			&entry.CompanyName,
			&entry.Sector,
			&categoryStr,
			&entry.Score,
			&entry.IsActive,
			&entry.LastScanned,
			&entry.LastMention,
			&entry.Notes,
			&entry.CreatedAt,
			&entry.DeactivatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan universe row: %w", err)
		}

		entry.Category = domain.Category(categoryStr)
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate universe rows: %w", err)
	}

	return entries, nil
}
