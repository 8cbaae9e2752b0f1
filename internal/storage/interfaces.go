package storage

import (
	"context"
	"time"

	"universe-curator/internal/domain"
)

// UniverseFilter narrows UniverseStore.Query results. Nil fields are
// ignored.
type UniverseFilter struct {
	IsActive *bool
	MinScore *int
	Category *domain.Category
	Limit    int // 0 means no limit
}

// UniverseStore provides access to the trading_universe table. The store
// owns the CandidateEntry lifecycle exclusively; nothing is ever
// physically deleted, removal always means IsActive=false.
type UniverseStore interface {
	// Upsert inserts or replaces an entry keyed by ticker. CreatedAt of an
	// existing row is preserved. DeactivatedAt is set on an active→inactive
	// transition and cleared on reactivation.
	Upsert(ctx context.Context, entry *domain.CandidateEntry) error

	// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
	Get(ctx context.Context, ticker string) (*domain.CandidateEntry, error)

	// Query retrieves entries matching the filter, ordered by score
	// descending, ties broken by ticker ascending.
	Query(ctx context.Context, filter UniverseFilter) ([]*domain.CandidateEntry, error)

	// BulkUpsert seeds many entries with upsert-per-ticker semantics.
	// Used by bootstrap ingestion; idempotent on re-run.
	BulkUpsert(ctx context.Context, entries []*domain.CandidateEntry) error

	// List retrieves a page of the full universe ordered by ticker
	// ascending. Used by the weekly progressive scan; the ordering must be
	// stable so cyclic slices cover every ticker.
	List(ctx context.Context, offset, limit int) ([]*domain.CandidateEntry, error)

	// ListStale retrieves active entries whose LastMention is older than
	// cutoff, including entries never mentioned. Ordered by ticker ascending.
	ListStale(ctx context.Context, cutoff time.Time, limit int) ([]*domain.CandidateEntry, error)

	// Count returns the total number of entries (active and inactive).
	Count(ctx context.Context) (int, error)
}

// WatchlistStore provides access to the downstream watchlist. The
// promotion engine is the only writer besides the manual pin override.
type WatchlistStore interface {
	// Put inserts or replaces an entry keyed by ticker. The Pinned flag of
	// an existing row is preserved; only SetPinned may change it.
	Put(ctx context.Context, entry *domain.WatchlistEntry) error

	// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
	Get(ctx context.Context, ticker string) (*domain.WatchlistEntry, error)

	// Remove deletes an entry by ticker. Removing an absent ticker is not
	// an error.
	Remove(ctx context.Context, ticker string) error

	// List retrieves all entries ordered by score descending, ties broken
	// by ticker ascending.
	List(ctx context.Context) ([]*domain.WatchlistEntry, error)

	// SetPinned flips the manual-override pin flag. Returns ErrNotFound if
	// the ticker is not on the watchlist.
	SetPinned(ctx context.Context, ticker string, pinned bool) error
}

// JournalStore is the append-only decision log sink. Records are
// immutable once written.
type JournalStore interface {
	// Append writes one journal record. Fire-and-forget from the
	// scheduler's perspective; failures must not abort a scan.
	Append(ctx context.Context, entry *domain.JournalEntry) error

	// Recent retrieves the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error)
}

// ScanCursor is the persisted position of a rotating scan.
type ScanCursor struct {
	Name      string // cadence-owned cursor name, e.g. "weekly_slice"
	Position  int    // next offset into the ticker-ordered universe
	UpdatedAt time.Time
}

// ScanCursorStore persists scheduler-owned cursor state so restarts
// resume deterministically instead of relying on process memory.
type ScanCursorStore interface {
	// Get retrieves a cursor by name. Returns ErrNotFound if never set.
	Get(ctx context.Context, name string) (*ScanCursor, error)

	// Set saves a cursor position.
	Set(ctx context.Context, cursor *ScanCursor) error
}
