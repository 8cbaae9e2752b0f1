package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// UniverseStore is an in-memory implementation of storage.UniverseStore.
type UniverseStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CandidateEntry // keyed by ticker

	now func() time.Time
}

// NewUniverseStore creates a new in-memory universe store.
func NewUniverseStore() *UniverseStore {
	return &UniverseStore{
		data: make(map[string]*domain.CandidateEntry),
		now:  time.Now,
	}
}

// Upsert inserts or replaces an entry keyed by ticker.
func (s *UniverseStore) Upsert(_ context.Context, entry *domain.CandidateEntry) error {
	if entry == nil || entry.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	existing, exists := s.data[entry.Ticker]
	if exists {
		// CreatedAt is immutable once set.
		entryCopy.CreatedAt = existing.CreatedAt
		switch {
		case existing.IsActive && !entryCopy.IsActive:
			now := s.now()
			entryCopy.DeactivatedAt = &now
		case entryCopy.IsActive:
			entryCopy.DeactivatedAt = nil
		default:
			entryCopy.DeactivatedAt = existing.DeactivatedAt
		}
	} else {
		if entryCopy.CreatedAt.IsZero() {
			entryCopy.CreatedAt = s.now()
		}
		if !entryCopy.IsActive && entryCopy.DeactivatedAt == nil {
			now := s.now()
			entryCopy.DeactivatedAt = &now
		}
	}

	s.data[entry.Ticker] = &entryCopy
	return nil
}

// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
func (s *UniverseStore) Get(_ context.Context, ticker string) (*domain.CandidateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}

	entryCopy := *entry
	return &entryCopy, nil
}

// Query retrieves entries matching the filter, ordered by score DESC,
// ticker ASC.
func (s *UniverseStore) Query(_ context.Context, filter storage.UniverseFilter) ([]*domain.CandidateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandidateEntry
	for _, entry := range s.data {
		if filter.IsActive != nil && entry.IsActive != *filter.IsActive {
			continue
		}
		if filter.MinScore != nil && entry.Score < *filter.MinScore {
			continue
		}
		if filter.Category != nil && entry.Category != *filter.Category {
			continue
		}
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sortByScoreDesc(result)

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// BulkUpsert seeds many entries with upsert-per-ticker semantics.
func (s *UniverseStore) BulkUpsert(ctx context.Context, entries []*domain.CandidateEntry) error {
	for _, entry := range entries {
		if err := s.Upsert(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves a page of the full universe ordered by ticker ASC.
func (s *UniverseStore) List(_ context.Context, offset, limit int) ([]*domain.CandidateEntry, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tickers := make([]string, 0, len(s.data))
	for ticker := range s.data {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	if offset >= len(tickers) {
		return nil, nil
	}
	end := len(tickers)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}

	result := make([]*domain.CandidateEntry, 0, end-offset)
	for _, ticker := range tickers[offset:end] {
		entryCopy := *s.data[ticker]
		result = append(result, &entryCopy)
	}
	return result, nil
}

// ListStale retrieves active entries whose LastMention is older than
// cutoff, including entries never mentioned. Ordered by ticker ASC.
func (s *UniverseStore) ListStale(_ context.Context, cutoff time.Time, limit int) ([]*domain.CandidateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandidateEntry
	for _, entry := range s.data {
		if !entry.IsActive {
			continue
		}
		if entry.LastMention != nil && !entry.LastMention.Before(cutoff) {
			continue
		}
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the total number of entries.
func (s *UniverseStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data), nil
}

// sortByScoreDesc sorts by score DESC, ticker ASC for deterministic
// pagination.
func sortByScoreDesc(entries []*domain.CandidateEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Ticker < entries[j].Ticker
	})
}

// Verify interface compliance at compile time.
var _ storage.UniverseStore = (*UniverseStore)(nil)
