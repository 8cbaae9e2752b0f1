package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// WatchlistStore is an in-memory implementation of storage.WatchlistStore.
type WatchlistStore struct {
	mu   sync.RWMutex
	data map[string]*domain.WatchlistEntry // keyed by ticker

	now func() time.Time
}

// NewWatchlistStore creates a new in-memory watchlist store.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{
		data: make(map[string]*domain.WatchlistEntry),
		now:  time.Now,
	}
}

// Put inserts or replaces an entry keyed by ticker. The Pinned flag of an
// existing row is preserved.
func (s *WatchlistStore) Put(_ context.Context, entry *domain.WatchlistEntry) error {
	if entry == nil || entry.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	entryCopy.UpdatedAt = s.now()
	if existing, exists := s.data[entry.Ticker]; exists {
		entryCopy.Pinned = existing.Pinned
		entryCopy.CreatedAt = existing.CreatedAt
	} else if entryCopy.CreatedAt.IsZero() {
		entryCopy.CreatedAt = entryCopy.UpdatedAt
	}

	s.data[entry.Ticker] = &entryCopy
	return nil
}

// Get retrieves an entry by ticker. Returns ErrNotFound if not exists.
func (s *WatchlistStore) Get(_ context.Context, ticker string) (*domain.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}

	entryCopy := *entry
	return &entryCopy, nil
}

// Remove deletes an entry by ticker. Absent tickers are not an error.
func (s *WatchlistStore) Remove(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, ticker)
	return nil
}

// List retrieves all entries ordered by score DESC, ticker ASC.
func (s *WatchlistStore) List(_ context.Context) ([]*domain.WatchlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WatchlistEntry, 0, len(s.data))
	for _, entry := range s.data {
		entryCopy := *entry
		result = append(result, &entryCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].Ticker < result[j].Ticker
	})

	return result, nil
}

// SetPinned flips the manual-override pin flag.
func (s *WatchlistStore) SetPinned(_ context.Context, ticker string, pinned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.data[ticker]
	if !exists {
		return storage.ErrNotFound
	}

	entry.Pinned = pinned
	entry.UpdatedAt = s.now()
	return nil
}

// Verify interface compliance at compile time.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)
