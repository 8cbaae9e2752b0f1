package memory

import (
	"context"
	"sync"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// JournalStore is an in-memory implementation of storage.JournalStore.
// Append-only; records are never mutated after insertion.
type JournalStore struct {
	mu      sync.RWMutex
	entries []*domain.JournalEntry
}

// NewJournalStore creates a new in-memory journal store.
func NewJournalStore() *JournalStore {
	return &JournalStore{}
}

// Append writes one journal record.
func (s *JournalStore) Append(_ context.Context, entry *domain.JournalEntry) error {
	if entry == nil || entry.Actor == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *entry
	s.entries = append(s.entries, &entryCopy)
	return nil
}

// Recent retrieves the most recent records, newest first.
func (s *JournalStore) Recent(_ context.Context, limit int) ([]*domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	result := make([]*domain.JournalEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		entryCopy := *s.entries[i]
		result = append(result, &entryCopy)
	}
	return result, nil
}

// Verify interface compliance at compile time.
var _ storage.JournalStore = (*JournalStore)(nil)
