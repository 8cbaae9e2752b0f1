package memory

import (
	"context"
	"sync"

	"universe-curator/internal/storage"
)

// ScanCursorStore is an in-memory implementation of storage.ScanCursorStore.
type ScanCursorStore struct {
	mu   sync.RWMutex
	data map[string]*storage.ScanCursor
}

// NewScanCursorStore creates a new in-memory cursor store.
func NewScanCursorStore() *ScanCursorStore {
	return &ScanCursorStore{
		data: make(map[string]*storage.ScanCursor),
	}
}

// Get retrieves a cursor by name. Returns ErrNotFound if never set.
func (s *ScanCursorStore) Get(_ context.Context, name string) (*storage.ScanCursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursor, exists := s.data[name]
	if !exists {
		return nil, storage.ErrNotFound
	}

	cursorCopy := *cursor
	return &cursorCopy, nil
}

// Set saves a cursor position.
func (s *ScanCursorStore) Set(_ context.Context, cursor *storage.ScanCursor) error {
	if cursor == nil || cursor.Name == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cursorCopy := *cursor
	s.data[cursor.Name] = &cursorCopy
	return nil
}

// Verify interface compliance at compile time.
var _ storage.ScanCursorStore = (*ScanCursorStore)(nil)
