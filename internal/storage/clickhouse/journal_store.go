package clickhouse

import (
	"context"
	"fmt"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// JournalStore implements storage.JournalStore using ClickHouse.
// MergeTree gives cheap appends and time-ordered reads, which is all the
// decision log needs.
type JournalStore struct {
	conn *Conn
}

// NewJournalStore creates a new JournalStore.
func NewJournalStore(conn *Conn) *JournalStore {
	return &JournalStore{conn: conn}
}

// Compile-time interface check.
var _ storage.JournalStore = (*JournalStore)(nil)

// Append writes one journal record.
func (s *JournalStore) Append(ctx context.Context, entry *domain.JournalEntry) error {
	if entry == nil || entry.Actor == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO journal (actor, category, content, timestamp)
		VALUES (?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		entry.Actor,
		entry.Category,
		entry.Content,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent retrieves the most recent records, newest first.
func (s *JournalStore) Recent(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT actor, category, content, timestamp
		FROM journal
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent journal entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JournalEntry
	for rows.Next() {
		var entry domain.JournalEntry
		if err := rows.Scan(&entry.Actor, &entry.Category, &entry.Content, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal row: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal rows: %w", err)
	}

	return entries, nil
}
