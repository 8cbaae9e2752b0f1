package domain

import "time"

// Journal actors and categories used by the curation engine.
const (
	ActorCurator = "curator"

	JournalScan      = "scan"
	JournalPromotion = "promotion"
	JournalCleanup   = "cleanup"
	JournalBootstrap = "bootstrap"
	JournalStream    = "stream"
)

// JournalEntry is one append-only decision log record.
// Entries are immutable once written; nothing in this engine mutates
// or deletes them.
type JournalEntry struct {
	Actor     string
	Category  string
	Content   string
	Timestamp time.Time
}
