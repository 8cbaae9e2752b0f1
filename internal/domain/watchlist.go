package domain

import "time"

// WatchlistStatus is the downstream consumption state of a promoted ticker.
type WatchlistStatus string

const (
	StatusWatching WatchlistStatus = "Watching"
)

// WatchlistEntry is a promoted subset reference consumed by the trading agent.
// The promotion engine owns every field except Pinned, which only the manual
// override path may set.
type WatchlistEntry struct {
	Ticker    string
	Score     int // mirrored from the universe entry
	Status    WatchlistStatus
	Pinned    bool // pinned entries are immune to automatic demotion
	CreatedAt time.Time
	UpdatedAt time.Time
}
