package domain

import "time"

// ScanReport is the monthly cleanup summary appended to the journal.
type ScanReport struct {
	GeneratedAt    time.Time
	ActiveCount    int
	WatchlistCount int
	ByCategory     map[Category]int
	AverageScore   float64
	MaxScore       int
	Scanned        int
	Deactivated    int

	// Deltas since the previous report. Zero-valued when no previous
	// report exists.
	ActiveDelta    int
	WatchlistDelta int
}
