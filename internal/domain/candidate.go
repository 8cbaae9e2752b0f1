package domain

import "time"

// CandidateEntry represents one ticker in the curated universe.
// Corresponds to the trading_universe table in PostgreSQL.
type CandidateEntry struct {
	Ticker        string     // PRIMARY KEY, uppercase alphanumeric, immutable
	CompanyName   *string    // nullable, set at bootstrap or first scan
	Sector        *string    // nullable
	Category      Category   // mutated by scorer/adjudicator
	Score         int        // [0,100], replaced on every scan
	IsActive      bool       // false means soft-deleted, retained for history
	LastScanned   *time.Time // updated on every classification pass
	LastMention   *time.Time // updated only when positive evidence is found
	Notes         string     // rationale, overwritten each scan
	CreatedAt     time.Time  // immutable, set at first insert
	DeactivatedAt *time.Time // set on active→inactive, cleared on reactivation
}
