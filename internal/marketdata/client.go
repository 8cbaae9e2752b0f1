// Package marketdata provides access to company profiles and news from a
// Finnhub-style market data provider.
package marketdata

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by Client implementations.
var (
	// ErrRateLimited indicates the provider rejected the call (HTTP 429).
	// Callers must not retry inside the same scan; the call budget is gone.
	ErrRateLimited = errors.New("market data rate limited")

	// ErrNotFound indicates the provider has no data for the ticker.
	ErrNotFound = errors.New("market data not found")
)

// Profile is a company profile as returned by the provider.
type Profile struct {
	Ticker      string
	Name        string
	Industry    string
	Description string
}

// Headline is one news item about a company.
type Headline struct {
	Ticker      string
	Title       string
	Summary     string
	Source      string
	PublishedAt time.Time
}

// Client retrieves company fundamentals and news.
type Client interface {
	// GetProfile retrieves the company profile for a ticker.
	GetProfile(ctx context.Context, ticker string) (*Profile, error)

	// GetCompanyNews retrieves headlines for a ticker in [from, to].
	GetCompanyNews(ctx context.Context, ticker string, from, to time.Time) ([]Headline, error)
}
