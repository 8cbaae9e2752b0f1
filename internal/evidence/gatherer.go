// Package evidence collects the text corpus the scorer and adjudicator
// classify: company profile plus recent headlines.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"universe-curator/internal/domain"
	"universe-curator/internal/marketdata"
)

// ErrUnavailable indicates no evidence could be gathered for a ticker.
// The scheduler skips the ticker and keeps its stored state untouched.
var ErrUnavailable = errors.New("evidence unavailable")

// ErrNoEvidence indicates the provider answered and affirmatively has
// nothing on the ticker. It wraps ErrUnavailable. Transient failures
// (timeouts, rate limits, provider errors) never produce it; the monthly
// cleanup deactivates only on this signal.
var ErrNoEvidence = fmt.Errorf("%w: provider has nothing on the ticker", ErrUnavailable)

// Default lookback windows.
const (
	DefaultLookback = 7 * 24 * time.Hour  // daily/weekly scans
	MonthlyLookback = 30 * 24 * time.Hour // stale-entry revalidation

	// callTimeout bounds each provider call independently of the
	// batch-level context.
	callTimeout = 20 * time.Second
)

// Gatherer fetches evidence for one ticker per call. One Gather is one
// call-budget unit regardless of how many provider requests it makes.
type Gatherer struct {
	client   marketdata.Client
	lookback time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithLookback sets the headline lookback window.
func WithLookback(d time.Duration) Option {
	return func(g *Gatherer) {
		g.lookback = d
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gatherer) {
		g.now = now
	}
}

// NewGatherer creates a Gatherer over a market data client.
func NewGatherer(client marketdata.Client, logger *zap.Logger, opts ...Option) *Gatherer {
	g := &Gatherer{
		client:   client,
		lookback: DefaultLookback,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather collects profile and headlines for a ticker.
//
// A missing profile is tolerated as long as headlines exist, and vice
// versa. When both provider calls fail or return nothing usable, the
// result is ErrUnavailable.
func (g *Gatherer) Gather(ctx context.Context, ticker string) (*domain.Evidence, error) {
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrUnavailable)
	}

	ev := &domain.Evidence{Ticker: ticker}

	profileCtx, cancel := context.WithTimeout(ctx, callTimeout)
	profile, profileErr := g.client.GetProfile(profileCtx, ticker)
	cancel()

	if profileErr != nil {
		g.logger.Debug("profile fetch failed",
			zap.String("ticker", ticker),
			zap.Error(profileErr))
	} else if profile != nil {
		ev.CompanyName = profile.Name
		ev.Sector = profile.Industry
		ev.Description = profile.Description
	}

	now := g.now().UTC()
	newsCtx, cancel := context.WithTimeout(ctx, callTimeout)
	headlines, newsErr := g.client.GetCompanyNews(newsCtx, ticker, now.Add(-g.lookback), now)
	cancel()

	if newsErr != nil {
		g.logger.Debug("news fetch failed",
			zap.String("ticker", ticker),
			zap.Error(newsErr))
	} else {
		for _, h := range headlines {
			text := h.Title
			if h.Summary != "" {
				text += ". " + h.Summary
			}
			ev.Headlines = append(ev.Headlines, text)
		}
	}

	if profileErr != nil && newsErr != nil {
		if errors.Is(profileErr, marketdata.ErrNotFound) && errors.Is(newsErr, marketdata.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoEvidence, ticker)
		}
		// Both causes stay in the chain so callers can tell a rate
		// limit from any other transient failure.
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, ticker, errors.Join(profileErr, newsErr))
	}
	if ev.Empty() {
		if answeredEmpty(profileErr) && answeredEmpty(newsErr) {
			return nil, fmt.Errorf("%w: %s", ErrNoEvidence, ticker)
		}
		return nil, fmt.Errorf("%w: %s: no profile text or headlines", ErrUnavailable, ticker)
	}

	return ev, nil
}

// answeredEmpty reports whether a provider call affirmatively returned
// nothing, as opposed to failing transiently.
func answeredEmpty(err error) bool {
	return err == nil || errors.Is(err, marketdata.ErrNotFound)
}
