// Package promotion keeps the downstream watchlist consistent with
// candidate scores using three-tier hysteresis.
package promotion

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// Thresholds are the three policy knobs of the hysteresis band.
// Promote > Demote leaves a dead zone so entries oscillating around a
// single cutoff do not flap on and off the watchlist.
type Thresholds struct {
	Promote    int // score >= Promote: ensure watchlist entry
	Demote     int // score < Demote: remove from watchlist (unless pinned)
	Deactivate int // score < Deactivate: additionally deactivate the candidate
}

// DefaultThresholds returns the standard 70/50/30 policy.
func DefaultThresholds() Thresholds {
	return Thresholds{Promote: 70, Demote: 50, Deactivate: 30}
}

// Validate checks threshold ordering.
func (t Thresholds) Validate() error {
	if t.Deactivate > t.Demote || t.Demote > t.Promote {
		return fmt.Errorf("thresholds must satisfy deactivate <= demote <= promote, got %d/%d/%d",
			t.Deactivate, t.Demote, t.Promote)
	}
	return nil
}

// Action is what Sync did to the watchlist, for the journal.
type Action string

const (
	ActionNone        Action = "none"
	ActionPromoted    Action = "promoted"
	ActionRefreshed   Action = "refreshed"
	ActionDemoted     Action = "demoted"
	ActionDeactivated Action = "deactivated"
)

// Engine syncs one candidate entry to the watchlist.
type Engine struct {
	watchlist  storage.WatchlistStore
	thresholds Thresholds
	logger     *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(watchlist storage.WatchlistStore, thresholds Thresholds, logger *zap.Logger) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		watchlist:  watchlist,
		thresholds: thresholds,
		logger:     logger,
	}, nil
}

// Sync applies the threshold policy to a freshly scored entry.
//
// Scores at or above Promote ensure a watchlist row with the score
// mirrored; scores in [Demote, Promote) leave membership as-is but
// refresh the mirrored score of surviving rows; scores below Demote
// remove the row unless it is pinned. Below Deactivate the candidate
// entry itself is marked inactive (the caller persists it). Pinned rows
// are never removed, only refreshed.
func (e *Engine) Sync(ctx context.Context, entry *domain.CandidateEntry) (Action, error) {
	if entry == nil || entry.Ticker == "" {
		return ActionNone, storage.ErrInvalidInput
	}

	existing, err := e.watchlist.Get(ctx, entry.Ticker)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return ActionNone, fmt.Errorf("lookup watchlist %s: %w", entry.Ticker, err)
	}
	onList := existing != nil

	switch {
	case entry.Score >= e.thresholds.Promote:
		if err := e.put(ctx, entry); err != nil {
			return ActionNone, err
		}
		if onList {
			return ActionRefreshed, nil
		}
		e.logger.Info("promoted to watchlist",
			zap.String("ticker", entry.Ticker),
			zap.Int("score", entry.Score))
		return ActionPromoted, nil

	case entry.Score >= e.thresholds.Demote:
		// Hysteresis dead zone: membership unchanged.
		if !onList {
			return ActionNone, nil
		}
		if err := e.put(ctx, entry); err != nil {
			return ActionNone, err
		}
		return ActionRefreshed, nil

	default:
		action := ActionNone
		if onList {
			if existing.Pinned {
				// Pinned rows survive any score; keep the mirror honest.
				if err := e.put(ctx, entry); err != nil {
					return ActionNone, err
				}
				action = ActionRefreshed
			} else {
				if err := e.watchlist.Remove(ctx, entry.Ticker); err != nil {
					return ActionNone, fmt.Errorf("remove watchlist %s: %w", entry.Ticker, err)
				}
				e.logger.Info("demoted from watchlist",
					zap.String("ticker", entry.Ticker),
					zap.Int("score", entry.Score))
				action = ActionDemoted
			}
		}

		if entry.Score < e.thresholds.Deactivate && entry.IsActive {
			entry.IsActive = false
			e.logger.Info("deactivated candidate",
				zap.String("ticker", entry.Ticker),
				zap.Int("score", entry.Score))
			return ActionDeactivated, nil
		}
		return action, nil
	}
}

func (e *Engine) put(ctx context.Context, entry *domain.CandidateEntry) error {
	err := e.watchlist.Put(ctx, &domain.WatchlistEntry{
		Ticker: entry.Ticker,
		Score:  entry.Score,
		Status: domain.StatusWatching,
	})
	if err != nil {
		return fmt.Errorf("put watchlist %s: %w", entry.Ticker, err)
	}
	return nil
}
