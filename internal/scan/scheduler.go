// Package scan orchestrates the three curation cadences over a shared
// per-ticker pipeline: gather, score, adjudicate, sync, persist, journal.
package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"universe-curator/internal/adjudicator"
	"universe-curator/internal/domain"
	"universe-curator/internal/evidence"
	"universe-curator/internal/observability"
	"universe-curator/internal/promotion"
	"universe-curator/internal/scoring"
	"universe-curator/internal/storage"
)

// Cursor and report-memory names in the ScanCursorStore.
const (
	weeklySliceCursor     = "weekly_slice"
	reportActiveCursor    = "monthly_report_active"
	reportWatchlistCursor = "monthly_report_watchlist"
)

// staleAfter is how long an active entry may go without a mention before
// the monthly cleanup revalidates it.
const staleAfter = 60 * 24 * time.Hour

// Gatherer fetches evidence for one ticker. One call is one budget unit.
type Gatherer interface {
	Gather(ctx context.Context, ticker string) (*domain.Evidence, error)
}

// Adjudicator refines ambiguous stage-1 results.
type Adjudicator interface {
	Adjudicate(ctx context.Context, ticker string, stage1 scoring.Result, ev *domain.Evidence) adjudicator.Outcome
}

// Params wires a Scheduler.
type Params struct {
	Universe  storage.UniverseStore
	Watchlist storage.WatchlistStore
	Cursors   storage.ScanCursorStore
	Journal   storage.JournalStore

	Gatherer        Gatherer
	MonthlyGatherer Gatherer // wider look-back; defaults to Gatherer
	Adjudicator     Adjudicator
	Promotion       *promotion.Engine

	Daily   CadenceConfig
	Weekly  CadenceConfig
	Monthly CadenceConfig

	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Now overrides the time source. Used by tests.
	Now func() time.Time
}

// Scheduler runs the cadence procedures. Each invocation is sequential
// within itself: the collaborators are rate-limited shared resources, so
// there is no per-ticker fan-out.
type Scheduler struct {
	universe  storage.UniverseStore
	watchlist storage.WatchlistStore
	cursors   storage.ScanCursorStore
	journal   storage.JournalStore

	gather        Gatherer
	monthlyGather Gatherer
	adjudicate    Adjudicator
	engine        *promotion.Engine

	daily   CadenceConfig
	weekly  CadenceConfig
	monthly CadenceConfig

	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewScheduler validates the cadence configs and builds a Scheduler.
func NewScheduler(p Params) (*Scheduler, error) {
	for _, cfg := range []CadenceConfig{p.Daily, p.Weekly, p.Monthly} {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("cadence config: %w", err)
		}
	}
	if p.Daily.Cadence != CadenceDaily || p.Weekly.Cadence != CadenceWeekly || p.Monthly.Cadence != CadenceMonthly {
		return nil, fmt.Errorf("cadence configs assigned to wrong slots")
	}

	monthlyGather := p.MonthlyGatherer
	if monthlyGather == nil {
		monthlyGather = p.Gatherer
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}

	return &Scheduler{
		universe:      p.Universe,
		watchlist:     p.Watchlist,
		cursors:       p.Cursors,
		journal:       p.Journal,
		gather:        p.Gatherer,
		monthlyGather: monthlyGather,
		adjudicate:    p.Adjudicator,
		engine:        p.Promotion,
		daily:         p.Daily,
		weekly:        p.Weekly,
		monthly:       p.Monthly,
		logger:        p.Logger,
		metrics:       p.Metrics,
		now:           now,
	}, nil
}

// Stats summarizes one cadence invocation.
type Stats struct {
	Selected    int
	Processed   int
	Skipped     int // evidence or store failures, retried next cadence
	Deferred    int // budget exhausted before these were reached
	Promoted    int
	Demoted     int
	Deactivated int
	Degraded    int
}

// RunDaily scans the top scorers plus every watchlist ticker.
func (s *Scheduler) RunDaily(ctx context.Context) (Stats, error) {
	cfg := s.daily

	entries, err := s.universe.Query(ctx, storage.UniverseFilter{
		IsActive: ptrBool(true),
		MinScore: &cfg.ScoreFloor,
		Limit:    cfg.BatchSize,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("select daily batch: %w", err)
	}

	selected := make(map[string]bool, len(entries))
	for _, e := range entries {
		selected[e.Ticker] = true
	}

	// Watchlist tickers always get the daily pass, even when their
	// stored score has slipped below the floor.
	watching, err := s.watchlist.List(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("select watchlist tickers: %w", err)
	}
	for _, w := range watching {
		if selected[w.Ticker] {
			continue
		}
		entry, err := s.universe.Get(ctx, w.Ticker)
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("watchlist ticker missing from universe", zap.String("ticker", w.Ticker))
			continue
		}
		if err != nil {
			return Stats{}, fmt.Errorf("load watchlist ticker %s: %w", w.Ticker, err)
		}
		selected[w.Ticker] = true
		entries = append(entries, entry)
	}

	return s.runBatch(ctx, cfg, entries, s.gather, false)
}

// RunWeekly scans one category (round-robin by ISO week) plus a
// progressive slice of the whole universe driven by a persisted cursor.
func (s *Scheduler) RunWeekly(ctx context.Context) (Stats, error) {
	cfg := s.weekly

	cats := domain.Categories()
	_, week := s.now().UTC().ISOWeek()
	cat := cats[week%len(cats)]

	entries, err := s.universe.Query(ctx, storage.UniverseFilter{
		IsActive: ptrBool(true),
		Category: &cat,
		Limit:    cfg.BatchSize,
	})
	if err != nil {
		return Stats{}, fmt.Errorf("select weekly category %s: %w", cat, err)
	}

	slice, err := s.nextWeeklySlice(ctx, cfg.BatchSize)
	if err != nil {
		return Stats{}, err
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Ticker] = true
	}
	for _, e := range slice {
		if !seen[e.Ticker] {
			seen[e.Ticker] = true
			entries = append(entries, e)
		}
	}

	s.logger.Info("weekly selection",
		zap.String("category", string(cat)),
		zap.Int("selected", len(entries)))

	return s.runBatch(ctx, cfg, entries, s.gather, false)
}

// nextWeeklySlice pages through the ticker-ordered universe, wrapping
// cyclically, and persists the advanced cursor.
func (s *Scheduler) nextWeeklySlice(ctx context.Context, size int) ([]*domain.CandidateEntry, error) {
	pos := 0
	cursor, err := s.cursors.Get(ctx, weeklySliceCursor)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load weekly cursor: %w", err)
	}
	if cursor != nil {
		pos = cursor.Position
	}

	total, err := s.universe.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count universe: %w", err)
	}
	if total == 0 {
		return nil, nil
	}
	if pos >= total {
		pos = 0
	}

	slice, err := s.universe.List(ctx, pos, size)
	if err != nil {
		return nil, fmt.Errorf("list weekly slice: %w", err)
	}
	if len(slice) < size && pos > 0 {
		// Wrap around to the front of the universe.
		wrapped, err := s.universe.List(ctx, 0, size-len(slice))
		if err != nil {
			return nil, fmt.Errorf("wrap weekly slice: %w", err)
		}
		slice = append(slice, wrapped...)
	}

	next := (pos + size) % total
	if err := s.cursors.Set(ctx, &storage.ScanCursor{Name: weeklySliceCursor, Position: next}); err != nil {
		return nil, fmt.Errorf("save weekly cursor: %w", err)
	}

	return slice, nil
}

// RunMonthly revalidates entries with no mention for over 60 days using a
// 30-day look-back, deactivates those with no evidence left, and appends
// a summary report to the journal.
func (s *Scheduler) RunMonthly(ctx context.Context) (Stats, error) {
	cfg := s.monthly

	cutoff := s.now().UTC().Add(-staleAfter)
	entries, err := s.universe.ListStale(ctx, cutoff, cfg.BatchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("select stale entries: %w", err)
	}

	stats, err := s.runBatch(ctx, cfg, entries, s.monthlyGather, true)
	if err != nil {
		return stats, err
	}

	report, err := s.buildReport(ctx, stats)
	if err != nil {
		s.logger.Error("monthly report failed", zap.Error(err))
		return stats, nil
	}
	s.appendJournal(ctx, domain.JournalCleanup, RenderReport(report))

	return stats, nil
}

// runBatch drives the shared per-ticker pipeline over a selection.
// Single ticker failures never abort the batch; budget exhaustion stops
// it early with the remainder deferred.
func (s *Scheduler) runBatch(ctx context.Context, cfg CadenceConfig, entries []*domain.CandidateEntry, gather Gatherer, deactivateOnNoEvidence bool) (Stats, error) {
	start := s.now()
	budget := NewCallBudget(cfg.Budget)
	stats := Stats{Selected: len(entries)}
	cadence := string(cfg.Cadence)

	for i, entry := range entries {
		if err := budget.Spend(); errors.Is(err, ErrBudgetExhausted) {
			stats.Deferred = len(entries) - i
			s.logger.Warn("call budget exhausted",
				zap.String("cadence", cadence),
				zap.Int("processed", stats.Processed),
				zap.Int("deferred", stats.Deferred))
			if s.metrics != nil {
				s.metrics.BudgetExhaustions.WithLabelValues(cadence).Inc()
			}
			s.appendJournal(ctx, domain.JournalScan, fmt.Sprintf(
				"%s scan stopped early: budget %d exhausted, %d tickers deferred",
				cadence, cfg.Budget, stats.Deferred))
			break
		}

		s.processTicker(ctx, cfg, entry, gather, deactivateOnNoEvidence, &stats)
	}

	if s.metrics != nil {
		s.metrics.ScanRunsTotal.WithLabelValues(cadence, "completed").Inc()
		s.metrics.ScanDuration.WithLabelValues(cadence).Observe(s.now().Sub(start).Seconds())
	}
	s.updateGauges(ctx)

	s.appendJournal(ctx, domain.JournalScan, fmt.Sprintf(
		"%s scan: selected=%d processed=%d skipped=%d deferred=%d promoted=%d demoted=%d deactivated=%d degraded=%d",
		cadence, stats.Selected, stats.Processed, stats.Skipped, stats.Deferred,
		stats.Promoted, stats.Demoted, stats.Deactivated, stats.Degraded))

	s.logger.Info("scan completed",
		zap.String("cadence", cadence),
		zap.Int("selected", stats.Selected),
		zap.Int("processed", stats.Processed),
		zap.Int("skipped", stats.Skipped),
		zap.Int("deferred", stats.Deferred))

	return stats, nil
}

// processTicker runs one ticker through gather, score, adjudicate, sync,
// persist, journal. Failures are recorded in stats and skipped.
func (s *Scheduler) processTicker(ctx context.Context, cfg CadenceConfig, entry *domain.CandidateEntry, gather Gatherer, deactivateOnNoEvidence bool, stats *Stats) {
	cadence := string(cfg.Cadence)
	now := s.now().UTC()

	gatherStart := s.now()
	ev, err := gather.Gather(ctx, entry.Ticker)
	if s.metrics != nil {
		s.metrics.EvidenceGathers.Inc()
		s.metrics.GatherLatency.Observe(s.now().Sub(gatherStart).Seconds())
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.EvidenceFailures.Inc()
		}

		// Deactivation requires the provider to have affirmatively
		// answered with nothing. Timeouts, rate limits, and provider
		// errors are transient: skip, state unchanged, retried next
		// cadence.
		if !deactivateOnNoEvidence || !errors.Is(err, evidence.ErrNoEvidence) {
			stats.Skipped++
			if s.metrics != nil {
				s.metrics.TickersSkipped.WithLabelValues(cadence, "evidence_unavailable").Inc()
			}
			s.logger.Warn("evidence unavailable",
				zap.String("cadence", cadence),
				zap.String("ticker", entry.Ticker),
				zap.Error(err))
			return
		}
		ev = &domain.Evidence{Ticker: entry.Ticker}
	}

	var outcome adjudicator.Outcome
	if ev.Empty() {
		outcome = adjudicator.Outcome{Score: 0, Category: entry.Category}
		entry.Notes = "no evidence found"
	} else {
		stage1 := scoring.Score(ev.Description, ev.Headlines)
		outcome = s.adjudicate.Adjudicate(ctx, entry.Ticker, stage1, ev)

		if s.metrics != nil {
			if outcome.Adjudicated {
				s.metrics.LLMCalls.Inc()
			}
			if outcome.Degraded {
				s.metrics.LLMCalls.Inc()
				s.metrics.LLMFailures.Inc()
				s.metrics.DegradedOutcomes.Inc()
			}
		}
		if outcome.Degraded {
			stats.Degraded++
			s.appendJournal(ctx, domain.JournalScan, fmt.Sprintf(
				"%s: degraded adjudication for %s, kept stage-1 score %d",
				cadence, entry.Ticker, outcome.Score))
		}

		entry.Notes = notesFor(stage1, outcome)
	}

	entry.Score = outcome.Score
	entry.Category = outcome.Category
	entry.LastScanned = &now
	if outcome.Score > 0 {
		entry.LastMention = &now
	}
	if entry.CompanyName == nil && ev.CompanyName != "" {
		name := ev.CompanyName
		entry.CompanyName = &name
	}
	if entry.Sector == nil && ev.Sector != "" {
		sector := ev.Sector
		entry.Sector = &sector
	}

	// Sync mutates IsActive on deactivation, so it runs before the
	// upsert: one write persists both score and lifecycle state, and a
	// failed upsert leaves the stored entry untouched for the next
	// cadence.
	action, err := s.engine.Sync(ctx, entry)
	if err != nil {
		s.storeFailure(ctx, cadence, entry.Ticker, "watchlist sync", err, stats)
		return
	}

	if err := s.universe.Upsert(ctx, entry); err != nil {
		s.storeFailure(ctx, cadence, entry.Ticker, "universe upsert", err, stats)
		return
	}

	stats.Processed++
	if s.metrics != nil {
		s.metrics.TickersProcessed.WithLabelValues(cadence).Inc()
	}
	switch action {
	case promotion.ActionPromoted:
		stats.Promoted++
		if s.metrics != nil {
			s.metrics.Promotions.Inc()
		}
	case promotion.ActionDemoted:
		stats.Demoted++
		if s.metrics != nil {
			s.metrics.Demotions.Inc()
		}
	case promotion.ActionDeactivated:
		stats.Deactivated++
		if s.metrics != nil {
			s.metrics.Deactivations.Inc()
		}
	}

	s.appendJournal(ctx, domain.JournalScan, fmt.Sprintf(
		"%s: %s scored %d (%s), action=%s",
		cadence, entry.Ticker, entry.Score, entry.Category, action))
}

// storeFailure records a store write failure: surfaced to the journal,
// ticker skipped, batch continues.
func (s *Scheduler) storeFailure(ctx context.Context, cadence, ticker, op string, err error, stats *Stats) {
	stats.Skipped++
	if s.metrics != nil {
		s.metrics.TickersSkipped.WithLabelValues(cadence, "store_failure").Inc()
	}
	s.logger.Error("store write failed",
		zap.String("cadence", cadence),
		zap.String("ticker", ticker),
		zap.String("op", op),
		zap.Error(err))
	s.appendJournal(ctx, domain.JournalScan, fmt.Sprintf(
		"%s: %s failed for %s: %v; entry unchanged, retried next cadence",
		cadence, op, ticker, err))
}

// notesFor summarizes the classification rationale for the notes column.
func notesFor(stage1 scoring.Result, outcome adjudicator.Outcome) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "keywords: %s", strings.Join(stage1.Matched, ", "))
	if outcome.Adjudicated {
		fmt.Fprintf(&sb, "; adjudicated %d -> %d", stage1.Score, outcome.Score)
		if outcome.Rationale != "" {
			fmt.Fprintf(&sb, " (%s)", outcome.Rationale)
		}
	}
	if outcome.Degraded {
		sb.WriteString("; adjudication degraded, stage-1 kept")
	}
	return sb.String()
}

// buildReport assembles the monthly summary and the deltas against the
// previous one, whose headline counts are remembered in the cursor store.
func (s *Scheduler) buildReport(ctx context.Context, stats Stats) (*domain.ScanReport, error) {
	active, err := s.universe.Query(ctx, storage.UniverseFilter{IsActive: ptrBool(true)})
	if err != nil {
		return nil, fmt.Errorf("query active universe: %w", err)
	}
	watching, err := s.watchlist.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}

	report := &domain.ScanReport{
		GeneratedAt:    s.now().UTC(),
		ActiveCount:    len(active),
		WatchlistCount: len(watching),
		ByCategory:     make(map[domain.Category]int),
		Scanned:        stats.Processed,
		Deactivated:    stats.Deactivated,
	}

	total := 0
	for _, e := range active {
		report.ByCategory[e.Category]++
		total += e.Score
		if e.Score > report.MaxScore {
			report.MaxScore = e.Score
		}
	}
	if len(active) > 0 {
		report.AverageScore = float64(total) / float64(len(active))
	}

	if prev, err := s.cursors.Get(ctx, reportActiveCursor); err == nil {
		report.ActiveDelta = report.ActiveCount - prev.Position
	}
	if prev, err := s.cursors.Get(ctx, reportWatchlistCursor); err == nil {
		report.WatchlistDelta = report.WatchlistCount - prev.Position
	}

	if err := s.cursors.Set(ctx, &storage.ScanCursor{Name: reportActiveCursor, Position: report.ActiveCount}); err != nil {
		return nil, fmt.Errorf("save report memory: %w", err)
	}
	if err := s.cursors.Set(ctx, &storage.ScanCursor{Name: reportWatchlistCursor, Position: report.WatchlistCount}); err != nil {
		return nil, fmt.Errorf("save report memory: %w", err)
	}

	return report, nil
}

// appendJournal writes a decision record. Fire-and-forget: a journal
// failure is logged and never aborts a scan.
func (s *Scheduler) appendJournal(ctx context.Context, category, content string) {
	err := s.journal.Append(ctx, &domain.JournalEntry{
		Actor:     domain.ActorCurator,
		Category:  category,
		Content:   content,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("journal append failed",
			zap.String("category", category),
			zap.Error(err))
	}
}

// updateGauges refreshes the universe/watchlist size gauges.
func (s *Scheduler) updateGauges(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if active, err := s.universe.Query(ctx, storage.UniverseFilter{IsActive: ptrBool(true)}); err == nil {
		s.metrics.UniverseActive.Set(float64(len(active)))
	}
	if watching, err := s.watchlist.List(ctx); err == nil {
		s.metrics.WatchlistSize.Set(float64(len(watching)))
	}
}

func ptrBool(b bool) *bool {
	return &b
}
