// Package bootstrap seeds the universe from index constituent CSV files.
package bootstrap

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"universe-curator/internal/domain"
	"universe-curator/internal/storage"
)

// batchSize caps one BulkUpsert round trip.
const batchSize = 1000

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// RowError records one rejected CSV row. The load continues past it.
type RowError struct {
	Line   int
	Reason string
}

// Summary describes one completed load.
type Summary struct {
	Total    int // data rows read
	Loaded   int // new tickers inserted
	Existing int // tickers already in the universe, left untouched
	Errors   []RowError
}

// Loader ingests constituent lists into the universe store. Re-running a
// load is safe: tickers already present keep their scores and state.
type Loader struct {
	universe storage.UniverseStore
	journal  storage.JournalStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewLoader builds a Loader.
func NewLoader(universe storage.UniverseStore, journal storage.JournalStore, logger *zap.Logger) *Loader {
	return &Loader{
		universe: universe,
		journal:  journal,
		logger:   logger,
		now:      time.Now,
	}
}

// LoadCSV reads a constituent CSV and inserts every new ticker as an
// active, unscored entry. The header must name a ticker column; company
// name and sector columns are optional. Malformed rows are reported in
// the summary and skipped, never aborting the load. Duplicate tickers
// within the file keep the last occurrence.
func (l *Loader) LoadCSV(ctx context.Context, r io.Reader) (*Summary, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	rows := make(map[string]*domain.CandidateEntry)
	var order []string

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		summary.Total++

		entry, reason := l.parseRow(record, cols)
		if reason != "" {
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: reason})
			continue
		}

		if _, seen := rows[entry.Ticker]; !seen {
			order = append(order, entry.Ticker)
		}
		rows[entry.Ticker] = entry
	}

	var batch []*domain.CandidateEntry
	for _, ticker := range order {
		_, err := l.universe.Get(ctx, ticker)
		if err == nil {
			summary.Existing++
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("check existing ticker %s: %w", ticker, err)
		}

		batch = append(batch, rows[ticker])
		if len(batch) >= batchSize {
			if err := l.flush(ctx, batch, summary); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}
	}
	if err := l.flush(ctx, batch, summary); err != nil {
		return nil, err
	}

	l.logger.Info("bootstrap load completed",
		zap.Int("total", summary.Total),
		zap.Int("loaded", summary.Loaded),
		zap.Int("existing", summary.Existing),
		zap.Int("rejected", len(summary.Errors)))

	l.appendJournal(ctx, summary)
	return summary, nil
}

func (l *Loader) flush(ctx context.Context, batch []*domain.CandidateEntry, summary *Summary) error {
	if len(batch) == 0 {
		return nil
	}
	if err := l.universe.BulkUpsert(ctx, batch); err != nil {
		return fmt.Errorf("bulk upsert %d entries: %w", len(batch), err)
	}
	summary.Loaded += len(batch)
	return nil
}

// parseRow builds an entry from one record. Returns a rejection reason
// instead of an error: the caller reports it and moves on.
func (l *Loader) parseRow(record []string, cols columns) (*domain.CandidateEntry, string) {
	if cols.ticker >= len(record) {
		return nil, "missing ticker field"
	}
	ticker := strings.ToUpper(strings.TrimSpace(record[cols.ticker]))
	if ticker == "" {
		return nil, "empty ticker"
	}
	if !tickerPattern.MatchString(ticker) {
		return nil, fmt.Sprintf("invalid ticker %q", ticker)
	}

	entry := &domain.CandidateEntry{
		Ticker:   ticker,
		Category: domain.CategoryNone,
		IsActive: true,
	}
	if cols.name >= 0 && cols.name < len(record) {
		if name := strings.TrimSpace(record[cols.name]); name != "" {
			entry.CompanyName = &name
		}
	}
	if cols.sector >= 0 && cols.sector < len(record) {
		if sector := strings.TrimSpace(record[cols.sector]); sector != "" {
			entry.Sector = &sector
		}
	}
	return entry, ""
}

func (l *Loader) appendJournal(ctx context.Context, summary *Summary) {
	err := l.journal.Append(ctx, &domain.JournalEntry{
		Actor:    domain.ActorCurator,
		Category: domain.JournalBootstrap,
		Content: fmt.Sprintf("bootstrap: %d new tickers loaded, %d already present, %d rows rejected",
			summary.Loaded, summary.Existing, len(summary.Errors)),
		Timestamp: l.now().UTC(),
	})
	if err != nil {
		l.logger.Error("journal append failed", zap.Error(err))
	}
}

// columns holds resolved header indexes; -1 means absent.
type columns struct {
	ticker int
	name   int
	sector int
}

func mapColumns(header []string) (columns, error) {
	cols := columns{ticker: -1, name: -1, sector: -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "ticker", "symbol":
			cols.ticker = i
		case "name", "company", "company name", "security":
			cols.name = i
		case "sector", "gics sector", "industry":
			cols.sector = i
		}
	}
	if cols.ticker == -1 {
		return cols, fmt.Errorf("csv header has no ticker column: %v", header)
	}
	return cols, nil
}
