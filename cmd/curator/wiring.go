package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"universe-curator/internal/adjudicator"
	"universe-curator/internal/config"
	"universe-curator/internal/evidence"
	"universe-curator/internal/llm/openai"
	"universe-curator/internal/marketdata"
	"universe-curator/internal/observability"
	"universe-curator/internal/promotion"
	"universe-curator/internal/scan"
	"universe-curator/internal/storage"
	chstore "universe-curator/internal/storage/clickhouse"
	"universe-curator/internal/storage/memory"
	"universe-curator/internal/storage/migrations"
	pgstore "universe-curator/internal/storage/postgres"
)

// stores bundles every storage backend behind the shared interfaces.
type stores struct {
	universe  storage.UniverseStore
	watchlist storage.WatchlistStore
	cursors   storage.ScanCursorStore
	journal   storage.JournalStore
	cleanup   func()
}

// openStores connects to PostgreSQL and ClickHouse, applies migrations,
// and returns the store set. With useMemory everything is in-process.
func openStores(ctx context.Context, cfg *config.Config, useMemory bool) (*stores, error) {
	if useMemory {
		return &stores{
			universe:  memory.NewUniverseStore(),
			watchlist: memory.NewWatchlistStore(),
			cursors:   memory.NewScanCursorStore(),
			journal:   memory.NewJournalStore(),
			cleanup:   func() {},
		}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply clickhouse migrations: %w", err)
	}

	return &stores{
		universe:  pgstore.NewUniverseStore(pool),
		watchlist: pgstore.NewWatchlistStore(pool),
		cursors:   pgstore.NewScanCursorStore(pool),
		journal:   chstore.NewJournalStore(conn),
		cleanup: func() {
			conn.Close()
			pool.Close()
		},
	}, nil
}

// buildScheduler assembles the full scan pipeline from configuration.
func buildScheduler(cfg *config.Config, st *stores, logger *zap.Logger, metrics *observability.Metrics) (*scan.Scheduler, error) {
	client := newMarketDataClient(cfg)

	gatherer := evidence.NewGatherer(client, logger)
	monthlyGatherer := evidence.NewGatherer(client, logger,
		evidence.WithLookback(evidence.MonthlyLookback))

	llmClient := openai.New(cfg.LLM.Endpoint, cfg.LLM.APIKey)
	adj := adjudicator.New(llmClient, cfg.LLM.Model, logger)

	engine, err := promotion.NewEngine(st.watchlist, cfg.Thresholds(), logger)
	if err != nil {
		return nil, fmt.Errorf("promotion engine: %w", err)
	}

	sched, err := scan.NewScheduler(scan.Params{
		Universe:        st.universe,
		Watchlist:       st.watchlist,
		Cursors:         st.cursors,
		Journal:         st.journal,
		Gatherer:        gatherer,
		MonthlyGatherer: monthlyGatherer,
		Adjudicator:     adj,
		Promotion:       engine,
		Daily:           cfg.DailyCadence(),
		Weekly:          cfg.WeeklyCadence(),
		Monthly:         cfg.MonthlyCadence(),
		Logger:          logger,
		Metrics:         metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return sched, nil
}

func newMarketDataClient(cfg *config.Config) marketdata.Client {
	opts := []marketdata.FinnhubOption{}
	if cfg.Finnhub.BaseURL != "" {
		opts = append(opts, marketdata.WithBaseURL(cfg.Finnhub.BaseURL))
	}
	if cfg.Finnhub.Timeout > 0 {
		opts = append(opts, marketdata.WithTimeout(cfg.Finnhub.Timeout))
	}
	return marketdata.NewFinnhubClient(cfg.Finnhub.Token, opts...)
}

func newMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.DefaultRegisterer, "")
}
