package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"universe-curator/internal/config"
	"universe-curator/internal/domain"
	"universe-curator/internal/marketdata"
	"universe-curator/internal/observability"
	"universe-curator/internal/scan"
	"universe-curator/internal/storage"
)

func newDaemonCmd(opts *rootOptions) *cobra.Command {
	var noStream bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run all scan cadences on schedule with live headline tracking",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger, err := opts.newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				sig := <-sigCh
				logger.Info("shutting down", zap.String("signal", sig.String()))
				cancel()
			}()

			st, err := openStores(ctx, cfg, opts.useMemory)
			if err != nil {
				return err
			}
			defer st.cleanup()

			metrics := newMetrics()
			sched, err := buildScheduler(cfg, st, logger, metrics)
			if err != nil {
				return err
			}

			d := &daemon{
				cfg:     cfg,
				stores:  st,
				sched:   sched,
				logger:  logger,
				metrics: metrics,
			}
			return d.run(ctx, !noStream)
		},
	}

	cmd.Flags().BoolVar(&noStream, "no-stream", false, "disable the live headline stream")
	return cmd
}

type daemon struct {
	cfg     *config.Config
	stores  *stores
	sched   *scan.Scheduler
	logger  *zap.Logger
	metrics *observability.Metrics

	stream     *marketdata.HeadlineStream
	subMu      sync.Mutex
	subscribed map[string]bool
}

func (d *daemon) run(ctx context.Context, withStream bool) error {
	c := cron.New()

	schedules := []struct {
		spec string
		name string
		fn   func(context.Context) (scan.Stats, error)
	}{
		{d.cfg.Scan.Daily.Schedule, "daily", d.sched.RunDaily},
		{d.cfg.Scan.Weekly.Schedule, "weekly", d.sched.RunWeekly},
		{d.cfg.Scan.Monthly.Schedule, "monthly", d.sched.RunMonthly},
	}
	for _, s := range schedules {
		s := s
		if _, err := c.AddFunc(s.spec, func() {
			if _, err := s.fn(ctx); err != nil {
				d.logger.Error("scan failed",
					zap.String("cadence", s.name),
					zap.Error(err))
			}
			// Scans promote tickers; keep the live feed covering them.
			d.syncStream(ctx)
		}); err != nil {
			return fmt.Errorf("schedule %s scan %q: %w", s.name, s.spec, err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	httpServer := &http.Server{Addr: d.cfg.Metrics.Addr, Handler: mux}
	go func() {
		d.logger.Info("metrics server listening", zap.String("addr", d.cfg.Metrics.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	if withStream && d.cfg.Finnhub.StreamEndpoint != "" {
		if err := d.startStream(ctx); err != nil {
			// The cadences carry the engine; the stream only sharpens
			// LastMention freshness.
			d.logger.Warn("headline stream unavailable", zap.Error(err))
		}
	}

	c.Start()
	d.logger.Info("daemon started",
		zap.String("daily", d.cfg.Scan.Daily.Schedule),
		zap.String("weekly", d.cfg.Scan.Weekly.Schedule),
		zap.String("monthly", d.cfg.Scan.Monthly.Schedule))

	<-ctx.Done()

	cronCtx := c.Stop()
	<-cronCtx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)

	d.logger.Info("daemon stopped")
	return nil
}

// headlineSubscriber is the slice of the stream the subscription sync
// needs. Narrowed for tests.
type headlineSubscriber interface {
	Subscribe(ticker string) error
}

// syncSubscriptions subscribes every watchlist ticker not yet in seen.
// The feed has no unsubscribe; tickers that leave the watchlist simply
// go quiet, and their events are filtered by activity on arrival.
func syncSubscriptions(ctx context.Context, watchlist storage.WatchlistStore, sub headlineSubscriber, seen map[string]bool) (int, error) {
	watching, err := watchlist.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list watchlist: %w", err)
	}

	added := 0
	for _, w := range watching {
		if seen[w.Ticker] {
			continue
		}
		if err := sub.Subscribe(w.Ticker); err != nil {
			return added, fmt.Errorf("subscribe %s: %w", w.Ticker, err)
		}
		seen[w.Ticker] = true
		added++
	}
	return added, nil
}

// syncStream brings the live feed's subscriptions up to date with the
// current watchlist. No-op when the stream is down.
func (d *daemon) syncStream(ctx context.Context) {
	d.subMu.Lock()
	defer d.subMu.Unlock()

	if d.stream == nil {
		return
	}
	added, err := syncSubscriptions(ctx, d.stores.watchlist, d.stream, d.subscribed)
	if err != nil {
		d.logger.Error("stream subscription sync failed", zap.Error(err))
		return
	}
	if added > 0 {
		d.logger.Info("headline stream subscriptions updated", zap.Int("added", added))
	}
}

// startStream subscribes to live headlines for watchlist tickers and
// refreshes LastMention as they arrive.
func (d *daemon) startStream(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s?token=%s", d.cfg.Finnhub.StreamEndpoint, d.cfg.Finnhub.Token)
	stream, err := marketdata.NewHeadlineStream(ctx, endpoint, nil)
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	added, err := syncSubscriptions(ctx, d.stores.watchlist, stream, seen)
	if err != nil {
		stream.Close()
		return err
	}

	d.subMu.Lock()
	d.stream = stream
	d.subscribed = seen
	d.subMu.Unlock()

	d.logger.Info("headline stream started", zap.Int("tickers", added))

	go func() {
		defer stream.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case headline, ok := <-stream.Events():
				if !ok {
					return
				}
				d.handleHeadline(ctx, headline)
			}
		}
	}()
	return nil
}

func (d *daemon) handleHeadline(ctx context.Context, headline marketdata.Headline) {
	d.metrics.StreamHeadlines.Inc()

	entry, err := d.stores.universe.Get(ctx, headline.Ticker)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		d.logger.Error("load entry for headline",
			zap.String("ticker", headline.Ticker),
			zap.Error(err))
		return
	}
	if !entry.IsActive {
		return
	}

	now := time.Now().UTC()
	entry.LastMention = &now
	if err := d.stores.universe.Upsert(ctx, entry); err != nil {
		d.logger.Error("refresh mention",
			zap.String("ticker", headline.Ticker),
			zap.Error(err))
		return
	}

	err = d.stores.journal.Append(ctx, &domain.JournalEntry{
		Actor:     domain.ActorCurator,
		Category:  domain.JournalStream,
		Content:   fmt.Sprintf("live mention: %s - %s (%s)", headline.Ticker, headline.Title, headline.Source),
		Timestamp: now,
	})
	if err != nil {
		d.logger.Error("journal append failed", zap.Error(err))
	}
}
