// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the curation engine.
type Metrics struct {
	// Scan metrics
	ScanRunsTotal      *prometheus.CounterVec // cadence, status
	ScanDuration       *prometheus.HistogramVec
	TickersProcessed   *prometheus.CounterVec // cadence
	TickersSkipped     *prometheus.CounterVec // cadence, reason
	BudgetExhaustions  *prometheus.CounterVec // cadence
	EvidenceGathers    prometheus.Counter
	EvidenceFailures   prometheus.Counter
	GatherLatency      prometheus.Histogram

	// Adjudication metrics
	LLMCalls        prometheus.Counter
	LLMFailures     prometheus.Counter
	DegradedOutcomes prometheus.Counter

	// Promotion metrics
	Promotions    prometheus.Counter
	Demotions     prometheus.Counter
	Deactivations prometheus.Counter

	// State gauges
	UniverseActive prometheus.Gauge
	WatchlistSize  prometheus.Gauge

	// Stream metrics
	StreamHeadlines prometheus.Counter
}

// NewMetrics registers all metrics on reg. Pass a fresh
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "universe_curator"
	}
	factory := promauto.With(reg)

	return &Metrics{
		ScanRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan runs by cadence and status",
		}, []string{"cadence", "status"}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"cadence"}),
		TickersProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tickers_processed_total",
			Help:      "Total number of tickers fully processed by cadence",
		}, []string{"cadence"}),
		TickersSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tickers_skipped_total",
			Help:      "Total number of tickers skipped by cadence and reason",
		}, []string{"cadence", "reason"}),
		BudgetExhaustions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "budget_exhaustions_total",
			Help:      "Total number of scans stopped early by the call budget",
		}, []string{"cadence"}),
		EvidenceGathers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "gathers_total",
			Help:      "Total number of evidence gathering calls",
		}),
		EvidenceFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "failures_total",
			Help:      "Total number of failed evidence gathering calls",
		}),
		GatherLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "evidence",
			Name:      "gather_latency_seconds",
			Help:      "Evidence gathering latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		LLMCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adjudication",
			Name:      "llm_calls_total",
			Help:      "Total number of adjudication LLM calls",
		}),
		LLMFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adjudication",
			Name:      "llm_failures_total",
			Help:      "Total number of failed adjudication LLM calls",
		}),
		DegradedOutcomes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "adjudication",
			Name:      "degraded_total",
			Help:      "Total number of adjudications that fell back to stage-1 values",
		}),

		Promotions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "promotion",
			Name:      "promotions_total",
			Help:      "Total number of watchlist promotions",
		}),
		Demotions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "promotion",
			Name:      "demotions_total",
			Help:      "Total number of watchlist removals",
		}),
		Deactivations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "promotion",
			Name:      "deactivations_total",
			Help:      "Total number of candidate deactivations",
		}),

		UniverseActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "active_entries",
			Help:      "Current number of active universe entries",
		}),
		WatchlistSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "watchlist_entries",
			Help:      "Current number of watchlist entries",
		}),

		StreamHeadlines: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "headlines_total",
			Help:      "Total number of live headlines consumed",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
