// Package metrics exposes Prometheus instruments for classification and
// enrichment.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "feedback"

var (
	once sync.Once

	// ClassifierCalls counts classifier operations by operation and result
	// (ok, fallback, unconfigured, cancelled).
	ClassifierCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "calls_total",
		Help:      "Classifier operations, labeled by operation and result.",
	}, []string{"operation", "result"})

	// ClassifierRetries counts retry attempts against the text-generation service.
	ClassifierRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "retries_total",
		Help:      "Retries against the text-generation service, labeled by operation.",
	}, []string{"operation"})

	// ClassifierFallbacks counts calls where the fallback value was substituted.
	ClassifierFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classifier",
		Name:      "fallbacks_total",
		Help:      "Classifier calls that returned the fallback value, labeled by operation.",
	}, []string{"operation"})

	// GenerationTokens counts tokens exchanged with the text-generation
	// service, labeled by provider and kind (input, output, cache_read,
	// cache_write).
	GenerationTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "tokens_total",
		Help:      "Tokens exchanged with the text-generation service, labeled by provider and kind.",
	}, []string{"provider", "kind"})

	// GenerationCostUSD accumulates the estimated spend for providers with
	// known pricing.
	GenerationCostUSD = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "estimated_cost_usd_total",
		Help:      "Estimated text-generation spend in USD, labeled by provider.",
	}, []string{"provider"})

	// EnrichedRows counts rows enriched, labeled by mode.
	EnrichedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "rows_total",
		Help:      "Rows enriched, labeled by mode (offline, live, failover).",
	}, []string{"mode"})

	// EnrichDurationSeconds is the wall time of a whole enrichment batch.
	EnrichDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "duration_seconds",
		Help:      "Wall time of an enrichment batch, labeled by mode.",
		Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"mode"})

	// PublishedRows is the size of the table currently served by the dashboard.
	PublishedRows = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dashboard",
		Name:      "published_rows",
		Help:      "Number of enriched rows in the currently published snapshot.",
	})
)

// Register registers all metrics with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ClassifierCalls,
			ClassifierRetries,
			ClassifierFallbacks,
			GenerationTokens,
			GenerationCostUSD,
			EnrichedRows,
			EnrichDurationSeconds,
			PublishedRows,
		)
	})
}
