// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Metadata cache metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	TombstoneHits  prometheus.Counter
	CoalescedWaits prometheus.Counter
	CacheEntries   prometheus.Gauge

	// Metadata fetch metrics
	FetchesTotal *prometheus.CounterVec
	FetchLatency *prometheus.HistogramVec
	BreakerOpens *prometheus.CounterVec

	// Aggregation pipeline metrics
	QueriesTotal     *prometheus.CounterVec
	QueryDuration    prometheus.Histogram
	TradesAggregated prometheus.Counter
	WindowWidened    prometheus.Counter
	TokensResolved   prometheus.Counter

	// Hydrator metrics
	HydratorPasses           prometheus.Counter
	HydratorMerges           prometheus.Counter
	HydratorRetriesExhausted prometheus.Counter

	// Live view metrics
	WSClients prometheus.Gauge

	// Price feed metrics
	SolPriceUSD      prometheus.Gauge
	PriceRefreshErrs prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on
// reg. A nil registerer falls back to the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "token_radar"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "cache_hits_total",
			Help:      "Total metadata cache hits by lookup kind",
		}, []string{"kind"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "cache_misses_total",
			Help:      "Total metadata cache misses by lookup kind",
		}, []string{"kind"}),
		TombstoneHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "tombstone_hits_total",
			Help:      "Total lookups answered by a negative cache entry",
		}),
		CoalescedWaits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "coalesced_waits_total",
			Help:      "Total lookups that attached to an in-flight fetch",
		}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "cache_entries",
			Help:      "Current number of metadata cache entries",
		}),

		FetchesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "fetches_total",
			Help:      "Total external metadata fetches by source and outcome",
		}, []string{"source", "outcome"}),
		FetchLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "fetch_latency_seconds",
			Help:      "External metadata fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		BreakerOpens: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "breaker_opens_total",
			Help:      "Total circuit breaker transitions to open by endpoint",
		}, []string{"endpoint"}),

		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "queries_total",
			Help:      "Total aggregation queries by status",
		}, []string{"status"}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "query_duration_seconds",
			Help:      "Aggregation query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		TradesAggregated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "trades_aggregated_total",
			Help:      "Total trades folded into window aggregates",
		}),
		WindowWidened: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "window_widened_total",
			Help:      "Total queries where the lookback window was widened",
		}),
		TokensResolved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_resolved_total",
			Help:      "Total per-token metadata resolutions settled",
		}),

		HydratorPasses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hydrator",
			Name:      "passes_total",
			Help:      "Total hydrator passes executed",
		}),
		HydratorMerges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hydrator",
			Name:      "merges_total",
			Help:      "Total records corrected in place by the hydrator",
		}),
		HydratorRetriesExhausted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hydrator",
			Name:      "retries_exhausted_total",
			Help:      "Total records that hit the hydrator retry cap",
		}),

		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "liveview",
			Name:      "ws_clients",
			Help:      "Current number of connected live-view clients",
		}),

		SolPriceUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricefeed",
			Name:      "sol_price_usd",
			Help:      "Last refreshed SOL/USD price",
		}),
		PriceRefreshErrs: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricefeed",
			Name:      "refresh_errors_total",
			Help:      "Total SOL/USD refresh failures",
		}),
	}
}

// Handler returns the HTTP handler exposing the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
