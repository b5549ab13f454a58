package dependency

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DiscoveryRunsTotal counts completed async discovery batches.
	DiscoveryRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_dependency_discovery_runs_total",
		Help: "Total number of dependency-classifier discovery batches run",
	})

	// DiscoveryErrorsTotal counts failed classifier calls.
	DiscoveryErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_dependency_discovery_errors_total",
		Help: "Total number of dependency-classifier call failures",
	})

	// DiscoverySkippedInFlightTotal counts start_async_discovery calls that
	// were no-ops because a discovery was already running.
	DiscoverySkippedInFlightTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_dependency_discovery_skipped_inflight_total",
		Help: "Total number of discovery triggers skipped because one was already in flight",
	})

	// PairsClassifiedTotal counts relations inserted into the cache, by
	// relation value.
	PairsClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_dependency_pairs_classified_total",
		Help: "Total number of market pairs classified, by relation",
	}, []string{"relation"})

	// DiscoveryDurationSeconds tracks classifier round-trip latency.
	DiscoveryDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_dependency_discovery_duration_seconds",
		Help:    "Duration of dependency-classifier discovery batches",
		Buckets: prometheus.DefBuckets,
	})

	// CacheSize tracks the cumulative number of pair relations inserted into
	// the cache; it does not decrease when cached entries expire.
	CacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_dependency_cache_size",
		Help: "Cumulative number of market-pair relations inserted into the cache",
	})
)
