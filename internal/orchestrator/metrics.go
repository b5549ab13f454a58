package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CycleDurationSeconds tracks one full orchestrator tick, refresh through
	// (optional) execute.
	CycleDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_orchestrator_cycle_duration_seconds",
		Help:    "Duration of one orchestrator cycle",
		Buckets: prometheus.DefBuckets,
	})

	// CyclesTotal counts completed cycles by outcome: no_markets, feasible,
	// below_min_profit, below_cost_gate, circuit_breaker_blocked and
	// exposure_capped (all skipped), or executed.
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orchestrator_cycles_total",
			Help: "Total number of orchestrator cycles, by outcome",
		},
		[]string{"outcome"},
	)

	// RefreshesTotal counts market-refresh passes, by venue and result.
	RefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orchestrator_refreshes_total",
			Help: "Total number of market refresh passes, by venue and result",
		},
		[]string{"venue", "result"},
	)

	// OpportunitiesDetectedTotal counts opportunities that passed the
	// min-profit gate, independent of whether they were then executed.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_orchestrator_opportunities_detected_total",
		Help: "Total number of opportunities passing the min-profit gate",
	})

	// CrossVenuePairsCheckedTotal counts cross-venue pairs evaluated for
	// the buy-yes/buy-no structure, by outcome.
	CrossVenuePairsCheckedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_orchestrator_cross_venue_pairs_checked_total",
			Help: "Total number of cross-venue pairs checked, by outcome",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerBlockedTotal counts cycles where execution was skipped
	// because the balance circuit breaker was tripped.
	CircuitBreakerBlockedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_orchestrator_circuit_breaker_blocked_total",
		Help: "Total number of executions skipped due to a tripped circuit breaker",
	})

	// MarketsTracked reports the current size of the orchestrator's combined
	// market list.
	MarketsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_orchestrator_markets_tracked",
		Help: "Number of markets currently tracked across all venues",
	})
)
