package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TradesTotal tracks trade executions.
	TradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_trades_total",
			Help: "Total number of trades executed",
		},
		[]string{"mode", "outcome"},
	)

	// ProfitRealizedUSD tracks cumulative profit.
	ProfitRealizedUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_profit_realized_usd",
			Help: "Cumulative profit realized (hypothetical for paper trading)",
		},
		[]string{"mode"},
	)

	// ExecutionDurationSeconds tracks execution latency.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_execution_duration_seconds",
		Help:    "Duration of trade execution",
		Buckets: prometheus.DefBuckets,
	})

	// ExecutionErrorsTotal tracks execution failures.
	ExecutionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_errors_total",
		Help: "Total number of execution errors",
	})

	// ExecutionErrorsByType tracks execution failures by error type.
	ExecutionErrorsByType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_errors_by_type_total",
			Help: "Total number of execution errors classified by type",
		},
		[]string{"error_type"},
	)

	// OpportunitiesReceived tracks opportunities received for execution.
	OpportunitiesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_opportunities_received_total",
		Help: "Total number of arbitrage opportunities received for execution",
	})

	// OpportunitiesExecuted tracks successfully executed opportunities.
	OpportunitiesExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_opportunities_executed_total",
		Help: "Total number of opportunities successfully executed",
	})

	// OpportunitiesSkippedTotal tracks opportunities skipped for various reasons.
	OpportunitiesSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_opportunities_skipped_total",
			Help: "Total number of opportunities skipped (by reason)",
		},
		[]string{"reason"},
	)

	// LatencyBudgetExceededTotal counts executions aborted by the wall-clock
	// budget before all legs were submitted.
	LatencyBudgetExceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_execution_latency_budget_exceeded_total",
		Help: "Total executions aborted after exceeding the latency budget",
	})

	// ExposureUSD reports the engine's current running exposure.
	ExposureUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arb_execution_exposure_usd",
		Help: "Current running USD exposure across in-flight trades",
	})

	// FillVerificationTotal tracks asynchronous fill-verification runs by
	// outcome: success (every leg fully filled), partial, or timeout.
	FillVerificationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arb_execution_fill_verification_total",
			Help: "Total fill verification runs by outcome (success, partial, timeout)",
		},
		[]string{"result"},
	)

	// FillVerificationDurationSeconds tracks how long a fill-verification
	// poll loop ran before every leg settled or the timeout elapsed.
	FillVerificationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_execution_fill_verification_duration_seconds",
		Help:    "Duration of the post-submission fill verification poll loop",
		Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
	})
)
