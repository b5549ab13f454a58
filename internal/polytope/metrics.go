package polytope

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeasibilityChecksTotal counts check_feasibility calls, by outcome.
	FeasibilityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arb_polytope_feasibility_checks_total",
		Help: "Total number of feasibility checks, by outcome",
	}, []string{"outcome"})

	// SolveDurationSeconds tracks solve_lp latency.
	SolveDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_polytope_solve_duration_seconds",
		Help:    "Duration of solve_lp simplex calls",
		Buckets: prometheus.DefBuckets,
	})

	// SolveFailuresTotal counts infeasible or solver-failure solve_lp calls.
	SolveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_polytope_solve_failures_total",
		Help: "Total number of solve_lp calls returning infeasible or solver failure",
	})
)
