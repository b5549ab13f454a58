package optimizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FWIterations tracks how many outer iterations each projection took.
	FWIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arb_optimizer_fw_iterations",
		Help:    "Outer Frank-Wolfe iterations per I-projection",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 200},
	})

	// FWConvergedTotal counts projections that hit the duality-gap tolerance.
	FWConvergedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_optimizer_fw_converged_total",
		Help: "Total number of Frank-Wolfe projections that converged within max_iters",
	})

	// FWDidNotConvergeTotal counts projections that hit max_iters or an LP failure.
	FWDidNotConvergeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arb_optimizer_fw_not_converged_total",
		Help: "Total number of Frank-Wolfe projections that did not converge",
	})
)
