package optimizer

import (
	"time"

	"github.com/mselser95/polymarket-arb/internal/polytope"
)

// Config tunes the Frank-Wolfe I-projection.
type Config struct {
	MaxIters        int     // outer iteration cap
	Tolerance       float64 // duality-gap convergence threshold
	LineSearchSteps int     // golden-section inner iterations (default 30)
}

// DefaultConfig returns the tuning this package ships with.
func DefaultConfig() Config {
	return Config{MaxIters: 500, Tolerance: 1e-9, LineSearchSteps: 30}
}

// Result is the I-projection's output: q*, the trade vector, the profit
// metric, and the run's diagnostics.
type Result struct {
	Q          []float64
	Delta      []float64 // Q - P
	Profit     float64
	Mispricing float64
	Iterations int
	Converged  bool
	Elapsed    time.Duration
}

// Project computes q* = argmin_{q in M} D_KL(p||q) via Frank-Wolfe
// conditional gradient, starting at q=0.5, never at p: the gradient of
// D_KL(p||.) vanishes at q=p, which would make FW falsely converge on the
// first step.
func Project(p *polytope.Polytope, price []float64, infeasibility polytope.Feasibility, cfg Config) Result {
	start := time.Now()

	n := len(price)
	q := make([]float64, n)
	for i := range q {
		q[i] = 0.5
	}

	iterations := 0
	converged := false

	for iterations < cfg.MaxIters {
		iterations++

		g := gradient(price, q)

		v := polytope.SolveLP(p, g)
		if v == nil {
			// Infeasible or solver failure mid-iteration; return the best
			// iterate found so far rather than fail the whole projection.
			break
		}

		gap := dot(g, sub(q, v))
		if gap < cfg.Tolerance {
			converged = true
			break
		}

		alpha := goldenSectionSearch(price, q, v, cfg.LineSearchSteps)

		for i := range q {
			q[i] = clamp((1-alpha)*q[i] + alpha*v[i])
		}
	}

	delta := make([]float64, n)
	for i := range delta {
		delta[i] = q[i] - price[i]
	}

	kl := binaryKL(price, q)
	half := 0.5 * l1Distance(q, price)
	profit := kl
	if half > profit {
		profit = half
	}

	FWIterations.Observe(float64(iterations))
	if converged {
		FWConvergedTotal.Inc()
	} else {
		FWDidNotConvergeTotal.Inc()
	}

	return Result{
		Q:          q,
		Delta:      delta,
		Profit:     profit,
		Mispricing: infeasibility.Violation,
		Iterations: iterations,
		Converged:  converged,
		Elapsed:    time.Since(start),
	}
}

func sub(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// goldenSectionSearch finds alpha in [0,1] minimizing D_KL(p||(1-a)q+a*v) to
// the given number of golden-section steps.
func goldenSectionSearch(p, q, v []float64, steps int) float64 {
	const invPhi = 0.6180339887498949 // (sqrt(5)-1)/2

	lo, hi := 0.0, 1.0
	c := hi - invPhi*(hi-lo)
	d := lo + invPhi*(hi-lo)
	fc := klAtStep(p, q, v, c)
	fd := klAtStep(p, q, v, d)

	for i := 0; i < steps; i++ {
		if fc < fd {
			hi = d
			d, fd = c, fc
			c = hi - invPhi*(hi-lo)
			fc = klAtStep(p, q, v, c)
		} else {
			lo = c
			c, fc = d, fd
			d = lo + invPhi*(hi-lo)
			fd = klAtStep(p, q, v, d)
		}
	}

	return (lo + hi) / 2
}

func klAtStep(p, q, v []float64, alpha float64) float64 {
	blend := make([]float64, len(p))
	for i := range blend {
		blend[i] = clamp((1-alpha)*q[i] + alpha*v[i])
	}
	return binaryKL(p, blend)
}
