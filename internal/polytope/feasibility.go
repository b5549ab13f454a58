package polytope

import "math"

// FeasibilityEpsilon is the tolerance used when checking whether a point
// lies inside the polytope.
const FeasibilityEpsilon = 1e-9

// Feasibility is the result of check_feasibility(p): whether x lies in the
// polytope within tolerance, the worst-case excess, and a signed dual value
// per constraint row plus one per box-bounded variable. A positive dual
// means an upper-bound violation (A x exceeds b, or x_i exceeds 1); a
// negative dual means a lower-bound violation (x_i below 0, or an equality
// row undershooting its bound).
type Feasibility struct {
	Feasible     bool
	Violation    float64
	RowDual      []float64 // len(Rows); signed excess per row
	BoxDual      []float64 // len(N); signed excess per variable's [0,1] bound
}

// CheckFeasibility evaluates x against p. Zero rows and unconstrained
// variables are trivially feasible.
func CheckFeasibility(p *Polytope, x []float64) Feasibility {
	f := Feasibility{
		Feasible: true,
		RowDual:  make([]float64, len(p.Rows)),
		BoxDual:  make([]float64, p.N),
	}

	for r, row := range p.Rows {
		value := row.eval(x)
		excess := value - row.Bound

		switch row.Kind {
		case RowEqual:
			// Any deviation from the pinned bound violates in the direction
			// of the sign of the deviation.
			f.RowDual[r] = excess
		case RowLessEqual:
			if excess > 0 {
				f.RowDual[r] = excess
			}
		}

		if math.Abs(f.RowDual[r]) > f.Violation {
			f.Violation = math.Abs(f.RowDual[r])
		}
	}

	for i := 0; i < p.N; i++ {
		switch {
		case x[i] > 1:
			f.BoxDual[i] = x[i] - 1
		case x[i] < 0:
			f.BoxDual[i] = x[i]
		}

		if math.Abs(f.BoxDual[i]) > f.Violation {
			f.Violation = math.Abs(f.BoxDual[i])
		}
	}

	f.Feasible = f.Violation <= FeasibilityEpsilon

	if f.Feasible {
		FeasibilityChecksTotal.WithLabelValues("feasible").Inc()
	} else {
		FeasibilityChecksTotal.WithLabelValues("infeasible").Inc()
	}

	return f
}
