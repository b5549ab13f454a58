package optimizer

import (
	"math"
	"testing"

	"github.com/mselser95/polymarket-arb/internal/polytope"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func approxEqual(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestProject_FeasiblePriceProjectsToItself(t *testing.T) {
	p := polytope.Build(2, nil)
	price := []float64{0.3, 0.6}
	feas := polytope.CheckFeasibility(p, price)

	cfg := Config{MaxIters: 5000, Tolerance: 1e-9, LineSearchSteps: 30}
	res := Project(p, price, feas, cfg)

	for i := range price {
		if !approxEqual(res.Q[i], price[i], 0.02) {
			t.Errorf("expected q[%d]~=%v, got %v (iterations=%d)", i, price[i], res.Q[i], res.Iterations)
		}
	}
	if res.Profit > 0.02 {
		t.Errorf("expected ~zero profit for a feasible price, got %v", res.Profit)
	}
}

func TestProject_MutexViolationProjectsOntoConstraint(t *testing.T) {
	deps := []types.Dependency{{I: 0, J: 1, Relation: types.RelationMutex}}
	p := polytope.Build(2, deps)
	price := []float64{0.7, 0.7} // sum 1.4, violates x0+x1<=1
	feas := polytope.CheckFeasibility(p, price)

	res := Project(p, price, feas, DefaultConfig())

	sum := res.Q[0] + res.Q[1]
	if sum > 1+1e-3 {
		t.Errorf("expected projected point to satisfy mutex, got sum %v", sum)
	}
	if res.Profit <= 0 {
		t.Errorf("expected positive profit for an infeasible price, got %v", res.Profit)
	}
	if len(res.Delta) != 2 || !approxEqual(res.Delta[0], res.Q[0]-price[0], 1e-9) {
		t.Errorf("delta should equal q-p, got %v", res.Delta)
	}
}

func TestProject_ExactlyOneDrivesSumToOne(t *testing.T) {
	deps := []types.Dependency{{I: 0, J: 1, Relation: types.RelationExactlyOne}}
	p := polytope.Build(2, deps)
	price := []float64{0.3, 0.3}
	feas := polytope.CheckFeasibility(p, price)

	res := Project(p, price, feas, DefaultConfig())

	sum := res.Q[0] + res.Q[1]
	if !approxEqual(sum, 1, 0.02) {
		t.Errorf("expected q0+q1~=1, got %v", sum)
	}
}

func TestGoldenSectionSearch_FindsMinimumInRange(t *testing.T) {
	p := []float64{0.2}
	q := []float64{0.0}
	v := []float64{1.0}

	alpha := goldenSectionSearch(p, q, v, 30)
	if alpha < 0 || alpha > 1 {
		t.Fatalf("expected alpha in [0,1], got %v", alpha)
	}
	// The minimizing blend should land close to p[0] itself.
	blend := (1-alpha)*q[0] + alpha*v[0]
	if !approxEqual(blend, p[0], 0.05) {
		t.Errorf("expected blend close to p=0.2, got %v (alpha=%v)", blend, alpha)
	}
}

func TestBinaryKL_ZeroAtEqualPoints(t *testing.T) {
	p := []float64{0.3, 0.6}
	if kl := binaryKL(p, p); !approxEqual(kl, 0, 1e-9) {
		t.Errorf("expected KL(p||p)=0, got %v", kl)
	}
}

func TestBinaryKL_NonNegative(t *testing.T) {
	p := []float64{0.1, 0.9}
	q := []float64{0.4, 0.4}
	if kl := binaryKL(p, q); kl < 0 {
		t.Errorf("expected non-negative KL divergence, got %v", kl)
	}
}
