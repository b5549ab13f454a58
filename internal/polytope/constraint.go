// Package polytope builds the marginal polytope M = {x in [0,1]^n : A x <= b}
// (or equality rows for EXACTLY_ONE) from a market's dependency list, and
// answers feasibility and linear-program queries against it.
package polytope

import "github.com/mselser95/polymarket-arb/pkg/types"

// RowKind distinguishes an inequality row (<=) from an equality row (=).
type RowKind int

const (
	RowLessEqual RowKind = iota
	RowEqual
)

// Row is one sparse constraint row: sum_k coef[k]*x[idx[k]] <op> bound.
// Sparse because each Dependency only ever touches two variables.
type Row struct {
	Idx   [2]types.Index
	Coef  [2]float64
	Bound float64
	Kind  RowKind
}

// Polytope is the feasible region for one orchestrator cycle: n variables
// bounded to [0,1], plus sparse rows derived from the dependency list.
type Polytope struct {
	N    int
	Rows []Row
}

// Build constructs the constraint set from deps for n variables. Semantic
// contracts per relation:
//
//	IMPLIES(i,j):     p_i <= p_j          ->  x_i - x_j <= 0
//	MUTEX(i,j):       p_i + p_j <= 1      ->  x_i + x_j <= 1
//	EXACTLY_ONE(i,j): p_i + p_j = 1       ->  x_i + x_j  = 1
//
// INDEPENDENT relations never reach here; Graph.GetDependencies already
// filters them out.
func Build(n int, deps []types.Dependency) *Polytope {
	p := &Polytope{N: n}

	for _, d := range deps {
		switch d.Relation {
		case types.RelationImplies:
			p.Rows = append(p.Rows, Row{
				Idx: [2]types.Index{d.I, d.J}, Coef: [2]float64{1, -1}, Bound: 0, Kind: RowLessEqual,
			})
		case types.RelationMutex:
			p.Rows = append(p.Rows, Row{
				Idx: [2]types.Index{d.I, d.J}, Coef: [2]float64{1, 1}, Bound: 1, Kind: RowLessEqual,
			})
		case types.RelationExactlyOne:
			p.Rows = append(p.Rows, Row{
				Idx: [2]types.Index{d.I, d.J}, Coef: [2]float64{1, 1}, Bound: 1, Kind: RowEqual,
			})
		default:
			// INDEPENDENT or unrecognized: no constraint contribution.
		}
	}

	return p
}

// eval computes (A x)_row for a single row against the dense vector x.
func (r Row) eval(x []float64) float64 {
	return r.Coef[0]*x[r.Idx[0]] + r.Coef[1]*x[r.Idx[1]]
}
