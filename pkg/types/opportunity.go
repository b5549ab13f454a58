package types

import "time"

// ArbitrageOpportunity is the output of one infeasible orchestrator cycle:
// the participating market indices, current price vector p, the projected
// arbitrage-free target q, the trade vector delta = q - p, the profit/
// mispricing scalars, and a detection timestamp. Consumed once by the
// execution engine; never persisted beyond one cycle.
type ArbitrageOpportunity struct {
	ID              string
	MarketIndices   []Index
	P               []float64 // current price vector
	Q               []float64 // projected arbitrage-free target
	Delta           []float64 // Q - P
	ExpectedProfit  float64   // unitless margin from Frank-Wolfe
	Mispricing      float64   // constraint violation magnitude
	DetectedAt      time.Time
	Iterations      int
	Converged       bool
	FWElapsed       time.Duration
}
