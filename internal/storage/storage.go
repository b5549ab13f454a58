// Package storage persists arbitrage opportunities and trade outcomes.
// CSVStorage is the always-on primary sink; ConsoleStorage and
// PostgresStorage are optional secondary sinks behind the same interface.
package storage

import (
	"context"
	"math"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Storage records the two append-only event streams the orchestrator
// produces: a detected opportunity (one per infeasible cycle) and a trade
// result (one per executed opportunity).
type Storage interface {
	RecordOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error
	RecordTrade(ctx context.Context, result types.TradeResult) error
	Close() error
}

// vectorNorm is the Euclidean norm of a trade-vector, logged alongside each
// opportunity so a post-hoc reader can tell a marginal mispricing apart from
// a large one without re-deriving it from P and Q.
func vectorNorm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
