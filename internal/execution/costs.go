package execution

import (
	"math"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// deltaFloor is the minimum |delta_i| below which a leg is skipped
// entirely.
const deltaFloor = 1e-6

// CostBreakdown is the intermediate accounting behind IsProfitableAfterCosts,
// returned so callers can log the gate's reasoning.
type CostBreakdown struct {
	Gross             float64
	Fees              float64
	TotalSlippageCost float64
	Net               float64
}

// IsProfitableAfterCosts computes gross = expected_profit * trade_notional,
// subtracts fees (fee_rate * trade_notional) and per-leg slippage cost
// (slippage * |delta_i| * trade_notional), and compares the result to
// min_profit_usd. books must be positionally aligned with delta (one book
// per market in the opportunity's index order).
func (e *Engine) IsProfitableAfterCosts(delta []float64, books []types.OrderBook, tradeNotional, expectedProfit float64) (bool, CostBreakdown) {
	breakdown := CostBreakdown{Gross: expectedProfit * tradeNotional}
	breakdown.Fees = e.feeRate * tradeNotional

	for i, d := range delta {
		if math.Abs(d) < deltaFloor || i >= len(books) {
			continue
		}

		side := sideForDelta(d)
		legNotional := math.Abs(d) * tradeNotional

		slip := Slippage(books[i], side, legNotional)
		breakdown.TotalSlippageCost += slip * legNotional
	}

	breakdown.Net = breakdown.Gross - breakdown.Fees - breakdown.TotalSlippageCost

	return breakdown.Net >= e.minProfitUSD, breakdown
}
