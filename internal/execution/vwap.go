// Package execution implements the Execution Engine: VWAP/slippage book
// math, the profitability gate, and parallel multi-leg order submission.
package execution

import "github.com/mselser95/polymarket-arb/pkg/types"

// VWAP walks the opposite side of the book from side (asks for BUY, bids
// for SELL), accumulating fills until notional is exhausted or the book
// depletes, and returns the cost-weighted average fill price. Returns 0 if
// the relevant side has no depth.
func VWAP(book types.OrderBook, side types.Side, notional float64) float64 {
	levels := book.Asks
	if side == types.SideSell {
		levels = book.Bids
	}
	if len(levels) == 0 {
		return 0
	}

	remaining := notional
	totalCost := 0.0
	totalSize := 0.0

	for _, lvl := range levels {
		if remaining <= 0 {
			break
		}
		if lvl.Price <= 0 || lvl.Size <= 0 {
			continue
		}

		levelNotional := lvl.Price * lvl.Size
		take := levelNotional
		if take > remaining {
			take = remaining
		}

		totalCost += take
		totalSize += take / lvl.Price
		remaining -= take
	}

	if totalSize == 0 {
		return 0
	}

	return totalCost / totalSize
}

// Slippage returns |vwap-best|/best for the given side and notional size;
// 1.0 (the maximum) if the reference side has no valid top-of-book price.
func Slippage(book types.OrderBook, side types.Side, notional float64) float64 {
	best := book.BestAsk()
	if side == types.SideSell {
		best = book.BestBid()
	}
	if best <= 0 {
		return 1.0
	}

	vwap := VWAP(book, side, notional)
	if vwap == 0 {
		return 1.0
	}

	diff := vwap - best
	if diff < 0 {
		diff = -diff
	}

	return diff / best
}
