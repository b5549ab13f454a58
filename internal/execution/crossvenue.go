package execution

import (
	"context"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// CrossVenueLeg is one half of a cross-venue structure: venue, asset, the
// side and USD size to submit.
type CrossVenueLeg struct {
	Venue   types.Venue
	AssetID string
	Side    types.Side
	SizeUSD float64
}

// PlanCrossVenue builds the "buy YES on A + buy NO on B" structure (or its
// symmetric mirror) for pair, given the trade notional, and reports whether
// it clears the cost gate: cost = yes_A + (1 - yes_B) < 1 - total_fees.
// totalFees is the sum of both venues' taker fee rates.
func PlanCrossVenue(pair types.CrossVenuePair, marketA, marketB types.Market, tradeNotional, totalFees float64) (legs []CrossVenueLeg, cost float64, profitable bool) {
	var cheapYes, expensiveNo types.Market
	var cheapVenue, expensiveVenue types.Venue

	if pair.YesPriceA < pair.YesPriceB {
		cheapYes, cheapVenue = marketA, marketA.Venue
		expensiveNo, expensiveVenue = marketB, marketB.Venue
		cost = pair.YesPriceA + (1 - pair.YesPriceB)
	} else {
		cheapYes, cheapVenue = marketB, marketB.Venue
		expensiveNo, expensiveVenue = marketA, marketA.Venue
		cost = pair.YesPriceB + (1 - pair.YesPriceA)
	}

	profitable = cost < 1-totalFees
	if !profitable {
		return nil, cost, false
	}

	legs = []CrossVenueLeg{
		{Venue: cheapVenue, AssetID: cheapYes.YesAssetID, Side: types.SideBuy, SizeUSD: tradeNotional},
		{Venue: expensiveVenue, AssetID: expensiveNo.NoAssetID, Side: types.SideBuy, SizeUSD: tradeNotional},
	}

	return legs, cost, true
}

// ExecuteCrossVenue reserves exposure for tradeNotional, submits both legs
// of a cross-venue structure in parallel, releases exposure once the
// outcome is final, and folds the result into a TradeResult. Returns a
// TradeResult with status ABORTED_EXPOSURE and no submitted orders if the
// reservation would exceed max_exposure_usd.
func (e *Engine) ExecuteCrossVenue(ctx context.Context, opportunityID string, legs []CrossVenueLeg, tradeNotional, expectedProfit float64) types.TradeResult {
	result := types.TradeResult{OpportunityID: opportunityID, ExpectedPnL: expectedProfit * tradeNotional}

	if !e.ReserveExposure(tradeNotional) {
		result.Status = types.StatusAbortedExposure
		TradesTotal.WithLabelValues(e.mode, string(result.Status)).Inc()
		return result
	}
	defer e.ReleaseExposure(tradeNotional)

	planned := make([]planLeg, 0, len(legs))
	var totalSlippageCost float64

	for _, l := range legs {
		book, _ := e.books.Snapshot(l.AssetID)
		slip := Slippage(book, l.Side, l.SizeUSD)
		totalSlippageCost += slip * l.SizeUSD

		planned = append(planned, planLeg{
			Market:   LegMarket{Venue: l.Venue},
			Side:     l.Side,
			AssetID:  l.AssetID,
			Price:    book.BestAsk(),
			SizeUSD:  l.SizeUSD,
			Book:     book,
			Slippage: slip,
		})
	}

	result.Slippage = totalSlippageCost
	result.Fees = e.feeRate * tradeNotional * float64(len(legs))
	result.Orders = e.submitParallel(ctx, planned)
	result.Status = terminalStatus(result.Orders)
	result.RealizedPnL = e.realizedPnL(result)

	TradesTotal.WithLabelValues(e.mode, string(result.Status)).Inc()
	if result.Status == types.StatusFilled {
		OpportunitiesExecuted.Inc()
		ProfitRealizedUSD.WithLabelValues(e.mode).Add(result.RealizedPnL)
	}

	e.verifyFillsAsync(result)

	return result
}
