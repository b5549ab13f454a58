package markets

import "github.com/shopspring/decimal"

// RoundPriceToTick snaps price to the nearest valid multiple of tickSize,
// using exact decimal arithmetic so repeated rounding never drifts the way
// float64 division/multiplication would. Falls back to price unchanged if
// tickSize is non-positive.
func RoundPriceToTick(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}

	p := decimal.NewFromFloat(price)
	tick := decimal.NewFromFloat(tickSize)

	ticks := p.DivRound(tick, 0)
	rounded, _ := ticks.Mul(tick).Float64()

	return rounded
}

// RoundSizeToMinimum rounds sizeUSD down to the nearest cent and reports
// whether it still clears minOrderSizeUSD; a leg that fails this check
// should be skipped rather than submitted at a dust size the venue would
// reject.
func RoundSizeToMinimum(sizeUSD, minOrderSizeUSD float64) (rounded float64, meetsMinimum bool) {
	s := decimal.NewFromFloat(sizeUSD).RoundFloor(2)
	rounded, _ = s.Float64()

	return rounded, rounded >= minOrderSizeUSD
}
