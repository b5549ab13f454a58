package types

// CrossVenuePair links a market on venue A to its best match on venue B.
type CrossVenuePair struct {
	IndexA     Index
	IndexB     Index
	Similarity float64
	YesPriceA  float64
	YesPriceB  float64
	Spread     float64 // |yes_price_A - yes_price_B|
}
