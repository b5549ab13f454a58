package types

import "time"

// OrderBookLevel is a single price/size level. price in [0,1], size >= 0.
type OrderBookLevel struct {
	Price float64
	Size  float64
}

// OrderBook is a per-asset L2 snapshot. Bids sorted descending by price,
// asks sorted ascending. The zero value is the empty-book convention:
// best_bid=0, best_ask=1, mid=0.5, spread=1.
type OrderBook struct {
	AssetID   string
	Bids      []OrderBookLevel
	Asks      []OrderBookLevel
	UpdatedAt time.Time
}

// EmptyOrderBook returns the canonical empty book for an unknown asset id.
func EmptyOrderBook(assetID string) OrderBook {
	return OrderBook{AssetID: assetID}
}

// BestBid returns the best bid price, or 0 if the bid side is empty.
func (b *OrderBook) BestBid() float64 {
	if len(b.Bids) == 0 {
		return 0
	}
	return b.Bids[0].Price
}

// BestAsk returns the best ask price, or 1 if the ask side is empty.
func (b *OrderBook) BestAsk() float64 {
	if len(b.Asks) == 0 {
		return 1
	}
	return b.Asks[0].Price
}

// Mid returns (best_bid+best_ask)/2, which is 0.5 for a fully empty book.
func (b *OrderBook) Mid() float64 {
	return (b.BestBid() + b.BestAsk()) / 2
}

// Spread returns best_ask - best_bid, which is 1 for a fully empty book.
func (b *OrderBook) Spread() float64 {
	return b.BestAsk() - b.BestBid()
}
