// Package venue defines the per-venue Adapter contract: fetching markets
// and order books, and submitting signed orders. internal/venue/polymarket
// and internal/venue/kalshi each provide one concrete implementation.
package venue

import (
	"context"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Adapter is implemented once per venue (Polymarket, Kalshi).
type Adapter interface {
	// Venue identifies which venue this adapter serves.
	Venue() types.Venue

	// FetchMarkets lists currently open markets with mid prices and asset
	// ids, ordered by descending volume, capped at limit.
	FetchMarkets(ctx context.Context, limit int) ([]types.Market, error)

	// FetchOrderBook does a synchronous REST fetch for cold-start or
	// cache-miss recovery.
	FetchOrderBook(ctx context.Context, assetID string) (types.OrderBook, error)

	// SubmitOrder creates a GTC limit order. In paper mode the caller
	// never reaches here; callers wrap submission behind a paper/live
	// switch at the execution-engine layer.
	SubmitOrder(ctx context.Context, assetID string, side types.Side, price, size float64) (orderID string, err error)

	// OrderStatus queries a previously submitted order's current fill
	// state. Used by asynchronous fill verification after submission, not
	// by the synchronous submit path.
	OrderStatus(ctx context.Context, orderID string) (types.OrderState, error)
}
