// Package kalshi is the venue.Adapter implementation for Kalshi: REST
// client over go-resty (the domain-stack dependency harvested from
// 0xtitan6-polymarket-mm for this venue), RSA-PSS-SHA256 request signing,
// and WS channel-envelope decoding.
package kalshi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// noAssetSuffix distinguishes the synthetic "NO" side asset id from the
// ticker itself, since Kalshi has one ticker per binary market rather than
// Polymarket's two separate CLOB token ids.
const noAssetSuffix = "#NO"

// Client is the REST client for Kalshi's events/orderbook/orders API.
type Client struct {
	baseURL string
	http    *resty.Client
	signer  *Signer
	logger  *zap.Logger
}

// Config configures a Kalshi client.
type Config struct {
	BaseURL string
	Signer  *Signer // nil in paper mode
	Logger  *zap.Logger
}

// New creates a new Kalshi venue client.
func New(cfg Config) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &Client{
		baseURL: cfg.BaseURL,
		http:    httpClient,
		signer:  cfg.Signer,
		logger:  cfg.Logger,
	}
}

// Venue identifies this adapter's venue.
func (c *Client) Venue() types.Venue { return types.VenueKalshi }

// FetchMarkets lists open events with nested markets via
// GET /trade-api/v2/events?status=open&with_nested_markets=true&limit=N.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	var raw eventsResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"status":              "open",
			"with_nested_markets": "true",
			"limit":               fmt.Sprintf("%d", limit),
		}).
		SetResult(&raw).
		Get("/trade-api/v2/events")

	if err != nil {
		return nil, &types.TransientNetworkError{Op: "kalshi-fetch-events", Err: err}
	}
	if resp.StatusCode() >= 500 {
		return nil, &types.TransientNetworkError{Op: "kalshi-fetch-events", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("kalshi fetch events: status %d: %s", resp.StatusCode(), resp.String())
	}

	now := time.Now()
	markets := make([]types.Market, 0, limit)

	for _, evt := range raw.Events {
		for _, m := range evt.Markets {
			if m.Status != "active" && m.Status != "open" {
				continue
			}

			if m.YesBid < 0 || m.YesAsk < 0 {
				c.logger.Debug("skipping-kalshi-market-bad-prices", zap.String("ticker", m.Ticker))
				continue
			}

			yesMid := (float64(m.YesBid) + float64(m.YesAsk)) / 2 / 100.0

			markets = append(markets, types.Market{
				Venue:      types.VenueKalshi,
				ID:         m.Ticker,
				Question:   m.Title,
				Category:   evt.Category,
				YesAssetID: m.Ticker,
				NoAssetID:  m.Ticker + noAssetSuffix,
				YesPrice:   yesMid,
				NoPrice:    1 - yesMid,
				Volume24h:  float64(m.Volume24),
				Active:     true,
				UpdatedAt:  now,
			})
		}
	}

	sort.Slice(markets, func(i, j int) bool { return markets[i].Volume24h > markets[j].Volume24h })

	if len(markets) > limit {
		markets = markets[:limit]
	}

	c.logger.Debug("kalshi-markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}

// FetchOrderBook fetches GET /trade-api/v2/markets/{ticker}/orderbook. The
// "NO" side asset id (ticker+"#NO") reads the same market book with the
// sides swapped: its bids are the no-side resting bids and its asks are
// derived from the yes-side resting bids at 1-p.
func (c *Client) FetchOrderBook(ctx context.Context, assetID string) (types.OrderBook, error) {
	ticker, isNo := strings.CutSuffix(assetID, noAssetSuffix)
	if !isNo {
		ticker = assetID
	}

	var raw orderbookResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&raw).
		Get(fmt.Sprintf("/trade-api/v2/markets/%s/orderbook", ticker))

	if err != nil {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "kalshi-fetch-orderbook", Err: err}
	}
	if resp.StatusCode() >= 500 {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "kalshi-fetch-orderbook", Err: fmt.Errorf("status %d", resp.StatusCode())}
	}
	if resp.StatusCode() >= 400 {
		return types.EmptyOrderBook(assetID), fmt.Errorf("kalshi fetch orderbook: status %d: %s", resp.StatusCode(), resp.String())
	}

	own, opposite := raw.Orderbook.Yes, raw.Orderbook.No
	if isNo {
		own, opposite = raw.Orderbook.No, raw.Orderbook.Yes
	}

	book := types.OrderBook{AssetID: assetID, UpdatedAt: time.Now()}

	// Resting bids on this side are genuine bids. A resting bid on the
	// opposite side at price p is equivalent to an ask on this side at 1-p
	// (buying NO at p = selling YES at 1-p), since Kalshi quotes one combined
	// book per market rather than two independent sides.
	for _, lvl := range own {
		if lvl[1] <= 0 {
			continue
		}
		book.Bids = append(book.Bids, types.OrderBookLevel{Price: float64(lvl[0]) / 100.0, Size: float64(lvl[1])})
	}
	for _, lvl := range opposite {
		if lvl[1] <= 0 {
			continue
		}
		book.Asks = append(book.Asks, types.OrderBookLevel{Price: 1 - float64(lvl[0])/100.0, Size: float64(lvl[1])})
	}

	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	return book, nil
}
