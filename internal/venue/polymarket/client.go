package polymarket

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Client is the Gamma+CLOB REST client for Polymarket, implementing the
// venue.Adapter contract.
type Client struct {
	gammaURL   string
	clobURL    string
	httpClient *http.Client
	signer     *Signer
	logger     *zap.Logger
}

// Config configures a Polymarket client.
type Config struct {
	GammaURL string
	CLOBURL  string
	Signer   *Signer // nil in paper mode: SubmitOrder returns a synthetic id
	Logger   *zap.Logger
}

// New creates a new Polymarket venue client.
func New(cfg Config) *Client {
	return &Client{
		gammaURL:   cfg.GammaURL,
		clobURL:    cfg.CLOBURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		signer:     cfg.Signer,
		logger:     cfg.Logger,
	}
}

// Venue identifies this adapter's venue.
func (c *Client) Venue() types.Venue { return types.VenuePolymarket }

// FetchMarkets lists open markets ordered by descending volume via
// GET /markets?closed=false&active=true&limit=N&order=volume&ascending=false.
func (c *Client) FetchMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("active", "true")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("order", "volume")
	params.Set("ascending", "false")

	endpoint := fmt.Sprintf("%s/markets?%s", c.gammaURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &types.TransientNetworkError{Op: "gamma-fetch-markets", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &types.TransientNetworkError{Op: "gamma-fetch-markets", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.TransientNetworkError{Op: "gamma-fetch-markets", Err: err}
	}

	if resp.StatusCode >= 500 {
		return nil, &types.TransientNetworkError{Op: "gamma-fetch-markets", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gamma fetch markets: status %d: %s", resp.StatusCode, string(body))
	}

	var raw []gammaMarket
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &types.ParseError{Source: "gamma-markets", Err: err}
	}

	markets := make([]types.Market, 0, len(raw))
	now := time.Now()

	for _, m := range raw {
		if m.Closed {
			continue
		}

		market, ok := c.toMarket(m, now)
		if !ok {
			continue // ParseError-equivalent entries skipped, run continues
		}

		markets = append(markets, market)
	}

	sort.Slice(markets, func(i, j int) bool { return markets[i].Volume24h > markets[j].Volume24h })

	if len(markets) > limit {
		markets = markets[:limit]
	}

	c.logger.Debug("gamma-markets-fetched", zap.Int("count", len(markets)))

	return markets, nil
}

func (c *Client) toMarket(m gammaMarket, now time.Time) (types.Market, bool) {
	var tokenIDs []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err != nil || len(tokenIDs) != 2 {
		c.logger.Debug("skipping-market-bad-token-ids", zap.String("condition-id", m.ConditionID), zap.Error(err))
		return types.Market{}, false
	}

	var prices []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil || len(prices) != 2 {
		c.logger.Debug("skipping-market-bad-prices", zap.String("condition-id", m.ConditionID), zap.Error(err))
		return types.Market{}, false
	}

	yesPrice, err := strconv.ParseFloat(prices[0], 64)
	if err != nil {
		return types.Market{}, false
	}

	return types.Market{
		Venue:      types.VenuePolymarket,
		ID:         m.ConditionID,
		Question:   m.Question,
		Category:   m.Category,
		YesAssetID: tokenIDs[0],
		NoAssetID:  tokenIDs[1],
		YesPrice:   yesPrice,
		NoPrice:    1 - yesPrice,
		Volume24h:  m.VolumeNum,
		Active:     true,
		UpdatedAt:  now,
	}, true
}

// FetchOrderBook does a synchronous cold-start/cache-miss book fetch via
// GET /book?token_id=ID.
func (c *Client) FetchOrderBook(ctx context.Context, assetID string) (types.OrderBook, error) {
	endpoint := fmt.Sprintf("%s/book?token_id=%s", c.clobURL, url.QueryEscape(assetID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "clob-fetch-book", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "clob-fetch-book", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "clob-fetch-book", Err: err}
	}

	if resp.StatusCode >= 500 {
		return types.EmptyOrderBook(assetID), &types.TransientNetworkError{Op: "clob-fetch-book", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return types.EmptyOrderBook(assetID), fmt.Errorf("clob fetch book: status %d: %s", resp.StatusCode, string(body))
	}

	var raw clobBookResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return types.EmptyOrderBook(assetID), &types.ParseError{Source: "clob-book", Err: err}
	}

	book := types.OrderBook{
		AssetID:   assetID,
		Bids:      make([]types.OrderBookLevel, 0, len(raw.Bids)),
		Asks:      make([]types.OrderBookLevel, 0, len(raw.Asks)),
		UpdatedAt: time.Now(),
	}

	for _, lvl := range raw.Bids {
		price, size, ok := parseLevel(lvl.Price, lvl.Size)
		if !ok {
			continue
		}
		book.Bids = append(book.Bids, types.OrderBookLevel{Price: price, Size: size})
	}
	for _, lvl := range raw.Asks {
		price, size, ok := parseLevel(lvl.Price, lvl.Size)
		if !ok {
			continue
		}
		book.Asks = append(book.Asks, types.OrderBookLevel{Price: price, Size: size})
	}

	sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
	sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })

	return book, nil
}

func parseLevel(priceStr, sizeStr string) (price, size float64, ok bool) {
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		return 0, 0, false
	}
	size, err = strconv.ParseFloat(sizeStr, 64)
	if err != nil {
		return 0, 0, false
	}
	return price, size, true
}
