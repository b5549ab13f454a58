// Package markets fetches and caches per-asset order-increment metadata
// (tick size, minimum order size) so the execution engine can round a
// planned leg to a venue's valid price/size grid before submission.
package markets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// Metadata is the order-increment contract for one asset id.
type Metadata struct {
	TickSize        float64
	MinOrderSizeUSD float64
	FetchedAt       time.Time
}

// Fetcher retrieves fresh Metadata for one asset id on one venue.
type Fetcher interface {
	FetchMetadata(ctx context.Context, assetID string) (Metadata, error)
}

// PolymarketFetcher hits the CLOB API's tick-size and book endpoints with
// retry+backoff, per the venue's per-token variable tick sizes.
type PolymarketFetcher struct {
	baseURL           string
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	logger            *zap.Logger
}

// PolymarketFetcherConfig configures a PolymarketFetcher.
type PolymarketFetcherConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	Logger            *zap.Logger
}

// NewPolymarketFetcher builds a PolymarketFetcher, filling in documented
// defaults for any zero-valued field.
func NewPolymarketFetcher(cfg PolymarketFetcherConfig) *PolymarketFetcher {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff == 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.BackoffMultiplier == 0 {
		cfg.BackoffMultiplier = 2.0
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &PolymarketFetcher{
		baseURL:           "https://clob.polymarket.com",
		httpClient:        &http.Client{Timeout: 10 * time.Second},
		maxRetries:        cfg.MaxRetries,
		initialBackoff:    cfg.InitialBackoff,
		maxBackoff:        cfg.MaxBackoff,
		backoffMultiplier: cfg.BackoffMultiplier,
		logger:            cfg.Logger,
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{"429", "500", "502", "503", "timeout", "connection refused", "connection reset"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}

	return false
}

func (f *PolymarketFetcher) fetchWithRetry(ctx context.Context, operation string, fetchFn func() error) error {
	backoff := f.initialBackoff

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		err := fetchFn()
		if err == nil {
			return nil
		}

		if !isRetryable(err) {
			return err
		}

		if attempt == f.maxRetries {
			return fmt.Errorf("max retries (%d) exceeded for %s: %w", f.maxRetries, operation, err)
		}

		f.logger.Warn("metadata-fetch-failed-retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt+1),
			zap.Int("max-retries", f.maxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * f.backoffMultiplier)
		if backoff > f.maxBackoff {
			backoff = f.maxBackoff
		}
	}

	return fmt.Errorf("unreachable")
}

func (f *PolymarketFetcher) fetchTickSize(ctx context.Context, assetID string) (float64, error) {
	url := fmt.Sprintf("%s/tick-size?token_id=%s", f.baseURL, assetID)

	var tickSize float64
	err := f.fetchWithRetry(ctx, "fetch-tick-size", func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return reqErr
		}

		resp, respErr := f.httpClient.Do(req)
		if respErr != nil {
			return respErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("tick-size API error: status %d", resp.StatusCode)
		}

		var data struct {
			MinimumTickSize float64 `json:"minimum_tick_size"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&data); decodeErr != nil {
			return decodeErr
		}

		tickSize = data.MinimumTickSize
		return nil
	})

	return tickSize, err
}

func (f *PolymarketFetcher) fetchMinOrderSize(ctx context.Context, assetID string) (float64, error) {
	url := fmt.Sprintf("%s/book?token_id=%s", f.baseURL, assetID)

	minOrderSize := 5.0 // venue-wide default when the book endpoint is silent on it

	err := f.fetchWithRetry(ctx, "fetch-min-order-size", func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return reqErr
		}

		resp, respErr := f.httpClient.Do(req)
		if respErr != nil {
			return respErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil
		}

		var data struct {
			MinSize float64 `json:"min_size"`
			Market  struct {
				MinSize float64 `json:"minimum_order_size"`
			} `json:"market"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&data); decodeErr != nil {
			return nil
		}

		switch {
		case data.MinSize > 0:
			minOrderSize = data.MinSize
		case data.Market.MinSize > 0:
			minOrderSize = data.Market.MinSize
		}

		return nil
	})

	return minOrderSize, err
}

// FetchMetadata implements Fetcher. Tick-size lookup failures fall back to
// Polymarket's documented floor tick (0.001); min-order-size failures fall
// back to the $5 venue-wide default.
func (f *PolymarketFetcher) FetchMetadata(ctx context.Context, assetID string) (Metadata, error) {
	start := time.Now()
	defer func() { MetadataFetchDuration.Observe(time.Since(start).Seconds()) }()

	tickSize, err := f.fetchTickSize(ctx, assetID)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		tickSize = 0.001
	}

	minOrderSize, err := f.fetchMinOrderSize(ctx, assetID)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		minOrderSize = 5.0
	}

	return Metadata{TickSize: tickSize, MinOrderSizeUSD: minOrderSize, FetchedAt: time.Now()}, nil
}

// KalshiFetcher returns Kalshi's fixed order-increment contract: prices are
// always whole cents and the minimum clip is one contract, so no network
// round-trip is needed since Kalshi quotes prices in integer cents.
type KalshiFetcher struct {
	MinContractsUSD float64
}

// NewKalshiFetcher builds a KalshiFetcher with the documented one-contract
// minimum.
func NewKalshiFetcher() *KalshiFetcher {
	return &KalshiFetcher{MinContractsUSD: 1.0}
}

// FetchMetadata implements Fetcher.
func (f *KalshiFetcher) FetchMetadata(ctx context.Context, assetID string) (Metadata, error) {
	return Metadata{TickSize: 0.01, MinOrderSizeUSD: f.MinContractsUSD, FetchedAt: time.Now()}, nil
}

// FetcherFor resolves the Fetcher for a venue.
func FetcherFor(venue types.Venue, polymarket Fetcher, kalshi Fetcher) (Fetcher, error) {
	switch venue {
	case types.VenuePolymarket:
		return polymarket, nil
	case types.VenueKalshi:
		return kalshi, nil
	default:
		return nil, fmt.Errorf("markets: no fetcher configured for venue %q", venue)
	}
}
