package markets

import (
	"context"
	"fmt"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// defaultTTL is how long a venue's order-increment metadata is trusted
// before it is refetched; tick sizes and min order sizes change rarely.
const defaultTTL = 24 * time.Hour

// Store is the generalized, cross-venue metadata cache: GetMetadata
// consults the cache first and only calls out to a venue Fetcher on a
// miss, keyed by venue+asset id so Polymarket and Kalshi entries never
// collide.
type Store struct {
	polymarket Fetcher
	kalshi     Fetcher
	cache      cache.Cache
	ttl        time.Duration
}

// NewStore builds a Store over the given per-venue fetchers and cache.
func NewStore(polymarket, kalshi Fetcher, c cache.Cache) *Store {
	return &Store{polymarket: polymarket, kalshi: kalshi, cache: c, ttl: defaultTTL}
}

func cacheKey(venue types.Venue, assetID string) string {
	return fmt.Sprintf("metadata:%s:%s", venue, assetID)
}

// GetMetadata returns cached Metadata for (venue, assetID) if present and
// fresh, else fetches and caches it.
func (s *Store) GetMetadata(ctx context.Context, venue types.Venue, assetID string) (Metadata, error) {
	key := cacheKey(venue, assetID)

	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if meta, ok := cached.(Metadata); ok {
				MetadataCacheHitsTotal.Inc()
				return meta, nil
			}
		}
		MetadataCacheMissesTotal.Inc()
	}

	fetcher, err := FetcherFor(venue, s.polymarket, s.kalshi)
	if err != nil {
		return Metadata{}, err
	}

	meta, err := fetcher.FetchMetadata(ctx, assetID)
	if err != nil {
		return Metadata{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, meta, s.ttl)
	}

	return meta, nil
}

// UpdateTickSize overwrites the cached tick size for (venue, assetID) in
// place, without a refetch, for a tick_size_change WS event. A no-op if
// the entry is not yet cached — it picks up the right value on next fetch.
func (s *Store) UpdateTickSize(venue types.Venue, assetID string, newTickSize float64) {
	if s.cache == nil {
		return
	}

	key := cacheKey(venue, assetID)

	cached, ok := s.cache.Get(key)
	if !ok {
		return
	}

	meta, ok := cached.(Metadata)
	if !ok {
		return
	}

	meta.TickSize = newTickSize
	meta.FetchedAt = time.Now()
	s.cache.Set(key, meta, s.ttl)
}
