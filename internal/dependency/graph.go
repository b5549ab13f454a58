// Package dependency maintains the cross-market dependency graph used by
// the polytope builder: a TTL cache keyed by the unordered pair of market
// identifiers, populated by an external semantic classifier.
package dependency

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// cachedRelation is the value stored under a PairKey.
type cachedRelation struct {
	Relation  types.Relation
	CreatedAt time.Time
}

func validRelation(r types.Relation) bool {
	switch r {
	case types.RelationImplies, types.RelationMutex, types.RelationExactlyOne, types.RelationIndependent:
		return true
	default:
		return false
	}
}

// Graph is the dependency graph the cycle orchestrator reads from:
// synchronous cached reads, single-flight async discovery.
type Graph struct {
	cache         cache.Cache
	classifier    Classifier
	ttl           time.Duration
	maxCandidates int
	logger        *zap.Logger
	inFlight      atomic.Bool
	knownPairs    atomic.Int64 // cumulative Set count; approximate, ristretto has no key enumeration
}

// Config configures a Graph.
type Config struct {
	Cache         cache.Cache
	Classifier    Classifier
	TTL           time.Duration // relation cache entry lifetime
	MaxCandidates int           // N in start_async_discovery
	Logger        *zap.Logger
}

// New creates a Graph.
func New(cfg Config) *Graph {
	return &Graph{
		cache:         cfg.Cache,
		classifier:    cfg.Classifier,
		ttl:           cfg.TTL,
		maxCandidates: cfg.MaxCandidates,
		logger:        cfg.Logger,
	}
}

// GetDependencies returns cached, non-INDEPENDENT relations among the given
// markets, keyed to their current slice indices. Synchronous, never blocks
// on I/O — every lookup is a cache read.
func (g *Graph) GetDependencies(markets []types.Market) []types.Dependency {
	var deps []types.Dependency

	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			key := types.MakePairKey(markets[i].ID, markets[j].ID)

			v, ok := g.cache.Get(string(key))
			if !ok {
				continue
			}

			rel, ok := v.(cachedRelation)
			if !ok || rel.Relation == types.RelationIndependent {
				continue
			}

			deps = append(deps, types.Dependency{
				I:         types.Index(i),
				J:         types.Index(j),
				Relation:  rel.Relation,
				CreatedAt: rel.CreatedAt,
			})
		}
	}

	return deps
}

// StartAsyncDiscovery triggers a classification batch if none is already in
// flight. Returns immediately; the batch runs on its own goroutine.
func (g *Graph) StartAsyncDiscovery(ctx context.Context, markets []types.Market) {
	if !g.inFlight.CompareAndSwap(false, true) {
		DiscoverySkippedInFlightTotal.Inc()
		return
	}

	go g.runDiscovery(ctx, markets)
}

func (g *Graph) runDiscovery(ctx context.Context, markets []types.Market) {
	defer g.inFlight.Store(false)

	candidates := g.selectCandidates(markets)
	if len(candidates) == 0 {
		return
	}

	start := time.Now()
	results, err := g.classifier.Classify(ctx, candidates)
	DiscoveryDurationSeconds.Observe(time.Since(start).Seconds())
	DiscoveryRunsTotal.Inc()

	if err != nil {
		DiscoveryErrorsTotal.Inc()
		g.logger.Warn("dependency-classify-failed", zap.Error(err), zap.Int("candidates", len(candidates)))
		return
	}

	now := time.Now()
	for _, r := range results {
		rel := types.Relation(r.Relation)
		if r.MarketA == "" || r.MarketB == "" || !validRelation(rel) {
			g.logger.Debug("dropping-malformed-relation", zap.String("a", r.MarketA), zap.String("b", r.MarketB), zap.String("relation", r.Relation))
			continue
		}

		key := types.MakePairKey(r.MarketA, r.MarketB)
		g.cache.Set(string(key), cachedRelation{Relation: rel, CreatedAt: now}, g.ttl)
		g.knownPairs.Add(1)
		CacheSize.Set(float64(g.knownPairs.Load()))
		PairsClassifiedTotal.WithLabelValues(string(rel)).Inc()
	}

	g.logger.Debug("dependency-discovery-complete", zap.Int("candidates", len(candidates)), zap.Int("results", len(results)))
}

// selectCandidates picks up to maxCandidates pairs not yet cached,
// prioritizing pairs that share a category.
func (g *Graph) selectCandidates(markets []types.Market) []Pair {
	var sameCategory, other []Pair

	for i := 0; i < len(markets); i++ {
		for j := i + 1; j < len(markets); j++ {
			key := types.MakePairKey(markets[i].ID, markets[j].ID)
			if _, ok := g.cache.Get(string(key)); ok {
				continue
			}

			p := Pair{MarketA: markets[i].ID, MarketB: markets[j].ID}

			if markets[i].Category != "" && markets[i].Category == markets[j].Category {
				p.Category = markets[i].Category
				sameCategory = append(sameCategory, p)
			} else {
				other = append(other, p)
			}

			if len(sameCategory)+len(other) >= g.maxCandidates*4 {
				// Cap scan work; this is a best-effort prioritization, not an
				// exhaustive ranking.
				goto done
			}
		}
	}

done:
	candidates := append(sameCategory, other...)
	if len(candidates) > g.maxCandidates {
		candidates = candidates[:g.maxCandidates]
	}

	return candidates
}
