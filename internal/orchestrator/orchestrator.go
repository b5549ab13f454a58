// Package orchestrator drives the single main cycle: refresh markets,
// merge book prices, periodically trigger dependency discovery, check
// polytope feasibility, run the Frank-Wolfe projection, gate on cost,
// execute, and log. It is the one place that owns the combined
// cross-venue market list for a cycle.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/circuitbreaker"
	"github.com/mselser95/polymarket-arb/internal/dependency"
	"github.com/mselser95/polymarket-arb/internal/execution"
	"github.com/mselser95/polymarket-arb/internal/matcher"
	"github.com/mselser95/polymarket-arb/internal/optimizer"
	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/internal/polytope"
	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/internal/venue"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// WSSubscriber is satisfied by a venue's websocket connection pool: it lets
// the orchestrator push newly discovered asset ids onto the live feed
// after each market refresh.
type WSSubscriber interface {
	Subscribe(ctx context.Context, assetIDs []string) error
}

const defaultRingSize = 256

// Config wires every dependency the cycle orchestrator drives.
type Config struct {
	Adapters     map[types.Venue]venue.Adapter
	Subscribers  map[types.Venue]WSSubscriber
	Books        *orderbook.Manager
	Dependencies *dependency.Graph
	Engine       *execution.Engine
	Breaker      *circuitbreaker.BalanceCircuitBreaker // optional; nil disables the gate
	Storage      storage.Storage
	Logger       *zap.Logger

	CycleInterval   time.Duration // ~100ms
	RefreshInterval time.Duration // >=60s between market refreshes
	DiscoveryEvery  int           // trigger dependency discovery every N cycles
	MaxMarkets      int

	FW               optimizer.Config
	MinProfitUSD     float64
	TradeNotionalUSD float64
	TotalFeeRate     float64 // sum of both venues' taker fee rates

	CrossVenueEnabled    bool
	MatcherMinSimilarity float64

	RingSize int // opportunity ring-buffer capacity for LatestOpportunities
}

func (c *Config) setDefaults() {
	if c.CycleInterval <= 0 {
		c.CycleInterval = 100 * time.Millisecond
	}
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = 60 * time.Second
	}
	if c.DiscoveryEvery <= 0 {
		c.DiscoveryEvery = 20
	}
	if c.MaxMarkets <= 0 {
		c.MaxMarkets = 200
	}
	if c.RingSize <= 0 {
		c.RingSize = defaultRingSize
	}
	if c.FW.MaxIters <= 0 {
		c.FW = optimizer.DefaultConfig()
	}
	if c.MatcherMinSimilarity <= 0 {
		c.MatcherMinSimilarity = matcher.DefaultMinSimilarity
	}
}

// Orchestrator is the cycle driver. It implements
// httpserver.OpportunityProvider via LatestOpportunities.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	marketsMu sync.RWMutex
	markets   []types.Market

	lastRefresh time.Time
	cycleCount  int

	ring ring

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds an Orchestrator from cfg, filling in documented defaults.
func New(cfg Config) *Orchestrator {
	cfg.setDefaults()
	return &Orchestrator{
		cfg:    cfg,
		logger: cfg.Logger,
		ring:   newRing(cfg.RingSize),
	}
}

// Start begins the cycle loop on its own goroutine.
func (o *Orchestrator) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	o.ctx = ctx
	o.cancel = cancel

	o.logger.Info("orchestrator-starting",
		zap.Duration("cycle-interval", o.cfg.CycleInterval),
		zap.Duration("refresh-interval", o.cfg.RefreshInterval),
		zap.Int("discovery-every", o.cfg.DiscoveryEvery))

	o.wg.Add(1)
	go o.loop()

	return nil
}

// Close stops the cycle loop and waits for it to exit.
func (o *Orchestrator) Close() error {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
	o.logger.Info("orchestrator-stopped")
	return nil
}

func (o *Orchestrator) loop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-ticker.C:
			o.runCycle(o.ctx)
		}
	}
}

// LatestOpportunities satisfies httpserver.OpportunityProvider.
func (o *Orchestrator) LatestOpportunities() []types.ArbitrageOpportunity {
	return o.ring.snapshot()
}

// runCycle executes exactly one iteration of the cycle loop. Every step
// after the refresh gate treats failure as "abandon this cycle, try again
// next tick"; the loop itself never stops on a recoverable error.
func (o *Orchestrator) runCycle(ctx context.Context) {
	start := time.Now()
	defer func() { CycleDurationSeconds.Observe(time.Since(start).Seconds()) }()

	o.cycleCount++

	if time.Since(o.lastRefresh) >= o.cfg.RefreshInterval || o.marketCount() == 0 {
		o.refresh(ctx)
	}

	snapshot := o.marketsSnapshot()
	if len(snapshot) == 0 {
		CyclesTotal.WithLabelValues("no_markets").Inc()
		return
	}

	price := mergeBookPrices(snapshot, o.cfg.Books)

	if o.cycleCount%o.cfg.DiscoveryEvery == 0 {
		o.cfg.Dependencies.StartAsyncDiscovery(ctx, snapshot)
	}

	deps := o.cfg.Dependencies.GetDependencies(snapshot)
	poly := polytope.Build(len(snapshot), deps)

	feas := polytope.CheckFeasibility(poly, price)
	if feas.Feasible {
		CyclesTotal.WithLabelValues("feasible").Inc()
		return
	}

	fw := optimizer.Project(poly, price, feas, o.cfg.FW)
	if fw.Profit < o.cfg.MinProfitUSD {
		CyclesTotal.WithLabelValues("below_min_profit").Inc()
		return
	}

	opp := o.buildOpportunity(snapshot, price, fw)
	OpportunitiesDetectedTotal.Inc()
	o.ring.push(*opp)

	if o.cfg.Storage != nil {
		if err := o.cfg.Storage.RecordOpportunity(ctx, opp); err != nil {
			o.logger.Warn("record-opportunity-failed", zap.Error(err))
		}
	}

	books := o.booksFor(snapshot)
	ok, breakdown := o.cfg.Engine.IsProfitableAfterCosts(opp.Delta, books, o.cfg.TradeNotionalUSD, opp.ExpectedProfit)
	if !ok {
		CyclesTotal.WithLabelValues("below_cost_gate").Inc()
		o.logger.Debug("opportunity-below-cost-gate",
			zap.String("opportunity-id", opp.ID),
			zap.Float64("net", breakdown.Net))
		return
	}

	if o.cfg.Breaker != nil && !o.cfg.Breaker.IsEnabled() {
		CircuitBreakerBlockedTotal.Inc()
		CyclesTotal.WithLabelValues("circuit_breaker_blocked").Inc()
		return
	}

	if !o.cfg.Engine.ReserveExposure(o.cfg.TradeNotionalUSD) {
		CyclesTotal.WithLabelValues("exposure_capped").Inc()
		return
	}
	defer o.cfg.Engine.ReleaseExposure(o.cfg.TradeNotionalUSD)

	result := o.cfg.Engine.Execute(ctx, opp, o.legMarketsFor(snapshot), o.cfg.TradeNotionalUSD)

	if o.cfg.Breaker != nil {
		o.cfg.Breaker.RecordTrade(o.cfg.TradeNotionalUSD)
	}
	if o.cfg.Storage != nil {
		if err := o.cfg.Storage.RecordTrade(ctx, result); err != nil {
			o.logger.Warn("record-trade-failed", zap.Error(err))
		}
	}

	CyclesTotal.WithLabelValues("executed").Inc()
}

// refresh re-fetches markets from every configured venue, resubscribes the
// WS feed to the union of asset ids, replaces the orchestrator's market
// list, and (when cross-venue is configured) evaluates cross-venue pairs.
func (o *Orchestrator) refresh(ctx context.Context) {
	byVenue := make(map[types.Venue][]types.Market, len(o.cfg.Adapters))

	for v, adapter := range o.cfg.Adapters {
		ms, err := adapter.FetchMarkets(ctx, o.cfg.MaxMarkets)
		if err != nil {
			o.logger.Warn("market-refresh-failed", zap.String("venue", string(v)), zap.Error(err))
			RefreshesTotal.WithLabelValues(string(v), "error").Inc()
			continue
		}

		byVenue[v] = ms
		RefreshesTotal.WithLabelValues(string(v), "ok").Inc()

		if sub, ok := o.cfg.Subscribers[v]; ok {
			if err := sub.Subscribe(ctx, assetIDs(ms)); err != nil {
				o.logger.Warn("ws-subscribe-failed", zap.String("venue", string(v)), zap.Error(err))
			}
		}
	}

	if len(byVenue) == 0 {
		return
	}

	combined := make([]types.Market, 0, o.cfg.MaxMarkets*len(byVenue))
	for _, ms := range byVenue {
		combined = append(combined, ms...)
	}

	o.setMarkets(combined)
	o.lastRefresh = time.Now()
	MarketsTracked.Set(float64(len(combined)))

	if o.cfg.CrossVenueEnabled {
		o.runCrossVenue(ctx, byVenue[types.VenuePolymarket], byVenue[types.VenueKalshi])
	}
}

func assetIDs(ms []types.Market) []string {
	ids := make([]string, 0, len(ms)*2)
	for _, m := range ms {
		if m.YesAssetID != "" {
			ids = append(ids, m.YesAssetID)
		}
		if m.NoAssetID != "" {
			ids = append(ids, m.NoAssetID)
		}
	}
	return ids
}

// runCrossVenue evaluates every matched pair's buy-yes/buy-no structure and
// executes the ones that clear the cost gate.
func (o *Orchestrator) runCrossVenue(ctx context.Context, poly, kalshi []types.Market) {
	if len(poly) == 0 || len(kalshi) == 0 {
		return
	}

	if o.cfg.Breaker != nil && !o.cfg.Breaker.IsEnabled() {
		CircuitBreakerBlockedTotal.Inc()
		return
	}

	for _, m := range matcher.MatchMarkets(poly, kalshi, o.cfg.MatcherMinSimilarity) {
		pair := types.CrossVenuePair{
			Similarity: m.Similarity,
			YesPriceA:  m.A.YesPrice,
			YesPriceB:  m.B.YesPrice,
			Spread:     m.PriceGap,
		}

		legs, cost, profitable := execution.PlanCrossVenue(pair, m.A, m.B, o.cfg.TradeNotionalUSD, o.cfg.TotalFeeRate)
		if !profitable {
			CrossVenuePairsCheckedTotal.WithLabelValues("unprofitable").Inc()
			continue
		}

		expectedProfit := 1 - cost - o.cfg.TotalFeeRate
		result := o.cfg.Engine.ExecuteCrossVenue(ctx, uuid.New().String(), legs, o.cfg.TradeNotionalUSD, expectedProfit)

		if result.Status == types.StatusAbortedExposure {
			CrossVenuePairsCheckedTotal.WithLabelValues("exposure_capped").Inc()
			continue
		}

		if o.cfg.Breaker != nil {
			o.cfg.Breaker.RecordTrade(o.cfg.TradeNotionalUSD)
		}
		if o.cfg.Storage != nil {
			if err := o.cfg.Storage.RecordTrade(ctx, result); err != nil {
				o.logger.Warn("record-trade-failed", zap.Error(err))
			}
		}

		CrossVenuePairsCheckedTotal.WithLabelValues("executed").Inc()
	}
}

// buildOpportunity assembles an ArbitrageOpportunity spanning every market
// in the current cycle; P, Q, and Delta stay positionally aligned with
// markets so downstream leg planning can index them directly.
func (o *Orchestrator) buildOpportunity(markets []types.Market, price []float64, fw optimizer.Result) *types.ArbitrageOpportunity {
	indices := make([]types.Index, len(markets))
	for i := range markets {
		indices[i] = types.Index(i)
	}

	return &types.ArbitrageOpportunity{
		ID:             uuid.New().String(),
		MarketIndices:  indices,
		P:              price,
		Q:              fw.Q,
		Delta:          fw.Delta,
		ExpectedProfit: fw.Profit,
		Mispricing:     fw.Mispricing,
		DetectedAt:     time.Now(),
		Iterations:     fw.Iterations,
		Converged:      fw.Converged,
		FWElapsed:      fw.Elapsed,
	}
}

// mergeBookPrices composes the price vector p from cached book mids,
// falling back to the market's last-fetched yes price when no book has
// been cached yet for that asset (cold start).
func mergeBookPrices(markets []types.Market, books *orderbook.Manager) []float64 {
	price := make([]float64, len(markets))
	for i, m := range markets {
		if book, ok := books.Snapshot(m.YesAssetID); ok {
			price[i] = book.Mid()
		} else {
			price[i] = m.YesPrice
		}
	}
	return price
}

func (o *Orchestrator) booksFor(markets []types.Market) []types.OrderBook {
	books := make([]types.OrderBook, len(markets))
	for i, m := range markets {
		book, _ := o.cfg.Books.Snapshot(m.YesAssetID)
		books[i] = book
	}
	return books
}

func (o *Orchestrator) legMarketsFor(markets []types.Market) []execution.LegMarket {
	out := make([]execution.LegMarket, len(markets))
	for i, m := range markets {
		out[i] = execution.LegMarket{
			Index:      types.Index(i),
			Venue:      m.Venue,
			YesAssetID: m.YesAssetID,
			NoAssetID:  m.NoAssetID,
		}
	}
	return out
}

func (o *Orchestrator) marketCount() int {
	o.marketsMu.RLock()
	defer o.marketsMu.RUnlock()
	return len(o.markets)
}

func (o *Orchestrator) marketsSnapshot() []types.Market {
	o.marketsMu.RLock()
	defer o.marketsMu.RUnlock()

	out := make([]types.Market, len(o.markets))
	copy(out, o.markets)
	return out
}

func (o *Orchestrator) setMarkets(ms []types.Market) {
	o.marketsMu.Lock()
	o.markets = ms
	o.marketsMu.Unlock()
}
