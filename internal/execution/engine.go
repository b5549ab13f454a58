package execution

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mselser95/polymarket-arb/internal/markets"
	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/internal/venue"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// DefaultLatencyBudget is the default execution wall-clock budget; legs
// still unsubmitted once it elapses are aborted with TIMEOUT.
const DefaultLatencyBudget = 2040 * time.Millisecond

const (
	minReferencePrice = 0.001
	maxReferencePrice = 0.999
	minLegUSD         = 1.0
)

// Engine is the execution engine: it turns an ArbitrageOpportunity into a
// TradeResult by planning legs, gating on cost/liquidity, and submitting
// surviving legs in parallel via venue adapters.
type Engine struct {
	mode           string // "paper" or "live"
	adapters       map[types.Venue]venue.Adapter
	books          *orderbook.Manager
	metadata       *markets.Store
	logger         *zap.Logger
	feeRate        float64
	minProfitUSD   float64
	latencyBudget  time.Duration
	maxExposureUSD float64
	fillTracker    *FillTracker

	mu          sync.Mutex
	exposureUSD float64
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Mode           string
	Adapters       map[types.Venue]venue.Adapter
	Books          *orderbook.Manager
	Metadata       *markets.Store
	Logger         *zap.Logger
	FeeRate        float64
	MinProfitUSD   float64
	LatencyBudget  time.Duration
	MaxExposureUSD float64
	// FillTracker is optional; when set and Mode is "live", every terminal
	// TradeResult's legs are handed off to it for asynchronous fill
	// verification after Execute/ExecuteCrossVenue has already returned.
	FillTracker *FillTracker
}

// New builds an Engine from cfg, filling in documented defaults.
func New(cfg EngineConfig) *Engine {
	budget := cfg.LatencyBudget
	if budget <= 0 {
		budget = DefaultLatencyBudget
	}

	return &Engine{
		mode:           cfg.Mode,
		adapters:       cfg.Adapters,
		books:          cfg.Books,
		metadata:       cfg.Metadata,
		logger:         cfg.Logger,
		feeRate:        cfg.FeeRate,
		minProfitUSD:   cfg.MinProfitUSD,
		latencyBudget:  budget,
		maxExposureUSD: cfg.MaxExposureUSD,
		fillTracker:    cfg.FillTracker,
	}
}

// verifyFillsAsync hands off result's legs to the fill tracker in a
// detached goroutine, bounded by its own configured timeout. No-op in
// paper mode or when no tracker is configured; never blocks the caller,
// since TradeResult.Status is already final by the time this runs.
func (e *Engine) verifyFillsAsync(result types.TradeResult) {
	if e.mode != "live" || e.fillTracker == nil || len(result.Orders) == 0 {
		return
	}

	legs := result.Orders

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.fillTracker.cfg.FillTimeout)
		defer cancel()
		e.fillTracker.VerifyFills(ctx, legs)
	}()
}

// LegMarket is the per-index market metadata an opportunity's delta vector
// needs resolved against: which venue, which asset ids.
type LegMarket struct {
	Index      types.Index
	Venue      types.Venue
	YesAssetID string
	NoAssetID  string
}

// planLeg is one leg after the pre-submission gates have run. Skip is true
// when the leg should not be submitted (dust size, extreme price).
type planLeg struct {
	Market   LegMarket
	Side     types.Side
	AssetID  string
	Price    float64
	SizeUSD  float64
	Book     types.OrderBook
	Slippage float64
	Skip     bool
}

func sideForDelta(delta float64) types.Side {
	if delta > 0 {
		return types.SideBuy
	}
	return types.SideSell
}

// planLegs runs step 1 of the execution protocol over opp's delta vector:
// book refresh, reference-price/size validation, and vwap/slippage
// accounting. It does not submit anything.
func (e *Engine) planLegs(opp *types.ArbitrageOpportunity, legMarkets []LegMarket, tradeNotional float64) []planLeg {
	byIndex := make(map[types.Index]LegMarket, len(legMarkets))
	for _, m := range legMarkets {
		byIndex[m.Index] = m
	}

	legs := make([]planLeg, 0, len(opp.MarketIndices))

	for i, idx := range opp.MarketIndices {
		delta := opp.Delta[i]
		if delta < 0 {
			delta = -delta
		}
		if delta < deltaFloor {
			continue
		}

		m, ok := byIndex[idx]
		if !ok {
			continue
		}

		side := sideForDelta(opp.Delta[i])
		assetID := m.YesAssetID
		if side == types.SideSell {
			assetID = m.NoAssetID
		}

		book, _ := e.books.Snapshot(assetID)

		refPrice := book.BestAsk()
		if side == types.SideSell {
			refPrice = book.BestBid()
		}

		sizeUSD := delta * tradeNotional

		if e.metadata != nil {
			if meta, err := e.metadata.GetMetadata(context.Background(), m.Venue, assetID); err == nil {
				refPrice = markets.RoundPriceToTick(refPrice, meta.TickSize)
				if rounded, meetsMin := markets.RoundSizeToMinimum(sizeUSD, meta.MinOrderSizeUSD); meetsMin {
					sizeUSD = rounded
				} else {
					sizeUSD = 0
				}
			}
		}

		leg := planLeg{
			Market:  m,
			Side:    side,
			AssetID: assetID,
			Price:   refPrice,
			SizeUSD: sizeUSD,
			Book:    book,
		}

		if refPrice < minReferencePrice || refPrice > maxReferencePrice {
			leg.Skip = true
		} else if sizeUSD < minLegUSD {
			leg.Skip = true
		} else {
			leg.Slippage = Slippage(book, side, sizeUSD)
		}

		legs = append(legs, leg)
	}

	return legs
}

// Execute runs the full protocol for opp: plan legs, gate on the latency
// budget as wall time elapses, submit survivors in parallel, and fold the
// leg results into a terminal TradeResult.
func (e *Engine) Execute(ctx context.Context, opp *types.ArbitrageOpportunity, legMarkets []LegMarket, tradeNotional float64) types.TradeResult {
	OpportunitiesReceived.Inc()
	start := time.Now()
	defer func() { ExecutionDurationSeconds.Observe(time.Since(start).Seconds()) }()

	result := types.TradeResult{OpportunityID: opp.ID, ExpectedPnL: opp.ExpectedProfit * tradeNotional}

	deadline := opp.DetectedAt.Add(e.latencyBudget)
	legs := e.planLegs(opp, legMarkets, tradeNotional)

	var totalSlippageCost float64
	var submit []planLeg
	timedOut := false

	for _, leg := range legs {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}
		if leg.Skip {
			continue
		}
		totalSlippageCost += leg.Slippage * leg.SizeUSD
		submit = append(submit, leg)
	}

	result.Slippage = totalSlippageCost
	result.Fees = e.feeRate * tradeNotional

	if timedOut {
		result.Status = types.StatusTimeout
		result.Orders = e.submitParallel(ctx, submit)
		LatencyBudgetExceededTotal.Inc()
		TradesTotal.WithLabelValues(e.mode, string(result.Status)).Inc()
		e.verifyFillsAsync(result)
		return result
	}

	result.Orders = e.submitParallel(ctx, submit)
	result.Status = terminalStatus(result.Orders)
	result.RealizedPnL = e.realizedPnL(result)

	TradesTotal.WithLabelValues(e.mode, string(result.Status)).Inc()
	if result.Status == types.StatusFilled {
		OpportunitiesExecuted.Inc()
		ProfitRealizedUSD.WithLabelValues(e.mode).Add(result.RealizedPnL)
	}

	e.verifyFillsAsync(result)

	return result
}

// submitParallel issues SubmitOrder for every leg concurrently and joins
// once all have returned; it never awaits one leg before issuing the next.
// A rejected or failed leg does not cancel its siblings — errgroup's error
// return is unused here, since a per-leg failure is recorded in OrderLeg
// rather than aborting the group.
func (e *Engine) submitParallel(ctx context.Context, legs []planLeg) []types.OrderLeg {
	out := make([]types.OrderLeg, len(legs))

	g, gctx := errgroup.WithContext(ctx)
	for i, leg := range legs {
		i, leg := i, leg
		g.Go(func() error {
			out[i] = e.submitOne(gctx, leg)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (e *Engine) submitOne(ctx context.Context, leg planLeg) types.OrderLeg {
	result := types.OrderLeg{
		MarketIndex: leg.Market.Index,
		Venue:       leg.Market.Venue,
		AssetID:     leg.AssetID,
		Side:        leg.Side,
		Price:       leg.Price,
		Size:        leg.SizeUSD,
	}

	if e.mode == "paper" {
		result.OrderID = "paper-" + leg.AssetID
		return result
	}

	adapter, ok := e.adapters[leg.Market.Venue]
	if !ok {
		result.Failed = true
		result.Err = &types.RejectedByVenueError{AssetID: leg.AssetID, Side: leg.Side, Message: "no adapter configured"}
		return result
	}

	orderID, err := adapter.SubmitOrder(ctx, leg.AssetID, leg.Side, leg.Price, leg.SizeUSD)
	if err != nil {
		result.Failed = true
		result.Err = err
		if e.logger != nil {
			e.logger.Warn("leg-submit-failed", zap.String("asset_id", leg.AssetID), zap.Error(err))
		}
		return result
	}

	result.OrderID = orderID

	return result
}

func terminalStatus(legs []types.OrderLeg) types.TerminalStatus {
	if len(legs) == 0 {
		return types.StatusFailed
	}

	failed, succeeded := 0, 0
	for _, leg := range legs {
		if leg.Failed {
			failed++
		} else {
			succeeded++
		}
	}

	switch {
	case failed == 0:
		return types.StatusFilled
	case succeeded == 0:
		return types.StatusFailed
	default:
		return types.StatusPartial
	}
}

func (e *Engine) realizedPnL(result types.TradeResult) float64 {
	if result.Status != types.StatusFilled {
		return 0
	}
	return result.ExpectedPnL - result.Fees - result.Slippage
}

// ReserveExposure adds notional to the running exposure if doing so would
// not exceed max_exposure_usd; returns false (and leaves exposure
// unchanged) if it would, so the caller can reject with ABORTED_EXPOSURE.
func (e *Engine) ReserveExposure(notional float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.maxExposureUSD > 0 && e.exposureUSD+notional > e.maxExposureUSD {
		return false
	}

	e.exposureUSD += notional
	ExposureUSD.Set(e.exposureUSD)

	return true
}

// ReleaseExposure returns notional to the available exposure budget once a
// trade's outcome is final.
func (e *Engine) ReleaseExposure(notional float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.exposureUSD -= notional
	if e.exposureUSD < 0 {
		e.exposureUSD = 0
	}
	ExposureUSD.Set(e.exposureUSD)
}

// CurrentExposureUSD reports the engine's running exposure.
func (e *Engine) CurrentExposureUSD() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.exposureUSD
}
