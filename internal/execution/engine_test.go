package execution

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestSideForDelta(t *testing.T) {
	if sideForDelta(0.5) != types.SideBuy {
		t.Error("expected positive delta to buy")
	}
	if sideForDelta(-0.5) != types.SideSell {
		t.Error("expected negative delta to sell")
	}
}

func TestTerminalStatus_AllSucceedIsFilled(t *testing.T) {
	legs := []types.OrderLeg{{OrderID: "a"}, {OrderID: "b"}}
	if status := terminalStatus(legs); status != types.StatusFilled {
		t.Errorf("expected FILLED, got %v", status)
	}
}

func TestTerminalStatus_OneFailureIsPartial(t *testing.T) {
	legs := []types.OrderLeg{{OrderID: "a"}, {Failed: true}}
	if status := terminalStatus(legs); status != types.StatusPartial {
		t.Errorf("expected PARTIAL, got %v", status)
	}
}

func TestTerminalStatus_NoLegsIsFailed(t *testing.T) {
	if status := terminalStatus(nil); status != types.StatusFailed {
		t.Errorf("expected FAILED, got %v", status)
	}
}

func TestTerminalStatus_AllFailuresIsFailed(t *testing.T) {
	legs := []types.OrderLeg{{Failed: true}, {Failed: true}}
	if status := terminalStatus(legs); status != types.StatusFailed {
		t.Errorf("expected FAILED, got %v", status)
	}
}

func TestExecute_PaperModeFillsAllLegs(t *testing.T) {
	updCh := make(chan orderbook.Update, 2)
	books := orderbook.New(&orderbook.Config{Logger: zap.NewNop(), UpdateChan: updCh})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := books.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	updCh <- orderbook.Update{AssetID: "yes-a", Snapshot: true,
		Bids: []types.OrderBookLevel{{Price: 0.40, Size: 1000}},
		Asks: []types.OrderBookLevel{{Price: 0.42, Size: 1000}}}
	updCh <- orderbook.Update{AssetID: "no-b", Snapshot: true,
		Bids: []types.OrderBookLevel{{Price: 0.55, Size: 1000}},
		Asks: []types.OrderBookLevel{{Price: 0.57, Size: 1000}}}

	waitForBook(t, books, "yes-a")
	waitForBook(t, books, "no-b")

	e := New(EngineConfig{Mode: "paper", Books: books, FeeRate: 0.01, LatencyBudget: time.Second})

	opp := &types.ArbitrageOpportunity{
		ID:             "opp-1",
		MarketIndices:  []types.Index{0, 1},
		Delta:          []float64{0.2, -0.2},
		ExpectedProfit: 0.05,
		DetectedAt:     time.Now(),
	}
	markets := []LegMarket{
		{Index: 0, Venue: types.VenuePolymarket, YesAssetID: "yes-a", NoAssetID: "no-a"},
		{Index: 1, Venue: types.VenueKalshi, YesAssetID: "yes-b", NoAssetID: "no-b"},
	}

	result := e.Execute(context.Background(), opp, markets, 100)

	if result.Status != types.StatusFilled {
		t.Fatalf("expected FILLED, got %v (orders=%+v)", result.Status, result.Orders)
	}
	if len(result.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(result.Orders))
	}
}

func TestExecute_TimesOutWhenDetectedLongAgo(t *testing.T) {
	updCh := make(chan orderbook.Update, 1)
	books := orderbook.New(&orderbook.Config{Logger: zap.NewNop(), UpdateChan: updCh})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := books.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	e := New(EngineConfig{Mode: "paper", Books: books, LatencyBudget: 10 * time.Millisecond})

	opp := &types.ArbitrageOpportunity{
		ID:            "opp-stale",
		MarketIndices: []types.Index{0},
		Delta:         []float64{0.2},
		DetectedAt:    time.Now().Add(-time.Hour),
	}
	markets := []LegMarket{{Index: 0, YesAssetID: "yes-a"}}

	result := e.Execute(context.Background(), opp, markets, 100)
	if result.Status != types.StatusTimeout {
		t.Errorf("expected TIMEOUT, got %v", result.Status)
	}
}

func TestReserveExposure_RejectsOverCap(t *testing.T) {
	e := New(EngineConfig{Mode: "paper", MaxExposureUSD: 100})

	if !e.ReserveExposure(80) {
		t.Fatal("expected first reservation under cap to succeed")
	}
	if e.ReserveExposure(50) {
		t.Fatal("expected second reservation to exceed cap and fail")
	}
	e.ReleaseExposure(80)
	if e.CurrentExposureUSD() != 0 {
		t.Errorf("expected exposure to return to 0, got %v", e.CurrentExposureUSD())
	}
}

func waitForBook(t *testing.T, mgr *orderbook.Manager, assetID string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := mgr.Snapshot(assetID); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for book %s", assetID)
		}
		time.Sleep(time.Millisecond)
	}
}
