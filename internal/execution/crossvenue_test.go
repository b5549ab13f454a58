package execution

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

func TestPlanCrossVenue_BuysCheapYesAndExpensiveNo(t *testing.T) {
	pair := types.CrossVenuePair{YesPriceA: 0.40, YesPriceB: 0.65}
	marketA := types.Market{Venue: types.VenuePolymarket, YesAssetID: "a-yes", NoAssetID: "a-no"}
	marketB := types.Market{Venue: types.VenueKalshi, YesAssetID: "b-yes", NoAssetID: "b-no"}

	legs, cost, profitable := PlanCrossVenue(pair, marketA, marketB, 100, 0.02)

	// cost = 0.40 + (1 - 0.65) = 0.75 < 1 - 0.02
	if !profitable {
		t.Fatalf("expected profitable structure, cost=%v", cost)
	}
	if len(legs) != 2 {
		t.Fatalf("expected 2 legs, got %d", len(legs))
	}
	if legs[0].AssetID != "a-yes" || legs[0].Venue != types.VenuePolymarket {
		t.Errorf("expected first leg to buy cheap YES on A, got %+v", legs[0])
	}
	if legs[1].AssetID != "b-no" || legs[1].Venue != types.VenueKalshi {
		t.Errorf("expected second leg to buy NO on the expensive venue, got %+v", legs[1])
	}
}

func TestPlanCrossVenue_RejectsWhenCostExceedsEdge(t *testing.T) {
	pair := types.CrossVenuePair{YesPriceA: 0.50, YesPriceB: 0.51}
	marketA := types.Market{Venue: types.VenuePolymarket, YesAssetID: "a-yes", NoAssetID: "a-no"}
	marketB := types.Market{Venue: types.VenueKalshi, YesAssetID: "b-yes", NoAssetID: "b-no"}

	_, _, profitable := PlanCrossVenue(pair, marketA, marketB, 100, 0.05)
	if profitable {
		t.Error("expected a near-1.0 cost structure to be rejected once fees are applied")
	}
}

func TestExecuteCrossVenue_AbortsOverExposureCap(t *testing.T) {
	updCh := make(chan orderbook.Update, 1)
	books := orderbook.New(&orderbook.Config{Logger: zap.NewNop(), UpdateChan: updCh})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := books.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	e := New(EngineConfig{Mode: "paper", Books: books, MaxExposureUSD: 50})

	legs := []CrossVenueLeg{
		{Venue: types.VenuePolymarket, AssetID: "a-yes", Side: types.SideBuy, SizeUSD: 100},
		{Venue: types.VenueKalshi, AssetID: "b-no", Side: types.SideBuy, SizeUSD: 100},
	}

	result := e.ExecuteCrossVenue(context.Background(), "opp-exposure", legs, 100, 0.05)
	if result.Status != types.StatusAbortedExposure {
		t.Errorf("expected ABORTED_EXPOSURE, got %v", result.Status)
	}
	if len(result.Orders) != 0 {
		t.Errorf("expected no orders submitted, got %d", len(result.Orders))
	}
}

func TestExecuteCrossVenue_FillsBothLegsInPaperMode(t *testing.T) {
	updCh := make(chan orderbook.Update, 2)
	books := orderbook.New(&orderbook.Config{Logger: zap.NewNop(), UpdateChan: updCh})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := books.Start(ctx); err != nil {
		t.Fatalf("start manager: %v", err)
	}

	updCh <- orderbook.Update{AssetID: "a-yes", Snapshot: true,
		Asks: []types.OrderBookLevel{{Price: 0.40, Size: 1000}}}
	updCh <- orderbook.Update{AssetID: "b-no", Snapshot: true,
		Asks: []types.OrderBookLevel{{Price: 0.36, Size: 1000}}}

	deadline := time.Now().Add(time.Second)
	for {
		_, okA := books.Snapshot("a-yes")
		_, okB := books.Snapshot("b-no")
		if okA && okB {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for books")
		}
		time.Sleep(time.Millisecond)
	}

	e := New(EngineConfig{Mode: "paper", Books: books, FeeRate: 0.01, MaxExposureUSD: 1000})

	legs := []CrossVenueLeg{
		{Venue: types.VenuePolymarket, AssetID: "a-yes", Side: types.SideBuy, SizeUSD: 100},
		{Venue: types.VenueKalshi, AssetID: "b-no", Side: types.SideBuy, SizeUSD: 100},
	}

	result := e.ExecuteCrossVenue(context.Background(), "opp-xv", legs, 100, 0.05)
	if result.Status != types.StatusFilled {
		t.Fatalf("expected FILLED, got %v", result.Status)
	}
	if e.CurrentExposureUSD() != 0 {
		t.Errorf("expected exposure released after completion, got %v", e.CurrentExposureUSD())
	}
}
