package orderbook

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

func newTestManager(t *testing.T) (*Manager, chan Update) {
	t.Helper()
	ch := make(chan Update, 16)
	mgr := New(&Config{Logger: zap.NewNop(), UpdateChan: ch, OutBufSize: 16})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := mgr.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return mgr, ch
}

func TestSnapshot_UnknownAssetReturnsEmptyBook(t *testing.T) {
	mgr, _ := newTestManager(t)

	book, found := mgr.Snapshot("unknown-asset")
	if found {
		t.Error("expected found=false for unknown asset")
	}
	if book.BestBid() != 0 || book.BestAsk() != 1 || book.Mid() != 0.5 || book.Spread() != 1 {
		t.Errorf("expected empty-book convention, got %+v", book)
	}
}

func TestApply_FullSnapshot(t *testing.T) {
	mgr, ch := newTestManager(t)

	ch <- Update{
		AssetID:  "asset-1",
		Snapshot: true,
		Bids:     []types.OrderBookLevel{{Price: 0.45, Size: 100}, {Price: 0.44, Size: 50}},
		Asks:     []types.OrderBookLevel{{Price: 0.47, Size: 80}},
	}

	waitForSnapshot(t, mgr, "asset-1")

	book, found := mgr.Snapshot("asset-1")
	if !found {
		t.Fatal("expected book to be found after snapshot")
	}
	if book.BestBid() != 0.45 {
		t.Errorf("best bid = %v, want 0.45", book.BestBid())
	}
	if book.BestAsk() != 0.47 {
		t.Errorf("best ask = %v, want 0.47", book.BestAsk())
	}
}

func TestApply_PriceChangeUpdatesTop(t *testing.T) {
	mgr, ch := newTestManager(t)

	ch <- Update{
		AssetID:  "asset-2",
		Snapshot: true,
		Bids:     []types.OrderBookLevel{{Price: 0.40, Size: 10}},
		Asks:     []types.OrderBookLevel{{Price: 0.42, Size: 10}},
	}
	waitForSnapshot(t, mgr, "asset-2")

	ch <- Update{
		AssetID: "asset-2",
		Bids:    []types.OrderBookLevel{{Price: 0.41, Size: 5}},
	}

	deadline := time.After(time.Second)
	for {
		book, _ := mgr.Snapshot("asset-2")
		if book.BestBid() == 0.41 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("price_change never applied, best bid stuck at %v", book.BestBid())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestApply_LastTradePriceBootstrapsEmptyBookOnly(t *testing.T) {
	mgr, ch := newTestManager(t)

	ch <- Update{AssetID: "asset-3", LastTradePrice: 0.6}
	waitForSnapshot(t, mgr, "asset-3")

	book, _ := mgr.Snapshot("asset-3")
	if book.Mid() != 0.6 {
		t.Errorf("expected last-trade bootstrap mid 0.6, got %v", book.Mid())
	}

	ch <- Update{
		AssetID:  "asset-3",
		Snapshot: true,
		Bids:     []types.OrderBookLevel{{Price: 0.3, Size: 1}},
		Asks:     []types.OrderBookLevel{{Price: 0.35, Size: 1}},
	}

	deadline := time.After(time.Second)
	for {
		book, _ := mgr.Snapshot("asset-3")
		if book.BestBid() == 0.3 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("real snapshot never overwrote last-trade bootstrap")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ch <- Update{AssetID: "asset-3", LastTradePrice: 0.99}
	time.Sleep(20 * time.Millisecond)

	book, _ = mgr.Snapshot("asset-3")
	if book.BestBid() != 0.3 {
		t.Errorf("last_trade_price should not overwrite a real book, best bid = %v", book.BestBid())
	}
}

func waitForSnapshot(t *testing.T, mgr *Manager, assetID string) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		if _, found := mgr.Snapshot(assetID); found {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("snapshot for %s never arrived", assetID)
		case <-time.After(5 * time.Millisecond):
		}
	}
}
