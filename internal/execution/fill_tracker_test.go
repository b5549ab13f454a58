package execution

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/venue"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

type stubStatusAdapter struct {
	venue  types.Venue
	states map[string]types.OrderState
	err    error
}

func (s *stubStatusAdapter) Venue() types.Venue { return s.venue }
func (s *stubStatusAdapter) FetchMarkets(context.Context, int) ([]types.Market, error) {
	return nil, nil
}
func (s *stubStatusAdapter) FetchOrderBook(_ context.Context, assetID string) (types.OrderBook, error) {
	return types.EmptyOrderBook(assetID), nil
}
func (s *stubStatusAdapter) SubmitOrder(context.Context, string, types.Side, float64, float64) (string, error) {
	return "", nil
}
func (s *stubStatusAdapter) OrderStatus(_ context.Context, orderID string) (types.OrderState, error) {
	if s.err != nil {
		return types.OrderState{}, s.err
	}
	return s.states[orderID], nil
}

func TestFillTracker_PaperAndFailedLegsResolveImmediately(t *testing.T) {
	ft := NewFillTracker(map[types.Venue]venue.Adapter{}, zap.NewNop(), DefaultFillTrackerConfig())

	legs := []types.OrderLeg{
		{OrderID: "paper-abc", Size: 10},
		{Failed: true},
	}

	statuses := ft.VerifyFills(context.Background(), legs)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].FullyFilled {
		t.Error("expected paper leg to resolve fully filled")
	}
	if statuses[1].FullyFilled {
		t.Error("expected failed leg to never resolve filled")
	}
}

func TestFillTracker_PollsUntilFullyFilled(t *testing.T) {
	adapter := &stubStatusAdapter{
		venue: types.VenuePolymarket,
		states: map[string]types.OrderState{
			"order-1": {OrderID: "order-1", SizeFilled: 10, SizeOriginal: 10},
		},
	}

	ft := NewFillTracker(map[types.Venue]venue.Adapter{types.VenuePolymarket: adapter}, zap.NewNop(), FillTrackerConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		BackoffMult:    1,
		FillTimeout:    time.Second,
	})

	legs := []types.OrderLeg{{Venue: types.VenuePolymarket, OrderID: "order-1", Size: 10}}

	statuses := ft.VerifyFills(context.Background(), legs)
	if len(statuses) != 1 || !statuses[0].FullyFilled {
		t.Fatalf("expected leg to be fully filled, got %+v", statuses)
	}
}

func TestFillTracker_TimesOutWhenNeverFilled(t *testing.T) {
	adapter := &stubStatusAdapter{
		venue: types.VenuePolymarket,
		states: map[string]types.OrderState{
			"order-1": {OrderID: "order-1", SizeFilled: 3, SizeOriginal: 10},
		},
	}

	ft := NewFillTracker(map[types.Venue]venue.Adapter{types.VenuePolymarket: adapter}, zap.NewNop(), FillTrackerConfig{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		BackoffMult:    1,
		FillTimeout:    5 * time.Millisecond,
	})

	legs := []types.OrderLeg{{Venue: types.VenuePolymarket, OrderID: "order-1", Size: 10}}

	statuses := ft.VerifyFills(context.Background(), legs)
	if statuses[0].FullyFilled {
		t.Fatal("expected leg to remain unfilled at timeout")
	}
	if statuses[0].Err == nil {
		t.Error("expected timeout error to be recorded")
	}
}
