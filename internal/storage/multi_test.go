package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

type recordingBackend struct {
	opps    int
	trades  int
	closed  bool
	failOpp bool
}

func (r *recordingBackend) RecordOpportunity(_ context.Context, _ *types.ArbitrageOpportunity) error {
	r.opps++
	if r.failOpp {
		return errors.New("boom")
	}
	return nil
}

func (r *recordingBackend) RecordTrade(_ context.Context, _ types.TradeResult) error {
	r.trades++
	return nil
}

func (r *recordingBackend) Close() error {
	r.closed = true
	return nil
}

func TestMultiStorage_FansOutToEveryBackend(t *testing.T) {
	a, b := &recordingBackend{}, &recordingBackend{}
	multi := NewMultiStorage(a, b)

	if err := multi.RecordOpportunity(context.Background(), testOpportunity()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := multi.RecordTrade(context.Background(), testTradeResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.opps != 1 || b.opps != 1 {
		t.Errorf("expected both backends to record one opportunity, got a=%d b=%d", a.opps, b.opps)
	}
	if a.trades != 1 || b.trades != 1 {
		t.Errorf("expected both backends to record one trade, got a=%d b=%d", a.trades, b.trades)
	}
}

func TestMultiStorage_OneFailureDoesNotBlockOthers(t *testing.T) {
	failing, ok := &recordingBackend{failOpp: true}, &recordingBackend{}
	multi := NewMultiStorage(failing, ok)

	err := multi.RecordOpportunity(context.Background(), testOpportunity())
	if err == nil {
		t.Fatal("expected the failing backend's error to surface")
	}
	if ok.opps != 1 {
		t.Errorf("expected the healthy backend to still record, got %d", ok.opps)
	}
}

func TestMultiStorage_CloseClosesEveryBackend(t *testing.T) {
	a, b := &recordingBackend{}, &recordingBackend{}
	multi := NewMultiStorage(a, b)

	if err := multi.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("expected both backends to be closed")
	}
}
