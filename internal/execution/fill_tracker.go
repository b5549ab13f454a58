package execution

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/venue"
	"github.com/mselser95/polymarket-arb/pkg/types"
)

// fillTolerance absorbs floating-point noise when comparing a polled fill
// size against the leg's original size.
const fillTolerance = 0.001

// FillTrackerConfig tunes the exponential-backoff poll loop VerifyFills runs.
type FillTrackerConfig struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffMult    float64
	FillTimeout    time.Duration
}

// DefaultFillTrackerConfig is a handful of polls inside the first few
// seconds, backing off toward MaxBackoff before FillTimeout gives up.
func DefaultFillTrackerConfig() FillTrackerConfig {
	return FillTrackerConfig{
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffMult:    2,
		FillTimeout:    30 * time.Second,
	}
}

// FillTracker polls venue adapters for a previously submitted order's fill
// state, to catch legs that report open at submit time but fill moments
// later. It runs after Execute/ExecuteCrossVenue already returned a terminal
// TradeResult; verification never changes that status, it only observes.
type FillTracker struct {
	adapters map[types.Venue]venue.Adapter
	logger   *zap.Logger
	cfg      FillTrackerConfig
}

// NewFillTracker builds a FillTracker over the same adapter set the engine
// submits orders through.
func NewFillTracker(adapters map[types.Venue]venue.Adapter, logger *zap.Logger, cfg FillTrackerConfig) *FillTracker {
	return &FillTracker{adapters: adapters, logger: logger, cfg: cfg}
}

// VerifyFills polls each leg's order status with exponential backoff until
// every leg reports fully filled or cfg.FillTimeout elapses. Legs that never
// got an order id (skipped or rejected) or that carry a paper-mode synthetic
// id are resolved immediately without a network call.
func (ft *FillTracker) VerifyFills(ctx context.Context, legs []types.OrderLeg) []types.FillStatus {
	start := time.Now()
	defer func() { FillVerificationDurationSeconds.Observe(time.Since(start).Seconds()) }()

	statuses := make([]types.FillStatus, len(legs))
	var pending []int

	for i, leg := range legs {
		statuses[i] = types.FillStatus{OrderID: leg.OrderID, Venue: leg.Venue, SizeOriginal: leg.Size}

		if leg.Failed || leg.OrderID == "" || strings.HasPrefix(leg.OrderID, "paper-") {
			statuses[i].FullyFilled = !leg.Failed
			if !leg.Failed {
				statuses[i].SizeFilled = leg.Size
			}
			continue
		}

		pending = append(pending, i)
	}

	if len(pending) == 0 {
		FillVerificationTotal.WithLabelValues(fillResultLabel(statuses)).Inc()
		return statuses
	}

	backoff := ft.cfg.InitialBackoff
	deadline := time.Now().Add(ft.cfg.FillTimeout)

	for {
		stillPending := pending[:0]

		for _, idx := range pending {
			leg := &statuses[idx]

			adapter, ok := ft.adapters[leg.Venue]
			if !ok {
				leg.Err = &types.RejectedByVenueError{Message: "no adapter configured for fill verification"}
				continue
			}

			state, err := adapter.OrderStatus(ctx, leg.OrderID)
			if err != nil {
				ft.logger.Warn("fill-status-query-failed", zap.String("order-id", leg.OrderID), zap.Error(err))
				stillPending = append(stillPending, idx)
				continue
			}

			leg.SizeFilled = state.SizeFilled
			leg.VerifiedAt = time.Now()

			if state.SizeFilled >= leg.SizeOriginal-fillTolerance {
				leg.FullyFilled = true
				ft.logger.Info("leg-fully-filled",
					zap.String("order-id", leg.OrderID),
					zap.Float64("size-filled", state.SizeFilled),
					zap.Duration("duration", time.Since(start)))
				continue
			}

			stillPending = append(stillPending, idx)
		}

		pending = stillPending
		if len(pending) == 0 {
			break
		}

		if time.Now().After(deadline) {
			for _, idx := range pending {
				statuses[idx].Err = context.DeadlineExceeded
			}
			ft.logger.Warn("fill-verification-timeout", zap.Int("unresolved-legs", len(pending)))
			break
		}

		select {
		case <-ctx.Done():
			for _, idx := range pending {
				statuses[idx].Err = ctx.Err()
			}
			FillVerificationTotal.WithLabelValues(fillResultLabel(statuses)).Inc()
			return statuses
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * ft.cfg.BackoffMult)
		if backoff > ft.cfg.MaxBackoff {
			backoff = ft.cfg.MaxBackoff
		}
	}

	FillVerificationTotal.WithLabelValues(fillResultLabel(statuses)).Inc()

	return statuses
}

func fillResultLabel(statuses []types.FillStatus) string {
	allFilled, anyFilled := true, false

	for _, s := range statuses {
		if s.FullyFilled {
			anyFilled = true
		} else {
			allFilled = false
		}
	}

	switch {
	case allFilled:
		return "success"
	case anyFilled:
		return "partial"
	default:
		return "timeout"
	}
}
