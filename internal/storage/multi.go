package storage

import (
	"context"
	"errors"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

// MultiStorage fans RecordOpportunity/RecordTrade out to every backend,
// collecting (not short-circuiting on) individual failures so a broken
// secondary sink never stops the primary CSV sink from writing.
type MultiStorage struct {
	backends []Storage
}

// NewMultiStorage composes backends into a single Storage. Writes go to
// every backend in order; Close closes every backend regardless of earlier
// errors.
func NewMultiStorage(backends ...Storage) *MultiStorage {
	return &MultiStorage{backends: backends}
}

func (m *MultiStorage) RecordOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.RecordOpportunity(ctx, opp); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiStorage) RecordTrade(ctx context.Context, result types.TradeResult) error {
	var errs []error
	for _, b := range m.backends {
		if err := b.RecordTrade(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiStorage) Close() error {
	var errs []error
	for _, b := range m.backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
