package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mselser95/polymarket-arb/pkg/types"
)

var tradesHeader = []string{"timestamp", "opportunity_id", "status", "expected_pnl", "actual_pnl", "fees", "slippage", "num_orders"}
var opportunitiesHeader = []string{"timestamp", "num_markets", "expected_profit", "mispricing_pct", "trade_vector_norm"}

// CSVStorage is the append-only primary sink: one line per event,
// line-flushed immediately so a crash never loses a written record.
type CSVStorage struct {
	mu             sync.Mutex
	tradesFile     *os.File
	tradesWriter   *csv.Writer
	opportunitiesFile   *os.File
	opportunitiesWriter *csv.Writer
}

// NewCSVStorage opens (or creates) trades.csv and opportunities.csv under
// dir, writing the header row only for newly created files.
func NewCSVStorage(dir string) (*CSVStorage, error) {
	tradesFile, tradesIsNew, err := openAppend(dir + "/trades.csv")
	if err != nil {
		return nil, fmt.Errorf("open trades.csv: %w", err)
	}

	opportunitiesFile, opportunitiesIsNew, err := openAppend(dir + "/opportunities.csv")
	if err != nil {
		tradesFile.Close()
		return nil, fmt.Errorf("open opportunities.csv: %w", err)
	}

	s := &CSVStorage{
		tradesFile:          tradesFile,
		tradesWriter:        csv.NewWriter(tradesFile),
		opportunitiesFile:   opportunitiesFile,
		opportunitiesWriter: csv.NewWriter(opportunitiesFile),
	}

	if tradesIsNew {
		if err := s.tradesWriter.Write(tradesHeader); err != nil {
			return nil, fmt.Errorf("write trades.csv header: %w", err)
		}
		s.tradesWriter.Flush()
	}
	if opportunitiesIsNew {
		if err := s.opportunitiesWriter.Write(opportunitiesHeader); err != nil {
			return nil, fmt.Errorf("write opportunities.csv header: %w", err)
		}
		s.opportunitiesWriter.Flush()
	}

	return s, nil
}

func openAppend(path string) (f *os.File, isNew bool, err error) {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		isNew = true
	}
	f, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	return f, isNew, err
}

// RecordOpportunity appends one opportunities.csv row.
func (s *CSVStorage) RecordOpportunity(_ context.Context, opp *types.ArbitrageOpportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		opp.DetectedAt.UTC().Format(time.RFC3339Nano),
		fmt.Sprintf("%d", len(opp.MarketIndices)),
		fmt.Sprintf("%.8f", opp.ExpectedProfit),
		fmt.Sprintf("%.8f", opp.Mispricing*100),
		fmt.Sprintf("%.8f", vectorNorm(opp.Delta)),
	}

	if err := s.opportunitiesWriter.Write(row); err != nil {
		return fmt.Errorf("write opportunities.csv row: %w", err)
	}
	s.opportunitiesWriter.Flush()

	return s.opportunitiesWriter.Error()
}

// RecordTrade appends one trades.csv row.
func (s *CSVStorage) RecordTrade(_ context.Context, result types.TradeResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		result.ExecutedAt.UTC().Format(time.RFC3339Nano),
		result.OpportunityID,
		string(result.Status),
		fmt.Sprintf("%.8f", result.ExpectedPnL),
		fmt.Sprintf("%.8f", result.RealizedPnL),
		fmt.Sprintf("%.8f", result.Fees),
		fmt.Sprintf("%.8f", result.Slippage),
		fmt.Sprintf("%d", len(result.Orders)),
	}

	if err := s.tradesWriter.Write(row); err != nil {
		return fmt.Errorf("write trades.csv row: %w", err)
	}
	s.tradesWriter.Flush()

	return s.tradesWriter.Error()
}

// Close flushes and closes both underlying files.
func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tradesWriter.Flush()
	s.opportunitiesWriter.Flush()

	if err := s.tradesFile.Close(); err != nil {
		return err
	}
	return s.opportunitiesFile.Close()
}
