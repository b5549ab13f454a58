package storage

import (
	"context"
	"fmt"

	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStorage implements Storage by pretty-printing to console; useful
// for watching a paper-mode run without tailing the CSV files.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{logger: logger}
}

// RecordOpportunity pretty-prints a detected opportunity to console.
func (c *ConsoleStorage) RecordOpportunity(_ context.Context, opp *types.ArbitrageOpportunity) error {
	fmt.Println("\n" + "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("ARBITRAGE OPPORTUNITY DETECTED  id=%s\n", opp.ID)
	fmt.Printf("  markets:      %d\n", len(opp.MarketIndices))
	fmt.Printf("  expected edge: %.4f\n", opp.ExpectedProfit)
	fmt.Printf("  mispricing:    %.4f%%\n", opp.Mispricing*100)
	fmt.Printf("  fw iters:      %d (converged=%v, elapsed=%s)\n", opp.Iterations, opp.Converged, opp.FWElapsed)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	return nil
}

// RecordTrade pretty-prints a trade outcome to console.
func (c *ConsoleStorage) RecordTrade(_ context.Context, result types.TradeResult) error {
	fmt.Printf("TRADE %s  opp=%s  orders=%d  pnl=%.4f  fees=%.4f  slippage=%.4f\n",
		result.Status, result.OpportunityID, len(result.Orders), result.RealizedPnL, result.Fees, result.Slippage)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
