package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

func testOpportunity() *types.ArbitrageOpportunity {
	return &types.ArbitrageOpportunity{
		ID:             "test-opp-123",
		MarketIndices:  []types.Index{0, 1},
		P:              []float64{0.48, 0.51},
		Q:              []float64{0.50, 0.50},
		Delta:          []float64{0.02, -0.01},
		ExpectedProfit: 0.01,
		Mispricing:     0.005,
		DetectedAt:     time.Now(),
		Iterations:     12,
		Converged:      true,
	}
}

func testTradeResult() types.TradeResult {
	return types.TradeResult{
		OpportunityID: "test-opp-123",
		Orders: []types.OrderLeg{
			{MarketIndex: 0, AssetID: "asset-a", Side: types.SideBuy, Price: 0.48, Size: 50, OrderID: "order-1"},
		},
		ExpectedPnL: 1.0,
		RealizedPnL: 0.8,
		Fees:        0.2,
		Slippage:    0.05,
		Status:      types.StatusFilled,
		ExecutedAt:  time.Now(),
	}
}

func TestConsoleStorage_New(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	storage := NewConsoleStorage(logger)

	if storage == nil {
		t.Fatal("expected non-nil storage")
	}
	if storage.logger == nil {
		t.Error("expected non-nil logger")
	}
}

func TestConsoleStorage_RecordOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	opp := testOpportunity()
	ctx := context.Background()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.RecordOpportunity(ctx, opp)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !bytes.Contains([]byte(output), []byte("ARBITRAGE OPPORTUNITY DETECTED")) {
		t.Error("expected output to contain 'ARBITRAGE OPPORTUNITY DETECTED'")
	}
	if !bytes.Contains([]byte(output), []byte(opp.ID)) {
		t.Errorf("expected output to contain opportunity id %s", opp.ID)
	}
}

func TestConsoleStorage_RecordTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	result := testTradeResult()
	ctx := context.Background()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := storage.RecordTrade(ctx, result)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)
	output := buf.String()

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if !bytes.Contains([]byte(output), []byte(string(types.StatusFilled))) {
		t.Error("expected output to contain the trade status")
	}
}

func TestConsoleStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	storage := NewConsoleStorage(logger)

	if err := storage.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
}

func TestPostgresStorage_RecordOpportunity(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: logger}

	opp := testOpportunity()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO arbitrage_opportunities").
		WithArgs(
			opp.ID,
			len(opp.MarketIndices),
			opp.ExpectedProfit,
			opp.Mispricing,
			sqlmock.AnyArg(),
			opp.Iterations,
			opp.Converged,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := storage.RecordOpportunity(ctx, opp); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_RecordOpportunity_Error(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: logger}

	opp := testOpportunity()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO arbitrage_opportunities").
		WithArgs(
			opp.ID,
			len(opp.MarketIndices),
			opp.ExpectedProfit,
			opp.Mispricing,
			sqlmock.AnyArg(),
			opp.Iterations,
			opp.Converged,
		).
		WillReturnError(sqlmock.ErrCancelled)

	if err := storage.RecordOpportunity(ctx, opp); err == nil {
		t.Error("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_RecordTrade(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: logger}

	result := testTradeResult()
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO trade_results").
		WithArgs(
			result.OpportunityID,
			string(result.Status),
			result.ExpectedPnL,
			result.RealizedPnL,
			result.Fees,
			result.Slippage,
			len(result.Orders),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := storage.RecordTrade(ctx, result); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_Close(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	storage := &PostgresStorage{db: db, logger: logger}

	mock.ExpectClose()

	if err := storage.Close(); err != nil {
		t.Errorf("expected no error on close, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNewPostgresStorage_ConnectionSuccess(t *testing.T) {
	t.Skip("requires a real PostgreSQL database")
}

func TestStorage_Interface(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	var _ Storage = NewConsoleStorage(logger)

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: logger}
}
