package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"go.uber.org/zap"
)

// PostgresStorage implements Storage using PostgreSQL, as a durable
// secondary sink alongside the mandatory CSV log.
type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL configuration.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStorage creates a new PostgreSQL storage.
func NewPostgresStorage(cfg *PostgresConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-storage-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStorage{db: db, logger: cfg.Logger}, nil
}

// RecordOpportunity stores a detected opportunity in PostgreSQL.
func (p *PostgresStorage) RecordOpportunity(ctx context.Context, opp *types.ArbitrageOpportunity) error {
	query := `
		INSERT INTO arbitrage_opportunities (
			id, num_markets, expected_profit, mispricing, detected_at,
			iterations, converged
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.db.ExecContext(ctx, query,
		opp.ID,
		len(opp.MarketIndices),
		opp.ExpectedProfit,
		opp.Mispricing,
		opp.DetectedAt,
		opp.Iterations,
		opp.Converged,
	)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}

	p.logger.Debug("opportunity-stored", zap.String("opportunity-id", opp.ID))

	return nil
}

// RecordTrade stores a trade outcome in PostgreSQL.
func (p *PostgresStorage) RecordTrade(ctx context.Context, result types.TradeResult) error {
	query := `
		INSERT INTO trade_results (
			opportunity_id, status, expected_pnl, actual_pnl, fees, slippage,
			num_orders, executed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := p.db.ExecContext(ctx, query,
		result.OpportunityID,
		string(result.Status),
		result.ExpectedPnL,
		result.RealizedPnL,
		result.Fees,
		result.Slippage,
		len(result.Orders),
		result.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade result: %w", err)
	}

	p.logger.Debug("trade-stored", zap.String("opportunity-id", result.OpportunityID), zap.String("status", string(result.Status)))

	return nil
}

// Close closes the database connection.
func (p *PostgresStorage) Close() error {
	p.logger.Info("closing-postgres-storage")
	return p.db.Close()
}
