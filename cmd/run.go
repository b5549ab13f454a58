package cmd

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-arb/internal/app"
	"github.com/mselser95/polymarket-arb/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	liveFlag         bool
	paperFlag        bool
	maxTradeFlag     float64
	scanIntervalFlag time.Duration
	limitFlag        int
	minProfitFlag    float64
	fwItersFlag      int
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the arbitrage engine",
	Long: `Runs the cycle orchestrator: it refreshes markets from Polymarket and
Kalshi, maintains the cross-market dependency graph, detects arbitrage
opportunities via Frank-Wolfe over the marginal polytope, and executes
them through each venue's adapter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBot()
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	runCmd.Flags().BoolVar(&liveFlag, "live", false, "submit real orders (default: paper trading)")
	runCmd.Flags().BoolVar(&paperFlag, "paper", false, "force paper trading even if EXECUTION_MODE=live")
	runCmd.Flags().Float64Var(&maxTradeFlag, "max-trade", 0, "override MAX_TRADE_USD")
	runCmd.Flags().DurationVar(&scanIntervalFlag, "scan-interval", 0, "override the cycle orchestrator's CYCLE_INTERVAL")
	runCmd.Flags().IntVar(&limitFlag, "limit", 0, "override MAX_MARKETS, the per-venue market fetch cap")
	runCmd.Flags().Float64Var(&minProfitFlag, "min-profit", 0, "override MIN_PROFIT_USD")
	runCmd.Flags().IntVar(&fwItersFlag, "fw-iters", 0, "override FW_MAX_ITERS")

	rootCmd.AddCommand(runCmd)
}

func runBot() error {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if liveFlag && paperFlag {
		return fmt.Errorf("--live and --paper are mutually exclusive")
	}
	if liveFlag {
		cfg.ExecutionMode = "live"
	}
	if paperFlag {
		cfg.ExecutionMode = "paper"
	}
	if maxTradeFlag > 0 {
		cfg.MaxTradeUSD = maxTradeFlag
	}
	if scanIntervalFlag > 0 {
		cfg.CycleInterval = scanIntervalFlag
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(cfg, logger, app.Options{
		MaxMarkets:   limitFlag,
		MinProfitUSD: minProfitFlag,
		FWMaxIters:   fwItersFlag,
	})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	return application.Run()
}
