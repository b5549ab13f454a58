package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/mselser95/polymarket-arb/internal/circuitbreaker"
	"github.com/mselser95/polymarket-arb/internal/dependency"
	"github.com/mselser95/polymarket-arb/internal/execution"
	"github.com/mselser95/polymarket-arb/internal/markets"
	"github.com/mselser95/polymarket-arb/internal/optimizer"
	"github.com/mselser95/polymarket-arb/internal/orchestrator"
	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/internal/venue"
	"github.com/mselser95/polymarket-arb/internal/venue/kalshi"
	"github.com/mselser95/polymarket-arb/internal/venue/polymarket"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/config"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/mselser95/polymarket-arb/pkg/wallet"
	"github.com/mselser95/polymarket-arb/pkg/websocket"
)

// New wires every component the cycle orchestrator depends on and returns
// a ready-to-Run App. Wiring order follows each component's own
// dependency: venue signers before clients, clients before the metadata
// store, the metadata store before the execution engine, the two per-venue
// WS pools before the shared order book manager, and every component
// before the orchestrator that drives them.
func New(cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	polyClient, err := setupPolymarket(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup polymarket client: %w", err)
	}
	kalshiClient, err := setupKalshi(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup kalshi client: %w", err)
	}

	metaCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     1 << 26,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup metadata cache: %w", err)
	}
	metaStore := markets.NewStore(
		markets.NewPolymarketFetcher(markets.PolymarketFetcherConfig{Logger: logger}),
		markets.NewKalshiFetcher(),
		metaCache,
	)

	depCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1e6,
		MaxCost:     1 << 25,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup dependency cache: %w", err)
	}
	depGraph := dependency.New(dependency.Config{
		Cache:         depCache,
		Classifier:    setupClassifier(cfg, logger),
		TTL:           cfg.DependencyCacheTTL,
		MaxCandidates: cfg.DependencyBatchSize,
		Logger:        logger,
	})

	updateChan := make(chan orderbook.Update, cfg.WSMessageBufferSize)
	polyPool := setupPool(cfg, cfg.PolymarketWSURL, polymarket.Subscribe, logger)
	kalshiPool := setupPool(cfg, cfg.KalshiWSURL, kalshi.Subscribe, logger)

	obManager := orderbook.New(&orderbook.Config{
		Logger:     logger,
		UpdateChan: updateChan,
	})

	venueAdapters := map[types.Venue]venue.Adapter{
		types.VenuePolymarket: polyClient,
		types.VenueKalshi:     kalshiClient,
	}

	var fillTracker *execution.FillTracker
	if cfg.ExecutionMode == "live" {
		fillTracker = execution.NewFillTracker(venueAdapters, logger, execution.FillTrackerConfig{
			InitialBackoff: cfg.FillInitialBackoff,
			MaxBackoff:     cfg.FillMaxBackoff,
			BackoffMult:    cfg.FillBackoffMult,
			FillTimeout:    cfg.FillTimeout,
		})
	}

	engine := execution.New(execution.EngineConfig{
		Mode:           cfg.ExecutionMode,
		Adapters:       venueAdapters,
		Books:          obManager,
		Metadata:       metaStore,
		Logger:         logger,
		FeeRate:        cfg.FeeRate,
		MinProfitUSD:   cfg.MinProfitUSD,
		LatencyBudget:  cfg.LatencyBudget,
		MaxExposureUSD: cfg.MaxExposureUSD,
		FillTracker:    fillTracker,
	})

	breaker, err := setupBreaker(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup circuit breaker: %w", err)
	}

	walletTracker, err := setupWalletTracker(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup wallet tracker: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	fwCfg := optimizer.Config{
		MaxIters:        cfg.FWMaxIters,
		Tolerance:       cfg.FWTolerance,
		LineSearchSteps: cfg.FWLineSearchIters,
	}
	minProfit, maxMarkets := cfg.MinProfitUSD, cfg.MaxMarkets
	if opts.MinProfitUSD > 0 {
		minProfit = opts.MinProfitUSD
	}
	if opts.MaxMarkets > 0 {
		maxMarkets = opts.MaxMarkets
	}
	if opts.FWMaxIters > 0 {
		fwCfg.MaxIters = opts.FWMaxIters
	}

	orch := orchestrator.New(orchestrator.Config{
		Adapters: venueAdapters,
		Subscribers: map[types.Venue]orchestrator.WSSubscriber{
			types.VenuePolymarket: polyPool,
			types.VenueKalshi:     kalshiPool,
		},
		Books:                obManager,
		Dependencies:         depGraph,
		Engine:               engine,
		Breaker:              breaker,
		Storage:              store,
		Logger:               logger,
		CycleInterval:        cfg.CycleInterval,
		RefreshInterval:      cfg.RefreshInterval,
		DiscoveryEvery:       cfg.DependencyDiscoveryEvery,
		MaxMarkets:           maxMarkets,
		FW:                   fwCfg,
		MinProfitUSD:         minProfit,
		TradeNotionalUSD:     cfg.MaxTradeUSD,
		TotalFeeRate:         2 * cfg.FeeRate,
		CrossVenueEnabled:    cfg.CrossVenueEnabled,
		MatcherMinSimilarity: cfg.MatcherMinSimilarity,
	})

	httpSrv := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Opportunities: orch,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpSrv,
		polyPool:      polyPool,
		kalshiPool:    kalshiPool,
		obManager:     obManager,
		updateChan:    updateChan,
		depGraph:      depGraph,
		engine:        engine,
		breaker:       breaker,
		walletTracker: walletTracker,
		store:         store,
		orch:          orch,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupPolymarket(cfg *config.Config, logger *zap.Logger) (*polymarket.Client, error) {
	var signer *polymarket.Signer
	if cfg.LiveMode() && cfg.PolymarketPrivateKey != "" {
		s, err := polymarket.NewSigner(polymarket.SignerConfig{
			APIKey:        cfg.PolymarketAPIKey,
			Secret:        cfg.PolymarketSecret,
			Passphrase:    cfg.PolymarketPassphrase,
			PrivateKeyHex: cfg.PolymarketPrivateKey,
		})
		if err != nil {
			return nil, fmt.Errorf("build polymarket signer: %w", err)
		}
		signer = s
	}

	return polymarket.New(polymarket.Config{
		GammaURL: cfg.PolymarketGammaURL,
		CLOBURL:  cfg.PolymarketCLOBURL,
		Signer:   signer,
		Logger:   logger,
	}), nil
}

func setupKalshi(cfg *config.Config, logger *zap.Logger) (*kalshi.Client, error) {
	var signer *kalshi.Signer
	if cfg.LiveMode() && cfg.KalshiPrivateKey != "" {
		s, err := kalshi.NewSigner(cfg.KalshiAccessKey, cfg.KalshiPrivateKey)
		if err != nil {
			return nil, fmt.Errorf("build kalshi signer: %w", err)
		}
		signer = s
	}

	return kalshi.New(kalshi.Config{
		BaseURL: cfg.KalshiRESTURL,
		Signer:  signer,
		Logger:  logger,
	}), nil
}

func setupClassifier(cfg *config.Config, logger *zap.Logger) dependency.Classifier {
	if cfg.ClassifierURL == "" {
		return nil
	}
	return dependency.NewHTTPClassifier(cfg.ClassifierURL, cfg.ClassifierModel, logger)
}

func setupPool(cfg *config.Config, wsURL string, build websocket.SubscribeBuilder, logger *zap.Logger) *websocket.Pool {
	return websocket.NewPool(websocket.PoolConfig{
		Size:                  cfg.WSPoolSize,
		WSUrl:                 wsURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		SubscribeBuild:        build,
		Logger:                logger,
	})
}

// pumpDecoded drains a venue pool's raw WS frames through decode and onto
// the shared order book update channel. One goroutine per venue.
func pumpDecoded(ctx context.Context, pool *websocket.Pool, decode func([]byte) []orderbook.Update, out chan<- orderbook.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-pool.MessageChan():
			if !ok {
				return
			}
			for _, u := range decode(raw.Data) {
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// deriveWalletAddress recovers the on-chain address backing
// PolymarketPrivateKey, shared by the circuit breaker's balance checks and
// the wallet tracker's polling loop.
func deriveWalletAddress(cfg *config.Config) (common.Address, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PolymarketPrivateKey, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("parse polymarket private key: %w", err)
	}
	return crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

func setupWalletTracker(cfg *config.Config, logger *zap.Logger) (*wallet.Tracker, error) {
	if !cfg.WalletTrackerEnabled || !cfg.LiveMode() {
		return nil, nil
	}
	if cfg.PolymarketPrivateKey == "" {
		logger.Warn("wallet-tracker-disabled-no-private-key")
		return nil, nil
	}

	address, err := deriveWalletAddress(cfg)
	if err != nil {
		return nil, err
	}

	tracker, err := wallet.New(&wallet.Config{
		RPCEndpoint:  cfg.PolygonRPCURL,
		Address:      address,
		PollInterval: cfg.WalletTrackerPollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build wallet tracker: %w", err)
	}

	return tracker, nil
}

func setupBreaker(cfg *config.Config, logger *zap.Logger) (*circuitbreaker.BalanceCircuitBreaker, error) {
	if !cfg.CircuitBreakerEnabled || !cfg.LiveMode() {
		return nil, nil
	}
	if cfg.PolymarketPrivateKey == "" {
		logger.Warn("circuit-breaker-disabled-no-private-key")
		return nil, nil
	}

	address, err := deriveWalletAddress(cfg)
	if err != nil {
		return nil, err
	}

	walletClient, err := wallet.NewClient(cfg.PolygonRPCURL, logger)
	if err != nil {
		return nil, fmt.Errorf("build wallet client: %w", err)
	}

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		CheckInterval:   cfg.CircuitBreakerCheckInterval,
		TradeMultiplier: cfg.CircuitBreakerTradeMultiplier,
		MinAbsolute:     cfg.CircuitBreakerMinAbsolute,
		HysteresisRatio: cfg.CircuitBreakerHysteresisRatio,
		WalletClient:    walletClient,
		Address:         address,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build circuit breaker: %w", err)
	}

	return breaker, nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, error) {
	csv, err := storage.NewCSVStorage(filepath.Dir(cfg.TradeLogPath))
	if err != nil {
		return nil, fmt.Errorf("build csv storage: %w", err)
	}

	backends := []storage.Storage{csv}
	switch cfg.StorageMode {
	case "console":
		backends = append(backends, storage.NewConsoleStorage(logger))
	case "postgres":
		pg, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build postgres storage: %w", err)
		}
		backends = append(backends, pg)
	}

	if len(backends) == 1 {
		return backends[0], nil
	}
	return storage.NewMultiStorage(backends...), nil
}
