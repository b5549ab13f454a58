package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration, loaded once at startup from
// the environment: execution mode and trade/exposure limits, per-venue
// connection settings, Frank-Wolfe tuning, the dependency classifier's
// endpoint, plus the ambient logging/storage/HTTP fields every long-running
// daemon here carries.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Polymarket venue
	PolymarketWSURL      string
	PolymarketGammaURL   string
	PolymarketCLOBURL    string
	PolymarketAPIKey     string
	PolymarketSecret     string
	PolymarketPassphrase string
	PolymarketPrivateKey string

	// Kalshi venue
	KalshiWSURL      string
	KalshiRESTURL    string
	KalshiAccessKey  string
	KalshiPrivateKey string // PEM-encoded RSA private key

	CrossVenueEnabled bool

	// Market discovery / refresh
	MaxMarkets       int // cap on markets fetched per venue, descending volume
	RefreshInterval  time.Duration // minimum gap between market refreshes (>=60s)

	// WebSocket
	WSPoolSize              int
	WSDialTimeout           time.Duration
	WSPongTimeout           time.Duration
	WSPingInterval          time.Duration // ~30s
	WSDisconnectTimeout     time.Duration // >60s silence = disconnected
	WSReconnectInitialDelay time.Duration // 2s
	WSReconnectMaxDelay     time.Duration // 60s cap
	WSReconnectBackoffMult  float64
	WSMessageBufferSize     int

	// Dependency graph
	DependencyCacheTTL      time.Duration
	DependencyBatchSize     int           // N candidate pairs per classification batch
	DependencyDiscoveryEvery int          // trigger discovery every N cycles (20)
	ClassifierURL           string
	ClassifierModel         string

	// Marginal polytope / Frank-Wolfe
	FeasibilityEpsilon float64 // 1e-9 default
	FWMaxIters         int
	FWTolerance        float64
	FWLineSearchIters  int     // 30 default
	FWClampEpsilon     float64 // 1e-12 default

	// Cross-venue matcher
	MatcherMinSimilarity float64 // default 0.4

	// Cycle orchestrator
	CycleInterval time.Duration // ~100ms

	// Execution
	ExecutionMode     string // "paper", "live", "dry-run"
	MaxTradeUSD       float64
	MaxExposureUSD    float64
	FeeRate           float64
	MinProfitUSD      float64
	LatencyBudget     time.Duration // 2040ms default

	// Asynchronous fill verification (live mode only)
	FillInitialBackoff time.Duration
	FillMaxBackoff     time.Duration
	FillBackoffMult    float64
	FillTimeout        time.Duration

	// Circuit breaker
	CircuitBreakerEnabled         bool
	CircuitBreakerCheckInterval   time.Duration
	CircuitBreakerTradeMultiplier float64
	CircuitBreakerMinAbsolute     float64
	CircuitBreakerHysteresisRatio float64
	PolygonRPCURL                 string

	// Wallet tracker (live mode only): polls on-chain balances and
	// Data-API positions into Prometheus gauges.
	WalletTrackerEnabled      bool
	WalletTrackerPollInterval time.Duration

	// Storage
	StorageMode  string // "csv", "console", or "postgres" (additive to csv)
	TradeLogPath string
	OppLogPath   string
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LiveMode reports whether the engine is configured for live order
// submission, requiring every venue credential to be present.
func (c *Config) LiveMode() bool { return c.ExecutionMode == "live" }

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		PolymarketWSURL:      getEnvOrDefault("POLYMARKET_WS_URL", "wss://ws-subscriptions-clob.polymarket.com/ws/market"),
		PolymarketGammaURL:   getEnvOrDefault("POLYMARKET_GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		PolymarketCLOBURL:    getEnvOrDefault("POLYMARKET_CLOB_API_URL", "https://clob.polymarket.com"),
		PolymarketAPIKey:     os.Getenv("POLYMARKET_API_KEY"),
		PolymarketSecret:     os.Getenv("POLYMARKET_SECRET"),
		PolymarketPassphrase: os.Getenv("POLYMARKET_PASSPHRASE"),
		PolymarketPrivateKey: os.Getenv("POLYMARKET_PRIVATE_KEY"),

		KalshiWSURL:      getEnvOrDefault("KALSHI_WS_URL", "wss://api.elections.kalshi.com/trade-api/ws/v2"),
		KalshiRESTURL:    getEnvOrDefault("KALSHI_REST_URL", "https://api.elections.kalshi.com"),
		KalshiAccessKey:  os.Getenv("KALSHI_ACCESS_KEY"),
		KalshiPrivateKey: os.Getenv("KALSHI_PRIVATE_KEY"),

		CrossVenueEnabled: getBoolOrDefault("CROSS_VENUE_ENABLED", false),

		MaxMarkets:      getIntOrDefault("MAX_MARKETS", 200),
		RefreshInterval: getDurationOrDefault("REFRESH_INTERVAL", 60*time.Second),

		WSPoolSize:              getIntOrDefault("WS_POOL_SIZE", 4),
		WSDialTimeout:           getDurationOrDefault("WS_DIAL_TIMEOUT", 10*time.Second),
		WSPongTimeout:           getDurationOrDefault("WS_PONG_TIMEOUT", 15*time.Second),
		WSPingInterval:          getDurationOrDefault("WS_PING_INTERVAL", 30*time.Second),
		WSDisconnectTimeout:     getDurationOrDefault("WS_DISCONNECT_TIMEOUT", 60*time.Second),
		WSReconnectInitialDelay: getDurationOrDefault("WS_RECONNECT_INITIAL_DELAY", 2*time.Second),
		WSReconnectMaxDelay:     getDurationOrDefault("WS_RECONNECT_MAX_DELAY", 60*time.Second),
		WSReconnectBackoffMult:  getFloat64OrDefault("WS_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		WSMessageBufferSize:     getIntOrDefault("WS_MESSAGE_BUFFER_SIZE", 10000),

		DependencyCacheTTL:       getDurationOrDefault("DEPENDENCY_CACHE_TTL", 24*time.Hour),
		DependencyBatchSize:      getIntOrDefault("DEPENDENCY_BATCH_SIZE", 50),
		DependencyDiscoveryEvery: getIntOrDefault("DEPENDENCY_DISCOVERY_EVERY", 20),
		ClassifierURL:            getEnvOrDefault("CLASSIFIER_URL", ""),
		ClassifierModel:          getEnvOrDefault("CLASSIFIER_MODEL", ""),

		FeasibilityEpsilon: getFloat64OrDefault("FEASIBILITY_EPSILON", 1e-9),
		FWMaxIters:         getIntOrDefault("FW_MAX_ITERS", 100),
		FWTolerance:        getFloat64OrDefault("FW_TOLERANCE", 1e-6),
		FWLineSearchIters:  getIntOrDefault("FW_LINE_SEARCH_ITERS", 30),
		FWClampEpsilon:     getFloat64OrDefault("FW_CLAMP_EPSILON", 1e-12),

		MatcherMinSimilarity: getFloat64OrDefault("MATCHER_MIN_SIMILARITY", 0.4),

		CycleInterval: getDurationOrDefault("CYCLE_INTERVAL", 100*time.Millisecond),

		ExecutionMode:  getEnvOrDefault("EXECUTION_MODE", "paper"),
		MaxTradeUSD:    getFloat64OrDefault("MAX_TRADE_USD", 100.0),
		MaxExposureUSD: getFloat64OrDefault("MAX_EXPOSURE_USD", 1000.0),
		FeeRate:        getFloat64OrDefault("FEE_RATE", 0.02),
		MinProfitUSD:   getFloat64OrDefault("MIN_PROFIT_USD", 1.0),
		LatencyBudget:  getDurationOrDefault("LATENCY_BUDGET", 2040*time.Millisecond),

		FillInitialBackoff: getDurationOrDefault("FILL_INITIAL_BACKOFF", 250*time.Millisecond),
		FillMaxBackoff:     getDurationOrDefault("FILL_MAX_BACKOFF", 5*time.Second),
		FillBackoffMult:    getFloat64OrDefault("FILL_BACKOFF_MULTIPLIER", 2.0),
		FillTimeout:        getDurationOrDefault("FILL_TIMEOUT", 30*time.Second),

		CircuitBreakerEnabled:         getBoolOrDefault("CIRCUIT_BREAKER_ENABLED", true),
		CircuitBreakerCheckInterval:   getDurationOrDefault("CIRCUIT_BREAKER_CHECK_INTERVAL", 300*time.Second),
		CircuitBreakerTradeMultiplier: getFloat64OrDefault("CIRCUIT_BREAKER_TRADE_MULTIPLIER", 3.0),
		CircuitBreakerMinAbsolute:     getFloat64OrDefault("CIRCUIT_BREAKER_MIN_ABSOLUTE", 5.0),
		CircuitBreakerHysteresisRatio: getFloat64OrDefault("CIRCUIT_BREAKER_HYSTERESIS_RATIO", 1.5),
		PolygonRPCURL:                 getEnvOrDefault("POLYGON_RPC_URL", "https://polygon-rpc.com"),

		WalletTrackerEnabled:      getBoolOrDefault("WALLET_TRACKER_ENABLED", true),
		WalletTrackerPollInterval: getDurationOrDefault("WALLET_TRACKER_POLL_INTERVAL", 60*time.Second),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		TradeLogPath: getEnvOrDefault("TRADE_LOG_PATH", "trades.csv"),
		OppLogPath:   getEnvOrDefault("OPPORTUNITY_LOG_PATH", "opportunities.csv"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "polymarket"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "polymarket123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "polymarket_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid and, in live mode,
// that every venue credential required to sign orders is present.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("HTTP_PORT cannot be empty")
	}
	if c.PolymarketGammaURL == "" || c.PolymarketCLOBURL == "" {
		return errors.New("polymarket API URLs cannot be empty")
	}
	if c.KalshiRESTURL == "" {
		return errors.New("KALSHI_REST_URL cannot be empty")
	}

	switch c.ExecutionMode {
	case "paper", "live", "dry-run":
	default:
		return fmt.Errorf("EXECUTION_MODE must be 'paper', 'live', or 'dry-run', got %q", c.ExecutionMode)
	}

	if c.MaxTradeUSD <= 0 {
		return fmt.Errorf("MAX_TRADE_USD must be positive, got %f", c.MaxTradeUSD)
	}
	if c.MaxExposureUSD < c.MaxTradeUSD {
		return fmt.Errorf("MAX_EXPOSURE_USD (%f) must be >= MAX_TRADE_USD (%f)", c.MaxExposureUSD, c.MaxTradeUSD)
	}
	if c.FeeRate < 0 || c.FeeRate >= 1 {
		return fmt.Errorf("FEE_RATE must be in [0,1), got %f", c.FeeRate)
	}
	if c.MinProfitUSD < 0 {
		return fmt.Errorf("MIN_PROFIT_USD must be non-negative, got %f", c.MinProfitUSD)
	}
	if c.MaxMarkets < 1 {
		return fmt.Errorf("MAX_MARKETS must be at least 1, got %d", c.MaxMarkets)
	}
	if c.WSPoolSize < 1 || c.WSPoolSize > 20 {
		return fmt.Errorf("WS_POOL_SIZE must be in [1,20], got %d", c.WSPoolSize)
	}
	if c.FWMaxIters < 1 {
		return fmt.Errorf("FW_MAX_ITERS must be at least 1, got %d", c.FWMaxIters)
	}
	if c.MatcherMinSimilarity < 0 || c.MatcherMinSimilarity > 1 {
		return fmt.Errorf("MATCHER_MIN_SIMILARITY must be in [0,1], got %f", c.MatcherMinSimilarity)
	}

	if c.LiveMode() {
		missing := []string{}
		if c.PolymarketAPIKey == "" {
			missing = append(missing, "POLYMARKET_API_KEY")
		}
		if c.PolymarketSecret == "" {
			missing = append(missing, "POLYMARKET_SECRET")
		}
		if c.PolymarketPassphrase == "" {
			missing = append(missing, "POLYMARKET_PASSPHRASE")
		}
		if c.PolymarketPrivateKey == "" {
			missing = append(missing, "POLYMARKET_PRIVATE_KEY")
		}
		if c.CrossVenueEnabled {
			if c.KalshiAccessKey == "" {
				missing = append(missing, "KALSHI_ACCESS_KEY")
			}
			if c.KalshiPrivateKey == "" {
				missing = append(missing, "KALSHI_PRIVATE_KEY")
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("live mode requires credentials, missing: %v", missing)
		}
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}
