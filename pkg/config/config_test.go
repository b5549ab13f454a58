package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		v, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, v)
			}
		})
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t, "EXECUTION_MODE", "MAX_TRADE_USD", "MAX_EXPOSURE_USD", "FEE_RATE")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ExecutionMode != "paper" {
		t.Errorf("expected default execution mode paper, got %q", cfg.ExecutionMode)
	}
	if cfg.MaxTradeUSD != 100.0 {
		t.Errorf("expected default max trade 100, got %f", cfg.MaxTradeUSD)
	}
	if cfg.LatencyBudget != 2040*time.Millisecond {
		t.Errorf("expected default latency budget 2040ms, got %s", cfg.LatencyBudget)
	}
	if cfg.WSReconnectInitialDelay != 2*time.Second || cfg.WSReconnectMaxDelay != 60*time.Second {
		t.Errorf("expected ws reconnect 2s/60s, got %s/%s", cfg.WSReconnectInitialDelay, cfg.WSReconnectMaxDelay)
	}
}

func TestConfig_Validate_RejectsBadExecutionMode(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg.ExecutionMode = "yolo"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid execution mode")
	}
}

func TestConfig_Validate_ExposureMustCoverMaxTrade(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg.MaxTradeUSD = 500
	cfg.MaxExposureUSD = 100

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when exposure cap is below max trade size")
	}
}

func TestConfig_Validate_LiveModeRequiresCredentials(t *testing.T) {
	clearEnv(t, "POLYMARKET_API_KEY", "POLYMARKET_SECRET", "POLYMARKET_PASSPHRASE", "POLYMARKET_PRIVATE_KEY")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg.ExecutionMode = "live"

	if err := cfg.Validate(); err == nil {
		t.Error("expected error for live mode missing credentials")
	}

	cfg.PolymarketAPIKey = "k"
	cfg.PolymarketSecret = "s"
	cfg.PolymarketPassphrase = "p"
	cfg.PolymarketPrivateKey = "0xdeadbeef"

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error once credentials are set, got %v", err)
	}
}

func TestConfig_Validate_CrossVenueRequiresKalshiCreds(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	cfg.ExecutionMode = "live"
	cfg.PolymarketAPIKey = "k"
	cfg.PolymarketSecret = "s"
	cfg.PolymarketPassphrase = "p"
	cfg.PolymarketPrivateKey = "0xdeadbeef"
	cfg.CrossVenueEnabled = true
	cfg.KalshiAccessKey = ""
	cfg.KalshiPrivateKey = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected error when cross-venue enabled without kalshi credentials")
	}
}
