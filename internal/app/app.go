// Package app wires every component the cycle orchestrator depends on
// (venue adapters, WS pools, order book cache, dependency graph, execution
// engine, circuit breaker, storage) and owns the process's start/stop
// lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/mselser95/polymarket-arb/internal/circuitbreaker"
	"github.com/mselser95/polymarket-arb/internal/dependency"
	"github.com/mselser95/polymarket-arb/internal/execution"
	"github.com/mselser95/polymarket-arb/internal/orchestrator"
	"github.com/mselser95/polymarket-arb/internal/orderbook"
	"github.com/mselser95/polymarket-arb/internal/storage"
	"github.com/mselser95/polymarket-arb/pkg/config"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
	"github.com/mselser95/polymarket-arb/pkg/wallet"
	"github.com/mselser95/polymarket-arb/pkg/websocket"
	"go.uber.org/zap"
)

// App is the process-level composition root.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	polyPool   *websocket.Pool
	kalshiPool *websocket.Pool
	obManager  *orderbook.Manager
	updateChan chan orderbook.Update

	depGraph      *dependency.Graph
	engine        *execution.Engine
	breaker       *circuitbreaker.BalanceCircuitBreaker
	walletTracker *wallet.Tracker
	store         storage.Storage
	orch          *orchestrator.Orchestrator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options holds CLI flag overrides applied on top of config.Config
// defaults. MaxTradeUSD and CycleInterval are applied directly to the
// config before New is called; these three feed the orchestrator instead,
// each replacing the orchestrator's value only when it is positive.
type Options struct {
	MaxMarkets   int
	MinProfitUSD float64
	FWMaxIters   int
}
