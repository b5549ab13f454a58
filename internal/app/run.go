package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/polymarket-arb/internal/venue/kalshi"
	"github.com/mselser95/polymarket-arb/internal/venue/polymarket"
	"go.uber.org/zap"
)

// Run starts every component and blocks until an OS signal or context
// cancellation triggers Shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("mode", a.cfg.ExecutionMode),
		zap.Float64("min-profit-usd", a.cfg.MinProfitUSD),
		zap.String("log-level", a.cfg.LogLevel))

	if err := a.startComponents(); err != nil {
		return err
	}

	a.healthChecker.SetReady(true)

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
}

func (a *App) startComponents() error {
	a.wg.Add(1)
	go a.runHTTPServer()

	// Give the HTTP server a moment to bind before other components start
	// reporting through it.
	time.Sleep(100 * time.Millisecond)

	if err := a.polyPool.Start(); err != nil {
		return fmt.Errorf("start polymarket ws pool: %w", err)
	}
	if err := a.kalshiPool.Start(); err != nil {
		return fmt.Errorf("start kalshi ws pool: %w", err)
	}

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		pumpDecoded(a.ctx, a.polyPool, polymarket.Decode, a.updateChan)
	}()
	go func() {
		defer a.wg.Done()
		pumpDecoded(a.ctx, a.kalshiPool, kalshi.Decode, a.updateChan)
	}()

	if err := a.obManager.Start(a.ctx); err != nil {
		return fmt.Errorf("start orderbook manager: %w", err)
	}

	if a.breaker != nil {
		a.breaker.Start(a.ctx)
	}

	if a.walletTracker != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.walletTracker.Run(a.ctx); err != nil && err != context.Canceled {
				a.logger.Error("wallet-tracker-error", zap.Error(err))
			}
		}()
	}

	if err := a.orch.Start(a.ctx); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}

	return nil
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
