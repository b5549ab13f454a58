package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully stops every component within a fixed budget, logging
// (but not aborting on) each component's own shutdown error.
func (a *App) Shutdown() error {
	a.logger.Info("application-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if err := a.orch.Close(); err != nil {
		a.logger.Error("orchestrator-close-error", zap.Error(err))
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}

	if err := a.obManager.Close(); err != nil {
		a.logger.Error("orderbook-manager-close-error", zap.Error(err))
	}

	if err := a.polyPool.Close(); err != nil {
		a.logger.Error("polymarket-ws-pool-close-error", zap.Error(err))
	}
	if err := a.kalshiPool.Close(); err != nil {
		a.logger.Error("kalshi-ws-pool-close-error", zap.Error(err))
	}

	a.wg.Wait()

	a.logger.Info("application-shutdown-complete")

	return nil
}
