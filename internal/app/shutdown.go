package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Shutdown gracefully shuts down the application and prints the daily
// summary.
func (a *App) Shutdown() error {
	a.logger.Info("bot-shutting-down")

	a.healthChecker.SetReady(false)
	a.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	// Wait for the trading loop to finish its cycle
	a.wg.Wait()

	openPositions := a.positionMonitor.CountPositions(shutdownCtx)
	a.dailyStats.LogSummary(a.logger, openPositions)

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage-close-error", zap.Error(err))
	}
	a.marketCache.Close()

	a.logger.Info("bot-shutdown-complete")
	return nil
}
