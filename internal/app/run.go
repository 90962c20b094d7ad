package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("bot-starting",
		zap.String("category", a.cfg.MarketCategory),
		zap.Int64("liquidity-threshold-usd", a.cfg.LiquidityThresholdUSD),
		zap.Float64("probability-min", a.cfg.ProbabilityMin),
		zap.Float64("probability-max", a.cfg.ProbabilityMax),
		zap.Float64("profit-target", a.cfg.ProfitTargetPercent),
		zap.Float64("stop-loss", a.cfg.StopLossPercent),
		zap.Int("max-positions", a.cfg.MaxPositions),
		zap.Bool("compounding", a.cfg.CompoundProfits),
		zap.Bool("include-live-markets", a.cfg.IncludeLiveMarkets),
		zap.Bool("dry-run", a.cfg.DryRun))

	if a.cfg.DryRun {
		a.logger.Warn("dry-run-mode-no-orders-will-be-placed")
	}

	if err := a.portfolio.Initialize(a.ctx); err != nil {
		return fmt.Errorf("initialize portfolio: %w", err)
	}
	a.portfolio.LogStatus(a.ctx)

	a.wg.Add(1)
	go a.runHTTPServer()

	// Give the HTTP server a moment to bind
	time.Sleep(100 * time.Millisecond)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.runLoop(a.ctx)
	}()

	a.healthChecker.SetReady(true)
	a.logger.Info("bot-ready", zap.String("http-addr", ":"+a.cfg.HTTPPort))

	return a.waitForShutdown()
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
