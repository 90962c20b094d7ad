package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/probmarkets/kalshi-bot/internal/ledger"
	"github.com/probmarkets/kalshi-bot/internal/storage"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

const errorBackoff = 5 * time.Second

// runLoop is the trading loop: exits, stale-order cleanup, then entries,
// once per scan interval. Rate limiting pauses the loop; a failed
// authentication stops it.
func (a *App) runLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cycleStart := time.Now()

		if err := a.runCycle(ctx); err != nil {
			var rateErr *types.RateLimitError
			var authErr *types.AuthenticationError
			switch {
			case errors.As(err, &rateErr):
				a.logger.Warn("rate-limited-pausing-loop",
					zap.Duration("retry-after", rateErr.RetryAfter))
				if !sleepCtx(ctx, rateErr.RetryAfter) {
					return
				}
			case errors.As(err, &authErr):
				a.logger.Error("authentication-failed-stopping", zap.Error(err))
				a.cancel()
				return
			default:
				a.logger.Error("trading-cycle-error", zap.Error(err))
				if !sleepCtx(ctx, errorBackoff) {
					return
				}
			}
			continue
		}

		a.portfolio.LogStatus(ctx)

		if remaining := a.cfg.ScanInterval - time.Since(cycleStart); remaining > 0 {
			a.logger.Debug("sleeping-until-next-scan", zap.Duration("duration", remaining))
			if !sleepCtx(ctx, remaining) {
				return
			}
		}
	}
}

func (a *App) runCycle(ctx context.Context) error {
	if !a.cfg.DryRun {
		a.exitHandler.ExecuteAllExits(ctx)
	}

	if cancelled := a.orderManager.CancelStaleOrders(ctx); len(cancelled) > 0 {
		a.logger.Info("stale-orders-cancelled", zap.Int("count", len(cancelled)))
	}

	return a.scanAndEnter(ctx)
}

// scanAndEnter scans for opportunities and enters positions. Positions with
// a live exit order don't count against the limit: their capital is already
// on its way back.
func (a *App) scanAndEnter(ctx context.Context) error {
	current := a.positionMonitor.CountPositions(ctx)
	exiting := a.exitHandler.PendingExitCount()
	if current-exiting >= a.cfg.MaxPositions {
		a.logger.Info("at-position-limit-skipping-scan",
			zap.Int("open", current-exiting),
			zap.Int("limit", a.cfg.MaxPositions),
			zap.Int("exiting", exiting))
		return nil
	}

	a.scanner.SetExistingPositions(a.positionMonitor.PositionTickers(ctx))

	portfolioValue, err := a.portfolio.ValueForSizing(ctx)
	if err != nil {
		return err
	}

	var opportunities []*types.Opportunity
	err = a.scanner.ScanIter(ctx, func(opp *types.Opportunity) bool {
		opportunities = append(opportunities, opp)
		return true
	})
	if err != nil {
		return err
	}

	// Shuffle so pagination order doesn't always favor the same leagues.
	a.rng.Shuffle(len(opportunities), func(i, j int) {
		opportunities[i], opportunities[j] = opportunities[j], opportunities[i]
	})

	for _, opp := range opportunities {
		current := a.positionMonitor.CountPositions(ctx)
		exiting := a.exitHandler.PendingExitCount()
		if current-exiting >= a.cfg.MaxPositions {
			a.logger.Info("position-limit-reached-stopping-entries",
				zap.Int("open", current-exiting),
				zap.Int("limit", a.cfg.MaxPositions))
			break
		}

		signal := a.strategy.EvaluateEntry(opp, portfolioValue)
		if signal == nil {
			continue
		}

		if a.cfg.DryRun {
			a.logger.Info("dry-run-would-enter",
				zap.String("ticker", signal.Ticker),
				zap.String("side", string(signal.Side)),
				zap.Int64("contracts", signal.Contracts),
				zap.Int("price-cents", signal.EntryPrice),
				zap.String("reason", signal.Reason))
			a.dailyStats.Record(entryRecord(signal))
			continue
		}

		// Mark pending before placing so the position count stays accurate
		// while the order is in flight.
		a.positionMonitor.AddPendingEntry(signal.Ticker)
		result, err := a.orderManager.PlaceEntry(ctx, signal)
		if err != nil {
			a.positionMonitor.RemovePendingEntry(signal.Ticker)
			return err
		}
		if result == nil {
			a.positionMonitor.RemovePendingEntry(signal.Ticker)
			continue
		}

		a.recordEntry(ctx, signal, result)
	}

	return nil
}

func (a *App) recordEntry(ctx context.Context, signal *types.TradeSignal, result *types.OrderResult) {
	if err := a.tradeLedger.RecordEntry(signal); err != nil {
		a.logger.Error("entry-record-failed",
			zap.String("ticker", signal.Ticker), zap.Error(err))
	}
	a.dailyStats.Record(entryRecord(signal))
	a.mirrorTrade(ctx, &storage.TradeEvent{
		ID:         uuid.New().String(),
		Ticker:     signal.Ticker,
		Side:       signal.Side,
		Action:     types.ActionBuy,
		Contracts:  signal.Contracts,
		PriceCents: signal.EntryPrice,
		Reason:     signal.Reason,
		OrderID:    result.OrderID,
		ExecutedAt: time.Now().UTC(),
	})
}

func (a *App) mirrorTrade(ctx context.Context, event *storage.TradeEvent) {
	if err := a.store.StoreTrade(ctx, event); err != nil {
		a.logger.Error("trade-mirror-failed",
			zap.String("ticker", event.Ticker), zap.Error(err))
	}
}

func entryRecord(signal *types.TradeSignal) ledger.TradeRecord {
	return ledger.TradeRecord{
		Ticker:    signal.Ticker,
		Side:      signal.Side,
		Action:    ledger.ActionEntry,
		Contracts: signal.Contracts,
		Price:     signal.EntryPrice,
		Timestamp: time.Now(),
	}
}

// exitRecorder feeds executed exits into the ledger, the daily stats, and
// the storage mirror. The exit handler calls it only after a live exit
// order is placed.
type exitRecorder struct {
	app *App
}

func (r *exitRecorder) RecordExit(signal *types.ExitSignal, orderID string) error {
	a := r.app

	a.dailyStats.Record(ledger.TradeRecord{
		Ticker:    signal.Ticker,
		Side:      signal.Side,
		Action:    ledger.ActionExit,
		Contracts: signal.Contracts,
		Price:     signal.ExitPrice,
		Timestamp: time.Now(),
	})
	a.mirrorTrade(a.ctx, &storage.TradeEvent{
		ID:         uuid.New().String(),
		Ticker:     signal.Ticker,
		Side:       signal.Side,
		Action:     types.ActionSell,
		Contracts:  signal.Contracts,
		PriceCents: signal.ExitPrice,
		Reason:     signal.Reason,
		OrderID:    orderID,
		ExecutedAt: time.Now().UTC(),
	})

	return a.tradeLedger.RecordExit(signal, orderID)
}

// sleepCtx sleeps for d or until the context is done. Returns false when
// the context ended the sleep.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
