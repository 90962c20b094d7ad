package execution

import (
	"context"
	"sync"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// ExitStrategy decides when a position should be closed.
type ExitStrategy interface {
	EvaluateExit(pos *types.Position) *types.ExitSignal
}

// ExitRecorder persists completed exit orders to the trade ledger.
type ExitRecorder interface {
	RecordExit(signal *types.ExitSignal, orderID string) error
}

// ExitHandler closes positions the strategy flags. Each ticker gets at
// most one live exit order: once an exit is placed the ticker joins the
// pending set and is skipped until the position disappears from the
// authoritative positions read, which is the only removal path.
type ExitHandler struct {
	orders   *OrderManager
	monitor  *PositionMonitor
	strategy ExitStrategy
	recorder ExitRecorder
	cfg      *config.Config
	logger   *zap.Logger

	mu           sync.Mutex
	pendingExits map[string]struct{}
}

// NewExitHandler creates an exit handler. recorder may be nil to skip
// ledger writes (dry-run).
func NewExitHandler(orders *OrderManager, monitor *PositionMonitor, strategy ExitStrategy, recorder ExitRecorder, cfg *config.Config, logger *zap.Logger) *ExitHandler {
	return &ExitHandler{
		orders:       orders,
		monitor:      monitor,
		strategy:     strategy,
		recorder:     recorder,
		cfg:          cfg,
		logger:       logger,
		pendingExits: make(map[string]struct{}),
	}
}

// CheckExits returns exit signals for positions without a pending exit.
func (eh *ExitHandler) CheckExits(ctx context.Context) []*types.ExitSignal {
	positions := eh.monitor.GetPositions(ctx)

	eh.mu.Lock()
	pending := make(map[string]struct{}, len(eh.pendingExits))
	for t := range eh.pendingExits {
		pending[t] = struct{}{}
	}
	eh.mu.Unlock()

	var signals []*types.ExitSignal
	for _, pos := range positions {
		if _, ok := pending[pos.Ticker]; ok {
			eh.logger.Debug("exit-already-pending", zap.String("ticker", pos.Ticker))
			continue
		}
		if signal := eh.strategy.EvaluateExit(pos); signal != nil {
			signals = append(signals, signal)
		}
	}

	if len(signals) > 0 {
		eh.logger.Info("exits-found", zap.Int("count", len(signals)))
	}
	return signals
}

// ExecuteExit places the exit order. Only a successfully placed order adds
// the ticker to the pending set and writes the ledger line.
func (eh *ExitHandler) ExecuteExit(ctx context.Context, signal *types.ExitSignal) (*types.OrderResult, error) {
	eh.logger.Info("executing-exit",
		zap.String("ticker", signal.Ticker),
		zap.String("side", string(signal.Side)),
		zap.Int64("contracts", signal.Contracts),
		zap.Int("exit-price", signal.ExitPrice),
		zap.String("reason", signal.Reason))

	result, err := eh.orders.PlaceExit(ctx, signal.Ticker, signal.Side, signal.Contracts, signal.ExitPrice)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	eh.mu.Lock()
	eh.pendingExits[signal.Ticker] = struct{}{}
	eh.mu.Unlock()

	ExitsExecuted.WithLabelValues(signal.Reason).Inc()
	if eh.recorder != nil {
		if err := eh.recorder.RecordExit(signal, result.OrderID); err != nil {
			eh.logger.Error("exit-record-failed",
				zap.String("ticker", signal.Ticker), zap.Error(err))
		}
	}
	return result, nil
}

// ExecuteAllExits runs one full exit pass: clear pending exits whose
// positions are gone, then evaluate and place new exits.
func (eh *ExitHandler) ExecuteAllExits(ctx context.Context) []*types.OrderResult {
	current := make(map[string]struct{})
	for _, p := range eh.monitor.GetPositions(ctx) {
		current[p.Ticker] = struct{}{}
	}

	eh.mu.Lock()
	var closed []string
	for t := range eh.pendingExits {
		if _, ok := current[t]; !ok {
			closed = append(closed, t)
			delete(eh.pendingExits, t)
		}
	}
	eh.mu.Unlock()
	if len(closed) > 0 {
		eh.logger.Info("exit-orders-filled", zap.Strings("tickers", closed))
	}

	var results []*types.OrderResult
	for _, signal := range eh.CheckExits(ctx) {
		result, err := eh.ExecuteExit(ctx, signal)
		if err != nil {
			eh.logger.Error("exit-failed",
				zap.String("ticker", signal.Ticker), zap.Error(err))
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results
}

// PendingExitCount returns the number of positions with a live exit order.
func (eh *ExitHandler) PendingExitCount() int {
	eh.mu.Lock()
	defer eh.mu.Unlock()
	return len(eh.pendingExits)
}

// ForceExit closes a position at the current mark regardless of P&L.
func (eh *ExitHandler) ForceExit(ctx context.Context, ticker string) (*types.OrderResult, error) {
	pos := eh.monitor.GetPosition(ctx, ticker)
	if pos == nil {
		eh.logger.Warn("force-exit-no-position", zap.String("ticker", ticker))
		return nil, nil
	}

	return eh.ExecuteExit(ctx, &types.ExitSignal{
		Ticker:    pos.Ticker,
		Side:      pos.Side,
		Contracts: pos.Contracts,
		ExitPrice: int(pos.CurrentPrice),
		Reason:    "manual",
	})
}

// PositionsAtTarget returns positions at or above the profit target.
func (eh *ExitHandler) PositionsAtTarget(ctx context.Context) []*types.Position {
	var out []*types.Position
	for _, p := range eh.monitor.GetPositions(ctx) {
		if p.UnrealizedPnLPercent() >= eh.cfg.ProfitTargetPercent {
			out = append(out, p)
		}
	}
	return out
}

// PositionsAtStop returns positions past the stop-loss with enough volume
// to trust the mark. Empty when the stop-loss is disabled.
func (eh *ExitHandler) PositionsAtStop(ctx context.Context) []*types.Position {
	if eh.cfg.StopLossPercent <= 0 {
		return nil
	}
	var out []*types.Position
	for _, p := range eh.monitor.GetPositions(ctx) {
		if p.UnrealizedPnLPercent() <= -eh.cfg.StopLossPercent && p.Volume >= eh.cfg.StopLossMinVolume {
			out = append(out, p)
		}
	}
	return out
}
