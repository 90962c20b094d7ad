package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// BalanceClient provides the cash balance from the venue.
type BalanceClient interface {
	GetBalance(ctx context.Context) (int64, error)
}

// PositionBook provides aggregate open-position state.
type PositionBook interface {
	TotalPositionValue(ctx context.Context) int64
	TotalUnrealizedPnL(ctx context.Context) int64
	CountPositions(ctx context.Context) int
}

// Tracker tracks portfolio state across cash, positions, and P&L. It feeds
// position sizing (fixed initial bankroll or compounding on current value)
// and the max-concurrent-positions check.
type Tracker struct {
	client   BalanceClient
	book     PositionBook
	cfg      *config.Config
	logger   *zap.Logger
	compound *CompoundCalculator

	mu             sync.Mutex
	initialBalance int64
	initialized    bool
	realizedPnL    int64
}

// New creates a portfolio tracker.
func New(client BalanceClient, book PositionBook, cfg *config.Config, logger *zap.Logger) *Tracker {
	return &Tracker{
		client: client,
		book:   book,
		cfg:    cfg,
		logger: logger,
	}
}

// Initialize records the starting balance used for fixed-bankroll sizing
// and seeds the compound calculator.
func (t *Tracker) Initialize(ctx context.Context) error {
	balance, err := t.client.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("fetch initial balance: %w", err)
	}

	t.mu.Lock()
	t.initialBalance = balance
	t.initialized = true
	t.compound = NewCompoundCalculator(balance)
	t.mu.Unlock()

	t.logger.Info("portfolio-initialized",
		zap.Float64("balance-usd", float64(balance)/100))

	CashBalance.Set(float64(balance))
	return nil
}

// CashBalance returns the current cash balance in cents.
func (t *Tracker) CashBalance(ctx context.Context) (int64, error) {
	balance, err := t.client.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	CashBalance.Set(float64(balance))
	return balance, nil
}

// PositionsValue returns the total value of open positions in cents.
func (t *Tracker) PositionsValue(ctx context.Context) int64 {
	return t.book.TotalPositionValue(ctx)
}

// TotalValue returns cash plus open position value in cents.
func (t *Tracker) TotalValue(ctx context.Context) (int64, error) {
	cash, err := t.CashBalance(ctx)
	if err != nil {
		return 0, err
	}
	total := cash + t.PositionsValue(ctx)
	TotalValue.Set(float64(total))
	return total, nil
}

// ValueForSizing returns the portfolio value position sizing should use.
// With compounding on, that is the current total value; otherwise the
// balance recorded at startup.
func (t *Tracker) ValueForSizing(ctx context.Context) (int64, error) {
	if t.cfg.CompoundProfits {
		return t.TotalValue(ctx)
	}

	t.mu.Lock()
	initialized := t.initialized
	initial := t.initialBalance
	t.mu.Unlock()

	if !initialized {
		if err := t.Initialize(ctx); err != nil {
			return 0, err
		}
		t.mu.Lock()
		initial = t.initialBalance
		t.mu.Unlock()
	}
	return initial, nil
}

// RecordRealizedPnL records P&L from a closed position, in cents.
func (t *Tracker) RecordRealizedPnL(pnl int64) {
	t.mu.Lock()
	t.realizedPnL += pnl
	total := t.realizedPnL
	if t.compound != nil {
		t.compound.RecordTrade(pnl)
	}
	t.mu.Unlock()

	t.logger.Info("realized-pnl-recorded",
		zap.Float64("pnl-usd", float64(pnl)/100),
		zap.Float64("total-usd", float64(total)/100))
}

// RealizedPnL returns total realized P&L in cents.
func (t *Tracker) RealizedPnL() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.realizedPnL
}

// GetSnapshot returns the current portfolio state. A balance fetch failure
// is reported; position values fall back to the last known snapshot inside
// the position book.
func (t *Tracker) GetSnapshot(ctx context.Context) (types.PortfolioSnapshot, error) {
	cash, err := t.CashBalance(ctx)
	if err != nil {
		return types.PortfolioSnapshot{}, err
	}

	t.mu.Lock()
	realized := t.realizedPnL
	t.mu.Unlock()

	return types.PortfolioSnapshot{
		Timestamp:      time.Now().UTC(),
		CashBalance:    cash,
		PositionsValue: t.book.TotalPositionValue(ctx),
		UnrealizedPnL:  t.book.TotalUnrealizedPnL(ctx),
		RealizedPnL:    realized,
	}, nil
}

// CanOpenPosition reports whether the open-position count is under the
// configured maximum.
func (t *Tracker) CanOpenPosition(ctx context.Context) bool {
	current := t.book.CountPositions(ctx)
	if current >= t.cfg.MaxPositions {
		t.logger.Debug("position-limit-reached",
			zap.Int("current", current),
			zap.Int("limit", t.cfg.MaxPositions))
		return false
	}
	return true
}

// CompoundStats returns growth metrics since startup, or false before
// Initialize has run.
func (t *Tracker) CompoundStats(ctx context.Context) (CompoundStats, bool) {
	t.mu.Lock()
	calc := t.compound
	t.mu.Unlock()
	if calc == nil {
		return CompoundStats{}, false
	}

	total, err := t.TotalValue(ctx)
	if err != nil {
		return CompoundStats{}, false
	}
	return calc.Stats(total), true
}

// LogStatus logs a one-line portfolio summary.
func (t *Tracker) LogStatus(ctx context.Context) {
	snap, err := t.GetSnapshot(ctx)
	if err != nil {
		t.logger.Warn("portfolio-status-unavailable", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Float64("cash-usd", float64(snap.CashBalance)/100),
		zap.Float64("positions-usd", float64(snap.PositionsValue)/100),
		zap.Int("open-positions", t.book.CountPositions(ctx)),
		zap.Float64("total-usd", float64(snap.TotalValue())/100),
		zap.Float64("pnl-usd", float64(snap.TotalPnL())/100),
	}

	t.mu.Lock()
	calc := t.compound
	t.mu.Unlock()
	if calc != nil {
		stats := calc.Stats(snap.TotalValue())
		fields = append(fields, zap.Float64("growth-pct", stats.GrowthRate()*100))
	}

	t.logger.Info("portfolio-status", fields...)
}
