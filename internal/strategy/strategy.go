package strategy

import (
	"fmt"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// HighProbability enters markets priced near certainty and exits at a
// small profit target, collecting the spread between the entry price and
// settlement.
//
// Entry: opportunity already passed the scanner's filters; size it and
// check the notional bounds.
// Exit: profit target first, then the optional stop-loss. The stop-loss
// only fires on markets with real volume because thin books swing enough
// to trigger it spuriously.
type HighProbability struct {
	cfg    *config.Config
	sizer  *PositionSizer
	logger *zap.Logger
}

// New creates the strategy.
func New(cfg *config.Config, logger *zap.Logger) *HighProbability {
	return &HighProbability{
		cfg:    cfg,
		sizer:  NewPositionSizer(cfg, logger),
		logger: logger,
	}
}

// EvaluateEntry sizes an opportunity against the portfolio value (cents)
// and returns a trade signal, or nil when the position can't be sized
// within bounds.
func (h *HighProbability) EvaluateEntry(opp *types.Opportunity, portfolioValue int64) *types.TradeSignal {
	contracts := h.sizer.Contracts(portfolioValue, opp.EntryPrice)
	if contracts <= 0 {
		h.logger.Warn("entry-insufficient-funds", zap.String("ticker", opp.Market.Ticker))
		return nil
	}

	if !h.sizer.Validate(contracts, opp.EntryPrice, portfolioValue) {
		return nil
	}

	signal := &types.TradeSignal{
		Ticker:     opp.Market.Ticker,
		Side:       opp.Side,
		EntryPrice: opp.EntryPrice,
		Contracts:  contracts,
		Reason: fmt.Sprintf("high probability %.1f%% (liquidity $%.2f)",
			opp.Probability*100, float64(opp.Liquidity)/100),
	}

	h.logger.Info("entry-signal",
		zap.String("ticker", signal.Ticker),
		zap.String("side", string(signal.Side)),
		zap.Int64("contracts", signal.Contracts),
		zap.Int("entry-price", signal.EntryPrice))
	return signal
}

// EvaluateExit returns an exit signal for the position, or nil to hold.
func (h *HighProbability) EvaluateExit(pos *types.Position) *types.ExitSignal {
	pnlPercent := pos.UnrealizedPnLPercent()

	if pnlPercent >= h.cfg.ProfitTargetPercent {
		h.logger.Info("exit-signal-profit-target",
			zap.String("ticker", pos.Ticker),
			zap.Float64("pnl-percent", pnlPercent),
			zap.Float64("target", h.cfg.ProfitTargetPercent))
		return &types.ExitSignal{
			Ticker:    pos.Ticker,
			Side:      pos.Side,
			Contracts: pos.Contracts,
			ExitPrice: int(pos.CurrentPrice),
			Reason:    "profit_target",
		}
	}

	if h.cfg.StopLossPercent > 0 && pnlPercent <= -h.cfg.StopLossPercent {
		if pos.Volume >= h.cfg.StopLossMinVolume {
			h.logger.Info("exit-signal-stop-loss",
				zap.String("ticker", pos.Ticker),
				zap.Float64("pnl-percent", pnlPercent),
				zap.Int64("volume", pos.Volume))
			return &types.ExitSignal{
				Ticker:    pos.Ticker,
				Side:      pos.Side,
				Contracts: pos.Contracts,
				ExitPrice: int(pos.CurrentPrice),
				Reason:    "stop_loss",
			}
		}
		h.logger.Debug("stop-loss-skipped-low-volume",
			zap.String("ticker", pos.Ticker),
			zap.Int64("volume", pos.Volume),
			zap.Int64("min-volume", h.cfg.StopLossMinVolume))
	}

	return nil
}

// ShouldExit reports whether the position has an active exit signal.
func (h *HighProbability) ShouldExit(pos *types.Position) bool {
	return h.EvaluateExit(pos) != nil
}
