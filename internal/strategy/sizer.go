package strategy

import (
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"go.uber.org/zap"
)

// PositionSizer converts a portfolio value into a contract count for a new
// position. Sizing is a fixed percentage of the sizing base, so whether
// entries compound is decided by what value the caller passes in.
type PositionSizer struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewPositionSizer creates a sizer from trading config.
func NewPositionSizer(cfg *config.Config, logger *zap.Logger) *PositionSizer {
	return &PositionSizer{cfg: cfg, logger: logger}
}

// Contracts returns how many contracts to buy for the given portfolio
// value and entry price, both in cents. Degenerate inputs size down to the
// configured minimum rather than erroring.
func (s *PositionSizer) Contracts(portfolioValue int64, entryPrice int) int64 {
	if portfolioValue <= 0 || entryPrice <= 0 {
		s.logger.Warn("sizing-invalid-inputs",
			zap.Int64("portfolio-value", portfolioValue),
			zap.Int("entry-price", entryPrice))
		return s.cfg.MinContracts
	}

	maxSpend := float64(portfolioValue) * s.cfg.MaxPositionPercent
	contracts := int64(maxSpend / float64(entryPrice))
	if contracts < s.cfg.MinContracts {
		contracts = s.cfg.MinContracts
	}

	s.logger.Debug("position-sized",
		zap.Int64("portfolio-value", portfolioValue),
		zap.Float64("max-spend-cents", maxSpend),
		zap.Int("entry-price", entryPrice),
		zap.Int64("contracts", contracts))
	return contracts
}

// PositionValue returns the notional cost of the position in cents.
func (s *PositionSizer) PositionValue(contracts int64, entryPrice int) int64 {
	return contracts * int64(entryPrice)
}

// Validate checks the proposed position against the min/max notional
// bounds derived from the portfolio value.
func (s *PositionSizer) Validate(contracts int64, entryPrice int, portfolioValue int64) bool {
	value := float64(s.PositionValue(contracts, entryPrice))
	minAllowed := float64(portfolioValue) * s.cfg.MinPositionPercent
	maxAllowed := float64(portfolioValue) * s.cfg.MaxPositionPercent

	if value > maxAllowed {
		s.logger.Warn("position-above-max",
			zap.Float64("value-cents", value),
			zap.Float64("max-allowed-cents", maxAllowed))
		return false
	}
	if value < minAllowed {
		s.logger.Warn("position-below-min",
			zap.Float64("value-cents", value),
			zap.Float64("min-allowed-cents", minAllowed))
		return false
	}
	return true
}
