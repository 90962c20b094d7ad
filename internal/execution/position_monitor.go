package execution

import (
	"context"
	"sync"

	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// PositionClient is the slice of the venue gateway the monitor needs.
type PositionClient interface {
	GetPositions(ctx context.Context) ([]kalshi.MarketPosition, error)
	GetFills(ctx context.Context, ticker string) ([]types.Fill, error)
	GetMarket(ctx context.Context, ticker string) (*types.Market, error)
	GetMarketCached(ctx context.Context, ticker string) (*types.Market, error)
}

// PositionMonitor reads open positions from the venue and prices them for
// P&L. The positions endpoint is the source of truth: an empty read means
// the portfolio is flat, not that the read failed. Only a failed read
// falls back to the last good snapshot.
//
// Pending entry tickers are tracked here so position-count checks can't
// race the window between order placement and the venue reflecting the
// fill.
type PositionMonitor struct {
	client PositionClient
	logger *zap.Logger

	mu             sync.Mutex
	lastPositions  []*types.Position
	pendingEntries map[string]struct{}
}

// NewPositionMonitor creates a monitor.
func NewPositionMonitor(client PositionClient, logger *zap.Logger) *PositionMonitor {
	return &PositionMonitor{
		client:         client,
		logger:         logger,
		pendingEntries: make(map[string]struct{}),
	}
}

// AddPendingEntry records a ticker with an in-flight entry order.
func (pm *PositionMonitor) AddPendingEntry(ticker string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.pendingEntries[ticker] = struct{}{}
}

// RemovePendingEntry drops a ticker from pending entries.
func (pm *PositionMonitor) RemovePendingEntry(ticker string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.pendingEntries, ticker)
}

// GetPositions fetches open positions, priced with a current market quote.
// On a read error the last good snapshot is returned so one transient
// failure doesn't make the portfolio look flat.
func (pm *PositionMonitor) GetPositions(ctx context.Context) []*types.Position {
	raw, err := pm.client.GetPositions(ctx)
	if err != nil {
		pm.logger.Error("positions-fetch-failed", zap.Error(err))
		pm.mu.Lock()
		defer pm.mu.Unlock()
		return pm.lastPositions
	}

	positions := make([]*types.Position, 0, len(raw))
	for _, p := range raw {
		pos := pm.buildPosition(ctx, p)
		if pos != nil {
			positions = append(positions, pos)
		}
	}

	pm.mu.Lock()
	pm.lastPositions = positions
	// A ticker showing as a real position no longer needs pending-entry
	// protection.
	for _, pos := range positions {
		delete(pm.pendingEntries, pos.Ticker)
	}
	pm.mu.Unlock()

	OpenPositions.Set(float64(len(positions)))
	for _, pos := range positions {
		pm.logger.Debug("position",
			zap.String("ticker", pos.Ticker),
			zap.String("side", string(pos.Side)),
			zap.Int64("contracts", pos.Contracts),
			zap.Float64("avg-entry", pos.AverageEntryPrice),
			zap.Float64("current-price", pos.CurrentPrice),
			zap.Float64("pnl-percent", pos.UnrealizedPnLPercent()))
	}
	return positions
}

// buildPosition converts a raw venue position. Side comes from the sign of
// the contract count, the entry price from exposure over contracts, and
// the mark from a (cached) market quote. A failed quote marks the position
// at entry so its P&L reads flat rather than wrong.
func (pm *PositionMonitor) buildPosition(ctx context.Context, p kalshi.MarketPosition) *types.Position {
	contracts := p.Contracts
	side := types.SideYes
	if contracts < 0 {
		side = types.SideNo
		contracts = -contracts
	}
	if contracts == 0 {
		return nil
	}

	exposure := p.MarketExposure
	if exposure < 0 {
		exposure = -exposure
	}
	avgEntry := float64(exposure) / float64(contracts)

	currentPrice := avgEntry
	var volume int64
	if market, err := pm.client.GetMarketCached(ctx, p.Ticker); err == nil {
		if side == types.SideYes {
			currentPrice = float64(market.YesPrice())
		} else {
			currentPrice = float64(market.NoPrice())
		}
		volume = market.Volume
	} else {
		pm.logger.Debug("position-price-fallback",
			zap.String("ticker", p.Ticker), zap.Error(err))
	}

	return &types.Position{
		Ticker:            p.Ticker,
		Side:              side,
		Contracts:         contracts,
		AverageEntryPrice: avgEntry,
		CurrentPrice:      currentPrice,
		Volume:            volume,
	}
}

// ReconstructFromFills rebuilds net positions from fill history. This is a
// diagnostic path for when the positions endpoint is suspect: it nets buys
// against sells per ticker and side, and skips settled markets.
func (pm *PositionMonitor) ReconstructFromFills(ctx context.Context) ([]*types.Position, error) {
	fills, err := pm.client.GetFills(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(fills) == 0 {
		return nil, nil
	}

	type agg struct {
		bought  int64
		sold    int64
		buyCost int64
	}
	byKey := make(map[string]map[types.Side]*agg)

	for _, f := range fills {
		sides, ok := byKey[f.Ticker]
		if !ok {
			sides = map[types.Side]*agg{
				types.SideYes: {},
				types.SideNo:  {},
			}
			byKey[f.Ticker] = sides
		}
		a := sides[f.Side]
		if f.Action == types.ActionBuy {
			a.bought += f.Count
			a.buyCost += f.Count * int64(f.Price)
		} else {
			a.sold += f.Count
		}
	}

	var positions []*types.Position
	for ticker, sides := range byKey {
		for side, a := range sides {
			net := a.bought - a.sold
			if net <= 0 {
				continue
			}

			market, err := pm.client.GetMarket(ctx, ticker)
			if err != nil {
				pm.logger.Debug("reconstruct-skip-market",
					zap.String("ticker", ticker), zap.Error(err))
				continue
			}
			if market.Status.IsTerminal() {
				pm.logger.Debug("reconstruct-skip-settled",
					zap.String("ticker", ticker),
					zap.String("status", string(market.Status)))
				continue
			}

			avgEntry := float64(a.buyCost) / float64(a.bought)
			currentPrice := float64(market.YesPrice())
			if side == types.SideNo {
				currentPrice = float64(market.NoPrice())
			}

			positions = append(positions, &types.Position{
				Ticker:            ticker,
				Side:              side,
				Contracts:         net,
				AverageEntryPrice: avgEntry,
				CurrentPrice:      currentPrice,
				Volume:            market.Volume,
			})
		}
	}
	return positions, nil
}

// PositionTickers returns tickers for all open positions plus pending
// entries.
func (pm *PositionMonitor) PositionTickers(ctx context.Context) []string {
	positions := pm.GetPositions(ctx)

	pm.mu.Lock()
	defer pm.mu.Unlock()

	seen := make(map[string]struct{}, len(positions)+len(pm.pendingEntries))
	out := make([]string, 0, len(positions)+len(pm.pendingEntries))
	for _, p := range positions {
		if _, ok := seen[p.Ticker]; !ok {
			seen[p.Ticker] = struct{}{}
			out = append(out, p.Ticker)
		}
	}
	for t := range pm.pendingEntries {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// GetPosition returns one position by ticker, or nil.
func (pm *PositionMonitor) GetPosition(ctx context.Context, ticker string) *types.Position {
	for _, p := range pm.GetPositions(ctx) {
		if p.Ticker == ticker {
			return p
		}
	}
	return nil
}

// TotalUnrealizedPnL sums unrealized P&L across positions, in cents.
func (pm *PositionMonitor) TotalUnrealizedPnL(ctx context.Context) int64 {
	var total int64
	for _, p := range pm.GetPositions(ctx) {
		total += int64(p.UnrealizedPnL())
	}
	return total
}

// TotalPositionValue sums current position value, in cents.
func (pm *PositionMonitor) TotalPositionValue(ctx context.Context) int64 {
	var total int64
	for _, p := range pm.GetPositions(ctx) {
		total += int64(p.CurrentValue())
	}
	return total
}

// CountPositions counts confirmed positions plus pending entries not yet
// visible on the venue, which is what the max-positions cap must compare
// against to avoid over-entering between placement and the next refresh.
func (pm *PositionMonitor) CountPositions(ctx context.Context) int {
	positions := pm.GetPositions(ctx)

	pm.mu.Lock()
	defer pm.mu.Unlock()

	confirmed := make(map[string]struct{}, len(positions))
	for _, p := range positions {
		confirmed[p.Ticker] = struct{}{}
	}
	extraPending := 0
	for t := range pm.pendingEntries {
		if _, ok := confirmed[t]; !ok {
			extraPending++
		}
	}

	total := len(positions) + extraPending
	pm.logger.Debug("position-count",
		zap.Int("confirmed", len(positions)),
		zap.Int("pending", extraPending),
		zap.Int("total", total))
	return total
}
