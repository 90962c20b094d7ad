package portfolio

import "sync"

// CompoundStats holds growth metrics over a trading session, values in cents.
type CompoundStats struct {
	InitialValue  int64
	CurrentValue  int64
	TotalTrades   int
	WinningTrades int
	TotalProfit   int64
}

// GrowthRate returns total growth as a fraction (0.15 = 15% growth).
func (s CompoundStats) GrowthRate() float64 {
	if s.InitialValue == 0 {
		return 0
	}
	return float64(s.CurrentValue-s.InitialValue) / float64(s.InitialValue)
}

// WinRate returns the fraction of closed trades that were profitable.
func (s CompoundStats) WinRate() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.WinningTrades) / float64(s.TotalTrades)
}

// AvgProfitPerTrade returns average P&L per closed trade in cents.
func (s CompoundStats) AvgProfitPerTrade() float64 {
	if s.TotalTrades == 0 {
		return 0
	}
	return float64(s.TotalProfit) / float64(s.TotalTrades)
}

// CompoundCalculator tracks per-trade P&L against an initial bankroll so
// the bot can report compound growth over a session.
type CompoundCalculator struct {
	mu           sync.Mutex
	initialValue int64
	trades       []int64
}

// NewCompoundCalculator creates a calculator anchored to the starting value.
func NewCompoundCalculator(initialValue int64) *CompoundCalculator {
	return &CompoundCalculator{initialValue: initialValue}
}

// RecordTrade records the P&L of a completed round trip, in cents.
func (c *CompoundCalculator) RecordTrade(pnl int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = append(c.trades, pnl)
}

// Stats returns metrics given the current portfolio value.
func (c *CompoundCalculator) Stats(currentValue int64) CompoundStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var winning int
	var profit int64
	for _, pnl := range c.trades {
		if pnl > 0 {
			winning++
		}
		profit += pnl
	}

	return CompoundStats{
		InitialValue:  c.initialValue,
		CurrentValue:  currentValue,
		TotalTrades:   len(c.trades),
		WinningTrades: winning,
		TotalProfit:   profit,
	}
}

// Multiplier returns current value over initial value (1.15 = 15% growth).
func (c *CompoundCalculator) Multiplier(currentValue int64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialValue == 0 {
		return 1
	}
	return float64(currentValue) / float64(c.initialValue)
}

// ProjectValue projects a future portfolio value by extending the average
// per-trade profit over a number of future trades. A rough linear estimate,
// not true compounding.
func (c *CompoundCalculator) ProjectValue(currentValue int64, targetTrades int) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.trades) == 0 || targetTrades <= 0 {
		return currentValue
	}

	var total int64
	for _, pnl := range c.trades {
		total += pnl
	}
	avg := float64(total) / float64(len(c.trades))

	projected := currentValue + int64(avg*float64(targetTrades))
	if projected < 0 {
		return 0
	}
	return projected
}

// Reset rebases the calculator on a new initial value and clears trades.
func (c *CompoundCalculator) Reset(newInitial int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialValue = newInitial
	c.trades = nil
}
