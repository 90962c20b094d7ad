package types

import "time"

// Position is open exposure in one market. Contracts is positive while the
// position is held and the side is fixed for its lifetime.
type Position struct {
	Ticker            string
	Side              Side
	Contracts         int64
	AverageEntryPrice float64 // cents
	CurrentPrice      float64 // cents
	Volume            int64   // market volume, used to gate stop-loss exits
}

// EntryCost is the total cost to enter the position in cents.
func (p *Position) EntryCost() float64 {
	return p.AverageEntryPrice * float64(p.Contracts)
}

// CurrentValue is the mark-to-market value of the position in cents.
func (p *Position) CurrentValue() float64 {
	return p.CurrentPrice * float64(p.Contracts)
}

// UnrealizedPnL is the mark-to-market P&L in cents.
func (p *Position) UnrealizedPnL() float64 {
	return p.CurrentValue() - p.EntryCost()
}

// UnrealizedPnLPercent is the P&L as a fraction of entry cost.
func (p *Position) UnrealizedPnLPercent() float64 {
	cost := p.EntryCost()
	if cost == 0 {
		return 0
	}
	return p.UnrealizedPnL() / cost
}

// PortfolioSnapshot is the portfolio state at a point in time, in cents.
type PortfolioSnapshot struct {
	Timestamp      time.Time
	CashBalance    int64
	PositionsValue int64
	UnrealizedPnL  int64
	RealizedPnL    int64
}

// TotalValue is cash plus open positions.
func (s *PortfolioSnapshot) TotalValue() int64 {
	return s.CashBalance + s.PositionsValue
}

// TotalPnL is realized plus unrealized P&L.
func (s *PortfolioSnapshot) TotalPnL() int64 {
	return s.RealizedPnL + s.UnrealizedPnL
}

// Fill is a single execution report from the venue's fill history.
type Fill struct {
	Ticker    string
	Side      Side
	Action    OrderAction
	Count     int64
	Price     int // YES-side price in cents
	CreatedAt time.Time
}
