package ledger

import (
	"testing"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
)

func trade(ticker string, action TradeAction, contracts int64, price int, at time.Time) TradeRecord {
	return TradeRecord{
		Ticker:    ticker,
		Side:      types.SideYes,
		Action:    action,
		Contracts: contracts,
		Price:     price,
		Timestamp: at,
	}
}

func TestRoundTripsFIFOMatching(t *testing.T) {
	d := NewDailyStats()
	base := time.Now().Add(-time.Hour)

	// Two entry lots, one exit spanning both plus unmatched overhang:
	// 10 @ 40c, then 5 @ 50c, exit 12 @ 70c.
	d.Record(trade("KXAAA-26-X", ActionEntry, 10, 40, base))
	d.Record(trade("KXAAA-26-X", ActionEntry, 5, 50, base.Add(time.Minute)))
	d.Record(trade("KXAAA-26-X", ActionExit, 12, 70, base.Add(2*time.Minute)))

	trips := d.RoundTrips()
	if len(trips) != 1 {
		t.Fatalf("trips = %+v, want 1", trips)
	}

	rt := trips[0]
	if rt.Contracts != 12 {
		t.Errorf("contracts = %d, want 12", rt.Contracts)
	}
	// 10 @ 40 + 2 @ 50 = 500 cents cost.
	if rt.EntryCost != 500 {
		t.Errorf("entry cost = %d, want 500", rt.EntryCost)
	}
	if rt.ExitRevenue != 840 {
		t.Errorf("revenue = %d, want 840", rt.ExitRevenue)
	}
	if rt.PnL != 340 {
		t.Errorf("pnl = %d, want 340", rt.PnL)
	}

	// 3 contracts remain open at 50c; a later exit drains them.
	d.Record(trade("KXAAA-26-X", ActionExit, 3, 60, base.Add(3*time.Minute)))
	trips = d.RoundTrips()
	if len(trips) != 2 {
		t.Fatalf("trips = %d, want 2", len(trips))
	}
	if trips[1].EntryCost != 150 || trips[1].PnL != 30 {
		t.Errorf("second trip = %+v, want cost 150 pnl 30", trips[1])
	}
}

func TestRoundTripsExitWithoutEntry(t *testing.T) {
	d := NewDailyStats()
	// Exit on a position opened before today: nothing to match against.
	d.Record(trade("KXAAA-26-X", ActionExit, 10, 70, time.Now()))

	if trips := d.RoundTrips(); len(trips) != 0 {
		t.Fatalf("trips = %+v, want none", trips)
	}
}

func TestRoundTripsPerTickerIsolation(t *testing.T) {
	d := NewDailyStats()
	base := time.Now().Add(-time.Hour)

	d.Record(trade("KXAAA-26-X", ActionEntry, 10, 40, base))
	d.Record(trade("KXBBB-26-Y", ActionExit, 10, 70, base.Add(time.Minute)))

	// The exit is on a different ticker; KXAAA's lot must stay open.
	if trips := d.RoundTrips(); len(trips) != 0 {
		t.Fatalf("trips = %+v, want none across tickers", trips)
	}
}

func TestSummarize(t *testing.T) {
	d := NewDailyStats()
	base := time.Now().Add(-time.Hour)

	d.Record(trade("KXAAA-26-X", ActionEntry, 10, 40, base))
	d.Record(trade("KXAAA-26-X", ActionEntry, 5, 50, base.Add(time.Minute)))
	d.Record(trade("KXAAA-26-X", ActionExit, 12, 70, base.Add(2*time.Minute)))
	d.Record(trade("KXBBB-26-Y", ActionEntry, 20, 85, base.Add(3*time.Minute)))

	s := d.Summarize(1)

	if s.RealizedPnL != 340 {
		t.Errorf("realized pnl = %d, want 340", s.RealizedPnL)
	}
	if s.Wins != 1 || s.Losses != 0 {
		t.Errorf("wins/losses = %d/%d, want 1/0", s.Wins, s.Losses)
	}
	if s.Entries != 3 || s.Exits != 1 {
		t.Errorf("entries/exits = %d/%d", s.Entries, s.Exits)
	}
	if s.ContractsIn != 35 || s.ContractsOut != 12 {
		t.Errorf("contracts = %d in / %d out", s.ContractsIn, s.ContractsOut)
	}
	if s.UniqueMarkets != 2 {
		t.Errorf("unique markets = %d, want 2", s.UniqueMarkets)
	}
	// Entry cost total: 400 + 250 + 1700 = 2350; matched 500.
	if s.UnrealizedCost != 1850 {
		t.Errorf("unrealized cost = %d, want 1850", s.UnrealizedCost)
	}
	if s.OpenPositions != 1 {
		t.Errorf("open positions = %d", s.OpenPositions)
	}
}

func TestAllTradesMergesAndSorts(t *testing.T) {
	d := NewDailyStats()
	base := time.Now().Add(-2 * time.Hour)

	d.priorTrades = []TradeRecord{
		trade("KXAAA-26-X", ActionEntry, 10, 40, base.Add(30*time.Minute)),
	}
	d.Record(trade("KXAAA-26-X", ActionExit, 10, 70, base.Add(time.Hour)))
	d.Record(trade("KXBBB-26-Y", ActionEntry, 5, 80, base))

	all := d.AllTrades()
	if len(all) != 3 {
		t.Fatalf("trades = %d, want 3", len(all))
	}
	if all[0].Ticker != "KXBBB-26-Y" {
		t.Errorf("first trade = %+v, want oldest first", all[0])
	}
	// Matching works across the prior/session boundary.
	trips := d.RoundTrips()
	if len(trips) != 1 || trips[0].PnL != 300 {
		t.Fatalf("trips = %+v, want one with pnl 300", trips)
	}
}
