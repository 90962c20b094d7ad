package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

type fakePositionClient struct {
	positions    []kalshi.MarketPosition
	positionsErr error
	fills        []types.Fill
	fillsErr     error
	markets      map[string]*types.Market
}

func (f *fakePositionClient) GetPositions(ctx context.Context) ([]kalshi.MarketPosition, error) {
	return f.positions, f.positionsErr
}

func (f *fakePositionClient) GetFills(ctx context.Context, ticker string) ([]types.Fill, error) {
	return f.fills, f.fillsErr
}

func (f *fakePositionClient) GetMarket(ctx context.Context, ticker string) (*types.Market, error) {
	if m, ok := f.markets[ticker]; ok {
		return m, nil
	}
	return nil, errors.New("market not found")
}

func (f *fakePositionClient) GetMarketCached(ctx context.Context, ticker string) (*types.Market, error) {
	return f.GetMarket(ctx, ticker)
}

func TestGetPositionsBuildsFromVenueData(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
			{Ticker: "KXBBB-26-Y", Contracts: -50, MarketExposure: 3000},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91, NoBid: 9, Volume: 200000},
			"KXBBB-26-Y": {Ticker: "KXBBB-26-Y", YesBid: 35, NoBid: 65, Volume: 50000},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())

	positions := pm.GetPositions(context.Background())
	if len(positions) != 2 {
		t.Fatalf("positions = %d, want 2", len(positions))
	}

	yes := positions[0]
	if yes.Side != types.SideYes || yes.Contracts != 100 {
		t.Errorf("yes position = %+v", yes)
	}
	if yes.AverageEntryPrice != 85 {
		t.Errorf("avg entry = %v, want 85", yes.AverageEntryPrice)
	}
	if yes.CurrentPrice != 91 {
		t.Errorf("current price = %v, want yes bid 91", yes.CurrentPrice)
	}

	// Negative contract count is a NO position.
	no := positions[1]
	if no.Side != types.SideNo || no.Contracts != 50 {
		t.Errorf("no position = %+v", no)
	}
	if no.AverageEntryPrice != 60 {
		t.Errorf("no avg entry = %v, want 60", no.AverageEntryPrice)
	}
	if no.CurrentPrice != 65 {
		t.Errorf("no current price = %v, want no bid 65", no.CurrentPrice)
	}
}

func TestGetPositionsEmptyMeansFlat(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())
	ctx := context.Background()

	if got := pm.GetPositions(ctx); len(got) != 1 {
		t.Fatalf("positions = %d, want 1", len(got))
	}

	// An empty read is authoritative: the portfolio is flat, not stale.
	client.positions = nil
	if got := pm.GetPositions(ctx); len(got) != 0 {
		t.Fatalf("positions = %d, want 0 after empty read", len(got))
	}
}

func TestGetPositionsErrorReturnsLastSnapshot(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())
	ctx := context.Background()

	pm.GetPositions(ctx)

	client.positionsErr = errors.New("venue down")
	got := pm.GetPositions(ctx)
	if len(got) != 1 || got[0].Ticker != "KXAAA-26-X" {
		t.Fatalf("positions = %+v, want last good snapshot", got)
	}
}

func TestGetPositionsPriceFallbackToEntry(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXGONE-26-X", Contracts: 10, MarketExposure: 850},
		},
		markets: map[string]*types.Market{},
	}
	pm := NewPositionMonitor(client, zap.NewNop())

	positions := pm.GetPositions(context.Background())
	if len(positions) != 1 {
		t.Fatal("expected one position")
	}
	// Unquotable market marks at entry so P&L reads flat.
	if positions[0].CurrentPrice != positions[0].AverageEntryPrice {
		t.Errorf("current = %v, want entry %v",
			positions[0].CurrentPrice, positions[0].AverageEntryPrice)
	}
	if positions[0].UnrealizedPnL() != 0 {
		t.Errorf("pnl = %v, want 0", positions[0].UnrealizedPnL())
	}
}

func TestCountPositionsIncludesPending(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())
	ctx := context.Background()

	pm.AddPendingEntry("KXNEW-26-Y")
	if got := pm.CountPositions(ctx); got != 2 {
		t.Errorf("count = %d, want confirmed + pending = 2", got)
	}

	// A pending ticker that confirmed must not double count.
	pm.AddPendingEntry("KXAAA-26-X")
	if got := pm.CountPositions(ctx); got != 2 {
		t.Errorf("count = %d, want 2 (confirmed ticker not double counted)", got)
	}

	pm.RemovePendingEntry("KXNEW-26-Y")
	if got := pm.CountPositions(ctx); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}

func TestPendingEntryClearedWhenConfirmed(t *testing.T) {
	client := &fakePositionClient{
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())
	ctx := context.Background()

	pm.AddPendingEntry("KXAAA-26-X")
	if got := pm.CountPositions(ctx); got != 1 {
		t.Fatalf("count = %d, want 1 pending", got)
	}

	client.positions = []kalshi.MarketPosition{
		{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
	}
	pm.GetPositions(ctx)

	// Pending entry was absorbed by the confirmed position; if the
	// position later closes, the ticker must not linger as pending.
	client.positions = nil
	if got := pm.CountPositions(ctx); got != 0 {
		t.Errorf("count = %d, want 0 after close", got)
	}
}

func TestPositionTickersIncludesPending(t *testing.T) {
	client := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 91},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())
	pm.AddPendingEntry("KXNEW-26-Y")

	tickers := pm.PositionTickers(context.Background())
	if len(tickers) != 2 {
		t.Fatalf("tickers = %v, want 2", tickers)
	}
}

func TestReconstructFromFills(t *testing.T) {
	client := &fakePositionClient{
		fills: []types.Fill{
			{Ticker: "KXAAA-26-X", Side: types.SideYes, Action: types.ActionBuy, Count: 10, Price: 40},
			{Ticker: "KXAAA-26-X", Side: types.SideYes, Action: types.ActionBuy, Count: 5, Price: 50},
			{Ticker: "KXAAA-26-X", Side: types.SideYes, Action: types.ActionSell, Count: 3, Price: 70},
			{Ticker: "KXDONE-26-Y", Side: types.SideYes, Action: types.ActionBuy, Count: 10, Price: 80},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X":  {Ticker: "KXAAA-26-X", Status: types.StatusActive, YesBid: 55, Volume: 1000},
			"KXDONE-26-Y": {Ticker: "KXDONE-26-Y", Status: types.StatusSettled, YesBid: 99},
		},
	}
	pm := NewPositionMonitor(client, zap.NewNop())

	positions, err := pm.ReconstructFromFills(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// The settled market is skipped.
	if len(positions) != 1 {
		t.Fatalf("positions = %+v, want 1", positions)
	}

	p := positions[0]
	if p.Contracts != 12 {
		t.Errorf("contracts = %d, want 10+5-3 = 12", p.Contracts)
	}
	// Average entry is over all buys: (10*40 + 5*50) / 15 = 43.33
	wantAvg := float64(10*40+5*50) / 15
	if p.AverageEntryPrice != wantAvg {
		t.Errorf("avg entry = %v, want %v", p.AverageEntryPrice, wantAvg)
	}
	if p.CurrentPrice != 55 {
		t.Errorf("current = %v, want 55", p.CurrentPrice)
	}
}
