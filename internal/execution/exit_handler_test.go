package execution

import (
	"context"
	"testing"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

type stubStrategy struct {
	exitAll bool
}

func (s *stubStrategy) EvaluateExit(pos *types.Position) *types.ExitSignal {
	if !s.exitAll {
		return nil
	}
	return &types.ExitSignal{
		Ticker:    pos.Ticker,
		Side:      pos.Side,
		Contracts: pos.Contracts,
		ExitPrice: int(pos.CurrentPrice),
		Reason:    "profit_target",
	}
}

type recordedExit struct {
	ticker  string
	orderID string
}

type stubRecorder struct {
	exits []recordedExit
}

func (r *stubRecorder) RecordExit(signal *types.ExitSignal, orderID string) error {
	r.exits = append(r.exits, recordedExit{ticker: signal.Ticker, orderID: orderID})
	return nil
}

type exitFixture struct {
	handler   *ExitHandler
	orders    *fakeOrderClient
	positions *fakePositionClient
	recorder  *stubRecorder
}

func newExitFixture(t *testing.T) *exitFixture {
	t.Helper()

	orderClient := &fakeOrderClient{
		placeResult: &types.OrderResult{
			OrderID:   "exit-ord-1",
			Status:    types.OrderExecuted,
			CreatedAt: time.Now(),
		},
	}
	positionClient := &fakePositionClient{
		positions: []kalshi.MarketPosition{
			{Ticker: "KXAAA-26-X", Contracts: 100, MarketExposure: 8500},
		},
		markets: map[string]*types.Market{
			"KXAAA-26-X": {Ticker: "KXAAA-26-X", YesBid: 92, Volume: 200000},
		},
	}

	cfg := &config.Config{
		ProfitTargetPercent: 0.065,
		OrderTimeout:        5 * time.Minute,
	}
	logger := zap.NewNop()
	om := NewOrderManager(orderClient, cfg, logger)
	pm := NewPositionMonitor(positionClient, logger)
	recorder := &stubRecorder{}

	return &exitFixture{
		handler:   NewExitHandler(om, pm, &stubStrategy{exitAll: true}, recorder, cfg, logger),
		orders:    orderClient,
		positions: positionClient,
		recorder:  recorder,
	}
}

func TestExecuteAllExitsPlacesAndRecords(t *testing.T) {
	fx := newExitFixture(t)

	results := fx.handler.ExecuteAllExits(context.Background())
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if len(fx.recorder.exits) != 1 || fx.recorder.exits[0].orderID != "exit-ord-1" {
		t.Fatalf("recorded = %+v", fx.recorder.exits)
	}
}

func TestExitPlacedOncePerPosition(t *testing.T) {
	fx := newExitFixture(t)
	ctx := context.Background()

	fx.handler.ExecuteAllExits(ctx)
	// The position still shows on the venue, but the exit is pending:
	// a second pass must not place a duplicate sell.
	fx.handler.ExecuteAllExits(ctx)

	if len(fx.orders.placed) != 1 {
		t.Fatalf("orders placed = %d, want 1", len(fx.orders.placed))
	}
}

func TestPendingExitClearedWhenPositionCloses(t *testing.T) {
	fx := newExitFixture(t)
	ctx := context.Background()

	fx.handler.ExecuteAllExits(ctx)

	// Position disappears from the venue: the pending exit is done. When
	// a new position appears on the same ticker, it can be exited again.
	fx.positions.positions = nil
	fx.handler.ExecuteAllExits(ctx)

	fx.positions.positions = []kalshi.MarketPosition{
		{Ticker: "KXAAA-26-X", Contracts: 50, MarketExposure: 4250},
	}
	fx.handler.ExecuteAllExits(ctx)

	if len(fx.orders.placed) != 2 {
		t.Fatalf("orders placed = %d, want 2", len(fx.orders.placed))
	}
}

func TestFailedExitNotRecordedNotPending(t *testing.T) {
	fx := newExitFixture(t)
	fx.orders.placeResult = &types.OrderResult{
		OrderID: "exit-ord-1",
		Status:  types.OrderCancelled, // immediately rejected
	}
	ctx := context.Background()

	results := fx.handler.ExecuteAllExits(ctx)
	if len(results) != 0 {
		t.Fatalf("results = %+v, want none", results)
	}
	if len(fx.recorder.exits) != 0 {
		t.Error("failed exit must not hit the ledger")
	}

	// No pending marker, so the next pass retries the exit.
	fx.handler.ExecuteAllExits(ctx)
	if len(fx.orders.placed) != 2 {
		t.Errorf("orders placed = %d, want retry on next pass", len(fx.orders.placed))
	}
}

func TestForceExit(t *testing.T) {
	fx := newExitFixture(t)

	result, err := fx.handler.ForceExit(context.Background(), "KXAAA-26-X")
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("expected a force-exit order")
	}
	if req := fx.orders.placed[0]; req.Action != types.ActionSell || req.Count != 100 {
		t.Errorf("request = %+v", req)
	}

	// Unknown ticker is a no-op.
	result, err = fx.handler.ForceExit(context.Background(), "KXNONE-26-Z")
	if err != nil || result != nil {
		t.Errorf("force exit of missing position = (%v, %v), want (nil, nil)", result, err)
	}
}

func TestCheckExitsHoldsWhenStrategySaysHold(t *testing.T) {
	fx := newExitFixture(t)
	fx.handler.strategy = &stubStrategy{exitAll: false}

	signals := fx.handler.CheckExits(context.Background())
	if len(signals) != 0 {
		t.Fatalf("signals = %+v, want none", signals)
	}
}
