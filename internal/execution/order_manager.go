package execution

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// OrderClient is the slice of the venue gateway the order manager needs.
type OrderClient interface {
	PlaceOrder(ctx context.Context, req kalshi.OrderRequest) (*types.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrders(ctx context.Context, status string) ([]*types.OrderResult, error)
}

// OrderManager places entry and exit orders and tracks the live ones so
// stale resting orders can be cancelled. Expected trading failures
// (insufficient funds, closed market, rejection) are logged and absorbed:
// the loop moves on to the next market rather than aborting the cycle.
type OrderManager struct {
	client OrderClient
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*types.OrderResult // order_id -> last known state
}

// NewOrderManager creates an order manager.
func NewOrderManager(client OrderClient, cfg *config.Config, logger *zap.Logger) *OrderManager {
	return &OrderManager{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]*types.OrderResult),
	}
}

// PlaceEntry places a buy limit order for a trade signal. Returns nil (not
// an error) when the order is rejected or fails for an expected trading
// reason; unexpected errors propagate.
func (om *OrderManager) PlaceEntry(ctx context.Context, signal *types.TradeSignal) (*types.OrderResult, error) {
	om.logger.Info("placing-entry-order",
		zap.String("ticker", signal.Ticker),
		zap.String("side", string(signal.Side)),
		zap.Int64("contracts", signal.Contracts),
		zap.Int("price-cents", signal.EntryPrice))

	result, err := om.client.PlaceOrder(ctx, kalshi.OrderRequest{
		Ticker:    signal.Ticker,
		Side:      signal.Side,
		Action:    types.ActionBuy,
		Count:     signal.Contracts,
		Price:     signal.EntryPrice,
		OrderType: types.OrderTypeLimit,
	})
	return om.handleResult(result, err, "entry")
}

// PlaceExit places a sell limit order to close a position.
func (om *OrderManager) PlaceExit(ctx context.Context, ticker string, side types.Side, contracts int64, price int) (*types.OrderResult, error) {
	om.logger.Info("placing-exit-order",
		zap.String("ticker", ticker),
		zap.String("side", string(side)),
		zap.Int64("contracts", contracts),
		zap.Int("price-cents", price))

	result, err := om.client.PlaceOrder(ctx, kalshi.OrderRequest{
		Ticker:    ticker,
		Side:      side,
		Action:    types.ActionSell,
		Count:     contracts,
		Price:     price,
		OrderType: types.OrderTypeLimit,
	})
	return om.handleResult(result, err, "exit")
}

func (om *OrderManager) handleResult(result *types.OrderResult, err error, kind string) (*types.OrderResult, error) {
	if err != nil {
		var fundsErr *types.InsufficientFundsError
		var closedErr *types.MarketClosedError
		var orderErr *types.OrderFailedError
		switch {
		case errors.As(err, &fundsErr):
			om.logger.Error("order-insufficient-funds", zap.String("kind", kind), zap.Error(err))
			OrdersFailed.WithLabelValues(kind).Inc()
			return nil, nil
		case errors.As(err, &closedErr):
			om.logger.Warn("order-market-closed", zap.String("kind", kind), zap.Error(err))
			OrdersFailed.WithLabelValues(kind).Inc()
			return nil, nil
		case errors.As(err, &orderErr):
			om.logger.Error("order-rejected", zap.String("kind", kind), zap.Error(err))
			OrdersFailed.WithLabelValues(kind).Inc()
			return nil, nil
		}
		return nil, err
	}

	if !result.Status.IsLive() {
		om.logger.Warn("order-not-live",
			zap.String("kind", kind),
			zap.String("order-id", result.OrderID),
			zap.String("status", string(result.Status)))
		OrdersFailed.WithLabelValues(kind).Inc()
		return nil, nil
	}

	om.mu.Lock()
	om.pending[result.OrderID] = result
	om.mu.Unlock()

	OrdersPlaced.WithLabelValues(kind).Inc()
	om.logger.Info("order-live",
		zap.String("kind", kind),
		zap.String("order-id", result.OrderID),
		zap.String("status", string(result.Status)),
		zap.Int64("filled", result.FilledContracts))
	return result, nil
}

// CancelStaleOrders cancels tracked orders that have sat unfilled past the
// configured timeout. Only status "open" orders qualify; an order that
// fails to cancel stays tracked for the next sweep.
func (om *OrderManager) CancelStaleOrders(ctx context.Context) []string {
	om.mu.Lock()
	var stale []*types.OrderResult
	for _, order := range om.pending {
		if order.Status == types.OrderOpen && time.Since(order.CreatedAt) > om.cfg.OrderTimeout {
			stale = append(stale, order)
		}
	}
	om.mu.Unlock()

	var cancelled []string
	for _, order := range stale {
		om.logger.Info("cancelling-stale-order",
			zap.String("order-id", order.OrderID),
			zap.Duration("age", time.Since(order.CreatedAt)))

		if err := om.client.CancelOrder(ctx, order.OrderID); err != nil {
			om.logger.Error("cancel-failed",
				zap.String("order-id", order.OrderID), zap.Error(err))
			continue
		}

		om.mu.Lock()
		delete(om.pending, order.OrderID)
		om.mu.Unlock()
		OrdersCancelled.Inc()
		cancelled = append(cancelled, order.OrderID)
	}
	return cancelled
}

// PendingOrders returns the tracked live orders.
func (om *OrderManager) PendingOrders() []*types.OrderResult {
	om.mu.Lock()
	defer om.mu.Unlock()
	out := make([]*types.OrderResult, 0, len(om.pending))
	for _, o := range om.pending {
		out = append(out, o)
	}
	return out
}

// RefreshOrderStatus re-reads one order's status from the open-orders
// listing. An order missing from the listing has completed one way or the
// other and is dropped from tracking; the empty status signals that.
func (om *OrderManager) RefreshOrderStatus(ctx context.Context, orderID string) (types.OrderStatus, error) {
	orders, err := om.client.GetOrders(ctx, "open")
	if err != nil {
		return "", err
	}

	for _, o := range orders {
		if o.OrderID == orderID {
			om.mu.Lock()
			if tracked, ok := om.pending[orderID]; ok {
				tracked.Status = o.Status
			}
			om.mu.Unlock()
			return o.Status, nil
		}
	}

	om.mu.Lock()
	delete(om.pending, orderID)
	om.mu.Unlock()
	return "", nil
}
