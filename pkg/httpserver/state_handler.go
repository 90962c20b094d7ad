package httpserver

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// PositionProvider exposes current open positions.
type PositionProvider interface {
	GetPositions(ctx context.Context) []*types.Position
}

// OrderProvider exposes orders still tracked as pending.
type OrderProvider interface {
	PendingOrders() []*types.OrderResult
}

// StateHandler serves read-only bot state over HTTP.
type StateHandler struct {
	positions PositionProvider
	orders    OrderProvider
	logger    *zap.Logger
}

// NewStateHandler creates a new state handler.
func NewStateHandler(positions PositionProvider, orders OrderProvider, logger *zap.Logger) *StateHandler {
	return &StateHandler{
		positions: positions,
		orders:    orders,
		logger:    logger,
	}
}

// PositionView is the HTTP representation of one open position.
type PositionView struct {
	Ticker        string  `json:"ticker"`
	Side          string  `json:"side"`
	Contracts     int64   `json:"contracts"`
	AvgEntryCents float64 `json:"avg_entry_cents"`
	CurrentCents  float64 `json:"current_cents"`
	UnrealizedPnL float64 `json:"unrealized_pnl_cents"`
	PnLPercent    float64 `json:"pnl_percent"`
}

// PositionsResponse is the body for GET /api/positions.
type PositionsResponse struct {
	Count     int            `json:"count"`
	Positions []PositionView `json:"positions"`
}

// OrderView is the HTTP representation of one pending order.
type OrderView struct {
	OrderID   string `json:"order_id"`
	Ticker    string `json:"ticker"`
	Status    string `json:"status"`
	Filled    int64  `json:"filled_contracts"`
	Remaining int64  `json:"remaining_contracts"`
	CreatedAt string `json:"created_at"`
}

// OrdersResponse is the body for GET /api/orders.
type OrdersResponse struct {
	Count  int         `json:"count"`
	Orders []OrderView `json:"orders"`
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HandlePositions handles GET /api/positions requests.
func (h *StateHandler) HandlePositions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	positions := h.positions.GetPositions(r.Context())

	views := make([]PositionView, 0, len(positions))
	for _, p := range positions {
		views = append(views, PositionView{
			Ticker:        p.Ticker,
			Side:          string(p.Side),
			Contracts:     p.Contracts,
			AvgEntryCents: p.AverageEntryPrice,
			CurrentCents:  p.CurrentPrice,
			UnrealizedPnL: p.UnrealizedPnL(),
			PnLPercent:    p.UnrealizedPnLPercent() * 100,
		})
	}

	h.writeJSON(w, PositionsResponse{
		Count:     len(views),
		Positions: views,
	})
}

// HandleOrders handles GET /api/orders requests.
func (h *StateHandler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orders := h.orders.PendingOrders()

	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, OrderView{
			OrderID:   o.OrderID,
			Ticker:    o.Ticker,
			Status:    string(o.Status),
			Filled:    o.FilledContracts,
			Remaining: o.RemainingContracts,
			CreatedAt: o.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	h.writeJSON(w, OrdersResponse{
		Count:  len(views),
		Orders: views,
	})
}

func (h *StateHandler) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

func (h *StateHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		h.logger.Error("failed-to-encode-error-response", zap.Error(err))
	}
}
