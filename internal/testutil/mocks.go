package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// MarketSpec describes one market served by the mock venue.
type MarketSpec struct {
	Ticker             string
	EventTicker        string
	Title              string
	Category           string
	Status             string
	YesBid             int
	YesAsk             int
	NoBid              int
	NoAsk              int
	Volume             int64
	Liquidity          int64
	CloseTime          time.Time
	ExpectedExpiration time.Time
}

// BookSpec describes an orderbook as resting YES and NO bids, each level a
// [price, quantity] pair, matching the venue wire format.
type BookSpec struct {
	Yes [][]int64
	No  [][]int64
}

// PositionSpec describes one portfolio position. Contracts is signed:
// positive YES, negative NO.
type PositionSpec struct {
	Ticker         string
	MarketResult   string
	Contracts      int64
	MarketExposure int64
}

// PlacedOrder records one order the mock venue accepted.
type PlacedOrder struct {
	OrderID  string
	Ticker   string
	Side     string
	Action   string
	Count    int64
	YesPrice int
	NoPrice  int
}

// MockVenue is a mock HTTP server that simulates the Kalshi trade API. It
// accepts any authentication headers; signing is tested against the real
// client elsewhere.
type MockVenue struct {
	*httptest.Server

	mu           sync.Mutex
	balance      int64
	markets      []MarketSpec
	orderbooks   map[string]BookSpec
	positions    []PositionSpec
	placedOrders []PlacedOrder
	openOrders   []PlacedOrder
	cancelled    []string
	orderStatus  string
	failNext     int // HTTP status for the next request only, 0 = none
	failAll      int // HTTP status for every request until cleared
}

// NewMockVenue creates a mock venue with the given cash balance.
func NewMockVenue(balance int64) *MockVenue {
	mock := &MockVenue{
		balance:     balance,
		orderbooks:  make(map[string]BookSpec),
		orderStatus: "resting",
	}
	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// AddMarket adds a market (and optional orderbook) to the venue.
func (m *MockVenue) AddMarket(spec MarketSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markets = append(m.markets, spec)
}

// SetOrderbook sets the book served for a ticker.
func (m *MockVenue) SetOrderbook(ticker string, book BookSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderbooks[ticker] = book
}

// SetPositions replaces the portfolio positions.
func (m *MockVenue) SetPositions(positions []PositionSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions = positions
}

// SetBalance replaces the cash balance.
func (m *MockVenue) SetBalance(balance int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = balance
}

// SetOrderStatus sets the status reported for newly placed orders.
func (m *MockVenue) SetOrderStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderStatus = status
}

// FailNext makes the next request fail with the given HTTP status.
func (m *MockVenue) FailNext(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = status
}

// FailAll makes every request fail with the given HTTP status until
// cleared with FailAll(0).
func (m *MockVenue) FailAll(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAll = status
}

// PlacedOrders returns all orders the venue accepted.
func (m *MockVenue) PlacedOrders() []PlacedOrder {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PlacedOrder, len(m.placedOrders))
	copy(out, m.placedOrders)
	return out
}

// CancelledOrders returns the IDs of cancelled orders.
func (m *MockVenue) CancelledOrders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.cancelled))
	copy(out, m.cancelled)
	return out
}

func (m *MockVenue) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != 0 || m.failAll != 0 {
		status := m.failAll
		if m.failNext != 0 {
			status = m.failNext
			m.failNext = 0
		}
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", "1")
		}
		writeJSON(w, status, map[string]any{
			"error": map[string]string{"code": "mock_failure", "message": "injected failure"},
		})
		return
	}

	path := r.URL.Path
	switch {
	case path == "/markets" && r.Method == http.MethodGet:
		m.handleMarkets(w)
	case strings.HasPrefix(path, "/markets/") && strings.HasSuffix(path, "/orderbook"):
		ticker := strings.TrimSuffix(strings.TrimPrefix(path, "/markets/"), "/orderbook")
		m.handleOrderbook(w, ticker)
	case strings.HasPrefix(path, "/markets/"):
		m.handleMarket(w, strings.TrimPrefix(path, "/markets/"))
	case path == "/portfolio/balance":
		writeJSON(w, http.StatusOK, map[string]any{"balance": m.balance})
	case path == "/portfolio/positions":
		m.handlePositions(w)
	case path == "/portfolio/orders" && r.Method == http.MethodPost:
		m.handlePlaceOrder(w, r)
	case path == "/portfolio/orders" && r.Method == http.MethodGet:
		m.handleOpenOrders(w)
	case strings.HasPrefix(path, "/portfolio/orders/") && r.Method == http.MethodDelete:
		m.handleCancel(w, strings.TrimPrefix(path, "/portfolio/orders/"))
	case path == "/portfolio/fills":
		writeJSON(w, http.StatusOK, map[string]any{"fills": []any{}, "cursor": ""})
	default:
		http.NotFound(w, r)
	}
}

func (m *MockVenue) handleMarkets(w http.ResponseWriter) {
	wire := make([]map[string]any, 0, len(m.markets))
	for _, spec := range m.markets {
		wire = append(wire, marketWire(spec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"markets": wire, "cursor": ""})
}

func (m *MockVenue) handleMarket(w http.ResponseWriter, ticker string) {
	for _, spec := range m.markets {
		if spec.Ticker == ticker {
			writeJSON(w, http.StatusOK, map[string]any{"market": marketWire(spec)})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]string{"code": "not_found", "message": "market not found"},
	})
}

func (m *MockVenue) handleOrderbook(w http.ResponseWriter, ticker string) {
	book := m.orderbooks[ticker]
	yes := book.Yes
	if yes == nil {
		yes = [][]int64{}
	}
	no := book.No
	if no == nil {
		no = [][]int64{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderbook": map[string]any{"yes": yes, "no": no},
	})
}

func (m *MockVenue) handlePositions(w http.ResponseWriter) {
	wire := make([]map[string]any, 0, len(m.positions))
	for _, p := range m.positions {
		wire = append(wire, map[string]any{
			"ticker":          p.Ticker,
			"market_result":   p.MarketResult,
			"position":        p.Contracts,
			"market_exposure": p.MarketExposure,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"market_positions": wire, "cursor": ""})
}

func (m *MockVenue) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticker   string `json:"ticker"`
		Side     string `json:"side"`
		Action   string `json:"action"`
		Count    int64  `json:"count"`
		YesPrice int    `json:"yes_price"`
		NoPrice  int    `json:"no_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]string{"code": "bad_request", "message": err.Error()},
		})
		return
	}

	order := PlacedOrder{
		OrderID:  uuid.New().String(),
		Ticker:   req.Ticker,
		Side:     req.Side,
		Action:   req.Action,
		Count:    req.Count,
		YesPrice: req.YesPrice,
		NoPrice:  req.NoPrice,
	}
	m.placedOrders = append(m.placedOrders, order)
	if m.orderStatus == "open" || m.orderStatus == "resting" {
		m.openOrders = append(m.openOrders, order)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"order": map[string]any{
			"order_id":        order.OrderID,
			"ticker":          order.Ticker,
			"side":            order.Side,
			"action":          order.Action,
			"status":          m.orderStatus,
			"yes_price":       order.YesPrice,
			"no_price":        order.NoPrice,
			"remaining_count": order.Count,
			"created_time":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (m *MockVenue) handleOpenOrders(w http.ResponseWriter) {
	wire := make([]map[string]any, 0, len(m.openOrders))
	for _, o := range m.openOrders {
		wire = append(wire, map[string]any{
			"order_id":        o.OrderID,
			"ticker":          o.Ticker,
			"side":            o.Side,
			"action":          o.Action,
			"status":          "resting",
			"remaining_count": o.Count,
			"created_time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": wire, "cursor": ""})
}

func (m *MockVenue) handleCancel(w http.ResponseWriter, orderID string) {
	m.cancelled = append(m.cancelled, orderID)
	for i, o := range m.openOrders {
		if o.OrderID == orderID {
			m.openOrders = append(m.openOrders[:i], m.openOrders[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func marketWire(spec MarketSpec) map[string]any {
	status := spec.Status
	if status == "" {
		status = "active"
	}
	return map[string]any{
		"ticker":                   spec.Ticker,
		"event_ticker":             spec.EventTicker,
		"title":                    spec.Title,
		"category":                 spec.Category,
		"status":                   status,
		"yes_bid":                  spec.YesBid,
		"yes_ask":                  spec.YesAsk,
		"no_bid":                   spec.NoBid,
		"no_ask":                   spec.NoAsk,
		"volume":                   spec.Volume,
		"liquidity":                spec.Liquidity,
		"close_time":               spec.CloseTime.UTC().Format(time.RFC3339),
		"expected_expiration_time": spec.ExpectedExpiration.UTC().Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
