package kalshi

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewWithKey(srv.URL, "test-key-id", key,
		NewRateLimiter(1000, time.Second),
		RetryConfig{MaxAttempts: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		zap.NewNop())
	return c, srv
}

func TestClientSendsAuthHeaders(t *testing.T) {
	var gotKey, gotSig, gotTs string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("KALSHI-ACCESS-KEY")
		gotSig = r.Header.Get("KALSHI-ACCESS-SIGNATURE")
		gotTs = r.Header.Get("KALSHI-ACCESS-TIMESTAMP")
		json.NewEncoder(w).Encode(balanceResponse{Balance: 100000})
	}))

	bal, err := c.GetBalance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if bal != 100000 {
		t.Errorf("balance = %d, want 100000", bal)
	}
	if gotKey != "test-key-id" {
		t.Errorf("access key = %q", gotKey)
	}
	if gotSig == "" || gotTs == "" {
		t.Error("signature and timestamp headers must be set")
	}
}

func TestClientGetMarketsPagination(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "open" {
			t.Errorf("status query = %q, want open", r.URL.Query().Get("status"))
		}
		cursor := ""
		markets := []kalshiMarket{{Ticker: "KXA-26-X", Status: "active", YesBid: 80, Volume: 5000}}
		if r.URL.Query().Get("cursor") == "" {
			cursor = "page2"
		} else {
			markets = []kalshiMarket{{Ticker: "KXB-26-Y", Status: "active", YesBid: 85, Volume: 8000}}
		}
		json.NewEncoder(w).Encode(marketsResponse{Markets: markets, Cursor: cursor})
	}))

	ctx := context.Background()
	page1, cursor, err := c.GetMarkets(ctx, MarketsParams{Status: "open", Limit: 200})
	if err != nil {
		t.Fatal(err)
	}
	if len(page1) != 1 || page1[0].Ticker != "KXA-26-X" {
		t.Fatalf("page1 = %+v", page1)
	}
	if cursor != "page2" {
		t.Fatalf("cursor = %q", cursor)
	}

	page2, cursor, err := c.GetMarkets(ctx, MarketsParams{Status: "open", Cursor: cursor})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 1 || page2[0].Ticker != "KXB-26-Y" {
		t.Fatalf("page2 = %+v", page2)
	}
	if cursor != "" {
		t.Errorf("final cursor = %q, want empty", cursor)
	}
}

func TestClientRateLimitError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := c.GetBalance(context.Background())
	var rateErr *types.RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if rateErr.RetryAfter != 7*time.Second {
		t.Errorf("retry after = %v, want 7s", rateErr.RetryAfter)
	}
}

func TestClientAuthError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "unauthorized", "message": "invalid signature"},
		})
	}))

	_, err := c.GetBalance(context.Background())
	var authErr *types.AuthenticationError
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want AuthenticationError", err)
	}
}

func TestClientInsufficientFunds(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "insufficient_balance", "message": "insufficient balance"},
		})
	}))

	_, err := c.PlaceOrder(context.Background(), OrderRequest{
		Ticker: "KXA-26-X", Side: types.SideYes, Action: types.ActionBuy,
		Count: 10, Price: 85, OrderType: types.OrderTypeLimit,
	})
	var fundsErr *types.InsufficientFundsError
	if !errors.As(err, &fundsErr) {
		t.Fatalf("err = %v, want InsufficientFundsError", err)
	}
}

func TestClientPlaceOrderWire(t *testing.T) {
	var got orderRequest
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(orderResponse{Order: kalshiOrder{
			OrderID: "ord-123", Ticker: got.Ticker, Side: got.Side,
			Status: "executed", YesPrice: got.YesPrice, TakerFillCount: got.Count,
		}})
	}))

	result, err := c.PlaceOrder(context.Background(), OrderRequest{
		Ticker: "KXA-26-X", Side: types.SideYes, Action: types.ActionBuy,
		Count: 12, Price: 84, OrderType: types.OrderTypeLimit,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got.YesPrice != 84 || got.NoPrice != 0 {
		t.Errorf("wire prices = yes:%d no:%d, want yes only", got.YesPrice, got.NoPrice)
	}
	if got.ClientOrderID == "" {
		t.Error("client_order_id must be set")
	}
	if got.Type != "limit" || got.Action != "buy" {
		t.Errorf("wire type/action = %s/%s", got.Type, got.Action)
	}
	if result.OrderID != "ord-123" || result.FilledContracts != 12 {
		t.Errorf("result = %+v", result)
	}
}

func TestClientGetPositionsSkipsFlat(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(positionsResponse{MarketPositions: []kalshiPosition{
			{Ticker: "KXA-26-X", Position: 10, MarketExposure: 850},
			{Ticker: "KXB-26-Y", Position: 0, MarketExposure: 0},
			{Ticker: "KXC-26-Z", Position: -5, MarketExposure: 300},
		}})
	}))

	positions, err := c.GetPositions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 2 {
		t.Fatalf("positions = %+v, want flat ticker skipped", positions)
	}
	if positions[1].Contracts != -5 {
		t.Errorf("signed contracts = %d, want -5", positions[1].Contracts)
	}
}
