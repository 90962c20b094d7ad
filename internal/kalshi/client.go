package kalshi

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/probmarkets/kalshi-bot/pkg/cache"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

const marketCacheTTL = 30 * time.Second

// MarketsParams narrows a paginated markets listing.
type MarketsParams struct {
	Status     string
	Limit      int
	Cursor     string
	MaxCloseTs int64
}

// OrderRequest describes a limit order to submit. Price is on the side
// being traded (yes_price for YES, no_price for NO), in cents.
type OrderRequest struct {
	Ticker    string
	Side      types.Side
	Action    types.OrderAction
	Count     int64
	Price     int
	OrderType types.OrderType
}

// MarketPosition is a settled-or-open position as reported by the venue
// portfolio endpoint. Contracts is signed: positive YES, negative NO.
type MarketPosition struct {
	Ticker         string
	Contracts      int64
	MarketExposure int64
	RealizedPnl    int64
	TotalTraded    int64
	RestingOrders  int64
}

// Client is the authenticated REST gateway to the Kalshi trade API. All
// calls pass through the shared rate limiter; rate-limited responses are
// retried here and nowhere else.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	limiter    *RateLimiter
	retryCfg   RetryConfig
	markets    cache.Cache
	logger     *zap.Logger
}

// New creates a venue client from config, loading the RSA private key from
// disk. The cache parameter may be nil to disable market snapshot caching.
func New(cfg *config.Config, markets cache.Cache, logger *zap.Logger) (*Client, error) {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.KalshiBaseURL, "/"),
		apiKeyID: cfg.KalshiAPIKeyID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		retryCfg: RetryConfig{
			MaxAttempts: cfg.RetryMaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
		markets: markets,
		logger:  logger,
	}

	pemBytes, err := os.ReadFile(cfg.KalshiPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	if err := c.setPrivateKey(pemBytes); err != nil {
		return nil, err
	}

	return c, nil
}

// NewWithKey creates a client with an already-parsed key. Used by tests.
func NewWithKey(baseURL, apiKeyID string, key *rsa.PrivateKey, limiter *RateLimiter, retryCfg RetryConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKeyID:   apiKeyID,
		privateKey: key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    limiter,
		retryCfg:   retryCfg,
		logger:     logger,
	}
}

func (c *Client) setPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// GetBalance returns available cash in cents.
func (c *Client) GetBalance(ctx context.Context) (int64, error) {
	body, err := c.do(ctx, http.MethodGet, "/portfolio/balance", nil, nil)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}

	var resp balanceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return resp.Balance, nil
}

// GetMarkets returns one page of markets plus the cursor for the next page.
// An empty cursor means the listing is exhausted.
func (c *Client) GetMarkets(ctx context.Context, p MarketsParams) ([]*types.Market, string, error) {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.MaxCloseTs > 0 {
		q.Set("max_close_ts", strconv.FormatInt(p.MaxCloseTs, 10))
	}

	body, err := c.do(ctx, http.MethodGet, "/markets", q, nil)
	if err != nil {
		return nil, "", fmt.Errorf("get markets: %w", err)
	}

	var resp marketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("decode markets: %w", err)
	}

	markets := make([]*types.Market, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		markets = append(markets, toMarket(m))
	}
	return markets, resp.Cursor, nil
}

// GetMarket returns a single market by ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (*types.Market, error) {
	body, err := c.do(ctx, http.MethodGet, "/markets/"+url.PathEscape(ticker), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get market %s: %w", ticker, err)
	}

	var resp marketResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode market: %w", err)
	}
	return toMarket(resp.Market), nil
}

// GetMarketCached returns a market snapshot, serving from the local cache
// when fresh. Used for position pricing where a slightly stale quote is
// acceptable and saves a rate-limit slot per open position per cycle.
func (c *Client) GetMarketCached(ctx context.Context, ticker string) (*types.Market, error) {
	if c.markets != nil {
		if v, ok := c.markets.Get(ticker); ok {
			if m, ok := v.(*types.Market); ok {
				return m, nil
			}
		}
	}

	m, err := c.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if c.markets != nil {
		c.markets.Set(ticker, m, marketCacheTTL)
	}
	return m, nil
}

// GetOrderbook returns the normalized book for a market.
func (c *Client) GetOrderbook(ctx context.Context, ticker string) (*types.OrderBook, error) {
	body, err := c.do(ctx, http.MethodGet, "/markets/"+url.PathEscape(ticker)+"/orderbook", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get orderbook %s: %w", ticker, err)
	}

	var resp orderbookResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode orderbook: %w", err)
	}
	return toOrderBook(ticker, resp.Orderbook), nil
}

// GetPositions returns all market positions with a nonzero count or
// exposure. An empty slice with nil error means the portfolio is flat.
func (c *Client) GetPositions(ctx context.Context) ([]MarketPosition, error) {
	var out []MarketPosition
	cursor := ""

	for {
		q := url.Values{}
		q.Set("limit", "200")
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		body, err := c.do(ctx, http.MethodGet, "/portfolio/positions", q, nil)
		if err != nil {
			return nil, fmt.Errorf("get positions: %w", err)
		}

		var resp positionsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode positions: %w", err)
		}

		for _, p := range resp.MarketPositions {
			if p.Position == 0 && p.MarketExposure == 0 {
				continue
			}
			// Settled markets report a result; their positions are history,
			// not exposure.
			if p.MarketResult == "yes" || p.MarketResult == "no" {
				continue
			}
			out = append(out, MarketPosition{
				Ticker:         p.Ticker,
				Contracts:      p.Position,
				MarketExposure: p.MarketExposure,
				RealizedPnl:    p.RealizedPnl,
				TotalTraded:    p.TotalTraded,
				RestingOrders:  p.RestingOrders,
			})
		}

		if resp.Cursor == "" {
			return out, nil
		}
		cursor = resp.Cursor
	}
}

// GetFills returns fills, optionally filtered to one ticker, newest first.
func (c *Client) GetFills(ctx context.Context, ticker string) ([]types.Fill, error) {
	var out []types.Fill
	cursor := ""

	for {
		q := url.Values{}
		q.Set("limit", "200")
		if ticker != "" {
			q.Set("ticker", ticker)
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		body, err := c.do(ctx, http.MethodGet, "/portfolio/fills", q, nil)
		if err != nil {
			return nil, fmt.Errorf("get fills: %w", err)
		}

		var resp fillsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode fills: %w", err)
		}

		for _, f := range resp.Fills {
			out = append(out, toFill(f))
		}

		if resp.Cursor == "" {
			return out, nil
		}
		cursor = resp.Cursor
	}
}

// PlaceOrder submits a limit order and returns the venue's view of it.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (*types.OrderResult, error) {
	wire := orderRequest{
		Ticker:        req.Ticker,
		ClientOrderID: uuid.New().String(),
		Side:          string(req.Side),
		Action:        string(req.Action),
		Type:          string(req.OrderType),
		Count:         req.Count,
	}
	switch req.Side {
	case types.SideNo:
		wire.NoPrice = req.Price
	default:
		wire.YesPrice = req.Price
	}

	body, err := c.do(ctx, http.MethodPost, "/portfolio/orders", nil, wire)
	if err != nil {
		return nil, fmt.Errorf("place order %s: %w", req.Ticker, err)
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}

	result := toOrderResult(resp.Order)
	c.logger.Info("order-placed",
		zap.String("ticker", req.Ticker),
		zap.String("order-id", result.OrderID),
		zap.String("status", string(result.Status)),
		zap.Int64("count", req.Count),
		zap.Int("price-cents", req.Price))
	return result, nil
}

// CancelOrder cancels a resting order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/portfolio/orders/"+url.PathEscape(orderID), nil, nil)
	if err != nil {
		return fmt.Errorf("cancel order %s: %w", orderID, err)
	}
	c.logger.Info("order-cancelled", zap.String("order-id", orderID))
	return nil
}

// GetOrders returns the caller's orders, optionally filtered by status.
func (c *Client) GetOrders(ctx context.Context, status string) ([]*types.OrderResult, error) {
	var out []*types.OrderResult
	cursor := ""

	for {
		q := url.Values{}
		q.Set("limit", "200")
		if status != "" {
			q.Set("status", status)
		}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		body, err := c.do(ctx, http.MethodGet, "/portfolio/orders", q, nil)
		if err != nil {
			return nil, fmt.Errorf("get orders: %w", err)
		}

		var resp ordersResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}

		for _, o := range resp.Orders {
			out = append(out, toOrderResult(o))
		}

		if resp.Cursor == "" {
			return out, nil
		}
		cursor = resp.Cursor
	}
}

// do acquires a rate-limit slot, signs, sends, and maps errors. Retries on
// rate-limit rejections only.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, reqBody any) ([]byte, error) {
	op := method + " " + path
	if i := strings.IndexByte(path, '/'); i == 0 {
		// Strip IDs out of the metric label to keep cardinality bounded.
		op = method + " /" + strings.SplitN(path[1:], "/", 2)[0]
	}

	var respBody []byte
	err := withRetry(ctx, c.retryCfg, c.logger, op, func() error {
		if err := c.limiter.Acquire(ctx); err != nil {
			return err
		}

		start := time.Now()
		body, err := c.send(ctx, method, path, query, reqBody)
		RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

		if err != nil {
			RequestsTotal.WithLabelValues(op, "error").Inc()
			return err
		}
		RequestsTotal.WithLabelValues(op, "ok").Inc()
		respBody = body
		return nil
	})
	return respBody, err
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, reqBody any) ([]byte, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		jsonBody, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if err := c.signRequest(req, method, path); err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// signRequest adds RSA-PSS-SHA256 authentication headers. The signed
// message is timestampMillis + method + path, where path carries the API
// prefix but not the query string.
func (c *Client) signRequest(req *http.Request, method, path string) error {
	if c.privateKey == nil {
		return &types.AuthenticationError{Message: "RSA private key not configured"}
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signedPath := path
	if u, err := url.Parse(c.baseURL); err == nil {
		signedPath = u.Path + path
	}

	message := ts + method + signedPath
	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("rsa sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus maps non-2xx responses to the typed error taxonomy callers
// branch on with errors.As.
func (c *Client) checkStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr errorResponse
	_ = json.Unmarshal(body, &apiErr)
	code := apiErr.Error.Code
	msg := apiErr.Error.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &types.AuthenticationError{Message: msg}
	case http.StatusTooManyRequests:
		retryAfter := types.DefaultRetryAfter
		if s := resp.Header.Get("Retry-After"); s != "" {
			if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &types.RateLimitError{RetryAfter: retryAfter}
	case http.StatusBadRequest:
		lc := strings.ToLower(code + " " + msg)
		if strings.Contains(lc, "insufficient") {
			return &types.InsufficientFundsError{Message: msg}
		}
		if strings.Contains(lc, "closed") || strings.Contains(lc, "not open") {
			return &types.MarketClosedError{Message: msg}
		}
		return &types.OrderFailedError{Code: code, Message: msg}
	case http.StatusConflict:
		return &types.OrderFailedError{Code: code, Message: msg}
	default:
		return fmt.Errorf("http %d: %s (%s)", resp.StatusCode, msg, code)
	}
}
