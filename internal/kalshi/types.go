package kalshi

// Raw wire types for the Kalshi trade API v2. Prices are integer cents,
// 1..99 for tradable levels. Normalization into pkg/types happens in
// convert.go; nothing outside this package should see these structs.

type kalshiMarket struct {
	Ticker                 string `json:"ticker"`
	EventTicker            string `json:"event_ticker"`
	Title                  string `json:"title"`
	Subtitle               string `json:"subtitle"`
	Category               string `json:"category"`
	Status                 string `json:"status"`
	YesBid                 int    `json:"yes_bid"`
	YesAsk                 int    `json:"yes_ask"`
	NoBid                  int    `json:"no_bid"`
	NoAsk                  int    `json:"no_ask"`
	LastPrice              int    `json:"last_price"`
	Volume                 int64  `json:"volume"`
	Volume24H              int64  `json:"volume_24h"`
	OpenInterest           int64  `json:"open_interest"`
	Liquidity              int64  `json:"liquidity"`
	CloseTime              string `json:"close_time"`
	ExpectedExpirationTime string `json:"expected_expiration_time"`
	Result                 string `json:"result"`
}

type marketsResponse struct {
	Markets []kalshiMarket `json:"markets"`
	Cursor  string         `json:"cursor"`
}

type marketResponse struct {
	Market kalshiMarket `json:"market"`
}

// kalshiOrderbook carries [price, quantity] pairs for resting YES and NO
// bids. There is no ask side on the wire; a YES ask is a NO bid at 100-p.
type kalshiOrderbook struct {
	Yes [][]int64 `json:"yes"`
	No  [][]int64 `json:"no"`
}

type orderbookResponse struct {
	Orderbook kalshiOrderbook `json:"orderbook"`
}

type orderRequest struct {
	Ticker        string `json:"ticker"`
	ClientOrderID string `json:"client_order_id"`
	Side          string `json:"side"`
	Action        string `json:"action"`
	Type          string `json:"type"`
	Count         int64  `json:"count"`
	YesPrice      int    `json:"yes_price,omitempty"`
	NoPrice       int    `json:"no_price,omitempty"`
}

type kalshiOrder struct {
	OrderID        string `json:"order_id"`
	ClientOrderID  string `json:"client_order_id"`
	Ticker         string `json:"ticker"`
	Side           string `json:"side"`
	Action         string `json:"action"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	YesPrice       int    `json:"yes_price"`
	NoPrice        int    `json:"no_price"`
	TakerFillCount int64  `json:"taker_fill_count"`
	RemainingCount int64  `json:"remaining_count"`
	CreatedTime    string `json:"created_time"`
}

type orderResponse struct {
	Order kalshiOrder `json:"order"`
}

type ordersResponse struct {
	Orders []kalshiOrder `json:"orders"`
	Cursor string        `json:"cursor"`
}

type kalshiPosition struct {
	Ticker         string `json:"ticker"`
	MarketResult   string `json:"market_result"`
	Position       int64  `json:"position"`
	MarketExposure int64  `json:"market_exposure"`
	RealizedPnl    int64  `json:"realized_pnl"`
	TotalTraded    int64  `json:"total_traded"`
	RestingOrders  int64  `json:"resting_orders_count"`
}

type positionsResponse struct {
	MarketPositions []kalshiPosition `json:"market_positions"`
	Cursor          string           `json:"cursor"`
}

type kalshiFill struct {
	TradeID     string `json:"trade_id"`
	OrderID     string `json:"order_id"`
	Ticker      string `json:"ticker"`
	Side        string `json:"side"`
	Action      string `json:"action"`
	Count       int64  `json:"count"`
	YesPrice    int    `json:"yes_price"`
	NoPrice     int    `json:"no_price"`
	IsTaker     bool   `json:"is_taker"`
	CreatedTime string `json:"created_time"`
}

type fillsResponse struct {
	Fills  []kalshiFill `json:"fills"`
	Cursor string       `json:"cursor"`
}

type balanceResponse struct {
	Balance int64 `json:"balance"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
