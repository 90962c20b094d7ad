package types

import "time"

// MarketStatus is the lifecycle status of a market. Statuses only move
// forward: open -> closed -> settled/determined/finalized.
type MarketStatus string

const (
	StatusInitialized MarketStatus = "initialized"
	StatusUnopened    MarketStatus = "unopened"
	StatusOpen        MarketStatus = "open"
	StatusActive      MarketStatus = "active" // alias for open in some API responses
	StatusClosed      MarketStatus = "closed"
	StatusSettled     MarketStatus = "settled"
	StatusDetermined  MarketStatus = "determined"
	StatusFinalized   MarketStatus = "finalized"
)

// IsTerminal reports whether the market can no longer trade.
func (s MarketStatus) IsTerminal() bool {
	switch s {
	case StatusClosed, StatusSettled, StatusDetermined, StatusFinalized:
		return true
	}
	return false
}

// Side is one of the two complementary binary outcomes of a market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Market represents a single binary-outcome instrument. All prices are
// integer cents in [1, 99]; a zero value means the field was absent from
// the venue response.
type Market struct {
	Ticker       string
	Title        string
	Category     string
	Status       MarketStatus
	YesBid       int
	YesAsk       int
	NoBid        int
	NoAsk        int
	LastPrice    int
	Volume       int64
	Volume24h    int64
	OpenInterest int64

	// CloseTime is when trading stops. ExpectedExpirationTime is when the
	// market is expected to settle; for game markets it trails the real
	// game end and is used to estimate whether the game has started.
	CloseTime              time.Time
	ExpectedExpirationTime time.Time
}

// HasLiquidity reports whether the market has any non-zero bid on either
// side, which is the cheapest possible liquidity signal.
func (m *Market) HasLiquidity() bool {
	return m.YesBid > 0 || m.NoBid > 0
}

// YesPrice is the effective quoted YES price in cents: the bid when one
// exists, else the ask, else 50 for a market with no quotes at all.
func (m *Market) YesPrice() int {
	if m.YesBid > 0 {
		return m.YesBid
	}
	if m.YesAsk > 0 {
		return m.YesAsk
	}
	return 50
}

// NoPrice is the effective quoted NO price in cents, same fallback as
// YesPrice.
func (m *Market) NoPrice() int {
	if m.NoBid > 0 {
		return m.NoBid
	}
	if m.NoAsk > 0 {
		return m.NoAsk
	}
	return 50
}

// YesProbability converts the effective yes price to an implied probability
// in [0, 1].
func (m *Market) YesProbability() float64 {
	return float64(m.YesPrice()) / 100
}

// MidPrice returns the average of the effective yes and no prices in cents.
func (m *Market) MidPrice() float64 {
	return float64(m.YesPrice()+m.NoPrice()) / 2
}

// PriceLevel is a single price level in an orderbook.
type PriceLevel struct {
	Price    int // cents
	Quantity int64
}

// OrderBook is a price-level snapshot for one market. Bids are sorted
// descending by price, asks ascending. On a binary venue a resting NO bid
// at price p doubles as a YES ask at 100-p, which is how the ask lists
// are populated by the gateway.
type OrderBook struct {
	Ticker    string
	YesBids   []PriceLevel
	YesAsks   []PriceLevel
	NoBids    []PriceLevel
	NoAsks    []PriceLevel
	FetchedAt time.Time
}

// BestPrice returns the best available price in cents for taking the given
// action on the given side, or 0 if that side of the book is empty.
func (b *OrderBook) BestPrice(side Side, action OrderAction) int {
	var levels []PriceLevel
	switch {
	case side == SideYes && action == ActionBuy:
		levels = b.YesAsks
	case side == SideYes && action == ActionSell:
		levels = b.YesBids
	case side == SideNo && action == ActionBuy:
		levels = b.NoAsks
	case side == SideNo && action == ActionSell:
		levels = b.NoBids
	}
	if len(levels) == 0 {
		return 0
	}
	return levels[0].Price
}

// Liquidity sums price*quantity over all YES-side levels within depthCents
// of the best bid/ask. The result is in cents.
func (b *OrderBook) Liquidity(depthCents int) int64 {
	var total int64

	if len(b.YesBids) > 0 {
		best := b.YesBids[0].Price
		for _, lvl := range b.YesBids {
			if best-lvl.Price <= depthCents {
				total += int64(lvl.Price) * lvl.Quantity
			}
		}
	}

	if len(b.YesAsks) > 0 {
		best := b.YesAsks[0].Price
		for _, lvl := range b.YesAsks {
			if lvl.Price-best <= depthCents {
				total += int64(lvl.Price) * lvl.Quantity
			}
		}
	}

	return total
}

// Opportunity is a market+orderbook pairing that passed every acceptance
// filter. EntryPrice is the ask actually payable, which is the authoritative
// input to all thresholds; the bid is only ever a quick screen.
type Opportunity struct {
	Market      Market
	OrderBook   OrderBook
	Side        Side
	EntryPrice  int     // cents
	Liquidity   int64   // cents
	Probability float64 // implied by EntryPrice, in [0, 1]
}

// ExpectedProfitPerContract is the payout if the position settles at 100c.
func (o *Opportunity) ExpectedProfitPerContract() int {
	return 100 - o.EntryPrice
}
