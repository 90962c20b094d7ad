package kalshi

import (
	"sort"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
)

func parseVenueTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toMarket(m kalshiMarket) *types.Market {
	return &types.Market{
		Ticker:                 m.Ticker,
		Title:                  m.Title,
		Category:               m.Category,
		Status:                 types.MarketStatus(m.Status),
		YesBid:                 m.YesBid,
		YesAsk:                 m.YesAsk,
		NoBid:                  m.NoBid,
		NoAsk:                  m.NoAsk,
		LastPrice:              m.LastPrice,
		Volume:                 m.Volume,
		Volume24h:              m.Volume24H,
		OpenInterest:           m.OpenInterest,
		CloseTime:              parseVenueTime(m.CloseTime),
		ExpectedExpirationTime: parseVenueTime(m.ExpectedExpirationTime),
	}
}

// toOrderBook normalizes the venue book. The wire carries only resting YES
// and NO bids; YES asks are synthesized from NO bids at the complement
// price (a NO bid at p fills a YES buy at 100-p). Bids are sorted best
// (highest) first, asks best (lowest) first.
func toOrderBook(ticker string, ob kalshiOrderbook) *types.OrderBook {
	book := &types.OrderBook{
		Ticker:    ticker,
		FetchedAt: time.Now(),
	}

	for _, level := range ob.Yes {
		if len(level) < 2 {
			continue
		}
		book.YesBids = append(book.YesBids, types.PriceLevel{
			Price:    int(level[0]),
			Quantity: level[1],
		})
	}
	for _, level := range ob.No {
		if len(level) < 2 {
			continue
		}
		book.NoBids = append(book.NoBids, types.PriceLevel{
			Price:    int(level[0]),
			Quantity: level[1],
		})
		book.YesAsks = append(book.YesAsks, types.PriceLevel{
			Price:    100 - int(level[0]),
			Quantity: level[1],
		})
	}

	sort.Slice(book.YesBids, func(i, j int) bool { return book.YesBids[i].Price > book.YesBids[j].Price })
	sort.Slice(book.NoBids, func(i, j int) bool { return book.NoBids[i].Price > book.NoBids[j].Price })
	sort.Slice(book.YesAsks, func(i, j int) bool { return book.YesAsks[i].Price < book.YesAsks[j].Price })

	return book
}

func toOrderResult(o kalshiOrder) *types.OrderResult {
	price := o.YesPrice
	if o.Side == "no" {
		price = o.NoPrice
	}
	return &types.OrderResult{
		OrderID:            o.OrderID,
		Ticker:             o.Ticker,
		Status:             types.OrderStatus(o.Status),
		FilledContracts:    o.TakerFillCount,
		RemainingContracts: o.RemainingCount,
		AveragePrice:       price,
		CreatedAt:          parseVenueTime(o.CreatedTime),
	}
}

// toFill normalizes a fill to a YES-side price so downstream cost math is
// uniform: a NO fill at yes_price p cost 100-p per contract.
func toFill(f kalshiFill) types.Fill {
	side := types.SideYes
	price := f.YesPrice
	if f.Side == "no" {
		side = types.SideNo
		price = 100 - f.YesPrice
	}
	action := types.ActionBuy
	if f.Action == "sell" {
		action = types.ActionSell
	}
	return types.Fill{
		Ticker:    f.Ticker,
		Side:      side,
		Action:    action,
		Count:     f.Count,
		Price:     price,
		CreatedAt: parseVenueTime(f.CreatedTime),
	}
}
