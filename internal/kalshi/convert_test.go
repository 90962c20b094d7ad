package kalshi

import (
	"testing"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
)

func TestToOrderBookDerivesYesAsks(t *testing.T) {
	ob := kalshiOrderbook{
		Yes: [][]int64{{40, 100}, {42, 50}},
		No:  [][]int64{{55, 200}, {57, 80}},
	}

	book := toOrderBook("KXTEST-26-A", ob)

	if len(book.YesBids) != 2 || book.YesBids[0].Price != 42 {
		t.Errorf("best yes bid = %+v, want price 42 first", book.YesBids)
	}
	if len(book.NoBids) != 2 || book.NoBids[0].Price != 57 {
		t.Errorf("best no bid = %+v, want price 57 first", book.NoBids)
	}

	// A NO bid at 57 fills a YES buy at 43, so 43 is the best YES ask.
	if len(book.YesAsks) != 2 {
		t.Fatalf("yes asks = %+v, want 2 levels", book.YesAsks)
	}
	if book.YesAsks[0].Price != 43 || book.YesAsks[0].Quantity != 80 {
		t.Errorf("best yes ask = %+v, want {43 80}", book.YesAsks[0])
	}
	if book.YesAsks[1].Price != 45 || book.YesAsks[1].Quantity != 200 {
		t.Errorf("second yes ask = %+v, want {45 200}", book.YesAsks[1])
	}
}

func TestToOrderBookEmptyAndMalformedLevels(t *testing.T) {
	book := toOrderBook("KXTEST-26-B", kalshiOrderbook{
		Yes: [][]int64{{40}},
		No:  nil,
	})
	if len(book.YesBids) != 0 || len(book.YesAsks) != 0 {
		t.Errorf("malformed levels should be dropped, got %+v", book)
	}
	if book.BestPrice(types.SideYes, types.ActionBuy) != 0 {
		t.Error("empty book should quote 0")
	}
}

func TestToFillNormalizesNoSidePrice(t *testing.T) {
	f := toFill(kalshiFill{
		Ticker:      "KXTEST-26-C",
		Side:        "no",
		Action:      "buy",
		Count:       10,
		YesPrice:    35,
		CreatedTime: "2026-08-30T14:00:00Z",
	})

	if f.Side != types.SideNo {
		t.Errorf("side = %v, want no", f.Side)
	}
	// Buying NO at yes_price 35 costs 65 cents per contract.
	if f.Price != 65 {
		t.Errorf("price = %d, want 65", f.Price)
	}
	if f.CreatedAt.IsZero() {
		t.Error("created time should parse")
	}
}

func TestToMarketParsesTimes(t *testing.T) {
	m := toMarket(kalshiMarket{
		Ticker:                 "KXTEST-26-D",
		Status:                 "active",
		YesBid:                 44,
		YesAsk:                 46,
		CloseTime:              "2026-09-01T00:00:00Z",
		ExpectedExpirationTime: "2026-09-01T03:00:00Z",
	})

	if m.Status != types.StatusActive {
		t.Errorf("status = %v", m.Status)
	}
	want := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if !m.CloseTime.Equal(want) {
		t.Errorf("close time = %v, want %v", m.CloseTime, want)
	}
	if !m.ExpectedExpirationTime.After(m.CloseTime) {
		t.Error("expected expiration should be after close")
	}
}

func TestParseVenueTimeInvalid(t *testing.T) {
	if !parseVenueTime("").IsZero() {
		t.Error("empty string should give zero time")
	}
	if !parseVenueTime("not-a-time").IsZero() {
		t.Error("garbage should give zero time")
	}
}

func TestToOrderResultUsesTradedSidePrice(t *testing.T) {
	r := toOrderResult(kalshiOrder{
		OrderID:        "ord-1",
		Ticker:         "KXTEST-26-E",
		Side:           "no",
		Status:         "resting",
		YesPrice:       40,
		NoPrice:        60,
		RemainingCount: 5,
	})
	if r.AveragePrice != 60 {
		t.Errorf("price = %d, want no_price 60", r.AveragePrice)
	}
	if !r.Status.IsLive() {
		t.Error("resting order should be live")
	}
}
