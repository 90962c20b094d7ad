package scanner

import (
	"strings"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// Approximate game duration for estimating start time from expected
// expiration.
const gameDuration = 3 * time.Hour

// liquidityDepthCents is how far from the best level book depth counts
// toward the liquidity measure.
const liquidityDepthCents = 5

// entryPriceCap is a hard ceiling: never buy above 90c no matter what the
// configured probability band allows.
const entryPriceCap = 90

// Filters qualifies markets as opportunities. The cheap checks (category,
// bids, volume, close time, probability band) run on market data alone so
// the scanner can avoid an orderbook fetch for markets that cannot qualify.
type Filters struct {
	cfg    *config.Config
	logger *zap.Logger

	liquidityThresholdCents int64

	// now is swappable for date-sensitive tests.
	now func() time.Time
}

// NewFilters creates the filter pipeline from trading config.
func NewFilters(cfg *config.Config, logger *zap.Logger) *Filters {
	return &Filters{
		cfg:                     cfg,
		logger:                  logger,
		liquidityThresholdCents: cfg.LiquidityThresholdUSD * 100,
		now:                     time.Now,
	}
}

// PassesCategory reports whether the market matches the configured
// category and is not excluded.
func (f *Filters) PassesCategory(m *types.Market) bool {
	return MatchesCategory(m, f.cfg.MarketCategory)
}

// QuickFilter runs every check that needs no orderbook. A false return
// means the market cannot qualify and its book should not be fetched.
func (f *Filters) QuickFilter(m *types.Market) bool {
	// status=active only means "open for trading", not "game in progress",
	// so in-play detection goes through expected expiration instead.
	if !f.cfg.IncludeLiveMarkets && f.isGameInProgress(m) {
		return false
	}

	if !m.HasLiquidity() {
		f.logger.Debug("quick-filter-no-bids", zap.String("ticker", m.Ticker))
		return false
	}

	if f.cfg.MinMarketVolume > 0 && m.Volume < f.cfg.MinMarketVolume {
		f.logger.Debug("quick-filter-low-volume",
			zap.String("ticker", m.Ticker),
			zap.Int64("volume", m.Volume),
			zap.Int64("min", f.cfg.MinMarketVolume))
		return false
	}

	// Basketball game tickers carry the game date; close times are weeks
	// out, so the close-time window doesn't apply to them.
	if f.isBasketballCategory() {
		if !f.isTodaysGame(m) {
			return false
		}
	} else if f.cfg.MaxHoursUntilClose > 0 && !m.CloseTime.IsZero() {
		hoursUntilClose := m.CloseTime.Sub(f.now()).Hours()
		if hoursUntilClose > float64(f.cfg.MaxHoursUntilClose) {
			f.logger.Debug("quick-filter-closes-too-late",
				zap.String("ticker", m.Ticker),
				zap.Float64("hours-until-close", hoursUntilClose))
			return false
		}
		if hoursUntilClose < 0 {
			f.logger.Debug("quick-filter-already-closed", zap.String("ticker", m.Ticker))
			return false
		}
	}

	if _, ok := f.PassesProbability(m); !ok {
		return false
	}
	return true
}

func (f *Filters) isBasketballCategory() bool {
	switch strings.ToLower(f.cfg.MarketCategory) {
	case "college_basketball", "basketball":
		return true
	}
	return false
}

// isTodaysGame checks the ticker for today's date. Kalshi encodes game
// dates in tickers like KXNCAAMBGAME-26FEB16...; local time is used since
// ticker dates correspond to US game dates.
func (f *Filters) isTodaysGame(m *types.Market) bool {
	today := strings.ToUpper(f.now().Local().Format("Jan02"))
	return strings.Contains(strings.ToUpper(m.Ticker), today)
}

// isGameInProgress estimates in-play status: game start is approximated as
// expected expiration minus a typical game duration.
func (f *Filters) isGameInProgress(m *types.Market) bool {
	if m.ExpectedExpirationTime.IsZero() {
		return false
	}
	estimatedStart := m.ExpectedExpirationTime.Add(-gameDuration)
	return f.now().After(estimatedStart)
}

// PassesLiquidity checks book depth against the configured threshold,
// falling back to volume as a proxy when the book is empty. Many markets
// quote through market makers with no resting orders, so an empty book
// with live bids is not treated as illiquid outright.
func (f *Filters) PassesLiquidity(m *types.Market, book *types.OrderBook) bool {
	liquidity := book.Liquidity(liquidityDepthCents)

	if liquidity == 0 && m.HasLiquidity() {
		if f.liquidityThresholdCents == 0 {
			return true
		}
		liquidity = int64(float64(m.Volume) * m.MidPrice())
	}

	if liquidity < f.liquidityThresholdCents {
		f.logger.Debug("filter-insufficient-liquidity",
			zap.String("ticker", m.Ticker),
			zap.Int64("liquidity-cents", liquidity),
			zap.Int64("threshold-cents", f.liquidityThresholdCents))
		return false
	}
	return true
}

// PassesProbability screens for a YES side that could land in the
// configured band, checking the bid first and then the ask for wide-spread
// markets. Only YES is considered: on paired game tickers buying YES on
// one side is buying NO on the other, and trading both would duplicate
// the same bet.
func (f *Filters) PassesProbability(m *types.Market) (types.Side, bool) {
	yesProb := m.YesProbability()
	if yesProb >= f.cfg.ProbabilityMin && yesProb <= f.cfg.ProbabilityMax {
		return types.SideYes, true
	}

	if m.YesAsk > 0 {
		askProb := float64(m.YesAsk) / 100
		if askProb >= f.cfg.ProbabilityMin && askProb <= f.cfg.ProbabilityMax {
			return types.SideYes, true
		}
	}

	f.logger.Debug("filter-probability-out-of-band",
		zap.String("ticker", m.Ticker),
		zap.Float64("yes-prob", yesProb),
		zap.Int("yes-ask", m.YesAsk))
	return "", false
}

// entryPrice resolves the ask actually payable for the side: the book's
// best ask when present, else the market's quoted ask.
func (f *Filters) entryPrice(m *types.Market, book *types.OrderBook, side types.Side) int {
	if price := book.BestPrice(side, types.ActionBuy); price > 0 {
		return price
	}
	if side == types.SideYes {
		return m.YesAsk
	}
	return m.NoAsk
}

// Evaluate runs the full pipeline on one market and its book. The entry
// price (ask) is authoritative for the final probability check: it is what
// would actually be paid, so it is the real implied probability.
func (f *Filters) Evaluate(m *types.Market, book *types.OrderBook) *types.Opportunity {
	if !f.PassesCategory(m) {
		return nil
	}
	if !f.PassesLiquidity(m, book) {
		return nil
	}

	side, ok := f.PassesProbability(m)
	if !ok {
		return nil
	}

	entryPrice := f.entryPrice(m, book, side)
	if entryPrice <= 0 {
		f.logger.Debug("filter-no-asks", zap.String("ticker", m.Ticker))
		return nil
	}
	if entryPrice > entryPriceCap {
		f.logger.Debug("filter-above-price-cap",
			zap.String("ticker", m.Ticker),
			zap.Int("entry-price", entryPrice))
		return nil
	}
	if entryPrice < 1 || entryPrice >= 100 {
		return nil
	}

	probability := float64(entryPrice) / 100
	if probability < f.cfg.ProbabilityMin || probability > f.cfg.ProbabilityMax {
		f.logger.Debug("filter-entry-price-out-of-band",
			zap.String("ticker", m.Ticker),
			zap.Int("entry-price", entryPrice),
			zap.Float64("probability", probability))
		return nil
	}

	liquidity := book.Liquidity(liquidityDepthCents)
	if liquidity == 0 && m.Volume > 0 {
		liquidity = int64(float64(m.Volume) * m.MidPrice())
	}

	opp := &types.Opportunity{
		Market:      *m,
		OrderBook:   *book,
		Side:        side,
		EntryPrice:  entryPrice,
		Liquidity:   liquidity,
		Probability: probability,
	}

	f.logger.Info("opportunity-found",
		zap.String("ticker", m.Ticker),
		zap.String("side", string(side)),
		zap.Int("entry-price", entryPrice),
		zap.Float64("probability", probability),
		zap.Int64("liquidity-cents", liquidity))
	return opp
}
