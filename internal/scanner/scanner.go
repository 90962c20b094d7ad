package scanner

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// MarketSource is the slice of the venue gateway the scanner needs.
type MarketSource interface {
	GetMarkets(ctx context.Context, p kalshi.MarketsParams) ([]*types.Market, string, error)
	GetMarket(ctx context.Context, ticker string) (*types.Market, error)
	GetOrderbook(ctx context.Context, ticker string) (*types.OrderBook, error)
}

// Scanner walks the open-market listing looking for entry opportunities.
// It paginates with the venue cursor, applies the cheap filters before
// paying for an orderbook fetch, and claims each qualifying ticker and its
// event immediately so one scan never yields two sides of the same game.
type Scanner struct {
	client  MarketSource
	cfg     *config.Config
	filters *Filters
	logger  *zap.Logger

	existingPositions map[string]struct{}
	existingEvents    map[string]struct{}
}

// New creates a scanner.
func New(client MarketSource, cfg *config.Config, logger *zap.Logger) *Scanner {
	return &Scanner{
		client:            client,
		cfg:               cfg,
		filters:           NewFilters(cfg, logger),
		logger:            logger,
		existingPositions: make(map[string]struct{}),
		existingEvents:    make(map[string]struct{}),
	}
}

// SetExistingPositions records tickers to skip. Event prefixes are derived
// too, so the scanner won't bet both sides of a game it already has a
// position in (e.g. YES on both KXNCAAMBGAME-...-MIW and -ARW).
func (s *Scanner) SetExistingPositions(tickers []string) {
	s.existingPositions = make(map[string]struct{}, len(tickers))
	s.existingEvents = make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		s.existingPositions[t] = struct{}{}
		s.existingEvents[eventPrefix(t)] = struct{}{}
	}
}

// eventPrefix strips the team suffix off a game ticker: for
// KXNCAAMBGAME-26FEB151800ARWMIW-MIW it returns everything before the
// last dash.
func eventPrefix(ticker string) string {
	if i := strings.LastIndexByte(ticker, '-'); i > 0 {
		return ticker[:i]
	}
	return ticker
}

// ScanIter walks the listing and calls yield for each opportunity as it is
// found, so the caller can enter positions without waiting for the full
// scan. The walk stops early if yield returns false or ctx is cancelled.
func (s *Scanner) ScanIter(ctx context.Context, yield func(*types.Opportunity) bool) error {
	s.logger.Info("scan-started",
		zap.String("category", s.cfg.MarketCategory),
		zap.Int64("liquidity-threshold-usd", s.cfg.LiquidityThresholdUSD),
		zap.Float64("probability-min", s.cfg.ProbabilityMin),
		zap.Float64("probability-max", s.cfg.ProbabilityMax))

	var maxCloseTs int64
	if s.cfg.MaxHoursUntilClose > 0 {
		maxCloseTs = time.Now().UTC().
			Add(time.Duration(s.cfg.MaxHoursUntilClose) * time.Hour).
			Unix()
	}

	var checked, quickPassed, found int
	cursor := ""

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		markets, nextCursor, err := s.client.GetMarkets(ctx, kalshi.MarketsParams{
			Status:     "open",
			Limit:      s.cfg.ScanPageLimit,
			Cursor:     cursor,
			MaxCloseTs: maxCloseTs,
		})
		if err != nil {
			return err
		}
		if len(markets) == 0 {
			break
		}

		for _, m := range markets {
			checked++

			if _, ok := s.existingPositions[m.Ticker]; ok {
				continue
			}
			prefix := eventPrefix(m.Ticker)
			if _, ok := s.existingEvents[prefix]; ok {
				s.logger.Debug("scan-skip-same-event", zap.String("ticker", m.Ticker))
				continue
			}

			if !s.filters.PassesCategory(m) {
				continue
			}
			if !s.filters.QuickFilter(m) {
				continue
			}
			quickPassed++

			opp, err := s.evaluate(ctx, m)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("scan-evaluate-error",
					zap.String("ticker", m.Ticker), zap.Error(err))
				continue
			}
			if opp == nil {
				continue
			}

			found++
			OpportunitiesFound.Inc()
			// Claim the ticker and event now so later pages can't yield the
			// other side of the same game.
			s.existingPositions[m.Ticker] = struct{}{}
			s.existingEvents[prefix] = struct{}{}

			if !yield(opp) {
				return nil
			}
		}

		if nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	MarketsScanned.Add(float64(checked))
	s.logger.Info("scan-complete",
		zap.Int("markets-checked", checked),
		zap.Int("quick-passed", quickPassed),
		zap.Int("opportunities", found))
	return nil
}

// evaluate fetches the book when the liquidity filter needs one and runs
// the full pipeline. With a zero threshold the book fetch is skipped and
// the market's quoted asks price the entry.
func (s *Scanner) evaluate(ctx context.Context, m *types.Market) (*types.Opportunity, error) {
	var book *types.OrderBook
	if s.cfg.LiquidityThresholdUSD > 0 {
		var err error
		book, err = s.client.GetOrderbook(ctx, m.Ticker)
		if err != nil {
			return nil, err
		}
	} else {
		book = &types.OrderBook{Ticker: m.Ticker, FetchedAt: time.Now()}
	}
	return s.filters.Evaluate(m, book), nil
}

// Scan collects all opportunities, sorted by liquidity descending.
func (s *Scanner) Scan(ctx context.Context) ([]*types.Opportunity, error) {
	var opps []*types.Opportunity
	err := s.ScanIter(ctx, func(o *types.Opportunity) bool {
		opps = append(opps, o)
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(opps, func(i, j int) bool { return opps[i].Liquidity > opps[j].Liquidity })
	return opps, nil
}

// ScanSingle evaluates one ticker through the full pipeline.
func (s *Scanner) ScanSingle(ctx context.Context, ticker string) (*types.Opportunity, error) {
	m, err := s.client.GetMarket(ctx, ticker)
	if err != nil {
		return nil, err
	}
	book, err := s.client.GetOrderbook(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return s.filters.Evaluate(m, book), nil
}
