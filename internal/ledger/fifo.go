package ledger

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RoundTrip is an exit FIFO-matched against prior entries on the same
// ticker. Contracts is how many the exit actually closed; an exit with no
// matching entries (position opened before today) produces no round trip.
type RoundTrip struct {
	Ticker      string
	Contracts   int64
	EntryCost   int64 // cents
	ExitRevenue int64 // cents
	PnL         int64 // cents
}

// DailyStats accumulates today's trades across sessions: prior trades
// reloaded from the ledger file plus trades recorded live this session.
type DailyStats struct {
	mu            sync.Mutex
	sessionStart  time.Time
	priorTrades   []TradeRecord
	sessionTrades []TradeRecord
}

// NewDailyStats creates an empty accumulator.
func NewDailyStats() *DailyStats {
	return &DailyStats{sessionStart: time.Now()}
}

// LoadPrior pulls today's earlier trades from the ledger.
func (d *DailyStats) LoadPrior(l *Ledger) error {
	records, err := l.LoadToday()
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.priorTrades = records
	d.mu.Unlock()
	return nil
}

// Record adds a trade made this session.
func (d *DailyStats) Record(rec TradeRecord) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	d.mu.Lock()
	d.sessionTrades = append(d.sessionTrades, rec)
	d.mu.Unlock()
}

// AllTrades returns prior plus session trades, oldest first.
func (d *DailyStats) AllTrades() []TradeRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	all := make([]TradeRecord, 0, len(d.priorTrades)+len(d.sessionTrades))
	all = append(all, d.priorTrades...)
	all = append(all, d.sessionTrades...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all
}

// RoundTrips matches exits against entries per ticker in FIFO order.
// Partial matches are supported in both directions: one exit can consume
// several entry lots, and an entry lot can be drained by several exits.
func (d *DailyStats) RoundTrips() []RoundTrip {
	type lot struct {
		price     int64
		remaining int64
	}
	queues := make(map[string][]lot)
	var trips []RoundTrip

	for _, t := range d.AllTrades() {
		switch t.Action {
		case ActionEntry:
			queues[t.Ticker] = append(queues[t.Ticker], lot{
				price:     int64(t.Price),
				remaining: t.Contracts,
			})
		case ActionExit:
			queue := queues[t.Ticker]
			exitLeft := t.Contracts
			var matchedCost, matchedContracts int64

			for exitLeft > 0 && len(queue) > 0 {
				take := exitLeft
				if queue[0].remaining < take {
					take = queue[0].remaining
				}
				matchedCost += queue[0].price * take
				matchedContracts += take
				queue[0].remaining -= take
				exitLeft -= take
				if queue[0].remaining == 0 {
					queue = queue[1:]
				}
			}
			queues[t.Ticker] = queue

			if matchedContracts > 0 {
				revenue := int64(t.Price) * matchedContracts
				trips = append(trips, RoundTrip{
					Ticker:      t.Ticker,
					Contracts:   matchedContracts,
					EntryCost:   matchedCost,
					ExitRevenue: revenue,
					PnL:         revenue - matchedCost,
				})
			}
		}
	}
	return trips
}

// Summary is the day's aggregate picture.
type Summary struct {
	Date           string
	RealizedPnL    int64 // cents
	ClosedTrades   int
	Wins           int
	Losses         int
	TradeCount     int
	Entries        int
	Exits          int
	ContractsIn    int64
	ContractsOut   int64
	UniqueMarkets  int
	OpenPositions  int
	UnrealizedCost int64 // cents of entry cost still open
	AvgEntryPrice  float64
}

// Summarize computes the daily summary given the current open position
// count.
func (d *DailyStats) Summarize(openPositions int) Summary {
	all := d.AllTrades()

	s := Summary{
		Date:          time.Now().Format("2006-01-02"),
		TradeCount:    len(all),
		OpenPositions: openPositions,
	}

	var totalEntryCost int64
	unique := make(map[string]struct{})
	for _, t := range all {
		unique[t.Ticker] = struct{}{}
		switch t.Action {
		case ActionEntry:
			s.Entries++
			s.ContractsIn += t.Contracts
			totalEntryCost += int64(t.Price) * t.Contracts
		case ActionExit:
			s.Exits++
			s.ContractsOut += t.Contracts
		}
	}
	s.UniqueMarkets = len(unique)

	var matchedCost int64
	for _, rt := range d.RoundTrips() {
		s.RealizedPnL += rt.PnL
		matchedCost += rt.EntryCost
		if rt.PnL > 0 {
			s.Wins++
		} else {
			s.Losses++
		}
	}
	s.ClosedTrades = s.Wins + s.Losses
	s.UnrealizedCost = totalEntryCost - matchedCost

	if s.ContractsIn > 0 {
		s.AvgEntryPrice = float64(totalEntryCost) / float64(s.ContractsIn)
	}
	return s
}

// LogSummary writes the daily summary to the log.
func (d *DailyStats) LogSummary(logger *zap.Logger, openPositions int) {
	s := d.Summarize(openPositions)

	fields := []zap.Field{
		zap.String("date", s.Date),
		zap.Float64("realized-pnl-usd", float64(s.RealizedPnL)/100),
		zap.Int("closed-trades", s.ClosedTrades),
		zap.Int("trades", s.TradeCount),
		zap.Int("entries", s.Entries),
		zap.Int("exits", s.Exits),
		zap.Int64("contracts-bought", s.ContractsIn),
		zap.Int64("contracts-sold", s.ContractsOut),
		zap.Int("unique-markets", s.UniqueMarkets),
		zap.Int("open-positions", s.OpenPositions),
	}
	if s.ClosedTrades > 0 {
		fields = append(fields,
			zap.Int("wins", s.Wins),
			zap.Int("losses", s.Losses),
			zap.Float64("win-rate", float64(s.Wins)/float64(s.ClosedTrades)))
	}
	if s.UnrealizedCost > 0 {
		fields = append(fields, zap.Float64("capital-in-open-usd", float64(s.UnrealizedCost)/100))
	}
	if s.ContractsIn > 0 {
		fields = append(fields, zap.Float64("avg-entry-price-cents", s.AvgEntryPrice))
	}

	logger.Info("daily-summary", fields...)
}
