package app

import (
	"context"
	"math/rand"
	"sync"

	"github.com/probmarkets/kalshi-bot/internal/execution"
	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/internal/ledger"
	"github.com/probmarkets/kalshi-bot/internal/portfolio"
	"github.com/probmarkets/kalshi-bot/internal/scanner"
	"github.com/probmarkets/kalshi-bot/internal/storage"
	"github.com/probmarkets/kalshi-bot/internal/strategy"
	"github.com/probmarkets/kalshi-bot/pkg/cache"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/healthprobe"
	"github.com/probmarkets/kalshi-bot/pkg/httpserver"
	"go.uber.org/zap"
)

// App wires the bot together and owns the trading loop lifecycle.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server

	client          *kalshi.Client
	marketCache     cache.Cache
	scanner         *scanner.Scanner
	strategy        *strategy.HighProbability
	orderManager    *execution.OrderManager
	positionMonitor *execution.PositionMonitor
	exitHandler     *execution.ExitHandler
	portfolio       *portfolio.Tracker
	tradeLedger     *ledger.Ledger
	dailyStats      *ledger.DailyStats
	store           storage.TradeStore

	rng    *rand.Rand
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}
