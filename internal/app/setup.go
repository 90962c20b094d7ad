package app

import (
	"context"
	"fmt"
	"math/rand"
	"time"

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

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	client, err := kalshi.New(cfg, marketCache, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup kalshi client: %w", err)
	}

	tradeLedger, err := ledger.New(cfg.TradeLogPath, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup trade ledger: %w", err)
	}

	dailyStats := ledger.NewDailyStats()
	if err := dailyStats.LoadPrior(tradeLedger); err != nil {
		logger.Warn("prior-trades-unavailable", zap.Error(err))
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	marketScanner := scanner.New(client, cfg, logger)
	tradeStrategy := strategy.New(cfg, logger)
	positionMonitor := execution.NewPositionMonitor(client, logger)
	orderManager := execution.NewOrderManager(client, cfg, logger)
	tracker := portfolio.New(client, positionMonitor, cfg, logger)

	a := &App{
		cfg:             cfg,
		logger:          logger,
		healthChecker:   healthChecker,
		client:          client,
		marketCache:     marketCache,
		scanner:         marketScanner,
		strategy:        tradeStrategy,
		orderManager:    orderManager,
		positionMonitor: positionMonitor,
		portfolio:       tracker,
		tradeLedger:     tradeLedger,
		dailyStats:      dailyStats,
		store:           store,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
		ctx:             ctx,
		cancel:          cancel,
	}

	a.exitHandler = execution.NewExitHandler(
		orderManager, positionMonitor, tradeStrategy, &exitRecorder{app: a}, cfg, logger)

	a.httpServer = httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Positions:     positionMonitor,
		Orders:        orderManager,
	})

	return a, nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.TradeStore, error) {
	if cfg.StorageMode == "postgres" {
		store, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return store, nil
	}

	return storage.NewConsoleStore(logger), nil
}
