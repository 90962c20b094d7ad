package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Kalshi API
	KalshiBaseURL        string
	KalshiAPIKeyID       string
	KalshiPrivateKeyPath string
	RateLimitRequests    int
	RateLimitWindow      time.Duration
	RetryMaxAttempts     int
	RetryBaseDelay       time.Duration
	RetryMaxDelay        time.Duration

	// Scanner
	MarketCategory        string
	LiquidityThresholdUSD int64
	ProbabilityMin        float64
	ProbabilityMax        float64
	MinMarketVolume       int64
	MaxHoursUntilClose    int
	IncludeLiveMarkets    bool
	ScanPageLimit         int

	// Strategy
	ProfitTargetPercent float64
	StopLossPercent     float64 // 0 disables the stop-loss
	StopLossMinVolume   int64
	MinPositionPercent  float64
	MaxPositionPercent  float64
	MinContracts        int64
	MaxPositions        int
	CompoundProfits     bool

	// Execution
	ScanInterval        time.Duration
	OrderTimeout        time.Duration
	DryRun              bool

	// Ledger / storage
	TradeLogPath string
	StorageMode  string // "file" or "postgres" (postgres mirrors the file ledger)
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Kalshi API defaults
		KalshiBaseURL:        getEnvOrDefault("KALSHI_BASE_URL", "https://api.elections.kalshi.com/trade-api/v2"),
		KalshiAPIKeyID:       os.Getenv("KALSHI_API_KEY_ID"),
		KalshiPrivateKeyPath: getEnvOrDefault("KALSHI_PRIVATE_KEY_PATH", "private_key.pem"),
		RateLimitRequests:    getIntOrDefault("KALSHI_RATE_LIMIT_REQUESTS", 20),
		RateLimitWindow:      getDurationOrDefault("KALSHI_RATE_LIMIT_WINDOW", time.Second),
		RetryMaxAttempts:     getIntOrDefault("KALSHI_RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:       getDurationOrDefault("KALSHI_RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:        getDurationOrDefault("KALSHI_RETRY_MAX_DELAY", 60*time.Second),

		// Scanner defaults
		MarketCategory:        getEnvOrDefault("SCAN_MARKET_CATEGORY", "all"),
		LiquidityThresholdUSD: getInt64OrDefault("SCAN_LIQUIDITY_THRESHOLD_USD", 50000),
		ProbabilityMin:        getFloat64OrDefault("SCAN_PROBABILITY_MIN", 0.80),
		ProbabilityMax:        getFloat64OrDefault("SCAN_PROBABILITY_MAX", 0.90),
		MinMarketVolume:       getInt64OrDefault("SCAN_MIN_MARKET_VOLUME", 0),
		MaxHoursUntilClose:    getIntOrDefault("SCAN_MAX_HOURS_UNTIL_CLOSE", 24),
		IncludeLiveMarkets:    getBoolOrDefault("SCAN_INCLUDE_LIVE_MARKETS", false),
		ScanPageLimit:         getIntOrDefault("SCAN_PAGE_LIMIT", 200),

		// Strategy defaults
		ProfitTargetPercent: getFloat64OrDefault("STRATEGY_PROFIT_TARGET_PERCENT", 0.065),
		StopLossPercent:     getFloat64OrDefault("STRATEGY_STOP_LOSS_PERCENT", 0),
		StopLossMinVolume:   getInt64OrDefault("STRATEGY_STOP_LOSS_MIN_VOLUME", 100000),
		MinPositionPercent:  getFloat64OrDefault("STRATEGY_MIN_POSITION_PERCENT", 0.02),
		MaxPositionPercent:  getFloat64OrDefault("STRATEGY_MAX_POSITION_PERCENT", 0.10),
		MinContracts:        getInt64OrDefault("STRATEGY_MIN_CONTRACTS", 1),
		MaxPositions:        getIntOrDefault("STRATEGY_MAX_POSITIONS", 10),
		CompoundProfits:     getBoolOrDefault("STRATEGY_COMPOUND_PROFITS", true),

		// Execution defaults
		ScanInterval: getDurationOrDefault("BOT_SCAN_INTERVAL", 60*time.Second),
		OrderTimeout: getDurationOrDefault("BOT_ORDER_TIMEOUT", 300*time.Second),
		DryRun:       getBoolOrDefault("BOT_DRY_RUN", false),

		// Ledger / storage defaults
		TradeLogPath: getEnvOrDefault("TRADE_LOG_PATH", "logs/trades.log"),
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "file"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "kalshi"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "kalshi123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "kalshi_bot"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.KalshiBaseURL == "" {
		return fmt.Errorf("KALSHI_BASE_URL cannot be empty")
	}

	if c.ProbabilityMin < 0.5 || c.ProbabilityMin > 0.99 {
		return fmt.Errorf("SCAN_PROBABILITY_MIN must be between 0.5 and 0.99, got %f", c.ProbabilityMin)
	}

	if c.ProbabilityMax < c.ProbabilityMin || c.ProbabilityMax > 0.99 {
		return fmt.Errorf("SCAN_PROBABILITY_MAX must be between SCAN_PROBABILITY_MIN and 0.99, got %f", c.ProbabilityMax)
	}

	if c.ProfitTargetPercent <= 0 || c.ProfitTargetPercent > 0.50 {
		return fmt.Errorf("STRATEGY_PROFIT_TARGET_PERCENT must be between 0 and 0.50, got %f", c.ProfitTargetPercent)
	}

	if c.StopLossPercent < 0 || c.StopLossPercent > 0.50 {
		return fmt.Errorf("STRATEGY_STOP_LOSS_PERCENT must be between 0 and 0.50, got %f", c.StopLossPercent)
	}

	if c.MinPositionPercent <= 0 || c.MinPositionPercent > c.MaxPositionPercent {
		return fmt.Errorf("STRATEGY_MIN_POSITION_PERCENT must be positive and not exceed STRATEGY_MAX_POSITION_PERCENT")
	}

	if c.MaxPositionPercent > 0.50 {
		return fmt.Errorf("STRATEGY_MAX_POSITION_PERCENT must not exceed 0.50, got %f", c.MaxPositionPercent)
	}

	if c.MaxPositions < 1 {
		return fmt.Errorf("STRATEGY_MAX_POSITIONS must be at least 1, got %d", c.MaxPositions)
	}

	if c.MinContracts < 1 {
		return fmt.Errorf("STRATEGY_MIN_CONTRACTS must be at least 1, got %d", c.MinContracts)
	}

	if c.ScanInterval < 10*time.Second {
		return fmt.Errorf("BOT_SCAN_INTERVAL must be at least 10s, got %s", c.ScanInterval)
	}

	if c.OrderTimeout < time.Minute {
		return fmt.Errorf("BOT_ORDER_TIMEOUT must be at least 1m, got %s", c.OrderTimeout)
	}

	if c.StorageMode != "file" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'file' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
