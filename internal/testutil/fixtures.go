package testutil

import (
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/probmarkets/kalshi-bot/pkg/types"
)

// HighProbMarketSpec creates a market in the 80-90% band with liquidity at
// both quotes, closing in 12 hours.
func HighProbMarketSpec(ticker string) MarketSpec {
	now := time.Now()
	return MarketSpec{
		Ticker:             ticker,
		EventTicker:        ticker,
		Title:              "Will the heavy favorite win",
		Category:           "Politics",
		Status:             "active",
		YesBid:             84,
		YesAsk:             86,
		NoBid:              14,
		NoAsk:              16,
		Volume:             50000,
		Liquidity:          200000,
		CloseTime:          now.Add(12 * time.Hour),
		ExpectedExpiration: now.Add(13 * time.Hour),
	}
}

// DeepBookSpec creates a book with plenty of depth around an 85c YES quote.
// NO bids double as YES asks at 100-p on the wire.
func DeepBookSpec() BookSpec {
	return BookSpec{
		Yes: [][]int64{{84, 500}, {83, 400}, {82, 300}},
		No:  [][]int64{{14, 500}, {13, 400}, {12, 300}},
	}
}

// TestOpportunity creates an opportunity at an 86c YES entry.
func TestOpportunity(ticker string) *types.Opportunity {
	return &types.Opportunity{
		Market: types.Market{
			Ticker:   ticker,
			Title:    "Will the heavy favorite win",
			Category: "Politics",
			Status:   types.StatusActive,
			YesBid:   84,
			YesAsk:   86,
			NoBid:    14,
			NoAsk:    16,
			Volume:   50000,
		},
		Side:        types.SideYes,
		EntryPrice:  86,
		Liquidity:   200000,
		Probability: 0.86,
	}
}

// TestPosition creates an open YES position.
func TestPosition(ticker string, contracts int64, entry, current float64) *types.Position {
	return &types.Position{
		Ticker:            ticker,
		Side:              types.SideYes,
		Contracts:         contracts,
		AverageEntryPrice: entry,
		CurrentPrice:      current,
		Volume:            200000,
	}
}

// TestConfig returns a config suitable for exercising the full trading
// path against the mock venue: permissive scan filters, no liquidity
// threshold, small position sizing.
func TestConfig() *config.Config {
	return &config.Config{
		LogLevel: "debug",
		HTTPPort: "0",

		RateLimitRequests: 1000,
		RateLimitWindow:   time.Second,
		RetryMaxAttempts:  0,
		RetryBaseDelay:    time.Millisecond,
		RetryMaxDelay:     time.Millisecond,

		MarketCategory:        "all",
		LiquidityThresholdUSD: 0,
		ProbabilityMin:        0.80,
		ProbabilityMax:        0.90,
		MinMarketVolume:       0,
		MaxHoursUntilClose:    24,
		IncludeLiveMarkets:    true,
		ScanPageLimit:         200,

		ProfitTargetPercent: 0.065,
		StopLossPercent:     0,
		StopLossMinVolume:   100000,
		MinPositionPercent:  0.01,
		MaxPositionPercent:  0.10,
		MinContracts:        1,
		MaxPositions:        10,
		CompoundProfits:     true,

		ScanInterval: 10 * time.Second,
		OrderTimeout: 5 * time.Minute,
		DryRun:       false,

		StorageMode: "file",
	}
}
