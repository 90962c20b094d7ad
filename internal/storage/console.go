package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/probmarkets/kalshi-bot/pkg/types"
	"go.uber.org/zap"
)

// ConsoleStore implements TradeStore by pretty-printing to console.
type ConsoleStore struct {
	logger *zap.Logger
}

// NewConsoleStore creates a new console store.
func NewConsoleStore(logger *zap.Logger) *ConsoleStore {
	logger.Info("console-storage-initialized")
	return &ConsoleStore{
		logger: logger,
	}
}

// StoreTrade pretty-prints a trade event to console.
func (c *ConsoleStore) StoreTrade(ctx context.Context, trade *TradeEvent) error {
	rule := strings.Repeat("━", 72)

	kind := "ENTRY"
	if trade.Action == types.ActionSell {
		kind = "EXIT"
	}

	fmt.Println("\n" + rule)
	fmt.Printf("%s EXECUTED\n", kind)
	fmt.Println(rule)
	fmt.Printf("Market:    %s\n", trade.Ticker)
	fmt.Printf("Side:      %s x%d @ %dc\n", trade.Side, trade.Contracts, trade.PriceCents)
	fmt.Printf("Notional:  $%.2f\n", float64(trade.Contracts*int64(trade.PriceCents))/100)
	fmt.Printf("Reason:    %s\n", trade.Reason)
	if trade.OrderID != "" {
		fmt.Printf("Order:     %s\n", trade.OrderID)
	}
	fmt.Printf("Time:      %s\n", trade.ExecutedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(rule)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStore) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}
