package storage

import (
	"context"
	"time"

	"github.com/probmarkets/kalshi-bot/pkg/types"
)

// TradeEvent is one executed entry or exit, as mirrored into storage. The
// file ledger stays the system of record; storage is a queryable copy.
type TradeEvent struct {
	ID         string
	Ticker     string
	Side       types.Side
	Action     types.OrderAction
	Contracts  int64
	PriceCents int
	Reason     string
	OrderID    string
	ExecutedAt time.Time
}

// TradeStore is the interface for mirroring executed trades.
type TradeStore interface {
	// StoreTrade persists one trade event.
	StoreTrade(ctx context.Context, trade *TradeEvent) error

	// Close closes the storage connection.
	Close() error
}
