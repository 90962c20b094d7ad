package types

import "time"

// OrderAction says whether an order opens or closes exposure.
type OrderAction string

const (
	ActionBuy  OrderAction = "buy"
	ActionSell OrderAction = "sell"
)

// OrderType is the venue order type.
type OrderType string

const (
	OrderTypeLimit  OrderType = "limit"
	OrderTypeMarket OrderType = "market"
)

// OrderStatus is the venue-reported status of an order.
type OrderStatus string

const (
	OrderPending         OrderStatus = "pending"
	OrderOpen            OrderStatus = "open"
	OrderResting         OrderStatus = "resting" // limit order waiting to be filled
	OrderExecuted        OrderStatus = "executed"
	OrderFilled          OrderStatus = "filled"
	OrderPartiallyFilled OrderStatus = "partially_filled"
	OrderCancelled       OrderStatus = "cancelled"
	OrderFailed          OrderStatus = "failed"
)

// IsLive reports whether the status counts as an accepted, trackable order.
// Everything else is treated as a rejection.
func (s OrderStatus) IsLive() bool {
	switch s {
	case OrderOpen, OrderResting, OrderFilled, OrderExecuted:
		return true
	}
	return false
}

// IsComplete reports whether the order reached a terminal state.
func (s OrderStatus) IsComplete() bool {
	switch s {
	case OrderFilled, OrderExecuted, OrderCancelled, OrderFailed:
		return true
	}
	return false
}

// OrderResult is the outcome of an order placement.
type OrderResult struct {
	OrderID            string
	Ticker             string
	Status             OrderStatus
	FilledContracts    int64
	RemainingContracts int64
	AveragePrice       int // cents, 0 if nothing filled
	CreatedAt          time.Time
}

// TradeSignal is a strategy decision to enter a position. It is immutable
// once created and consumed exactly once by the order manager.
type TradeSignal struct {
	Ticker     string
	Side       Side
	EntryPrice int // cents
	Contracts  int64
	Reason     string
}

// ExitSignal is a strategy decision to close a position.
type ExitSignal struct {
	Ticker    string
	Side      Side
	Contracts int64
	ExitPrice int // cents
	Reason    string // "profit_target", "stop_loss", "manual"
}
