package types

import (
	"fmt"
	"time"
)

// The venue error taxonomy. Callers match with errors.As: authentication
// errors are fatal to the control loop, rate-limit errors are retried by
// the gateway's retry wrapper, and the per-signal errors abandon only the
// order attempt that raised them.

// AuthenticationError means the venue rejected our credentials. Fatal:
// the control loop stops and the process must be restarted.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// RateLimitError means the venue returned 429. RetryAfter carries the
// advertised wait, or a default when the venue supplied none.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry after %s", e.RetryAfter)
}

// DefaultRetryAfter is used when a 429 carries no Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// InsufficientFundsError means the balance cannot cover the order.
type InsufficientFundsError struct {
	Message string
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: %s", e.Message)
}

// MarketClosedError means an order was attempted on a non-open market.
type MarketClosedError struct {
	Ticker  string
	Message string
}

func (e *MarketClosedError) Error() string {
	return fmt.Sprintf("market %s not open: %s", e.Ticker, e.Message)
}

// OrderFailedError is any other order placement failure.
type OrderFailedError struct {
	Code    string
	Message string
}

func (e *OrderFailedError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("order failed: %s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("order failed: %s", e.Message)
}

// ConfigurationError means invalid or missing configuration. Fatal at
// startup only.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}
