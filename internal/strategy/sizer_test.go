package strategy

import (
	"testing"

	"github.com/probmarkets/kalshi-bot/pkg/config"
	"go.uber.org/zap"
)

func sizerConfig() *config.Config {
	return &config.Config{
		MinPositionPercent: 0.02,
		MaxPositionPercent: 0.10,
		MinContracts:       1,
	}
}

func TestContracts(t *testing.T) {
	s := NewPositionSizer(sizerConfig(), zap.NewNop())

	tests := []struct {
		name           string
		portfolioValue int64
		entryPrice     int
		want           int64
	}{
		// $1000 portfolio, 10% max = $100 spend, 85c each -> 117 contracts
		{"typical sizing", 100000, 85, 117},
		// $100 portfolio, $10 spend, 90c each -> 11
		{"small portfolio", 10000, 90, 11},
		// Max spend below one contract floors to min contracts.
		{"tiny portfolio floors to min", 500, 85, 1},
		{"zero portfolio floors to min", 0, 85, 1},
		{"zero price floors to min", 100000, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Contracts(tt.portfolioValue, tt.entryPrice); got != tt.want {
				t.Errorf("Contracts(%d, %d) = %d, want %d",
					tt.portfolioValue, tt.entryPrice, got, tt.want)
			}
		})
	}
}

func TestValidateBounds(t *testing.T) {
	s := NewPositionSizer(sizerConfig(), zap.NewNop())
	portfolio := int64(100000) // min $20, max $100

	tests := []struct {
		name       string
		contracts  int64
		entryPrice int
		want       bool
	}{
		{"inside bounds", 50, 85, true},   // $42.50
		{"at max", 117, 85, true},         // $99.45
		{"above max", 200, 85, false},     // $170
		{"below min", 10, 85, false},      // $8.50
		{"at min boundary", 24, 85, true}, // $20.40
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Validate(tt.contracts, tt.entryPrice, portfolio); got != tt.want {
				t.Errorf("Validate(%d, %d) = %v, want %v",
					tt.contracts, tt.entryPrice, got, tt.want)
			}
		})
	}
}

// Sized positions always validate when the max spend covers at least the
// minimum notional.
func TestSizedPositionsValidate(t *testing.T) {
	s := NewPositionSizer(sizerConfig(), zap.NewNop())

	for _, portfolio := range []int64{50000, 100000, 250000, 1000000} {
		for price := 80; price <= 90; price++ {
			contracts := s.Contracts(portfolio, price)
			if !s.Validate(contracts, price, portfolio) {
				t.Errorf("sized position fails validation: portfolio=%d price=%d contracts=%d",
					portfolio, price, contracts)
			}
		}
	}
}
