package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/execution"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List open positions with P&L",
	Long: `Lists every open position with its average entry price, the
current market quote, and the unrealized P&L against the configured
profit target.`,
	RunE: runPositions,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(positionsCmd)
}

func runPositions(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	monitor := execution.NewPositionMonitor(client, logger)
	positions := monitor.GetPositions(ctx)

	fmt.Printf("=== Open Positions (%d) ===\n\n", len(positions))
	if len(positions) == 0 {
		fmt.Println("No open positions")
		return nil
	}

	var totalCost, totalPnL float64
	for _, p := range positions {
		marker := " "
		if p.UnrealizedPnLPercent() >= cfg.ProfitTargetPercent {
			marker = "*" // at profit target
		}
		fmt.Printf("%s %s\n", marker, p.Ticker)
		fmt.Printf("    %s x%d @ %.1fc -> %.1fc  P&L $%+.2f (%+.1f%%)\n",
			p.Side, p.Contracts, p.AverageEntryPrice, p.CurrentPrice,
			p.UnrealizedPnL()/100, p.UnrealizedPnLPercent()*100)
		totalCost += p.EntryCost()
		totalPnL += p.UnrealizedPnL()
	}

	fmt.Printf("\nTotal cost: $%.2f  Unrealized P&L: $%+.2f\n",
		totalCost/100, totalPnL/100)
	fmt.Println("* = at profit target")
	return nil
}
