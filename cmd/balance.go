package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/execution"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show cash balance and portfolio value",
	RunE:  runBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) error {
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

	balance, err := client.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("get balance: %w", err)
	}

	monitor := execution.NewPositionMonitor(client, logger)
	positionsValue := monitor.TotalPositionValue(ctx)
	openCount := monitor.CountPositions(ctx)

	fmt.Printf("=== Portfolio ===\n\n")
	fmt.Printf("Cash:       $%.2f\n", float64(balance)/100)
	fmt.Printf("Positions:  $%.2f (%d open)\n", float64(positionsValue)/100, openCount)
	fmt.Printf("Total:      $%.2f\n", float64(balance+positionsValue)/100)
	return nil
}
