package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cancelOrdersCmd = &cobra.Command{
	Use:   "cancel-orders",
	Short: "Cancel all resting orders",
	Long: `Lists every resting order and cancels it. Use --ticker to limit
cancellation to one market.`,
	RunE: runCancelOrders,
}

//nolint:gochecknoglobals // Cobra boilerplate
var cancelTicker string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cancelOrdersCmd)
	cancelOrdersCmd.Flags().StringVarP(&cancelTicker, "ticker", "t", "", "Only cancel orders on this market")
}

func runCancelOrders(cmd *cobra.Command, args []string) error {
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

	orders, err := client.GetOrders(ctx, "resting")
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	var cancelled, failed int
	for _, o := range orders {
		if cancelTicker != "" && o.Ticker != cancelTicker {
			continue
		}

		fmt.Printf("Cancelling %s (%s, %d remaining)... ", o.OrderID, o.Ticker, o.RemainingContracts)
		if err := client.CancelOrder(ctx, o.OrderID); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			failed++
			continue
		}
		fmt.Println("ok")
		cancelled++
	}

	fmt.Printf("\nCancelled %d orders", cancelled)
	if failed > 0 {
		fmt.Printf(", %d failed", failed)
	}
	fmt.Println()
	return nil
}
