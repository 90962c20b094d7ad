package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/probmarkets/kalshi-bot/internal/scanner"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a single market scan and print opportunities",
	Long: `Runs one scan pass with the configured filters and prints every
opportunity found, without placing any orders.

Use --ticker to evaluate a single market against the filters.`,
	RunE: runScan,
}

//nolint:gochecknoglobals // Cobra boilerplate
var scanTicker string

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&scanTicker, "ticker", "t", "", "Evaluate a single market by ticker")
}

func runScan(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s := scanner.New(client, cfg, logger)

	if scanTicker != "" {
		opp, err := s.ScanSingle(ctx, scanTicker)
		if err != nil {
			return fmt.Errorf("scan %s: %w", scanTicker, err)
		}
		if opp == nil {
			fmt.Printf("%s did not pass the filters\n", scanTicker)
			return nil
		}
		printOpportunity(opp.Market.Ticker, opp.Market.Title, string(opp.Side),
			opp.EntryPrice, opp.Probability, opp.Liquidity)
		return nil
	}

	opportunities, err := s.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	fmt.Printf("=== Scan Results (%d opportunities) ===\n\n", len(opportunities))
	for _, opp := range opportunities {
		printOpportunity(opp.Market.Ticker, opp.Market.Title, string(opp.Side),
			opp.EntryPrice, opp.Probability, opp.Liquidity)
	}
	return nil
}

func printOpportunity(ticker, title, side string, entry int, probability float64, liquidity int64) {
	fmt.Printf("%s\n", ticker)
	fmt.Printf("  %s\n", title)
	fmt.Printf("  side=%s entry=%dc probability=%.0f%% liquidity=$%.2f\n\n",
		side, entry, probability*100, float64(liquidity)/100)
}
