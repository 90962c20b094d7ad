package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/probmarkets/kalshi-bot/internal/kalshi"
	"github.com/probmarkets/kalshi-bot/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "kalshi-bot",
	Short: "Kalshi high-probability trading bot",
	Long: `Kalshi trading bot that scans open binary markets for heavily
favored outcomes in a configured probability band, buys the favorite,
and exits at a fixed profit target.

The bot paginates the Kalshi markets API, filters by category, close
window, volume, and orderbook liquidity, and sizes positions as a
fixed fraction of portfolio value.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnvironment loads .env, config, and the logger shared by every
// subcommand.
func loadEnvironment() (*config.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

// newClient builds an authenticated venue client for one-shot commands.
func newClient(cfg *config.Config, logger *zap.Logger) (*kalshi.Client, error) {
	client, err := kalshi.New(cfg, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("create kalshi client: %w", err)
	}
	return client, nil
}
