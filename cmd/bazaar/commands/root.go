package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/bazaar/pkg/config"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bazaar",
	Short: "Bazaar profitability tracker",
	Long: `Bazaar profitability tracker

Fetches the in-game bazaar, ranks every product by buy→sell margin and
keeps the ranking fresh on a schedule.

Usage:
  go run ./cmd/bazaar [command]

Examples:
  go run ./cmd/bazaar serve
  go run ./cmd/bazaar tui
  go run ./cmd/bazaar snapshot --search diamond --sort instantSell
  go run ./cmd/bazaar runs --limit 10`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the environment and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if env != "" {
		switch env {
		case "development", "staging", "production":
			cfg.Env = env
		default:
			return nil, fmt.Errorf("--env must be one of: development, staging, production")
		}
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
