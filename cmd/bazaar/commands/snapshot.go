package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Fetch the bazaar once and print the ranked table",
	Long: `Runs a single refresh cycle and prints the resulting view.

Sort keys: profitMargin, profitMarginAsc, profitAbsolute, instantSell, instantBuy, name

Example:
  go run ./cmd/bazaar snapshot
  go run ./cmd/bazaar snapshot --search enchanted --sort profitAbsolute --limit 50
  go run ./cmd/bazaar snapshot --json`,
	RunE: runSnapshot,
}

var (
	snapshotSearch string
	snapshotSort   string
	snapshotLimit  int
	snapshotJSON   bool
)

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().StringVar(&snapshotSearch, "search", "", "filter by item name or id")
	snapshotCmd.Flags().StringVar(&snapshotSort, "sort", "", "sort key (default from prefs, else profitMargin)")
	snapshotCmd.Flags().IntVar(&snapshotLimit, "limit", 20, "rows to print (0 = all)")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "print the view and stats as JSON")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var key contracts.SortKey
	if snapshotSort != "" {
		if key, err = contracts.ParseSortKey(snapshotSort); err != nil {
			return err
		}
	}

	// stdout carries the table; logs go to stderr
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Env)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.Flags().Changed("search") {
		a.tracker.SetSearch(snapshotSearch)
	}
	if key != "" {
		if _, err := a.tracker.SetSort(key); err != nil {
			return err
		}
	}

	state, err := a.tracker.Refresh(ctx, tracker.TriggerManual)
	if err != nil {
		return fmt.Errorf("%s: %w", tracker.UserErrorMessage, err)
	}

	update := state.Update(tracker.CauseCycle)
	if snapshotJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(update)
	}

	printMarket(os.Stdout, update, snapshotLimit)
	return nil
}
