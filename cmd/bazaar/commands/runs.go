package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/bazaar/pkg/logger"
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded refresh cycles",
	Long: `Lists refresh cycles from the run log, newest first.

The run log lives in Postgres when DATABASE_URL is set; otherwise it is an
in-memory ring and only the serve process can see it (GET /api/runs).

Subcommands:
  prune   - delete runs older than RUNLOG_RETENTION

Example:
  go run ./cmd/bazaar runs --limit 50
  go run ./cmd/bazaar runs prune`,
	RunE: listRuns,
}

var runsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than RUNLOG_RETENTION",
	RunE:  pruneRuns,
}

var runsLimit int

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.AddCommand(runsPruneCmd)

	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "number of runs to show")
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is not set; the in-memory run log is served by GET /api/runs")
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Env)
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.runs.List(cmd.Context(), runsLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No refresh cycles recorded yet")
		return nil
	}
	printRuns(os.Stdout, runs, time.Now())
	return nil
}

func pruneRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("DATABASE_URL is not set; nothing to prune")
	}

	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat, cfg.Env)
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	cutoff := time.Now().Add(-cfg.Refresh.RunLogRetention)
	deleted, err := a.runs.Prune(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	fmt.Printf("✅ Deleted %d runs older than %s\n", deleted, cutoff.Format(time.RFC3339))
	return nil
}
