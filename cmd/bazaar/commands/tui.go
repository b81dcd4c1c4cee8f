package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/bazaar/internal/tui"
	"github.com/wonny/bazaar/pkg/logger"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive terminal table",
	Long: `Shows the ranked bazaar in the terminal and refreshes it on REFRESH_SCHEDULE.

Keys:
  r        refresh now
  /        search (enter to apply, esc to cancel)
  x        clear search
  s, tab   next sort key
  enter    item detail
  q        quit

Logs are written to --log-file because the screen owns stdout.

Example:
  go run ./cmd/bazaar tui
  go run ./cmd/bazaar tui --log-file /tmp/bazaar.log`,
	RunE: runTUI,
}

var tuiLogFile string

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "bazaar-tui.log", "log file path")
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	log := logger.NewWithWriter(f, cfg.LogLevel, cfg.LogFormat, cfg.Env)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sink := tui.NewSink(64)
	a.tracker.AddSink(sink)
	defer a.tracker.RemoveSink(sink)

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}

	a.warm(ctx)
	sched.Start()

	runErr := tui.Run(ctx, a.tracker, sink, a.prefs.TUI.Rows, log)

	sched.Stop()
	a.tracker.Wait()
	return runErr
}
