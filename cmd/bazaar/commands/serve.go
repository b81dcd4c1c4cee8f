package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/bazaar/internal/api"
	"github.com/wonny/bazaar/internal/api/handlers"
	"github.com/wonny/bazaar/internal/api/stream"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server, websocket stream and refresh scheduler",
	Long: `Starts the tracker as a long-running service.

This command:
- warms the view from the snapshot cache (when Redis is enabled)
- runs one refresh at startup, then on REFRESH_SCHEDULE
- serves the REST API and the websocket stream

Endpoints:
  GET  /health
  GET  /api/status
  GET  /api/items?search=&sort=
  GET  /api/items/{id}
  GET  /api/stats
  PUT  /api/view
  POST /api/refresh
  GET  /api/runs?limit=
  GET  /api/scheduler/jobs
  GET  /api/scheduler/jobs/{name}/history
  POST /api/scheduler/jobs/{name}/run
  GET  /ws

Example:
  go run ./cmd/bazaar serve
  go run ./cmd/bazaar serve --port 9000`,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != "" {
		cfg.Port = servePort
	}

	log := logger.New(cfg)
	log.WithFields(map[string]interface{}{
		"port":     cfg.Port,
		"env":      cfg.Env,
		"schedule": cfg.Refresh.Schedule,
	}).Info("Initializing bazaar tracker")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	hub := stream.NewHub(a.tracker, log)
	a.tracker.AddSink(hub)

	sched, err := a.newScheduler()
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Handlers{
		Market: handlers.NewMarketHandler(a.tracker, log),
		Ops:    handlers.NewOpsHandler(a.runs, sched, log),
		Stream: hub,
		Checks: a.checks(),
	}, log)
	server := api.New(cfg, log, router)

	a.warm(ctx)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	g.Go(func() error {
		_, err := a.tracker.Refresh(gctx, tracker.TriggerStartup)
		var fetchErr *tracker.FetchError
		if err != nil && !errors.As(err, &fetchErr) && !errors.Is(err, tracker.ErrCycleInFlight) {
			return fmt.Errorf("startup refresh: %w", err)
		}
		return nil
	})

	sched.Start()
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		sched.Stop()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(shutdownCtx)

		a.tracker.Wait()
		return err
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server stopped with error")
		return err
	}

	log.Info("Server stopped")
	return nil
}
