package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/bazaar/internal/api"
	"github.com/wonny/bazaar/internal/external/hypixel"
	"github.com/wonny/bazaar/internal/prefs"
	"github.com/wonny/bazaar/internal/runlog"
	"github.com/wonny/bazaar/internal/scheduler"
	"github.com/wonny/bazaar/internal/scheduler/jobs"
	"github.com/wonny/bazaar/internal/snapcache"
	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/config"
	"github.com/wonny/bazaar/pkg/database"
	"github.com/wonny/bazaar/pkg/httputil"
	"github.com/wonny/bazaar/pkg/logger"
	"github.com/wonny/bazaar/pkg/redis"
)

const retryInitialDelay = 500 * time.Millisecond

// app holds the dependencies shared by every command
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	prefs   *prefs.Prefs
	runs    runlog.Store
	tracker *tracker.Tracker

	db    *database.DB
	redis *redis.Client
}

// newApp wires config → data source → run log → snapshot cache → tracker
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	p, err := prefs.Load(cfg.PrefsFile)
	if err != nil {
		return nil, err
	}
	if p.Refresh.Schedule != "" {
		cfg.Refresh.Schedule = p.Refresh.Schedule
	}

	a := &app{cfg: cfg, log: log, prefs: p}

	if cfg.Database.Enabled() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db

		repo := runlog.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure run log schema: %w", err)
		}
		a.runs = repo
		log.Info("Run log stored in Postgres")
	} else {
		a.runs = runlog.NewMemory(runlog.DefaultCapacity)
		log.Info("Run log kept in memory (DATABASE_URL not set)")
	}

	rc, err := redis.New(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc

	opts := []tracker.Option{
		tracker.WithRecorder(a.runs),
		tracker.WithInitialView(p.View.Search, p.SortKey()),
	}
	if rc.Enabled() {
		opts = append(opts, tracker.WithSnapshotCache(snapcache.New(rc, cfg.Refresh.SnapshotCacheTTL)))
	}

	a.tracker = tracker.New(newSource(cfg, log), log, opts...)
	return a, nil
}

// newSource builds the bazaar API client with retry, throttle and API key
func newSource(cfg *config.Config, log *logger.Logger) *hypixel.Client {
	httpClient := httputil.NewWithTimeout(log, cfg.Bazaar.Timeout).
		WithRetry(cfg.Bazaar.MaxRetries, retryInitialDelay).
		WithRateLimit(cfg.Bazaar.RateLimit, 1)
	if cfg.Bazaar.APIKey != "" {
		httpClient.WithHeader("API-Key", cfg.Bazaar.APIKey)
	}

	return hypixel.NewClient(httpClient, cfg.Bazaar.BaseURL, log)
}

// newScheduler registers the periodic refresh and run log pruning jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewRefreshJob(a.tracker, a.cfg.Refresh.Schedule, a.log)); err != nil {
		return nil, fmt.Errorf("add refresh job: %w", err)
	}
	if err := sched.AddJob(jobs.NewRunLogCleanupJob(a.runs, a.cfg.Refresh.RunLogRetention, a.log)); err != nil {
		return nil, fmt.Errorf("add cleanup job: %w", err)
	}
	return sched, nil
}

// checks lists the connected dependencies for GET /health
func (a *app) checks() []api.Checker {
	var out []api.Checker
	if a.db != nil {
		out = append(out, a.db)
	}
	if a.redis != nil && a.redis.Enabled() {
		out = append(out, a.redis)
	}
	return out
}

// warm seeds the tracker from the snapshot cache; failures only cost the warm start
func (a *app) warm(ctx context.Context) {
	if _, err := a.tracker.Warm(ctx); err != nil {
		a.log.WithError(err).Warn("Snapshot cache unavailable, starting cold")
	}
}

// Close releases database and redis connections
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
