package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/bazaar/pkg/logger"
)

// Pruner deletes run records older than a cutoff
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// RunLogCleanupJob prunes old refresh runs
type RunLogCleanupJob struct {
	pruner    Pruner
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewRunLogCleanupJob creates a new run log cleanup job
func NewRunLogCleanupJob(pruner Pruner, retention time.Duration, log *logger.Logger) *RunLogCleanupJob {
	return &RunLogCleanupJob{
		pruner:    pruner,
		retention: retention,
		logger:    log,
		now:       time.Now,
	}
}

// Name returns the job name
func (j *RunLogCleanupJob) Name() string {
	return "runlog_cleanup"
}

// Schedule returns the cron schedule (hourly)
func (j *RunLogCleanupJob) Schedule() string {
	return "0 0 * * * *"
}

// Run deletes runs older than the retention window
func (j *RunLogCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.retention)

	removed, err := j.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune run log: %w", err)
	}

	if removed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"removed": removed,
			"cutoff":  cutoff,
		}).Info("Run log cleanup completed")
	}

	return nil
}
