package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/bazaar/internal/tracker"
	"github.com/wonny/bazaar/pkg/logger"
)

// Refresher runs one refresh cycle
type Refresher interface {
	Refresh(ctx context.Context, trigger tracker.Trigger) (*tracker.State, error)
}

// RefreshJob fires the periodic refresh trigger
type RefreshJob struct {
	refresher Refresher
	schedule  string
	logger    *logger.Logger
}

// NewRefreshJob creates a new periodic refresh job
func NewRefreshJob(refresher Refresher, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "bazaar_refresh"
}

// Schedule returns the cron schedule
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// MaxRetries is zero: a failed cycle waits for the next tick.
func (j *RefreshJob) MaxRetries() int {
	return 0
}

// RetryDelay is unused since MaxRetries is zero
func (j *RefreshJob) RetryDelay() time.Duration {
	return 0
}

// Run triggers a scheduled cycle. A trigger dropped by single-flight is not a failure.
func (j *RefreshJob) Run(ctx context.Context) error {
	_, err := j.refresher.Refresh(ctx, tracker.TriggerScheduled)
	if errors.Is(err, tracker.ErrCycleInFlight) {
		j.logger.Debug("Scheduled refresh skipped, cycle in flight")
		return nil
	}
	return err
}
