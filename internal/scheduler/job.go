package scheduler

import (
	"context"
	"time"
)

// Job is a unit of periodic work
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string

	// Schedule is a cron spec with optional seconds, or a descriptor
	// such as "@every 60s" or "@hourly"
	Schedule() string

	Run(ctx context.Context) error
}

// RetryPolicy is implemented by jobs that override the scheduler's retry defaults
type RetryPolicy interface {
	MaxRetries() int
	RetryDelay() time.Duration
}

// Execution is one finished job run, retries included
type Execution struct {
	Job        string    `json:"job"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error,omitempty"`
}

// Succeeded reports whether the last attempt returned nil
func (e Execution) Succeeded() bool {
	return e.Error == ""
}

// Duration is the wall time across all attempts
func (e Execution) Duration() time.Duration {
	return e.FinishedAt.Sub(e.StartedAt)
}

// historyLimit bounds executions kept per job
const historyLimit = 100

// history is an oldest-first log of executions
type history struct {
	runs []Execution
}

func (h *history) add(e Execution) {
	h.runs = append(h.runs, e)
	if len(h.runs) > historyLimit {
		h.runs = append(h.runs[:0:0], h.runs[len(h.runs)-historyLimit:]...)
	}
}

func (h *history) snapshot() []Execution {
	return append([]Execution(nil), h.runs...)
}

// stats folds the log into counters, newest-first for the "last" fields
func (h *history) stats() JobStats {
	var js JobStats
	js.TotalRuns = len(h.runs)

	for i := len(h.runs) - 1; i >= 0; i-- {
		e := h.runs[i]
		started := e.StartedAt

		if i == len(h.runs)-1 {
			js.LastRun = &started
			js.LastDuration = e.Duration()
			js.LastError = e.Error
		}

		if e.Succeeded() {
			js.SuccessCount++
			if js.LastSuccess == nil {
				js.LastSuccess = &started
			}
		} else {
			js.FailureCount++
			if js.LastFailure == nil {
				js.LastFailure = &started
			}
		}
	}

	if js.TotalRuns > 0 {
		js.SuccessRate = float64(js.SuccessCount) / float64(js.TotalRuns)
	}
	return js
}

// JobStats summarises a job's recent executions
type JobStats struct {
	JobName      string        `json:"job_name"`
	Schedule     string        `json:"schedule"`
	TotalRuns    int           `json:"total_runs"`
	SuccessCount int           `json:"success_count"`
	FailureCount int           `json:"failure_count"`
	SuccessRate  float64       `json:"success_rate"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration,omitempty"`
	LastSuccess  *time.Time    `json:"last_success,omitempty"`
	LastFailure  *time.Time    `json:"last_failure,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
	NextRun      *time.Time    `json:"next_run,omitempty"`
}
