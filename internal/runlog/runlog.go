// Package runlog records refresh cycles for inspection and status reporting.
package runlog

import (
	"context"
	"time"
)

// Outcome is the terminal result of a refresh cycle
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// DefaultCapacity is the size of the in-memory ring.
const DefaultCapacity = 100

// Run is one recorded refresh cycle
type Run struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcome    Outcome   `json:"outcome"`
	Items      int       `json:"items"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

// Duration returns how long the cycle took
func (r Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Store persists runs
// ⭐ SSOT: 실행 기록 저장소 계약
type Store interface {
	Record(ctx context.Context, run Run) error
	// List returns up to limit runs, newest first.
	List(ctx context.Context, limit int) ([]Run, error)
	// Prune deletes runs that started before cutoff and returns how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
