package runlog

import (
	"context"
	"sync"
	"time"
)

// Memory is a fixed-size ring of runs, used when no database is configured.
type Memory struct {
	mu    sync.RWMutex
	runs  []Run // oldest first
	limit int
}

// NewMemory creates a ring holding at most capacity runs
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{limit: capacity, runs: make([]Run, 0, capacity)}
}

// Record appends a run, evicting the oldest when full
func (m *Memory) Record(_ context.Context, run Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.runs) == m.limit {
		copy(m.runs, m.runs[1:])
		m.runs = m.runs[:m.limit-1]
	}
	m.runs = append(m.runs, run)
	return nil
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (m *Memory) List(_ context.Context, limit int) ([]Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.runs)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]Run, 0, n)
	for i := len(m.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

// Prune drops runs started before cutoff
func (m *Memory) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.runs[:0]
	for _, r := range m.runs {
		if !r.StartedAt.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := int64(len(m.runs) - len(kept))
	m.runs = kept
	return removed, nil
}
