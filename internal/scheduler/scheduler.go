package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/bazaar/pkg/logger"
)

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ErrJobNotFound is returned for a job name that was never added
var ErrJobNotFound = errors.New("job not found")

// ParseSchedule checks a schedule with the same parser the scheduler uses
func ParseSchedule(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// Scheduler runs jobs on cron schedules and keeps their execution history
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
//
// A scheduled run is skipped while the previous run of the same job is still
// going. Stop cancels the context passed to running jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*history

	// defaults for jobs without their own RetryPolicy
	maxRetries int
	retryDelay time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets the default retry policy
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	log = log.Component("scheduler")
	cl := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:     log,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*history),
		maxRetries: 3,
		retryDelay: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob registers a job under its unique name
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &history{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job and drops its history
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)
	delete(s.history, name)
	s.logger.WithField("job", name).Info("Job removed from scheduler")

	return nil
}

// Start begins firing schedules
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return.
// A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a job now, outside its schedule
func (s *Scheduler) RunJob(name string) error {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	go s.runJob(job)
	return nil
}

func (s *Scheduler) retryPolicy(job Job) (int, time.Duration) {
	if p, ok := job.(RetryPolicy); ok {
		return p.MaxRetries(), p.RetryDelay()
	}
	return s.maxRetries, s.retryDelay
}

// runJob executes a job, retrying until it succeeds, runs out of attempts or
// the scheduler stops
func (s *Scheduler) runJob(job Job) {
	name := job.Name()
	maxRetries, retryDelay := s.retryPolicy(job)
	log := s.logger.WithField("job", name)

	exec := Execution{Job: name, StartedAt: time.Now()}
	log.Debug("Job started")

	var err error
	for {
		exec.Attempts++
		if err = job.Run(s.ctx); err == nil || exec.Attempts > maxRetries {
			break
		}

		log.WithError(err).WithField("attempt", exec.Attempts).Warn("Job failed, retrying")
		if !s.sleep(retryDelay) {
			break
		}
	}

	exec.FinishedAt = time.Now()
	if err != nil {
		exec.Error = err.Error()
	}

	s.mu.Lock()
	if h, exists := s.history[name]; exists {
		h.add(exec)
	}
	s.mu.Unlock()

	log = log.WithFields(map[string]interface{}{
		"attempts": exec.Attempts,
		"duration": exec.Duration(),
	})
	if err != nil {
		log.WithError(err).Error("Job failed")
		return
	}
	log.Debug("Job completed")
}

// sleep waits for d unless the scheduler stops first
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// GetJobHistory returns a copy of a job's executions, oldest first
func (s *Scheduler) GetJobHistory(name string) ([]Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, exists := s.history[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return h.snapshot(), nil
}

// GetAllJobs returns the registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetJobStats returns statistics for every job
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.history))
	for name, h := range s.history {
		js := h.stats()
		js.JobName = name
		js.Schedule = s.jobs[name].Schedule()
		if next := s.cron.Entry(s.entries[name]).Next; !next.IsZero() {
			js.NextRun = &next
		}
		stats[name] = js
	}
	return stats
}

// cronLogger routes cron's own logging through the application logger
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(fields(keysAndValues)).Debug("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.WithError(err).WithFields(fields(keysAndValues)).Error("cron: " + msg)
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return out
}
