package tracker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/market"
	"github.com/wonny/bazaar/internal/runlog"
	"github.com/wonny/bazaar/pkg/logger"
)

// Trigger identifies what started a refresh cycle
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
	TriggerStartup   Trigger = "startup"
)

// Recorder persists finished cycles
type Recorder interface {
	Record(ctx context.Context, run runlog.Run) error
}

// SnapshotCache keeps the last good raw snapshot across restarts
type SnapshotCache interface {
	Load(ctx context.Context) (contracts.RawSnapshot, bool, error)
	Save(ctx context.Context, snapshot contracts.RawSnapshot) error
}

// sideEffectTimeout bounds run recording and cache writes after a cycle.
const sideEffectTimeout = 5 * time.Second

// Tracker is the refresh orchestrator
// ⭐ SSOT: 상태 소유자. 모든 갱신/검색/정렬 명령은 여기를 통과
//
// At most one cycle runs at a time. State is swapped wholesale under mu, and
// sinks are called while mu is held so renders arrive in state order. The
// fetch itself runs without holding mu.
type Tracker struct {
	source   Source
	logger   *logger.Logger
	recorder Recorder
	cache    SnapshotCache
	now      func() time.Time
	newID    func() string

	inFlight atomic.Bool
	phase    atomic.Int32
	cycles   sync.WaitGroup

	mu    sync.Mutex
	state atomic.Pointer[State]

	sinksMu sync.RWMutex
	sinks   []Sink
}

// Option configures a Tracker
type Option func(*Tracker)

// WithSink registers a presentation sink
func WithSink(s Sink) Option {
	return func(t *Tracker) { t.sinks = append(t.sinks, s) }
}

// WithRecorder records every finished cycle
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithSnapshotCache enables warm start and saves each good snapshot
func WithSnapshotCache(c SnapshotCache) Option {
	return func(t *Tracker) { t.cache = c }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator overrides the cycle id generator
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithInitialView sets the search term and sort key used before any user input.
// An invalid key falls back to the default.
func WithInitialView(search string, key contracts.SortKey) Option {
	return func(t *Tracker) {
		if !key.Valid() {
			key = contracts.DefaultSortKey
		}
		t.state.Store(initialState(search, key))
	}
}

// New creates a tracker reading from source
func New(source Source, log *logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		source: source,
		logger: log.Component("tracker"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	t.state.Store(initialState("", contracts.DefaultSortKey))

	for _, opt := range opts {
		opt(t)
	}
	return t
}

// AddSink registers a sink after construction
func (t *Tracker) AddSink(s Sink) {
	t.sinksMu.Lock()
	defer t.sinksMu.Unlock()
	t.sinks = append(t.sinks, s)
}

// RemoveSink unregisters a sink previously added
func (t *Tracker) RemoveSink(s Sink) {
	t.sinksMu.Lock()
	defer t.sinksMu.Unlock()
	for i, existing := range t.sinks {
		if existing == s {
			t.sinks = append(t.sinks[:i:i], t.sinks[i+1:]...)
			return
		}
	}
}

func (t *Tracker) sinkList() []Sink {
	t.sinksMu.RLock()
	defer t.sinksMu.RUnlock()
	return append([]Sink(nil), t.sinks...)
}

// State returns the current state snapshot
func (t *Tracker) State() *State {
	return t.state.Load()
}

// Phase returns the current state machine phase
func (t *Tracker) Phase() Phase {
	return Phase(t.phase.Load())
}

// InFlight reports whether a cycle is running
func (t *Tracker) InFlight() bool {
	return t.inFlight.Load()
}

func (t *Tracker) setPhase(p Phase) {
	t.phase.Store(int32(p))
}

// Wait blocks until any in-flight cycle has finished
func (t *Tracker) Wait() {
	t.cycles.Wait()
}

// Refresh runs one fetch → build → render cycle.
// A trigger arriving while another cycle runs is dropped with ErrCycleInFlight.
// On fetch failure the previous state is kept and a *FetchError is returned.
func (t *Tracker) Refresh(ctx context.Context, trigger Trigger) (*State, error) {
	if !t.inFlight.CompareAndSwap(false, true) {
		t.logger.WithField("trigger", trigger).Warn("Refresh dropped: cycle already in flight")
		return nil, ErrCycleInFlight
	}
	t.cycles.Add(1)
	defer func() {
		t.setPhase(PhaseIdle)
		t.inFlight.Store(false)
		t.cycles.Done()
	}()

	cycleID := t.newID()
	run := runlog.Run{
		ID:        cycleID,
		Trigger:   string(trigger),
		StartedAt: t.now(),
	}
	log := t.logger.WithFields(map[string]interface{}{
		"cycle_id": cycleID,
		"trigger":  trigger,
	})
	log.Debug("Refresh cycle started")

	t.setPhase(PhaseFetching)
	sinks := t.sinkList()
	for _, s := range sinks {
		s.LoadingStarted(cycleID)
	}

	snapshot, err := t.source.FetchSnapshot(ctx)
	if err != nil {
		return nil, t.fail(ctx, log, run, err)
	}

	t.setPhase(PhaseBuilding)
	collection := market.Build(snapshot)

	t.mu.Lock()
	next := t.state.Load().withCollection(cycleID, collection, t.now(), false)
	t.publish(next, CauseCycle)
	for _, s := range t.sinkList() {
		s.LoadingFinished(cycleID)
	}
	t.mu.Unlock()

	run.FinishedAt = t.now()
	run.Outcome = runlog.OutcomeSuccess
	run.Items = collection.Len()
	run.Skipped = collection.Skipped()

	log.WithFields(map[string]interface{}{
		"items":    run.Items,
		"skipped":  run.Skipped,
		"visible":  len(next.View),
		"duration": run.Duration(),
	}).Info("Refresh cycle completed")

	t.saveSnapshot(ctx, log, snapshot)
	t.record(ctx, log, run)

	return next, nil
}

// fail handles a data-source failure: loading is cleared, the user sees a
// fixed message and the previous collection stays in place.
func (t *Tracker) fail(ctx context.Context, log *logger.Logger, run runlog.Run, cause error) error {
	t.setPhase(PhaseFailed)
	fetchErr := &FetchError{CycleID: run.ID, Err: cause}

	t.mu.Lock()
	t.state.Store(t.state.Load().withError(UserErrorMessage, t.now()))
	for _, s := range t.sinkList() {
		s.LoadingFinished(run.ID)
		s.ReportError(UserErrorMessage)
	}
	t.mu.Unlock()

	run.FinishedAt = t.now()
	run.Outcome = runlog.OutcomeFailed
	run.Error = cause.Error()

	log.WithError(cause).WithField("duration", run.Duration()).Error("Refresh cycle failed")
	t.record(ctx, log, run)

	return fetchErr
}

// SetSearch replaces the search term and re-renders the view.
// The collection is untouched.
func (t *Tracker) SetSearch(term string) *State {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.state.Load().withSearch(term)
	t.publish(next, CauseSearch)
	return next
}

// SetSort replaces the sort key and re-renders the view
func (t *Tracker) SetSort(key contracts.SortKey) (*State, error) {
	if !key.Valid() {
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownSortKey, key)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.state.Load().withSort(key)
	t.publish(next, CauseSort)
	return next, nil
}

// Detail looks up one item in the current collection
func (t *Tracker) Detail(id string) (contracts.ItemDetail, bool) {
	item, ok := t.state.Load().Collection.Get(id)
	if !ok {
		return contracts.ItemDetail{}, false
	}
	return item.Detail(), true
}

// Warm seeds the state from the snapshot cache. It does nothing once a
// cycle has already published, and reports whether it applied a snapshot.
func (t *Tracker) Warm(ctx context.Context) (bool, error) {
	if t.cache == nil {
		return false, nil
	}

	snapshot, found, err := t.cache.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("warm start: %w", err)
	}
	if !found {
		return false, nil
	}

	collection := market.Build(snapshot)

	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.state.Load()
	if current.CycleID != "" {
		return false, nil
	}

	at := snapshot.FetchedAt
	if at.IsZero() {
		at = t.now()
	}
	next := current.withCollection("cache", collection, at, true)
	t.publish(next, CauseWarm)

	t.logger.WithFields(map[string]interface{}{
		"items":      collection.Len(),
		"fetched_at": snapshot.FetchedAt,
	}).Info("State warmed from snapshot cache")

	return true, nil
}

// publish stores next and renders it. Caller holds mu.
func (t *Tracker) publish(next *State, cause UpdateCause) {
	t.state.Store(next)
	update := next.Update(cause)
	for _, s := range t.sinkList() {
		s.Render(update)
	}
}

func (t *Tracker) saveSnapshot(ctx context.Context, log *logger.Logger, snapshot contracts.RawSnapshot) {
	if t.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := t.cache.Save(ctx, snapshot); err != nil {
		log.WithError(err).Warn("Failed to cache snapshot")
	}
}

func (t *Tracker) record(ctx context.Context, log *logger.Logger, run runlog.Run) {
	if t.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := t.recorder.Record(ctx, run); err != nil {
		log.WithError(err).Warn("Failed to record refresh run")
	}
}
