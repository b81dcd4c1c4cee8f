package tracker_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/tracker"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func sequentialIDs() func() string {
	var n atomic.Int32
	return func() string { return fmt.Sprintf("cycle-%d", n.Add(1)) }
}

func quote(id string, buy, sell, buyVol, sellVol float64) contracts.RawQuote {
	return contracts.RawQuote{
		ItemID:     id,
		BuyPrice:   contracts.Float(buy),
		SellPrice:  contracts.Float(sell),
		BuyVolume:  contracts.Float(buyVol),
		SellVolume: contracts.Float(sellVol),
	}
}

func snapshotOf(quotes ...contracts.RawQuote) contracts.RawSnapshot {
	s := contracts.RawSnapshot{Quotes: map[string]contracts.RawQuote{}, FetchedAt: fixedNow}
	for _, q := range quotes {
		s.Quotes[q.ItemID] = q
	}
	return s
}

// event is one recorded sink call
type event struct {
	kind    string
	cycleID string
	message string
	update  tracker.Update
}

// recordingSink captures every sink call in order
type recordingSink struct {
	mu     sync.Mutex
	events []event
}

func (s *recordingSink) add(e event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) LoadingStarted(cycleID string) {
	s.add(event{kind: "loading", cycleID: cycleID})
}

func (s *recordingSink) LoadingFinished(cycleID string) {
	s.add(event{kind: "loaded", cycleID: cycleID})
}

func (s *recordingSink) Render(update tracker.Update) {
	s.add(event{kind: "render", cycleID: update.CycleID, update: update})
}

func (s *recordingSink) ReportError(message string) {
	s.add(event{kind: "error", message: message})
}

func (s *recordingSink) kinds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.kind
	}
	return out
}

func (s *recordingSink) last() event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// memoryCache is an in-process SnapshotCache
type memoryCache struct {
	mu       sync.Mutex
	snapshot *contracts.RawSnapshot
	saves    int
	loadErr  error
}

func (c *memoryCache) Load(context.Context) (contracts.RawSnapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return contracts.RawSnapshot{}, false, c.loadErr
	}
	if c.snapshot == nil {
		return contracts.RawSnapshot{}, false, nil
	}
	return *c.snapshot, true, nil
}

func (c *memoryCache) Save(_ context.Context, s contracts.RawSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = &s
	c.saves++
	return nil
}

func ids(items []contracts.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}
