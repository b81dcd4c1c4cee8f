package tracker

import (
	"time"

	"github.com/wonny/bazaar/internal/contracts"
	"github.com/wonny/bazaar/internal/market"
)

// Phase is the orchestrator's position in the refresh state machine
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseBuilding
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseBuilding:
		return "building"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the phase by name in JSON
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is one immutable snapshot of everything the orchestrator owns.
// It is replaced wholesale; never mutate a State obtained from the tracker.
type State struct {
	CycleID     string
	Collection  market.Collection
	View        []contracts.Item
	Stats       *contracts.Stats
	SearchTerm  string
	SortKey     contracts.SortKey
	UpdatedAt   time.Time
	FromCache   bool
	LastError   string
	LastErrorAt time.Time
}

func initialState(search string, key contracts.SortKey) *State {
	return &State{
		View:       []contracts.Item{},
		SearchTerm: search,
		SortKey:    key,
	}
}

// Update returns the render payload for this state
func (s *State) Update(cause UpdateCause) Update {
	return Update{
		CycleID:    s.CycleID,
		Cause:      cause,
		View:       s.View,
		Stats:      s.Stats,
		SearchTerm: s.SearchTerm,
		SortKey:    s.SortKey,
		UpdatedAt:  s.UpdatedAt,
		FromCache:  s.FromCache,
	}
}

func (s *State) clone() *State {
	next := *s
	return &next
}

// withCollection swaps in a new collection and recomputes view and stats
// with the carried-over search term and sort key.
func (s *State) withCollection(cycleID string, c market.Collection, at time.Time, fromCache bool) *State {
	next := s.clone()
	next.CycleID = cycleID
	next.Collection = c
	next.View = market.View(c, s.SearchTerm, s.SortKey)
	next.Stats = nil
	if stats, ok := market.Aggregate(c); ok {
		next.Stats = &stats
	}
	next.UpdatedAt = at
	next.FromCache = fromCache
	next.LastError = ""
	next.LastErrorAt = time.Time{}
	return next
}

func (s *State) withSearch(term string) *State {
	next := s.clone()
	next.SearchTerm = term
	next.View = market.View(s.Collection, term, s.SortKey)
	return next
}

func (s *State) withSort(key contracts.SortKey) *State {
	next := s.clone()
	next.SortKey = key
	next.View = market.View(s.Collection, s.SearchTerm, key)
	return next
}

func (s *State) withError(message string, at time.Time) *State {
	next := s.clone()
	next.LastError = message
	next.LastErrorAt = at
	return next
}
