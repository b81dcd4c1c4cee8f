package tracker

import (
	"time"

	"github.com/wonny/bazaar/internal/contracts"
)

// UpdateCause says why a view was re-rendered
type UpdateCause string

const (
	CauseCycle  UpdateCause = "cycle"
	CauseSearch UpdateCause = "search"
	CauseSort   UpdateCause = "sort"
	CauseWarm   UpdateCause = "warm"
)

// Update is what a sink renders: the visible view plus stats of the whole collection.
// Stats is nil when the collection is empty.
type Update struct {
	CycleID    string            `json:"cycle_id"`
	Cause      UpdateCause       `json:"cause"`
	View       []contracts.Item  `json:"view"`
	Stats      *contracts.Stats  `json:"stats"`
	SearchTerm string            `json:"search"`
	SortKey    contracts.SortKey `json:"sort"`
	UpdatedAt  time.Time         `json:"updated_at"`
	FromCache  bool              `json:"from_cache"`
}

// Sink is a presentation target
// ⭐ SSOT: 오케스트레이터 → 표현 계층 계약
//
// Calls are synchronous and ordered; implementations must not call back into
// the tracker from inside a method.
type Sink interface {
	LoadingStarted(cycleID string)
	LoadingFinished(cycleID string)
	Render(update Update)
	ReportError(message string)
}
