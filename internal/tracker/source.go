package tracker

import (
	"context"

	"github.com/wonny/bazaar/internal/contracts"
)

//go:generate mockgen -package=tracker_test -destination=mock_source_test.go -source=source.go Source

// Source supplies raw bazaar snapshots. Implementations own transport concerns
// (timeouts, retries); the tracker calls FetchSnapshot exactly once per cycle.
type Source interface {
	FetchSnapshot(ctx context.Context) (contracts.RawSnapshot, error)
}
