package tracker

import (
	"context"
	"fmt"

	"github.com/wonny/bazaar/internal/contracts"
)

// CommandType names a user command
type CommandType string

const (
	CommandRefresh    CommandType = "refresh"
	CommandSetSearch  CommandType = "setSearch"
	CommandSetSort    CommandType = "setSort"
	CommandShowDetail CommandType = "showDetail"
)

// Command is a user input addressed to the tracker.
// Only the field matching Type is read.
type Command struct {
	Type CommandType `json:"type"`
	Term string      `json:"term,omitempty"`
	Sort string      `json:"sort,omitempty"`
	ID   string      `json:"id,omitempty"`
}

// Result is the outcome of a dispatched command.
// Detail is nil for any command other than showDetail, and for an unknown id.
type Result struct {
	State  *State
	Detail *contracts.ItemDetail
}

// Dispatch routes a command to the matching tracker operation
func (t *Tracker) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	switch cmd.Type {
	case CommandRefresh:
		state, err := t.Refresh(ctx, TriggerManual)
		if err != nil {
			return Result{State: t.State()}, err
		}
		return Result{State: state}, nil

	case CommandSetSearch:
		return Result{State: t.SetSearch(cmd.Term)}, nil

	case CommandSetSort:
		key, err := contracts.ParseSortKey(cmd.Sort)
		if err != nil {
			return Result{State: t.State()}, err
		}
		state, err := t.SetSort(key)
		return Result{State: state}, err

	case CommandShowDetail:
		result := Result{State: t.State()}
		if detail, ok := t.Detail(cmd.ID); ok {
			result.Detail = &detail
		}
		return result, nil

	default:
		return Result{State: t.State()}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}
