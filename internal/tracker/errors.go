package tracker

import (
	"errors"
	"fmt"
)

// UserErrorMessage is what sinks show when a cycle fails
const UserErrorMessage = "Failed to load bazaar data. Try again."

var (
	// ErrCycleInFlight is returned when a trigger arrives while a cycle is running.
	// The trigger is dropped, not queued.
	ErrCycleInFlight = errors.New("refresh cycle already in flight")

	// ErrUnknownCommand is returned by Dispatch for an unrecognised command type
	ErrUnknownCommand = errors.New("unknown command")
)

// FetchError wraps a data-source failure for one cycle
type FetchError struct {
	CycleID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("cycle %s: fetch snapshot: %v", e.CycleID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
