// Package service implements the seat reservation core: the coordinator
// that drives state transitions inside locked transactions, the expiry
// scheduler that reclaims abandoned holds, and the availability projector.
package service

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the validation failures detected before any mutation.
// The HTTP layer translates these into status codes; nothing in this
// package writes a partial result once one of them is returned.
var (
	// ErrSeatNotFound is returned by single-seat lookups when no row
	// exists for the id. SeatStore implementations return this sentinel
	// so callers need not inspect driver errors.
	ErrSeatNotFound = errors.New("seat not found")

	// ErrSeatsNotFound is returned when a locked read yields fewer rows
	// than seat ids requested, i.e. at least one id does not exist.
	ErrSeatsNotFound = errors.New("some seats not found")

	// ErrNoSeatsForEvent is returned by the availability projection when
	// an event has no seat rows at all.
	ErrNoSeatsForEvent = errors.New("no seats found for event")

	// ErrEventMismatch is returned when a reservation request references
	// seats outside the requested event's inventory.
	ErrEventMismatch = errors.New("all seats must belong to the same event")

	// ErrEmptySeatIDs is returned when an operation is invoked with no
	// seat ids.
	ErrEmptySeatIDs = errors.New("seat ids are required")

	// ErrInvalidPrice is returned by seat creation for a negative price.
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrInvalidStatus is returned for an unknown seat status filter.
	ErrInvalidStatus = errors.New("unknown seat status")
)

// ConflictError reports seats whose current status forbids the requested
// transition. SeatNumbers names the offending seats so callers can tell the
// user exactly which picks to change.
type ConflictError struct {
	Reason      string
	SeatNumbers []string
}

func (e *ConflictError) Error() string {
	if len(e.SeatNumbers) == 0 {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.SeatNumbers, ", "))
}
