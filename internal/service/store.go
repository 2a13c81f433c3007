package service

import (
	"context"
	"time"

	"github.com/ticketly/seating-service/internal/model"
)

// SeatStore is the durable record of every seat. The MySQL implementation
// lives in internal/repository; tests substitute an in-memory store.
//
// InTx runs fn inside one transaction: every mutation made through the
// SeatTx is committed atomically when fn returns nil and discarded entirely
// when it returns an error.
type SeatStore interface {
	FindByID(ctx context.Context, id uint64) (*model.Seat, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error)
	FindByEventID(ctx context.Context, eventID uint64) ([]model.Seat, error)
	FindByEventIDAndStatus(ctx context.Context, eventID uint64, status model.SeatStatus) ([]model.Seat, error)
	FindByOrderID(ctx context.Context, orderID string) ([]model.Seat, error)

	// FindExpiredReservations returns RESERVED seats whose expiry has
	// passed relative to now.
	FindExpiredReservations(ctx context.Context, now time.Time) ([]model.Seat, error)

	// Create inserts a new seat row and populates its ID, Version and
	// timestamps.
	Create(ctx context.Context, seat *model.Seat) error

	// AdminSetStatus overrides a seat's status unconditionally, clearing
	// all reservation fields so the status/field pairing rules hold. It
	// returns ErrSeatNotFound when the id does not exist.
	AdminSetStatus(ctx context.Context, id uint64, status model.SeatStatus) error

	// BulkResetExpiredToAvailable transitions every RESERVED seat whose
	// expiry has passed back to AVAILABLE in one atomic statement and
	// returns the number of rows affected. Safe to run concurrently with
	// the per-hold timers: a seat already reset is simply not matched.
	BulkResetExpiredToAvailable(ctx context.Context, now time.Time) (int64, error)

	InTx(ctx context.Context, fn func(tx SeatTx) error) error
}

// SeatTx is the transaction-scoped view of the store.
type SeatTx interface {
	// FindByIDsForUpdate returns the matching rows with exclusive row
	// locks held until the enclosing transaction ends. Implementations
	// MUST acquire the locks in ascending seat-id order regardless of the
	// order ids were passed in; this is the single code path that keeps
	// overlapping concurrent transactions deadlock-free, so no caller may
	// re-sort or lock rows on its own.
	FindByIDsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error)

	// SaveAll writes the given seats back. Each successful write bumps
	// the seat's Version by one, both on the row and on the passed
	// struct, and refreshes UpdatedAt.
	SaveAll(ctx context.Context, seats []model.Seat) error
}

// HoldRegistry is the TTL key/value side-store mapping a reservation id to
// its hold metadata. The Redis implementation lives in internal/hold.
type HoldRegistry interface {
	Put(ctx context.Context, reservationID string, h model.Hold, ttl time.Duration) error
	Get(ctx context.Context, reservationID string) (*model.Hold, error)
	Exists(ctx context.Context, reservationID string) (bool, error)
	Delete(ctx context.Context, reservationID string) error
}
