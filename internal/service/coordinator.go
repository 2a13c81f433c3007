package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ticketly/seating-service/internal/model"
	"github.com/ticketly/seating-service/internal/queue"
)

// EventPublisher publishes domain events after a transaction commits.
// Publishing is best-effort: the coordinator logs failures and moves on, it
// never fails a request because the broker is down.
type EventPublisher interface {
	SeatsReserved(ctx context.Context, ev queue.SeatsReservedEvent) error
	SeatsAllocated(ctx context.Context, ev queue.SeatsAllocatedEvent) error
	SeatsReleased(ctx context.Context, ev queue.SeatsReleasedEvent) error
}

// ExpiryArmer schedules the one-shot reclaim for a freshly committed
// reservation. Implemented by ExpiryScheduler.
type ExpiryArmer interface {
	ArmTimer(reservationID string, seatIDs []uint64, d time.Duration)
}

// ReservationResult is returned by Reserve after the transaction commits
// and the hold is registered.
type ReservationResult struct {
	ReservationID string       `json:"reservationId"`
	ReservedSeats []model.Seat `json:"reservedSeats"`
	TotalPrice    float64      `json:"totalPrice"`
	ExpiresAt     time.Time    `json:"expiresAt"`
}

// ReservationCoordinator orchestrates every seat state transition. All
// multi-seat transitions run inside one store transaction with the rows
// exclusively locked, so a request either commits all of its seats or none
// of them. The coordinator and the ExpiryScheduler are the only writers of
// seat rows.
type ReservationCoordinator struct {
	store   SeatStore
	holds   HoldRegistry
	events  EventPublisher
	armer   ExpiryArmer
	holdTTL time.Duration
	now     func() time.Time
}

// NewReservationCoordinator builds a coordinator. events may be nil when no
// broker is configured. The expiry armer is attached separately via
// SetExpiryArmer because the scheduler needs the coordinator as its
// releaser.
func NewReservationCoordinator(store SeatStore, holds HoldRegistry, events EventPublisher, holdTTL time.Duration) *ReservationCoordinator {
	if store == nil || holds == nil {
		panic("nil store or hold registry passed to NewReservationCoordinator")
	}
	return &ReservationCoordinator{
		store:   store,
		holds:   holds,
		events:  events,
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

// SetExpiryArmer attaches the scheduler that arms per-reservation timers.
// Reserve works without one; the periodic sweep then carries all expiry.
func (c *ReservationCoordinator) SetExpiryArmer(a ExpiryArmer) { c.armer = a }

// Reserve places a time-bounded hold on the given seats for userID.
//
// Inside one transaction it locks the rows (ascending id), verifies that
// every id exists, that every seat belongs to eventID and that every seat
// is AVAILABLE, then transitions all of them to RESERVED. Any failure
// aborts the transaction with no seat changed. After commit it registers
// the hold in the side cache with a TTL equal to the hold duration and
// arms the one-shot expiry timer.
func (c *ReservationCoordinator) Reserve(ctx context.Context, eventID uint64, seatIDs []uint64, userID uint64) (*ReservationResult, error) {
	if len(seatIDs) == 0 {
		return nil, ErrEmptySeatIDs
	}

	now := c.now().UTC()
	expiresAt := now.Add(c.holdTTL)
	var reserved []model.Seat

	err := c.store.InTx(ctx, func(tx SeatTx) error {
		seats, err := tx.FindByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}
		if len(seats) != len(seatIDs) {
			return ErrSeatsNotFound
		}
		for _, s := range seats {
			if s.EventID != eventID {
				return ErrEventMismatch
			}
		}
		var unavailable []string
		for _, s := range seats {
			if s.Status != model.StatusAvailable {
				unavailable = append(unavailable, s.SeatNumber)
			}
		}
		if len(unavailable) > 0 {
			return &ConflictError{Reason: "seats are not available", SeatNumbers: unavailable}
		}

		for i := range seats {
			seats[i].Status = model.StatusReserved
			seats[i].ReservedBy = &userID
			at := now
			exp := expiresAt
			seats[i].ReservedAt = &at
			seats[i].ReservationExpiresAt = &exp
		}
		if err := tx.SaveAll(ctx, seats); err != nil {
			return fmt.Errorf("save seats: %w", err)
		}
		reserved = seats
		return nil
	})
	if err != nil {
		return nil, err
	}

	reservationID := uuid.NewString()
	hold := model.Hold{
		UserID:    userID,
		EventID:   eventID,
		SeatIDs:   seatIDs,
		ExpiresAt: expiresAt,
	}
	// The reservation is already committed; a registry failure only means
	// the timer path will find no hold and the sweep reclaims instead, so
	// it must not fail the request.
	if err := c.holds.Put(ctx, reservationID, hold, c.holdTTL); err != nil {
		log.Printf("coordinator: hold registry write failed for %s: %v", reservationID, err)
	}
	if c.armer != nil {
		c.armer.ArmTimer(reservationID, seatIDs, c.holdTTL)
	}

	var total float64
	for _, s := range reserved {
		total += s.Price
	}

	c.publishReserved(ctx, reservationID, eventID, userID, seatIDs, total, expiresAt)

	return &ReservationResult{
		ReservationID: reservationID,
		ReservedSeats: reserved,
		TotalPrice:    total,
		ExpiresAt:     expiresAt,
	}, nil
}

// Allocate durably confirms a hold against an order. Every seat must
// currently be RESERVED; on success the seats become ALLOCATED with the
// order id recorded and no further expiry applies. ReservedBy/ReservedAt
// are kept as provenance of who held the seats.
func (c *ReservationCoordinator) Allocate(ctx context.Context, seatIDs []uint64, orderID string) error {
	if len(seatIDs) == 0 {
		return ErrEmptySeatIDs
	}

	err := c.store.InTx(ctx, func(tx SeatTx) error {
		seats, err := tx.FindByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}
		if len(seats) != len(seatIDs) {
			return ErrSeatsNotFound
		}
		var notReserved []string
		for _, s := range seats {
			if s.Status != model.StatusReserved {
				notReserved = append(notReserved, s.SeatNumber)
			}
		}
		if len(notReserved) > 0 {
			return &ConflictError{Reason: "seats are not in reserved status", SeatNumbers: notReserved}
		}

		for i := range seats {
			seats[i].Status = model.StatusAllocated
			oid := orderID
			seats[i].OrderID = &oid
			seats[i].ReservationExpiresAt = nil
		}
		return tx.SaveAll(ctx, seats)
	})
	if err != nil {
		return err
	}

	c.publishAllocated(ctx, orderID, seatIDs)
	return nil
}

// Release unconditionally resets the given seats to AVAILABLE, clearing
// every reservation field regardless of current status. Ids that do not
// exist are ignored and releasing an already-AVAILABLE seat is a no-op, so
// the call is idempotent and safe from both the expiry paths and manual
// administration. Note this also clears ALLOCATED seats; there is no
// separate cancel-order path.
func (c *ReservationCoordinator) Release(ctx context.Context, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}

	released := 0
	err := c.store.InTx(ctx, func(tx SeatTx) error {
		seats, err := tx.FindByIDsForUpdate(ctx, seatIDs)
		if err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}
		if len(seats) == 0 {
			return nil
		}
		for i := range seats {
			seats[i].Status = model.StatusAvailable
			seats[i].ClearReservation()
		}
		if err := tx.SaveAll(ctx, seats); err != nil {
			return err
		}
		released = len(seats)
		return nil
	})
	if err != nil {
		return err
	}

	if released > 0 {
		c.publishReleased(ctx, seatIDs, released)
	}
	return nil
}

// Block takes a seat out of circulation. The transition is an
// administrative override: it applies regardless of the seat's current
// status and clears any reservation fields left behind.
func (c *ReservationCoordinator) Block(ctx context.Context, id uint64) error {
	return c.store.AdminSetStatus(ctx, id, model.StatusBlocked)
}

// Unblock returns a seat to AVAILABLE, again unconditionally.
func (c *ReservationCoordinator) Unblock(ctx context.Context, id uint64) error {
	return c.store.AdminSetStatus(ctx, id, model.StatusAvailable)
}

// CreateSeat inserts a new seat in AVAILABLE status. Type defaults to
// REGULAR when empty.
func (c *ReservationCoordinator) CreateSeat(ctx context.Context, seat *model.Seat) error {
	if seat.Price < 0 {
		return ErrInvalidPrice
	}
	if seat.Type == "" {
		seat.Type = model.TypeRegular
	}
	seat.Status = model.StatusAvailable
	seat.ClearReservation()
	return c.store.Create(ctx, seat)
}

// GetSeat returns a single seat by id.
func (c *ReservationCoordinator) GetSeat(ctx context.Context, id uint64) (*model.Seat, error) {
	return c.store.FindByID(ctx, id)
}

// ListSeats returns the seats of an event, optionally filtered by status.
func (c *ReservationCoordinator) ListSeats(ctx context.Context, eventID uint64, status model.SeatStatus) ([]model.Seat, error) {
	if status == "" {
		return c.store.FindByEventID(ctx, eventID)
	}
	if !model.ValidSeatStatus(status) {
		return nil, ErrInvalidStatus
	}
	return c.store.FindByEventIDAndStatus(ctx, eventID, status)
}

// ListSeatsByOrder returns the seats allocated to an order.
func (c *ReservationCoordinator) ListSeatsByOrder(ctx context.Context, orderID string) ([]model.Seat, error) {
	return c.store.FindByOrderID(ctx, orderID)
}

func (c *ReservationCoordinator) publishReserved(ctx context.Context, reservationID string, eventID, userID uint64, seatIDs []uint64, total float64, expiresAt time.Time) {
	if c.events == nil {
		return
	}
	ev := queue.SeatsReservedEvent{
		Type:          queue.TypeSeatsReserved,
		ReservationID: reservationID,
		EventID:       eventID,
		UserID:        userID,
		SeatIDs:       seatIDs,
		TotalPrice:    total,
		ExpiresAt:     expiresAt.Format(time.RFC3339),
	}
	if err := c.events.SeatsReserved(ctx, ev); err != nil {
		log.Printf("coordinator: publish seats.reserved failed: %v", err)
	}
}

func (c *ReservationCoordinator) publishAllocated(ctx context.Context, orderID string, seatIDs []uint64) {
	if c.events == nil {
		return
	}
	ev := queue.SeatsAllocatedEvent{
		Type:        queue.TypeSeatsAllocated,
		OrderID:     orderID,
		SeatIDs:     seatIDs,
		AllocatedAt: c.now().UTC().Format(time.RFC3339),
	}
	if err := c.events.SeatsAllocated(ctx, ev); err != nil {
		log.Printf("coordinator: publish seats.allocated failed: %v", err)
	}
}

func (c *ReservationCoordinator) publishReleased(ctx context.Context, seatIDs []uint64, released int) {
	if c.events == nil {
		return
	}
	ev := queue.SeatsReleasedEvent{
		Type:       queue.TypeSeatsReleased,
		SeatIDs:    seatIDs,
		Released:   released,
		ReleasedAt: c.now().UTC().Format(time.RFC3339),
	}
	if err := c.events.SeatsReleased(ctx, ev); err != nil {
		log.Printf("coordinator: publish seats.released failed: %v", err)
	}
}
