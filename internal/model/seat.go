package model

import "time"

// SeatStatus is the reservation state of a seat. A seat cycles between
// AVAILABLE, RESERVED and ALLOCATED during normal operation; BLOCKED is an
// administrative override that takes the seat out of circulation.
type SeatStatus string

const (
	StatusAvailable SeatStatus = "AVAILABLE"
	StatusReserved  SeatStatus = "RESERVED"
	StatusAllocated SeatStatus = "ALLOCATED"
	StatusBlocked   SeatStatus = "BLOCKED"
)

// ValidSeatStatus reports whether s is one of the four known statuses. It is
// used to reject unknown status filters before they reach the database.
func ValidSeatStatus(s SeatStatus) bool {
	switch s {
	case StatusAvailable, StatusReserved, StatusAllocated, StatusBlocked:
		return true
	}
	return false
}

// SeatType is the pricing class of a seat.
type SeatType string

const (
	TypeVIP     SeatType = "VIP"
	TypePremium SeatType = "PREMIUM"
	TypeRegular SeatType = "REGULAR"
	TypeEconomy SeatType = "ECONOMY"
)

// Seat is one physical, ticketed seat. Seats are grouped into an inventory
// by EventID and are never deleted; only their reservation state changes.
//
// Field pairing rules the rest of the system depends on:
//   - RESERVED implies ReservedBy, ReservedAt and ReservationExpiresAt are set.
//   - ALLOCATED implies OrderID is set and ReservationExpiresAt is nil;
//     ReservedBy/ReservedAt are retained as provenance of who held the seat.
//   - AVAILABLE and BLOCKED imply all four reservation fields are nil.
//
// Version increases by exactly one on every successful write and never
// wraps, so readers can detect lost updates on top of the row locking.
type Seat struct {
	ID                   uint64     `json:"id"`
	EventID              uint64     `json:"eventId"`
	SeatNumber           string     `json:"seatNumber"`
	RowNumber            string     `json:"rowNumber"`
	Section              string     `json:"section"`
	Type                 SeatType   `json:"type"`
	Price                float64    `json:"price"`
	Status               SeatStatus `json:"status"`
	ReservedBy           *uint64    `json:"reservedBy"`
	OrderID              *string    `json:"orderId"`
	ReservedAt           *time.Time `json:"reservedAt"`
	ReservationExpiresAt *time.Time `json:"reservationExpiresAt"`
	Version              uint32     `json:"version"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// ClearReservation nulls every reservation-related field. Callers set the
// status themselves; this only guarantees the field pairing rules above.
func (s *Seat) ClearReservation() {
	s.ReservedBy = nil
	s.OrderID = nil
	s.ReservedAt = nil
	s.ReservationExpiresAt = nil
}
