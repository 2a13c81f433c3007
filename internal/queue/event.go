// Package queue defines the seating domain events exchanged over the
// message broker, the best-effort publisher and the logging consumer.
package queue

// Event type discriminators carried in the "type" field so consumers can
// decode a mixed queue.
const (
	TypeSeatsReserved  = "seats.reserved"
	TypeSeatsAllocated = "seats.allocated"
	TypeSeatsReleased  = "seats.released"
)

// SeatsReservedEvent is published after a reservation commits. It carries
// enough for downstream consumers (notifications, analytics) to act
// without querying the seat store.
type SeatsReservedEvent struct {
	Type          string   `json:"type"`
	ReservationID string   `json:"reservationId"`
	EventID       uint64   `json:"eventId"`
	UserID        uint64   `json:"userId"`
	SeatIDs       []uint64 `json:"seatIds"`
	TotalPrice    float64  `json:"totalPrice"`
	ExpiresAt     string   `json:"expiresAt"`
}

// SeatsAllocatedEvent is published when a hold is confirmed against an
// order.
type SeatsAllocatedEvent struct {
	Type        string   `json:"type"`
	OrderID     string   `json:"orderId"`
	SeatIDs     []uint64 `json:"seatIds"`
	AllocatedAt string   `json:"allocatedAt"`
}

// SeatsReleasedEvent is published when seats return to AVAILABLE, whether
// by explicit release or expiry.
type SeatsReleasedEvent struct {
	Type       string   `json:"type"`
	SeatIDs    []uint64 `json:"seatIds"`
	Released   int      `json:"released"`
	ReleasedAt string   `json:"releasedAt"`
}
