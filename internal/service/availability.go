package service

import (
	"context"

	"github.com/ticketly/seating-service/internal/model"
)

// Availability is the aggregated seat picture for one event.
type Availability struct {
	EventID                 uint64         `json:"eventId"`
	TotalSeats              int            `json:"totalSeats"`
	AvailableSeats          int            `json:"availableSeats"`
	ReservedSeats           int            `json:"reservedSeats"`
	AllocatedSeats          int            `json:"allocatedSeats"`
	AvailableSeatsList      []model.Seat   `json:"availableSeatsList"`
	AvailableSeatsBySection map[string]int `json:"availableSeatsBySection"`
}

// AvailabilityProjector computes read-only seat aggregations. It never
// locks and never mutates; the numbers are a snapshot of one unlocked read
// and may be stale by up to one hold duration against concurrent writers.
type AvailabilityProjector struct {
	store SeatStore
}

func NewAvailabilityProjector(store SeatStore) *AvailabilityProjector {
	return &AvailabilityProjector{store: store}
}

// Availability aggregates the current seat rows of eventID. It returns
// ErrNoSeatsForEvent when the event has no seats at all.
func (p *AvailabilityProjector) Availability(ctx context.Context, eventID uint64) (*Availability, error) {
	seats, err := p.store.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, ErrNoSeatsForEvent
	}

	out := &Availability{
		EventID:                 eventID,
		TotalSeats:              len(seats),
		AvailableSeatsList:      make([]model.Seat, 0),
		AvailableSeatsBySection: make(map[string]int),
	}
	for _, s := range seats {
		switch s.Status {
		case model.StatusAvailable:
			out.AvailableSeats++
			out.AvailableSeatsList = append(out.AvailableSeatsList, s)
			out.AvailableSeatsBySection[s.Section]++
		case model.StatusReserved:
			out.ReservedSeats++
		case model.StatusAllocated:
			out.AllocatedSeats++
		}
	}
	return out, nil
}
