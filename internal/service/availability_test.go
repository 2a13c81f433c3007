package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ticketly/seating-service/internal/model"
)

func TestAvailabilityAggregation(t *testing.T) {
	reserved := seatFixture(2, 10, "A2", 50.00)
	reserved.Status = model.StatusReserved
	allocated := seatFixture(3, 10, "A3", 50.00)
	allocated.Status = model.StatusAllocated
	blocked := seatFixture(4, 10, "A4", 50.00)
	blocked.Status = model.StatusBlocked
	balcony := seatFixture(5, 10, "B1", 75.00)
	balcony.Section = "BALCONY"

	store := newMemStore(
		seatFixture(1, 10, "A1", 50.00),
		reserved,
		allocated,
		blocked,
		balcony,
		seatFixture(6, 99, "A1", 50.00), // different event, must not count
	)
	p := NewAvailabilityProjector(store)

	av, err := p.Availability(context.Background(), 10)
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if av.EventID != 10 {
		t.Errorf("eventId = %d, want 10", av.EventID)
	}
	if av.TotalSeats != 5 {
		t.Errorf("total = %d, want 5", av.TotalSeats)
	}
	if av.AvailableSeats != 2 || av.ReservedSeats != 1 || av.AllocatedSeats != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", av.AvailableSeats, av.ReservedSeats, av.AllocatedSeats)
	}
	if len(av.AvailableSeatsList) != 2 {
		t.Fatalf("available list has %d seats, want 2", len(av.AvailableSeatsList))
	}
	for _, s := range av.AvailableSeatsList {
		if s.Status != model.StatusAvailable {
			t.Errorf("seat %d in available list has status %s", s.ID, s.Status)
		}
	}
	if av.AvailableSeatsBySection["MAIN"] != 1 || av.AvailableSeatsBySection["BALCONY"] != 1 {
		t.Errorf("section map = %v, want MAIN:1 BALCONY:1", av.AvailableSeatsBySection)
	}
}

func TestAvailabilityUnknownEvent(t *testing.T) {
	store := newMemStore(seatFixture(1, 10, "A1", 50.00))
	p := NewAvailabilityProjector(store)

	if _, err := p.Availability(context.Background(), 404); !errors.Is(err, ErrNoSeatsForEvent) {
		t.Errorf("got %v, want ErrNoSeatsForEvent", err)
	}
}
