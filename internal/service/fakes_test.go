package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ticketly/seating-service/internal/model"
	"github.com/ticketly/seating-service/internal/queue"
)

// memStore is an in-memory SeatStore. A single mutex held for the whole of
// InTx serializes transactions, which models the row-lock blocking of the
// real store coarsely but faithfully enough for the transition logic:
// overlapping concurrent requests observe each other's committed state,
// never intermediate state.
type memStore struct {
	mu     sync.Mutex
	seats  map[uint64]*model.Seat
	nextID uint64
}

func newMemStore(seats ...model.Seat) *memStore {
	s := &memStore{seats: make(map[uint64]*model.Seat), nextID: 1}
	for _, seat := range seats {
		cp := seat
		s.seats[cp.ID] = &cp
		if cp.ID >= s.nextID {
			s.nextID = cp.ID + 1
		}
	}
	return s
}

// get returns a copy for assertions without exposing internal pointers.
func (s *memStore) get(id uint64) (model.Seat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok {
		return model.Seat{}, false
	}
	return *seat, true
}

func (s *memStore) FindByID(ctx context.Context, id uint64) (*model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok {
		return nil, ErrSeatNotFound
	}
	cp := *seat
	return &cp, nil
}

func (s *memStore) FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(ids), nil
}

func (s *memStore) collect(ids []uint64) []model.Seat {
	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var out []model.Seat
	for _, id := range sorted {
		if seat, ok := s.seats[id]; ok {
			out = append(out, *seat)
		}
	}
	return out
}

func (s *memStore) FindByEventID(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Seat
	for _, seat := range s.seats {
		if seat.EventID == eventID {
			out = append(out, *seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindByEventIDAndStatus(ctx context.Context, eventID uint64, status model.SeatStatus) ([]model.Seat, error) {
	all, _ := s.FindByEventID(ctx, eventID)
	var out []model.Seat
	for _, seat := range all {
		if seat.Status == status {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (s *memStore) FindByOrderID(ctx context.Context, orderID string) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Seat
	for _, seat := range s.seats {
		if seat.OrderID != nil && *seat.OrderID == orderID {
			out = append(out, *seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindExpiredReservations(ctx context.Context, now time.Time) ([]model.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Seat
	for _, seat := range s.seats {
		if seat.Status == model.StatusReserved && seat.ReservationExpiresAt != nil && seat.ReservationExpiresAt.Before(now) {
			out = append(out, *seat)
		}
	}
	return out, nil
}

func (s *memStore) Create(ctx context.Context, seat *model.Seat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat.ID = s.nextID
	s.nextID++
	seat.Version = 1
	now := time.Now().UTC()
	seat.CreatedAt = now
	seat.UpdatedAt = now
	cp := *seat
	s.seats[cp.ID] = &cp
	return nil
}

func (s *memStore) AdminSetStatus(ctx context.Context, id uint64, status model.SeatStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seat, ok := s.seats[id]
	if !ok {
		return ErrSeatNotFound
	}
	seat.Status = status
	seat.ClearReservation()
	seat.Version++
	seat.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *memStore) BulkResetExpiredToAvailable(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, seat := range s.seats {
		if seat.Status == model.StatusReserved && seat.ReservationExpiresAt != nil && seat.ReservationExpiresAt.Before(now) {
			seat.Status = model.StatusAvailable
			seat.ClearReservation()
			seat.Version++
			seat.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *memStore) InTx(ctx context.Context, fn func(tx SeatTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Snapshot for rollback.
	snapshot := make(map[uint64]*model.Seat, len(s.seats))
	for id, seat := range s.seats {
		cp := *seat
		snapshot[id] = &cp
	}
	if err := fn(&memTx{store: s}); err != nil {
		s.seats = snapshot
		return err
	}
	return nil
}

type memTx struct {
	store *memStore
}

func (t *memTx) FindByIDsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	return t.store.collect(ids), nil
}

func (t *memTx) SaveAll(ctx context.Context, seats []model.Seat) error {
	now := time.Now().UTC()
	for i := range seats {
		seats[i].Version++
		seats[i].UpdatedAt = now
		cp := seats[i]
		t.store.seats[cp.ID] = &cp
	}
	return nil
}

// memRegistry is an in-memory HoldRegistry. TTLs are recorded but not
// enforced; tests simulate expiry by deleting entries.
type memRegistry struct {
	mu    sync.Mutex
	holds map[string]model.Hold
	ttls  map[string]time.Duration
}

func newMemRegistry() *memRegistry {
	return &memRegistry{holds: make(map[string]model.Hold), ttls: make(map[string]time.Duration)}
}

func (r *memRegistry) Put(ctx context.Context, reservationID string, h model.Hold, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.holds[reservationID] = h
	r.ttls[reservationID] = ttl
	return nil
}

func (r *memRegistry) Get(ctx context.Context, reservationID string) (*model.Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holds[reservationID]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (r *memRegistry) Exists(ctx context.Context, reservationID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.holds[reservationID]
	return ok, nil
}

func (r *memRegistry) Delete(ctx context.Context, reservationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.holds, reservationID)
	delete(r.ttls, reservationID)
	return nil
}

func (r *memRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.holds)
}

// recordArmer captures ArmTimer calls without scheduling anything.
type recordArmer struct {
	mu    sync.Mutex
	armed []armedTimer
}

type armedTimer struct {
	reservationID string
	seatIDs       []uint64
	ttl           time.Duration
}

func (a *recordArmer) ArmTimer(reservationID string, seatIDs []uint64, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed = append(a.armed, armedTimer{reservationID: reservationID, seatIDs: seatIDs, ttl: d})
}

func (a *recordArmer) calls() []armedTimer {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]armedTimer(nil), a.armed...)
}

// memPublisher counts published events.
type memPublisher struct {
	mu        sync.Mutex
	reserved  int
	allocated int
	released  int
}

func (p *memPublisher) SeatsReserved(ctx context.Context, ev queue.SeatsReservedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reserved++
	return nil
}

func (p *memPublisher) SeatsAllocated(ctx context.Context, ev queue.SeatsAllocatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.allocated++
	return nil
}

func (p *memPublisher) SeatsReleased(ctx context.Context, ev queue.SeatsReleasedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
	return nil
}

// seatFixture builds an AVAILABLE seat with sensible defaults.
func seatFixture(id, eventID uint64, number string, price float64) model.Seat {
	now := time.Now().UTC()
	return model.Seat{
		ID:         id,
		EventID:    eventID,
		SeatNumber: number,
		RowNumber:  "A",
		Section:    "MAIN",
		Type:       model.TypeRegular,
		Price:      price,
		Status:     model.StatusAvailable,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
