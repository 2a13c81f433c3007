package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Releaser is the slice of the coordinator the scheduler needs: the
// idempotent blanket release.
type Releaser interface {
	Release(ctx context.Context, seatIDs []uint64) error
}

// opTimeout bounds the background store/cache calls made by the timer and
// sweep paths, which run outside any request context.
const opTimeout = 30 * time.Second

// ExpiryScheduler reclaims expired holds along two independent paths:
//
//   - a cancellable one-shot timer per reservation, armed when the
//     reservation commits. On fire it releases the seats only if the hold
//     record still exists in the registry; an absent record means the hold
//     was confirmed or already released.
//   - a periodic sweep over the durable store that bulk-resets every
//     RESERVED seat whose expiry has passed. The sweep is the backstop
//     that survives process restarts, since in-process timers do not.
//
// Both paths tolerate racing each other: resetting an already-AVAILABLE
// seat is a no-op. Timer errors are logged and swallowed (the sweep
// corrects them); sweep errors are logged and retried on the next tick.
type ExpiryScheduler struct {
	store         SeatStore
	holds         HoldRegistry
	releaser      Releaser
	sweepInterval time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool

	stop chan struct{}
	wg   sync.WaitGroup
}

func NewExpiryScheduler(store SeatStore, holds HoldRegistry, releaser Releaser, sweepInterval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		store:         store,
		holds:         holds,
		releaser:      releaser,
		sweepInterval: sweepInterval,
		timers:        make(map[string]*time.Timer),
		stop:          make(chan struct{}),
	}
}

// Start launches the periodic sweep. It must be called exactly once.
func (s *ExpiryScheduler) Start() {
	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop halts the sweep and cancels all armed timers. After Stop, ArmTimer
// becomes a no-op; any hold still pending is reclaimed by the next
// process's sweep.
func (s *ExpiryScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	close(s.stop)
	s.wg.Wait()
}

// ArmTimer schedules the one-shot reclaim for a reservation. The timer is
// keyed by reservation id so it can later be cancelled individually.
func (s *ExpiryScheduler) ArmTimer(reservationID string, seatIDs []uint64, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	ids := make([]uint64, len(seatIDs))
	copy(ids, seatIDs)
	s.timers[reservationID] = time.AfterFunc(d, func() {
		s.fire(reservationID, ids)
	})
}

// CancelTimer stops the timer for reservationID, reporting whether one was
// armed. Callers that confirm a hold can use this to end its expiry
// exposure without waiting for the registry existence check.
func (s *ExpiryScheduler) CancelTimer(reservationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[reservationID]
	if !ok {
		return false
	}
	t.Stop()
	delete(s.timers, reservationID)
	return true
}

func (s *ExpiryScheduler) fire(reservationID string, seatIDs []uint64) {
	s.mu.Lock()
	delete(s.timers, reservationID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	exists, err := s.holds.Exists(ctx, reservationID)
	if err != nil {
		log.Printf("expiry: hold lookup for %s failed: %v", reservationID, err)
		return
	}
	if !exists {
		// Confirmed or released before expiry; nothing to reclaim.
		return
	}
	if err := s.releaser.Release(ctx, seatIDs); err != nil {
		log.Printf("expiry: release for %s failed: %v", reservationID, err)
		return
	}
	if err := s.holds.Delete(ctx, reservationID); err != nil {
		log.Printf("expiry: hold delete for %s failed: %v", reservationID, err)
	}
	log.Printf("expiry: reservation %s expired, released %d seats", reservationID, len(seatIDs))
}

func (s *ExpiryScheduler) sweepLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *ExpiryScheduler) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := s.store.BulkResetExpiredToAvailable(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("expiry: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("expiry: sweep released %d expired reservations", n)
	}
}
