// Package repository implements the durable seat store on MySQL. Lookup
// failures surface as the sentinel errors of the service package, which
// owns the store contract.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ticketly/seating-service/internal/model"
	"github.com/ticketly/seating-service/internal/service"
)

// seatColumns is the full column list in scan order. row_number is quoted
// because MySQL 8 reserves it for the window function.
const seatColumns = "id, event_id, seat_number, `row_number`, section, type, price, status, " +
	"reserved_by, order_id, reserved_at, reservation_expires_at, version, created_at, updated_at"

// SeatRepo provides data access to the seats table. It implements
// service.SeatStore. All timestamps are stored and compared in UTC; the
// DSN pins the session to UTC so DATETIME round-trips stay consistent.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo bound to the provided database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSeat(sc rowScanner) (model.Seat, error) {
	var (
		s          model.Seat
		reservedBy sql.NullInt64
		orderID    sql.NullString
		reservedAt sql.NullTime
		expiresAt  sql.NullTime
	)
	err := sc.Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.RowNumber, &s.Section, &s.Type, &s.Price,
		&s.Status, &reservedBy, &orderID, &reservedAt, &expiresAt, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Seat{}, err
	}
	if reservedBy.Valid {
		u := uint64(reservedBy.Int64)
		s.ReservedBy = &u
	}
	if orderID.Valid {
		v := orderID.String
		s.OrderID = &v
	}
	if reservedAt.Valid {
		t := reservedAt.Time
		s.ReservedAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		s.ReservationExpiresAt = &t
	}
	return s, nil
}

func collectSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func idsToArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// FindByID returns a single seat or service.ErrSeatNotFound.
func (r *SeatRepo) FindByID(ctx context.Context, id uint64) (*model.Seat, error) {
	q := "SELECT " + seatColumns + " FROM seats WHERE id = ?"
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrSeatNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByIDs returns whichever of the given seats exist, without locking.
func (r *SeatRepo) FindByIDs(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := "SELECT " + seatColumns + " FROM seats WHERE id IN (" + placeholders(len(ids)) + ")"
	rows, err := r.db.QueryContext(ctx, q, idsToArgs(ids)...)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// FindByEventID returns all seats of an event ordered by row then seat
// number, the natural order for rendering a seating chart.
func (r *SeatRepo) FindByEventID(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	q := "SELECT " + seatColumns + " FROM seats WHERE event_id = ? ORDER BY `row_number` ASC, seat_number ASC"
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// FindByEventIDAndStatus filters an event's seats by status.
func (r *SeatRepo) FindByEventIDAndStatus(ctx context.Context, eventID uint64, status model.SeatStatus) ([]model.Seat, error) {
	q := "SELECT " + seatColumns + " FROM seats WHERE event_id = ? AND status = ? ORDER BY `row_number` ASC, seat_number ASC"
	rows, err := r.db.QueryContext(ctx, q, eventID, string(status))
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// FindByOrderID returns the seats allocated to an order.
func (r *SeatRepo) FindByOrderID(ctx context.Context, orderID string) ([]model.Seat, error) {
	q := "SELECT " + seatColumns + " FROM seats WHERE order_id = ?"
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// FindExpiredReservations returns RESERVED seats whose expiry has passed.
func (r *SeatRepo) FindExpiredReservations(ctx context.Context, now time.Time) ([]model.Seat, error) {
	q := "SELECT " + seatColumns + " FROM seats WHERE status = ? AND reservation_expires_at < ?"
	rows, err := r.db.QueryContext(ctx, q, string(model.StatusReserved), now.UTC())
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// Create inserts a new seat row and populates ID, Version and timestamps.
func (r *SeatRepo) Create(ctx context.Context, seat *model.Seat) error {
	const q = "INSERT INTO seats (event_id, seat_number, `row_number`, section, type, price, status, version) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?, 1)"
	res, err := r.db.ExecContext(ctx, q,
		seat.EventID, seat.SeatNumber, seat.RowNumber, seat.Section, string(seat.Type), seat.Price, string(seat.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	seat.ID = uint64(id)
	seat.Version = 1
	now := time.Now().UTC()
	seat.CreatedAt = now
	seat.UpdatedAt = now
	return nil
}

// AdminSetStatus overrides a seat's status and clears all reservation
// fields, bumping the version. The existence check runs first because an
// UPDATE that changes nothing reports zero affected rows on MySQL, which
// would be indistinguishable from a missing seat.
func (r *SeatRepo) AdminSetStatus(ctx context.Context, id uint64, status model.SeatStatus) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	const q = "UPDATE seats SET status = ?, reserved_by = NULL, order_id = NULL, reserved_at = NULL, " +
		"reservation_expires_at = NULL, version = version + 1, updated_at = ? WHERE id = ?"
	_, err := r.db.ExecContext(ctx, q, string(status), time.Now().UTC(), id)
	return err
}

// BulkResetExpiredToAvailable reclaims every expired RESERVED seat in one
// statement and returns the number of rows affected.
func (r *SeatRepo) BulkResetExpiredToAvailable(ctx context.Context, now time.Time) (int64, error) {
	const q = "UPDATE seats SET status = ?, reserved_by = NULL, order_id = NULL, reserved_at = NULL, " +
		"reservation_expires_at = NULL, version = version + 1, updated_at = ? " +
		"WHERE status = ? AND reservation_expires_at < ?"
	res, err := r.db.ExecContext(ctx, q, string(model.StatusAvailable), now.UTC(), string(model.StatusReserved), now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InTx runs fn inside a transaction, rolling back on error or panic and
// committing otherwise.
func (r *SeatRepo) InTx(ctx context.Context, fn func(tx service.SeatTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&seatTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// seatTx is the transaction-scoped view backing service.SeatTx.
type seatTx struct {
	tx *sql.Tx
}

// FindByIDsForUpdate locks the matching rows exclusively until the
// transaction ends. The ORDER BY id on the locking read is load-bearing:
// it is the single place the ascending-id lock order is enforced, which is
// what keeps overlapping concurrent transactions from deadlocking. The
// input slice is not modified.
func (t *seatTx) FindByIDsForUpdate(ctx context.Context, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := make([]uint64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	q := "SELECT " + seatColumns + " FROM seats WHERE id IN (" + placeholders(len(sorted)) + ") ORDER BY id ASC FOR UPDATE"
	rows, err := t.tx.QueryContext(ctx, q, idsToArgs(sorted)...)
	if err != nil {
		return nil, err
	}
	return collectSeats(rows)
}

// SaveAll writes the seats back with version = version + 1, guarded by the
// expected current version. Under the row locks the guard can only fail if
// a writer bypassed the locking discipline, so a miss is surfaced as an
// error rather than retried. On success each passed struct's Version and
// UpdatedAt are refreshed to match the row.
func (t *seatTx) SaveAll(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	const q = "UPDATE seats SET status = ?, reserved_by = ?, order_id = ?, reserved_at = ?, " +
		"reservation_expires_at = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?"
	now := time.Now().UTC()
	for i := range seats {
		s := &seats[i]
		var reservedBy any
		if s.ReservedBy != nil {
			reservedBy = *s.ReservedBy
		}
		var orderID any
		if s.OrderID != nil {
			orderID = *s.OrderID
		}
		var reservedAt, expiresAt any
		if s.ReservedAt != nil {
			reservedAt = s.ReservedAt.UTC()
		}
		if s.ReservationExpiresAt != nil {
			expiresAt = s.ReservationExpiresAt.UTC()
		}
		res, err := t.tx.ExecContext(ctx, q, string(s.Status), reservedBy, orderID, reservedAt, expiresAt, now, s.ID, s.Version)
		if err != nil {
			return fmt.Errorf("update seat %d: %w", s.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return fmt.Errorf("seat %d changed concurrently (version %d stale)", s.ID, s.Version)
		}
		s.Version++
		s.UpdatedAt = now
	}
	return nil
}
