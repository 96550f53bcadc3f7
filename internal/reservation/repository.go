package reservation

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrAlreadyCancelled means the cancel hit a row that is no longer
	// active. Cancelled is terminal.
	ErrAlreadyCancelled = errors.New("reservation already cancelled")

	// ErrDuplicateReservation is raised by the partial unique index when a
	// member already holds an active seat for the class and date.
	ErrDuplicateReservation = errors.New("member already has an active reservation for this class and date")

	// ErrCapacityExceeded is raised by the insert-time capacity trigger.
	// The service-level pre-check returns the same error, but only this
	// write-time rejection is authoritative under concurrency.
	ErrCapacityExceeded = errors.New("class is at capacity for this date")
)

const detailColumns = `
	r.id,
	r.class_id,
	r.user_id,
	r.reservation_date,
	r.status,
	r.created_at,
	c.name AS class_name,
	c.instructor,
	c.start_time AS class_start_time,
	c.end_time AS class_end_time,
	u.full_name AS member_name,
	u.email AS member_email
`

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

// Create inserts the authoritative ledger row. Constraint rejections are
// mapped by name: the partial unique index to ErrDuplicateReservation, the
// capacity trigger to ErrCapacityExceeded. Never retried by callers; a
// failed insert left no row, a timed-out one is resolved by the unique
// index on the next attempt.
func (r *repository) Create(ctx context.Context, userID, classID int, date time.Time) (*Reservation, error) {
	query := `
		INSERT INTO reservations (class_id, user_id, reservation_date, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING id, class_id, user_id, reservation_date, status, created_at
	`

	var res Reservation
	err := r.db.GetContext(ctx, &res, query, classID, userID, date)
	if err != nil {
		switch {
		case db.UniqueViolation(err, "reservations_active_member_unique"):
			return nil, ErrDuplicateReservation
		case db.CheckViolation(err, "reservations_capacity_check"):
			return nil, ErrCapacityExceeded
		}
		return nil, err
	}

	return &res, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Reservation, error) {
	query := `
		SELECT id, class_id, user_id, reservation_date, status, created_at
		FROM reservations
		WHERE id = $1
	`

	var res Reservation
	err := r.db.GetContext(ctx, &res, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}

	return &res, nil
}

func (r *repository) Cancel(ctx context.Context, id int) error {
	query := `
		UPDATE reservations
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'active'
	`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrAlreadyCancelled
	}

	return nil
}

func (r *repository) CountActive(ctx context.Context, classID int, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE class_id = $1 AND reservation_date = $2 AND status = 'active'
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, classID, date)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) ListForMember(ctx context.Context, userID int) ([]ReservationWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM reservations r
		JOIN classes c ON r.class_id = c.id
		JOIN users u ON r.user_id = u.id
		WHERE r.user_id = $1
		ORDER BY r.reservation_date DESC, r.created_at DESC
	`

	var reservations []ReservationWithDetails
	err := r.db.SelectContext(ctx, &reservations, query, userID)
	if err != nil {
		return nil, err
	}

	return reservations, nil
}

func (r *repository) ListForDate(ctx context.Context, date time.Time) ([]ReservationWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM reservations r
		JOIN classes c ON r.class_id = c.id
		JOIN users u ON r.user_id = u.id
		WHERE r.reservation_date = $1
		ORDER BY c.start_time ASC, r.created_at DESC
	`

	var reservations []ReservationWithDetails
	err := r.db.SelectContext(ctx, &reservations, query, date)
	if err != nil {
		return nil, err
	}

	return reservations, nil
}

func (r *repository) ListAll(ctx context.Context) ([]ReservationWithDetails, error) {
	query := `
		SELECT ` + detailColumns + `
		FROM reservations r
		JOIN classes c ON r.class_id = c.id
		JOIN users u ON r.user_id = u.id
		ORDER BY r.reservation_date DESC, r.created_at DESC
	`

	var reservations []ReservationWithDetails
	err := r.db.SelectContext(ctx, &reservations, query)
	if err != nil {
		return nil, err
	}

	return reservations, nil
}
