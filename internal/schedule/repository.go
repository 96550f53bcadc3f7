package schedule

import (
	"context"
	"database/sql"
	"errors"

	"studioslot/internal/db"

	"github.com/jmoiron/sqlx"
)

var (
	ErrClassNotFound = errors.New("class not found")

	// ErrHasReservations means the delete was blocked by reservation
	// history. The caller may fall back to deactivation.
	ErrHasReservations = errors.New("class has existing reservations")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(database *sqlx.DB) Repository {
	return &repository{db: database}
}

func (r *repository) Create(ctx context.Context, class *Class) (*Class, error) {
	query := `
		INSERT INTO classes (name, instructor, day_of_week, start_time, end_time, max_capacity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, name, instructor, day_of_week, start_time, end_time, max_capacity, is_active, created_at
	`

	var created Class
	err := r.db.GetContext(ctx, &created, query,
		class.Name, class.Instructor, class.DayOfWeek,
		class.StartTime, class.EndTime, class.MaxCapacity, class.IsActive)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Class, error) {
	query := `
		SELECT id, name, instructor, day_of_week, start_time, end_time, max_capacity, is_active, created_at
		FROM classes
		WHERE id = $1
	`

	var class Class
	err := r.db.GetContext(ctx, &class, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}

	return &class, nil
}

func (r *repository) ListActive(ctx context.Context) ([]Class, error) {
	query := `
		SELECT id, name, instructor, day_of_week, start_time, end_time, max_capacity, is_active, created_at
		FROM classes
		WHERE is_active = TRUE
		ORDER BY day_of_week ASC, start_time ASC
	`

	var classes []Class
	err := r.db.SelectContext(ctx, &classes, query)
	if err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *repository) ListAll(ctx context.Context) ([]Class, error) {
	query := `
		SELECT id, name, instructor, day_of_week, start_time, end_time, max_capacity, is_active, created_at
		FROM classes
		ORDER BY day_of_week ASC, start_time ASC
	`

	var classes []Class
	err := r.db.SelectContext(ctx, &classes, query)
	if err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *repository) Update(ctx context.Context, class *Class) (*Class, error) {
	query := `
		UPDATE classes
		SET name = $2, instructor = $3, day_of_week = $4, start_time = $5,
		    end_time = $6, max_capacity = $7, is_active = $8
		WHERE id = $1
		RETURNING id, name, instructor, day_of_week, start_time, end_time, max_capacity, is_active, created_at
	`

	var updated Class
	err := r.db.GetContext(ctx, &updated, query,
		class.ID, class.Name, class.Instructor, class.DayOfWeek,
		class.StartTime, class.EndTime, class.MaxCapacity, class.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete attempts a hard delete. The reservations FK (ON DELETE RESTRICT)
// rejects it once any reservation references the class; that rejection is
// surfaced as ErrHasReservations so the caller can offer deactivation.
func (r *repository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		if db.ForeignKeyViolation(err) {
			return ErrHasReservations
		}
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrClassNotFound
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE classes SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrClassNotFound
	}

	return nil
}
