package stats

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// Summary holds the admin dashboard counters.
type Summary struct {
	ActiveClasses        int `db:"active_classes" json:"active_classes"`
	ActiveMemberships    int `db:"active_memberships" json:"active_memberships"`
	UpcomingReservations int `db:"upcoming_reservations" json:"upcoming_reservations"`
}

type Repository interface {
	Summary(ctx context.Context, from time.Time) (*Summary, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// Summary counts active classes, active memberships and active
// reservations dated from or later, in a single round trip.
func (r *repository) Summary(ctx context.Context, from time.Time) (*Summary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM classes WHERE is_active = TRUE) AS active_classes,
			(SELECT COUNT(*) FROM memberships WHERE status = 'active') AS active_memberships,
			(SELECT COUNT(*) FROM reservations
			 WHERE status = 'active' AND reservation_date >= $1) AS upcoming_reservations
	`

	var s Summary
	err := r.db.GetContext(ctx, &s, query, from)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
