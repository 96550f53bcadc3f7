package membership

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IsActive(ctx context.Context, userID int, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM memberships
			WHERE user_id = $1
			  AND status = 'active'
			  AND start_date <= $2
			  AND end_date >= $2
		)
	`

	var active bool
	err := r.db.GetContext(ctx, &active, query, userID, date)
	if err != nil {
		return false, err
	}

	return active, nil
}

func (r *repository) Grant(ctx context.Context, userID int, mtype string, start, end time.Time) (*Membership, error) {
	query := `
		INSERT INTO memberships (user_id, type, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id, user_id, type, start_date, end_date, status, created_at
	`

	var m Membership
	err := r.db.GetContext(ctx, &m, query, userID, mtype, start, end)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int) ([]Membership, error) {
	query := `
		SELECT id, user_id, type, start_date, end_date, status, created_at
		FROM memberships
		WHERE user_id = $1
		ORDER BY end_date DESC
	`

	var memberships []Membership
	err := r.db.SelectContext(ctx, &memberships, query, userID)
	if err != nil {
		return nil, err
	}

	return memberships, nil
}
