package membership

import (
	"context"
	"time"
)

type Repository interface {
	IsActive(ctx context.Context, userID int, date time.Time) (bool, error)
	Grant(ctx context.Context, userID int, mtype string, start, end time.Time) (*Membership, error)
	ListByUser(ctx context.Context, userID int) ([]Membership, error)
}
