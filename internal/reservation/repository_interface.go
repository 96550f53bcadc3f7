package reservation

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, userID, classID int, date time.Time) (*Reservation, error)
	GetByID(ctx context.Context, id int) (*Reservation, error)
	Cancel(ctx context.Context, id int) error
	CountActive(ctx context.Context, classID int, date time.Time) (int, error)
	ListForMember(ctx context.Context, userID int) ([]ReservationWithDetails, error)
	ListForDate(ctx context.Context, date time.Time) ([]ReservationWithDetails, error)
	ListAll(ctx context.Context) ([]ReservationWithDetails, error)
}
