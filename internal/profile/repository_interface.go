package profile

import "context"

type Repository interface {
	Create(ctx context.Context, fullName, email, passwordHash, role, phone string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]User, error)
	GetRole(ctx context.Context, userID int) (string, error)
	SetRole(ctx context.Context, userID int, role string) error
}
