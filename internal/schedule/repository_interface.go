package schedule

import "context"

type Repository interface {
	Create(ctx context.Context, class *Class) (*Class, error)
	GetByID(ctx context.Context, id int) (*Class, error)
	ListActive(ctx context.Context) ([]Class, error)
	ListAll(ctx context.Context) ([]Class, error)
	Update(ctx context.Context, class *Class) (*Class, error)
	Delete(ctx context.Context, id int) error
	Deactivate(ctx context.Context, id int) error
}
