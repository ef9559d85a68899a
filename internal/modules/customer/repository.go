package customer

import "context"

// Repository defines customer data storage.
type Repository interface {
	List(ctx context.Context) ([]*Customer, error)
	GetByID(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Update(ctx context.Context, id string, fn func(c *Customer) error) (*Customer, error)
	Delete(ctx context.Context, id string) error
}
