package sale

import "context"

// Repository defines sale data storage.
type Repository interface {
	List(ctx context.Context) ([]*Sale, error)
	GetByID(ctx context.Context, id string) (*Sale, error)
	Append(ctx context.Context, sales []*Sale) error
	Update(ctx context.Context, id string, fn func(s *Sale) error) (*Sale, error)
	// Delete removes the sale and returns it.
	Delete(ctx context.Context, id string) (*Sale, error)
	// DeleteMany removes every listed sale that exists.
	DeleteMany(ctx context.Context, ids []string) error
}
