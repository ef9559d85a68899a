package product

import "context"

// Repository defines product data storage.
type Repository interface {
	List(ctx context.Context) ([]*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	// Update runs fn on the stored product while holding the write gate and
	// saves the result. Nothing is saved when fn fails.
	Update(ctx context.Context, id string, fn func(p *Product) error) (*Product, error)
	// UpdateAll is Update over the whole collection at once.
	UpdateAll(ctx context.Context, fn func(products []*Product) error) error
	Delete(ctx context.Context, id string) error
}
