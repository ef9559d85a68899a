package product

import (
	"context"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// CollectionName is the record store holding products.
const CollectionName = "products"

type jsonRepo struct{ products *store.Collection[Product] }

func NewJSONRepository(backend store.Backend) Repository {
	return &jsonRepo{products: store.NewCollection[Product](backend, CollectionName)}
}

func (r *jsonRepo) List(ctx context.Context) ([]*Product, error) {
	records, err := r.products.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Product, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

func (r *jsonRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	records, err := r.products.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID.String() == id {
			return &records[i], nil
		}
	}
	return nil, apperr.NotFound("product", id)
}

func (r *jsonRepo) Create(ctx context.Context, p *Product) error {
	return r.products.Mutate(ctx, func(records []Product) ([]Product, error) {
		return append(records, *p), nil
	})
}

func (r *jsonRepo) Update(ctx context.Context, id string, fn func(p *Product) error) (*Product, error) {
	var updated Product
	err := r.products.Mutate(ctx, func(records []Product) ([]Product, error) {
		for i := range records {
			if records[i].ID.String() != id {
				continue
			}
			p := records[i]
			if err := fn(&p); err != nil {
				return nil, err
			}
			records[i] = p
			updated = p
			return records, nil
		}
		return nil, apperr.NotFound("product", id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *jsonRepo) UpdateAll(ctx context.Context, fn func(products []*Product) error) error {
	return r.products.Mutate(ctx, func(records []Product) ([]Product, error) {
		work := make([]Product, len(records))
		copy(work, records)
		ptrs := make([]*Product, len(work))
		for i := range work {
			ptrs[i] = &work[i]
		}
		if err := fn(ptrs); err != nil {
			return nil, err
		}
		return work, nil
	})
}

func (r *jsonRepo) Delete(ctx context.Context, id string) error {
	return r.products.Mutate(ctx, func(records []Product) ([]Product, error) {
		kept := records[:0]
		for _, p := range records {
			if p.ID.String() != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(records) {
			return nil, apperr.NotFound("product", id)
		}
		return kept, nil
	})
}
