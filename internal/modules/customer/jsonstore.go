package customer

import (
	"context"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// CollectionName is the record store holding customers.
const CollectionName = "customers"

type jsonRepo struct{ customers *store.Collection[Customer] }

func NewJSONRepository(backend store.Backend) Repository {
	return &jsonRepo{customers: store.NewCollection[Customer](backend, CollectionName)}
}

func (r *jsonRepo) List(ctx context.Context) ([]*Customer, error) {
	records, err := r.customers.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Customer, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

func (r *jsonRepo) GetByID(ctx context.Context, id string) (*Customer, error) {
	records, err := r.customers.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID.String() == id {
			return &records[i], nil
		}
	}
	return nil, apperr.NotFound("customer", id)
}

func (r *jsonRepo) Create(ctx context.Context, c *Customer) error {
	return r.customers.Mutate(ctx, func(records []Customer) ([]Customer, error) {
		return append(records, *c), nil
	})
}

func (r *jsonRepo) Update(ctx context.Context, id string, fn func(c *Customer) error) (*Customer, error) {
	var updated Customer
	err := r.customers.Mutate(ctx, func(records []Customer) ([]Customer, error) {
		for i := range records {
			if records[i].ID.String() != id {
				continue
			}
			c := records[i]
			if err := fn(&c); err != nil {
				return nil, err
			}
			records[i] = c
			updated = c
			return records, nil
		}
		return nil, apperr.NotFound("customer", id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *jsonRepo) Delete(ctx context.Context, id string) error {
	return r.customers.Mutate(ctx, func(records []Customer) ([]Customer, error) {
		kept := records[:0]
		for _, c := range records {
			if c.ID.String() != id {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(records) {
			return nil, apperr.NotFound("customer", id)
		}
		return kept, nil
	})
}
