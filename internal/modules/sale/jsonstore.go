package sale

import (
	"context"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// CollectionName is the record store holding sales.
const CollectionName = "sales"

type jsonRepo struct{ sales *store.Collection[Sale] }

func NewJSONRepository(backend store.Backend) Repository {
	return &jsonRepo{sales: store.NewCollection[Sale](backend, CollectionName)}
}

func (r *jsonRepo) List(ctx context.Context) ([]*Sale, error) {
	records, err := r.sales.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Sale, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}

func (r *jsonRepo) GetByID(ctx context.Context, id string) (*Sale, error) {
	records, err := r.sales.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID.String() == id {
			return &records[i], nil
		}
	}
	return nil, apperr.NotFound("sale", id)
}

func (r *jsonRepo) Append(ctx context.Context, sales []*Sale) error {
	return r.sales.Mutate(ctx, func(records []Sale) ([]Sale, error) {
		for _, s := range sales {
			records = append(records, *s)
		}
		return records, nil
	})
}

func (r *jsonRepo) Update(ctx context.Context, id string, fn func(s *Sale) error) (*Sale, error) {
	var updated Sale
	err := r.sales.Mutate(ctx, func(records []Sale) ([]Sale, error) {
		for i := range records {
			if records[i].ID.String() != id {
				continue
			}
			s := records[i]
			if err := fn(&s); err != nil {
				return nil, err
			}
			records[i] = s
			updated = s
			return records, nil
		}
		return nil, apperr.NotFound("sale", id)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *jsonRepo) Delete(ctx context.Context, id string) (*Sale, error) {
	var removed *Sale
	err := r.sales.Mutate(ctx, func(records []Sale) ([]Sale, error) {
		kept := make([]Sale, 0, len(records))
		for i := range records {
			if records[i].ID.String() == id && removed == nil {
				s := records[i]
				removed = &s
				continue
			}
			kept = append(kept, records[i])
		}
		if removed == nil {
			return nil, apperr.NotFound("sale", id)
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *jsonRepo) DeleteMany(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return r.sales.Mutate(ctx, func(records []Sale) ([]Sale, error) {
		kept := records[:0]
		for _, s := range records {
			if !drop[s.ID.String()] {
				kept = append(kept, s)
			}
		}
		return kept, nil
	})
}
