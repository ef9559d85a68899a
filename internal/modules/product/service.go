package product

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/events"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// Service defines product catalog and stock business logic.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error)
	// AdjustStock adds delta (which may be negative) to the product's quantity.
	AdjustStock(ctx context.Context, id string, delta int) (*Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type service struct {
	repo      Repository
	publisher events.Publisher
	lowStock  int
	now       func() time.Time
}

// NewService creates a new product service. Stock changes that leave a product
// below lowStock are announced on the stock.low topic.
func NewService(repo Repository, publisher events.Publisher, lowStock int) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{repo: repo, publisher: publisher, lowStock: lowStock, now: time.Now}
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	category := strings.TrimSpace(filter.Category)
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" && !matches(p, query) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func matches(p *Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Category), q)
}

func (s *service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest) (*Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, apperr.Invalid("price", "price cannot be negative")
	}

	now := s.now().UTC()
	p := &Product{
		ID:          store.NewID(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Price:       req.Price,
		Quantity:    req.Quantity,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (*Product, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperr.Invalid("name", "name cannot be blank")
	}
	if req.Category != nil && strings.TrimSpace(*req.Category) == "" {
		return nil, apperr.Invalid("category", "category cannot be blank")
	}
	if req.Price != nil && req.Price.IsNegative() {
		return nil, apperr.Invalid("price", "price cannot be negative")
	}

	var before int
	updated, err := s.repo.Update(ctx, id, func(p *Product) error {
		before = p.Quantity
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = strings.TrimSpace(*req.Description)
		}
		if req.Category != nil {
			p.Category = strings.TrimSpace(*req.Category)
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Quantity != nil {
			p.Quantity = *req.Quantity
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated.Quantity != before {
		PublishStockChange(ctx, s.publisher, updated, updated.Quantity-before, s.lowStock)
	}
	return updated, nil
}

func (s *service) AdjustStock(ctx context.Context, id string, delta int) (*Product, error) {
	updated, err := s.repo.Update(ctx, id, func(p *Product) error {
		if delta == math.MinInt || delta > 0 && p.Quantity > math.MaxInt-delta {
			return apperr.Invalid("quantityChange", "quantityChange is out of range")
		}
		if delta < 0 && p.Quantity < -delta {
			return apperr.InsufficientStock(p.Name, p.Quantity, -delta)
		}
		p.Quantity += delta
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if delta != 0 {
		PublishStockChange(ctx, s.publisher, updated, delta, s.lowStock)
	}
	return updated, nil
}

func (s *service) DeleteProduct(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// PublishStockChange announces a quantity change of delta on p, and a low-stock
// warning when the change took p from at or above threshold to below it.
// Publish failures are logged; the stock change itself already happened.
func PublishStockChange(ctx context.Context, pub events.Publisher, p *Product, delta, threshold int) {
	err := pub.Publish(ctx, events.TopicStockAdjusted, events.StockAdjusted{
		ProductID: p.ID.String(),
		Name:      p.Name,
		Delta:     delta,
		Quantity:  p.Quantity,
	})
	if err != nil {
		log.Printf("publish %s for product %s: %v", events.TopicStockAdjusted, p.ID, err)
	}
	if p.Quantity < threshold && p.Quantity-delta >= threshold {
		err := pub.Publish(ctx, events.TopicStockLow, events.StockLow{
			ProductID: p.ID.String(),
			Name:      p.Name,
			Quantity:  p.Quantity,
			Threshold: threshold,
		})
		if err != nil {
			log.Printf("publish %s for product %s: %v", events.TopicStockLow, p.ID, err)
		}
	}
}
