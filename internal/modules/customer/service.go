package customer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// Service defines customer business logic.
type Service interface {
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
	UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service { return &service{repo: repo, now: time.Now} }

func (s *service) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return strings.ToLower(customers[i].Name) < strings.ToLower(customers[j].Name)
	})
	return customers, nil
}

func (s *service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c := &Customer{
		ID:        store.NewID(),
		Name:      req.Name,
		Email:     strings.ToLower(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCustomer(ctx context.Context, id string, req UpdateCustomerRequest) (*Customer, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return nil, apperr.Invalid("name", "name cannot be blank")
		}
		req.Name = &trimmed
	}
	if req.Email != nil {
		trimmed := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &trimmed
	}
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	if req.Email != nil && *req.Email == "" {
		return nil, apperr.Invalid("email", "email cannot be blank")
	}

	return s.repo.Update(ctx, id, func(c *Customer) error {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Email != nil {
			c.Email = *req.Email
		}
		if req.Phone != nil {
			c.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Address != nil {
			c.Address = strings.TrimSpace(*req.Address)
		}
		c.UpdatedAt = s.now().UTC()
		return nil
	})
}

// DeleteCustomer removes the customer. Sales that reference it keep their
// copied customer name.
func (s *service) DeleteCustomer(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
