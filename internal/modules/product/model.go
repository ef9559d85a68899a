package product

import (
	"time"

	"github.com/shopspring/decimal"

	// Amounts marshal as JSON numbers.
	_ "github.com/foso7/wings-cafe-inventory/internal/money"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// Product is an item on the cafe's menu together with its stock level.
type Product struct {
	ID          store.ID        `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"createdAt,omitzero"`
	UpdatedAt   time.Time       `json:"updatedAt,omitzero"`
}

// CreateProductRequest holds the data for adding a product.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	Image       string          `json:"image"`
}

// UpdateProductRequest carries the fields to change; nil fields are left alone.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Image       *string          `json:"image,omitempty"`
}

// ListFilter narrows ListProducts. Zero values match everything.
type ListFilter struct {
	Category string
	Query    string
}
