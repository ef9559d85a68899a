package sale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// WalkInCustomer is the customer name recorded for sales without a customer.
const WalkInCustomer = "Walk-in Customer"

// Sale is one sold line. Product name, category and unit price, and the
// customer name, are copied at sale time so later edits to the product or
// customer never rewrite history.
type Sale struct {
	ID           store.ID        `json:"id"`
	ProductID    store.ID        `json:"productId"`
	ProductName  string          `json:"productName"`
	Category     string          `json:"category,omitempty"`
	CustomerID   store.ID        `json:"customerId,omitempty"`
	CustomerName string          `json:"customerName"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	SaleDate     Timestamp       `json:"saleDate"`
}

// UnmarshalJSON also reads sales written by the old front end, which stored the
// unit price as productPrice.
func (s *Sale) UnmarshalJSON(b []byte) error {
	type plain Sale
	aux := struct {
		*plain
		ProductPrice *decimal.Decimal `json:"productPrice"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if s.UnitPrice.IsZero() && aux.ProductPrice != nil {
		s.UnitPrice = *aux.ProductPrice
	}
	return nil
}

// Timestamp is a sale time. Sales recorded by the old front end carry only a
// calendar date ("2006-01-02"), which decodes as midnight UTC.
type Timestamp struct{ time.Time }

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("saleDate %q is neither RFC 3339 nor YYYY-MM-DD", s)
}

// RecordSaleRequest sells quantity units of one product.
type RecordSaleRequest struct {
	ProductID  string `json:"productId" validate:"required"`
	CustomerID string `json:"customerId"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
}

// CheckoutItem is one cart line.
type CheckoutItem struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest sells a whole cart to one customer (or a walk-in).
type CheckoutRequest struct {
	CustomerID string         `json:"customerId"`
	Items      []CheckoutItem `json:"items" validate:"required,min=1,dive"`
}

// UpdateSaleRequest re-assigns a sale to another customer. An empty customerId
// makes it a walk-in sale.
type UpdateSaleRequest struct {
	CustomerID *string `json:"customerId"`
}

// ListFilter narrows ListSales. Zero values match everything; From and To are
// inclusive.
type ListFilter struct {
	ProductID  string
	CustomerID string
	From       time.Time
	To         time.Time
}
