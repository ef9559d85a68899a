package sale

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/events"
	"github.com/foso7/wings-cafe-inventory/internal/modules/customer"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/money"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// Service defines sale business logic. Recording a sale moves stock, so the
// service writes through the product repository as well as its own.
type Service interface {
	ListSales(ctx context.Context, filter ListFilter) ([]*Sale, error)
	GetSale(ctx context.Context, id string) (*Sale, error)
	RecordSale(ctx context.Context, req RecordSaleRequest) (*Sale, error)
	// Checkout records one sale per cart line. Either every line is recorded
	// and every product decremented, or nothing changes.
	Checkout(ctx context.Context, req CheckoutRequest) ([]*Sale, error)
	UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*Sale, error)
	// DeleteSale removes a sale. With restock the sold quantity goes back to
	// the product, if the product still exists.
	DeleteSale(ctx context.Context, id string, restock bool) error
}

type service struct {
	sales     Repository
	products  product.Repository
	customers customer.Repository
	publisher events.Publisher
	lowStock  int
	now       func() time.Time
}

func NewService(sales Repository, products product.Repository, customers customer.Repository, publisher events.Publisher, lowStock int) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{
		sales:     sales,
		products:  products,
		customers: customers,
		publisher: publisher,
		lowStock:  lowStock,
		now:       time.Now,
	}
}

func (s *service) ListSales(ctx context.Context, filter ListFilter) ([]*Sale, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Sale, 0, len(sales))
	for _, sl := range sales {
		if filter.ProductID != "" && sl.ProductID.String() != filter.ProductID {
			continue
		}
		if filter.CustomerID != "" && sl.CustomerID.String() != filter.CustomerID {
			continue
		}
		if !filter.From.IsZero() && sl.SaleDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sl.SaleDate.After(filter.To) {
			continue
		}
		out = append(out, sl)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SaleDate.Time, out[j].SaleDate.Time
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *service) GetSale(ctx context.Context, id string) (*Sale, error) {
	return s.sales.GetByID(ctx, id)
}

func (s *service) RecordSale(ctx context.Context, req RecordSaleRequest) (*Sale, error) {
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	recorded, err := s.Checkout(ctx, CheckoutRequest{
		CustomerID: req.CustomerID,
		Items:      []CheckoutItem{{ProductID: req.ProductID, Quantity: req.Quantity}},
	})
	if err != nil {
		return nil, err
	}
	return recorded[0], nil
}

func (s *service) Checkout(ctx context.Context, req CheckoutRequest) ([]*Sale, error) {
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	for i := range req.Items {
		req.Items[i].ProductID = strings.TrimSpace(req.Items[i].ProductID)
	}
	if err := apperr.Validate(req); err != nil {
		return nil, err
	}
	customerID, customerName, err := s.resolveCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var (
		recorded []*Sale
		changed  []product.Product
		wanted   map[string]int
	)
	err = s.products.UpdateAll(ctx, func(products []*product.Product) error {
		byID := make(map[string]*product.Product, len(products))
		for _, p := range products {
			byID[p.ID.String()] = p
		}
		// Lines for the same product draw on the same stock.
		wanted = make(map[string]int)
		var order []string
		for _, item := range req.Items {
			id := item.ProductID
			p, ok := byID[id]
			if !ok {
				return apperr.NotFound("product", id)
			}
			if _, seen := wanted[id]; !seen {
				order = append(order, id)
			}
			if item.Quantity > p.Quantity-wanted[id] {
				requested := wanted[id] + item.Quantity
				if requested < item.Quantity {
					requested = math.MaxInt
				}
				return apperr.InsufficientStock(p.Name, p.Quantity, requested)
			}
			wanted[id] += item.Quantity
		}

		sales := make([]*Sale, 0, len(req.Items))
		for _, item := range req.Items {
			p := byID[item.ProductID]
			sales = append(sales, &Sale{
				ID:           store.NewID(),
				ProductID:    p.ID,
				ProductName:  p.Name,
				Category:     p.Category,
				CustomerID:   customerID,
				CustomerName: customerName,
				Quantity:     item.Quantity,
				UnitPrice:    p.Price,
				TotalAmount:  money.Times(p.Price, item.Quantity),
				SaleDate:     Timestamp{now},
			})
		}
		for _, id := range order {
			p := byID[id]
			p.Quantity -= wanted[id]
			p.UpdatedAt = now
			changed = append(changed, *p)
		}

		if err := s.sales.Append(ctx, sales); err != nil {
			return err
		}
		recorded = sales
		return nil
	})
	if err != nil {
		if recorded != nil {
			s.removeRecorded(ctx, recorded)
		}
		return nil, err
	}

	for _, sl := range recorded {
		err := s.publisher.Publish(ctx, events.TopicSaleRecorded, events.SaleRecorded{
			SaleID:      sl.ID.String(),
			ProductID:   sl.ProductID.String(),
			CustomerID:  sl.CustomerID.String(),
			Quantity:    sl.Quantity,
			TotalAmount: sl.TotalAmount,
			SaleDate:    sl.SaleDate.Time,
		})
		if err != nil {
			log.Printf("publish %s for sale %s: %v", events.TopicSaleRecorded, sl.ID, err)
		}
	}
	for i := range changed {
		p := &changed[i]
		product.PublishStockChange(ctx, s.publisher, p, -wanted[p.ID.String()], s.lowStock)
	}
	return recorded, nil
}

// removeRecorded undoes a sales append whose product save failed. It runs even
// when the request context is already cancelled.
func (s *service) removeRecorded(ctx context.Context, recorded []*Sale) {
	ids := make([]string, len(recorded))
	for i, sl := range recorded {
		ids[i] = sl.ID.String()
	}
	if err := s.sales.DeleteMany(context.WithoutCancel(ctx), ids); err != nil {
		log.Printf("remove sales %v after failed stock update: %v", ids, err)
		return
	}
	log.Printf("removed sales %v after failed stock update", ids)
}

func (s *service) resolveCustomer(ctx context.Context, id string) (store.ID, string, error) {
	if id == "" {
		return "", WalkInCustomer, nil
	}
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return c.ID, c.Name, nil
}

func (s *service) UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (*Sale, error) {
	if req.CustomerID == nil {
		return s.sales.GetByID(ctx, id)
	}
	customerID, customerName, err := s.resolveCustomer(ctx, strings.TrimSpace(*req.CustomerID))
	if err != nil {
		return nil, err
	}
	return s.sales.Update(ctx, id, func(sl *Sale) error {
		sl.CustomerID = customerID
		sl.CustomerName = customerName
		return nil
	})
}

func (s *service) DeleteSale(ctx context.Context, id string, restock bool) error {
	if !restock {
		_, err := s.sales.Delete(ctx, id)
		return err
	}

	var (
		removed   *Sale
		restocked *product.Product
	)
	err := s.products.UpdateAll(ctx, func(products []*product.Product) error {
		sl, err := s.sales.Delete(ctx, id)
		if err != nil {
			return err
		}
		removed = sl
		for _, p := range products {
			if p.ID == sl.ProductID {
				p.Quantity += sl.Quantity
				p.UpdatedAt = s.now().UTC()
				cp := *p
				restocked = &cp
				break
			}
		}
		return nil
	})
	if err != nil {
		if removed != nil {
			if err := s.sales.Append(context.WithoutCancel(ctx), []*Sale{removed}); err != nil {
				log.Printf("restore sale %s after failed restock: %v", removed.ID, err)
			}
		}
		return err
	}
	if restocked != nil {
		product.PublishStockChange(ctx, s.publisher, restocked, removed.Quantity, s.lowStock)
	}
	return nil
}
