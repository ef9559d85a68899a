package report

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foso7/wings-cafe-inventory/internal/cache"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/modules/sale"
	"github.com/foso7/wings-cafe-inventory/internal/money"
)

const (
	keyOverview  = cache.ReportsPrefix + "overview"
	keyByProduct = cache.ReportsPrefix + "products"
	keyInventory = cache.ReportsPrefix + "inventory"
)

// Service computes read-only reports over products and sales.
type Service interface {
	Overview(ctx context.Context) (*Overview, error)
	ByProduct(ctx context.Context) ([]ProductSales, error)
	Inventory(ctx context.Context) ([]InventoryItem, error)
}

type service struct {
	sales    sale.Repository
	products product.Repository
	cache    cache.Cache
	lowStock int
	now      func() time.Time
}

// NewService creates a report service. Results are kept in c until a write
// invalidates them; c may be nil to compute every report on demand.
func NewService(sales sale.Repository, products product.Repository, c cache.Cache, lowStock int) Service {
	return &service{sales: sales, products: products, cache: c, lowStock: lowStock, now: time.Now}
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	return cached(ctx, s.cache, keyOverview, func() (*Overview, error) {
		sales, err := s.sales.List(ctx)
		if err != nil {
			return nil, err
		}
		products, err := s.products.List(ctx)
		if err != nil {
			return nil, err
		}

		o := &Overview{
			TotalRevenue: decimal.Zero,
			AverageSale:  decimal.Zero,
			SalesCount:   len(sales),
			ProductCount: len(products),
			GeneratedAt:  s.now().UTC(),
		}
		for _, sl := range sales {
			o.TotalRevenue = o.TotalRevenue.Add(sl.TotalAmount)
		}
		o.AverageSale = money.Average(o.TotalRevenue, len(sales))
		for _, p := range products {
			if p.Quantity < s.lowStock {
				o.LowStockCount++
			}
		}

		sort.SliceStable(sales, func(i, j int) bool {
			return sales[i].SaleDate.After(sales[j].SaleDate.Time)
		})
		if len(sales) > RecentLimit {
			sales = sales[:RecentLimit]
		}
		o.RecentSales = sales
		return o, nil
	})
}

func (s *service) ByProduct(ctx context.Context) ([]ProductSales, error) {
	return cached(ctx, s.cache, keyByProduct, func() ([]ProductSales, error) {
		sales, err := s.sales.List(ctx)
		if err != nil {
			return nil, err
		}
		byName := make(map[string]*ProductSales)
		var names []string
		for _, sl := range sales {
			ps, ok := byName[sl.ProductName]
			if !ok {
				ps = &ProductSales{ProductName: sl.ProductName, Category: sl.Category, Revenue: decimal.Zero}
				byName[sl.ProductName] = ps
				names = append(names, sl.ProductName)
			}
			ps.SalesCount++
			ps.QuantitySold += sl.Quantity
			ps.Revenue = ps.Revenue.Add(sl.TotalAmount)
		}

		out := make([]ProductSales, 0, len(names))
		for _, name := range names {
			ps := byName[name]
			ps.AverageUnitPrice = money.Average(ps.Revenue, ps.QuantitySold)
			out = append(out, *ps)
		}
		sort.SliceStable(out, func(i, j int) bool {
			if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
				return c > 0
			}
			return strings.ToLower(out[i].ProductName) < strings.ToLower(out[j].ProductName)
		})
		return out, nil
	})
}

func (s *service) Inventory(ctx context.Context) ([]InventoryItem, error) {
	return cached(ctx, s.cache, keyInventory, func() ([]InventoryItem, error) {
		products, err := s.products.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]InventoryItem, 0, len(products))
		for _, p := range products {
			out = append(out, InventoryItem{
				ID:         p.ID,
				Name:       p.Name,
				Category:   p.Category,
				Quantity:   p.Quantity,
				Price:      p.Price,
				StockValue: money.Times(p.Price, p.Quantity),
				Status:     StockStatus(p.Quantity, s.lowStock),
			})
		}
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Quantity != out[j].Quantity {
				return out[i].Quantity < out[j].Quantity
			}
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		})
		return out, nil
	})
}

// StockStatus classifies a quantity against the low-stock threshold.
func StockStatus(quantity, threshold int) string {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < threshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// cached returns the value under key, building and storing it on a miss.
// Cache failures are logged and fall through to build.
func cached[T any](ctx context.Context, c cache.Cache, key string, build func() (T, error)) (T, error) {
	if c == nil {
		return build()
	}
	var hit T
	found, err := c.Get(ctx, key, &hit)
	if err != nil {
		log.Printf("report cache get %s: %v", key, err)
	}
	if found {
		return hit, nil
	}
	gen := cache.ReportsGeneration()
	v, err := build()
	if err != nil {
		return v, err
	}
	if err := cache.StoreReport(ctx, c, gen, key, v); err != nil {
		log.Printf("report cache set %s: %v", key, err)
	}
	return v, nil
}
