package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foso7/wings-cafe-inventory/internal/cache"
	"github.com/foso7/wings-cafe-inventory/internal/modules/customer"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/modules/sale"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

type fixture struct {
	products product.Service
	sales    sale.Service
	reports  Service
	cache    *cache.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := store.NewMemoryBackend()
	productRepo := product.NewJSONRepository(backend)
	saleRepo := sale.NewJSONRepository(backend)
	c := cache.NewMemory(time.Minute, 0)
	t.Cleanup(func() { c.Close() })
	return &fixture{
		products: product.NewService(productRepo, nil, 5),
		sales:    sale.NewService(saleRepo, productRepo, customer.NewJSONRepository(backend), nil, 5),
		reports:  NewService(saleRepo, productRepo, c, 5),
		cache:    c,
	}
}

func (f *fixture) add(t *testing.T, name string, price string, qty int) *product.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), product.CreateProductRequest{
		Name: name, Category: "menu", Price: decimal.RequireFromString(price), Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) sell(t *testing.T, p *product.Product, qty int) {
	t.Helper()
	_, err := f.sales.RecordSale(context.Background(), sale.RecordSaleRequest{ProductID: p.ID.String(), Quantity: qty})
	require.NoError(t, err)
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.add(t, "Tea", "10", 8)
	juice := f.add(t, "Orange Juice", "19.50", 2)
	f.sell(t, tea, 2)
	f.sell(t, juice, 1)
	f.sell(t, tea, 1)

	o, err := f.reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "49.5", o.TotalRevenue.String())
	assert.Equal(t, 3, o.SalesCount)
	assert.Equal(t, "16.5", o.AverageSale.String())
	assert.Equal(t, 2, o.ProductCount)
	assert.Equal(t, 1, o.LowStockCount) // juice at 1; tea at 5 is not below 5
	assert.Len(t, o.RecentSales, 3)
}

func TestOverview_Empty(t *testing.T) {
	f := newFixture(t)
	o, err := f.reports.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, o.TotalRevenue.IsZero())
	assert.True(t, o.AverageSale.IsZero())
	assert.Empty(t, o.RecentSales)
}

func TestOverview_RecentIsCapped(t *testing.T) {
	f := newFixture(t)
	water := f.add(t, "Water Bottle", "11", 50)
	for i := 0; i < RecentLimit+3; i++ {
		f.sell(t, water, 1)
	}
	o, err := f.reports.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RecentLimit+3, o.SalesCount)
	assert.Len(t, o.RecentSales, RecentLimit)
}

func TestOverview_CachedUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.add(t, "Tea", "10", 8)
	f.sell(t, tea, 1)

	first, err := f.reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SalesCount)

	f.sell(t, tea, 1)
	stale, err := f.reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.SalesCount)

	require.NoError(t, cache.InvalidateReports(ctx, f.cache))
	fresh, err := f.reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.SalesCount)
}

// writeDuringList runs a write between reading sales and caching the report.
type writeDuringList struct {
	sale.Repository
	write func()
}

func (w *writeDuringList) List(ctx context.Context) ([]*sale.Sale, error) {
	all, err := w.Repository.List(ctx)
	if w.write != nil {
		write := w.write
		w.write = nil
		write()
	}
	return all, err
}

func TestOverview_ReportBuiltBeforeWriteIsNotCached(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	productRepo := product.NewJSONRepository(backend)
	saleRepo := sale.NewJSONRepository(backend)
	c := cache.NewMemory(time.Minute, 0)
	defer c.Close()
	products := product.NewService(productRepo, nil, 5)
	sales := sale.NewService(saleRepo, productRepo, customer.NewJSONRepository(backend), nil, 5)
	slow := &writeDuringList{Repository: saleRepo}
	reports := NewService(slow, productRepo, c, 5)

	tea, err := products.CreateProduct(ctx, product.CreateProductRequest{
		Name: "Tea", Category: "drinks", Price: decimal.NewFromInt(10), Quantity: 8,
	})
	require.NoError(t, err)
	sell := func() {
		_, err := sales.RecordSale(ctx, sale.RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 1})
		require.NoError(t, err)
		require.NoError(t, cache.InvalidateReports(ctx, c))
	}
	sell()

	slow.write = sell
	first, err := reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.SalesCount)
	assert.Equal(t, 0, c.Size())

	next, err := reports.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.SalesCount)
}

func TestByProduct(t *testing.T) {
	f := newFixture(t)
	tea := f.add(t, "Tea", "10", 8)
	wings := f.add(t, "Chicken Wings", "50", 8)
	f.sell(t, tea, 2)
	f.sell(t, wings, 1)
	f.sell(t, tea, 3)

	rows, err := f.reports.ByProduct(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Chicken Wings", rows[0].ProductName)
	assert.Equal(t, "Tea", rows[1].ProductName)
	assert.Equal(t, 5, rows[1].QuantitySold)
	assert.Equal(t, 2, rows[1].SalesCount)
	assert.Equal(t, "50", rows[1].Revenue.String())
	assert.Equal(t, "10", rows[1].AverageUnitPrice.String())
}

func TestInventory(t *testing.T) {
	f := newFixture(t)
	f.add(t, "Tomatoes", "3", 0)
	f.add(t, "Lettuce", "15", 4)
	f.add(t, "Carrots", "10", 5)

	items, err := f.reports.Inventory(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, StatusOutOfStock, items[0].Status)
	assert.Equal(t, StatusLowStock, items[1].Status)
	assert.Equal(t, StatusInStock, items[2].Status)
	assert.Equal(t, "60", items[1].StockValue.String())
}

func TestStockStatus(t *testing.T) {
	assert.Equal(t, StatusOutOfStock, StockStatus(0, 5))
	assert.Equal(t, StatusLowStock, StockStatus(4, 5))
	assert.Equal(t, StatusInStock, StockStatus(5, 5))
}

func TestHandler_Reports(t *testing.T) {
	f := newFixture(t)
	r := chi.NewRouter()
	NewHandler(f.reports).RegisterRoutes(r)

	for _, path := range []string{"/api/reports/overview", "/api/reports/products", "/api/reports/inventory"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}
