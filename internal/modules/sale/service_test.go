package sale

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/events"
	"github.com/foso7/wings-cafe-inventory/internal/modules/customer"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// flakyBackend fails writes to one collection on demand.
type flakyBackend struct {
	*store.MemoryBackend
	mu   sync.Mutex
	fail string
}

func (b *flakyBackend) failWrites(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = name
}

func (b *flakyBackend) Write(ctx context.Context, name string, data []byte) error {
	b.mu.Lock()
	fail := b.fail == name
	b.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Write(ctx, name, data)
}

type fixture struct {
	backend   *flakyBackend
	sales     Service
	products  product.Service
	customers customer.Service
	events    *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := &flakyBackend{MemoryBackend: store.NewMemoryBackend()}
	rec := &events.Recorder{}
	productRepo := product.NewJSONRepository(backend)
	customerRepo := customer.NewJSONRepository(backend)
	return &fixture{
		backend:   backend,
		sales:     NewService(NewJSONRepository(backend), productRepo, customerRepo, rec, 5),
		products:  product.NewService(productRepo, rec, 5),
		customers: customer.NewService(customerRepo),
		events:    rec,
	}
}

func (f *fixture) addProduct(t *testing.T, name string, price int64, qty int) *product.Product {
	t.Helper()
	p, err := f.products.CreateProduct(context.Background(), product.CreateProductRequest{
		Name:     name,
		Category: "drinks",
		Price:    decimal.NewFromInt(price),
		Quantity: qty,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) quantity(t *testing.T, id store.ID) int {
	t.Helper()
	p, err := f.products.GetProduct(context.Background(), id.String())
	require.NoError(t, err)
	return p.Quantity
}

func (f *fixture) allSales(t *testing.T) []*Sale {
	t.Helper()
	all, err := f.sales.ListSales(context.Background(), ListFilter{})
	require.NoError(t, err)
	return all
}

func TestRecordSale_TeaScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addProduct(t, "Tea", 10, 5)

	_, err := f.products.AdjustStock(ctx, tea.ID.String(), -3)
	require.NoError(t, err)
	assert.Equal(t, 2, f.quantity(t, tea.ID))

	sl, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "20", sl.TotalAmount.String())
	assert.Equal(t, "10", sl.UnitPrice.String())
	assert.Equal(t, "Tea", sl.ProductName)
	assert.Equal(t, WalkInCustomer, sl.CustomerName)
	assert.Equal(t, 0, f.quantity(t, tea.ID))

	_, err = f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 0, f.quantity(t, tea.ID))
	assert.Len(t, f.allSales(t), 1)
}

func TestRecordSale_OversizedLeavesEverythingUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	water := f.addProduct(t, "Water Bottle", 11, 3)

	_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: water.ID.String(), Quantity: 4})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 3, f.quantity(t, water.ID))
	assert.Empty(t, f.allSales(t))
	assert.Empty(t, f.events.Topic(events.TopicSaleRecorded))
}

func TestRecordSale_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	water := f.addProduct(t, "Water Bottle", 11, 3)

	_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: water.ID.String(), Quantity: 0})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.sales.RecordSale(ctx, RecordSaleRequest{Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: water.ID.String(), CustomerID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, 3, f.quantity(t, water.ID))
	assert.Empty(t, f.allSales(t))
}

func TestRecordSale_CopiesCustomerName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sprite := f.addProduct(t, "Sprite", 17, 10)
	c, err := f.customers.CreateCustomer(ctx, customer.CreateCustomerRequest{Name: "Lerato", Email: "lerato@example.com"})
	require.NoError(t, err)

	sl, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: sprite.ID.String(), CustomerID: c.ID.String(), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, c.ID, sl.CustomerID)
	assert.Equal(t, "Lerato", sl.CustomerName)

	require.NoError(t, f.customers.DeleteCustomer(ctx, c.ID.String()))
	got, err := f.sales.GetSale(ctx, sl.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Lerato", got.CustomerName)

	recorded := f.events.Topic(events.TopicSaleRecorded)
	require.Len(t, recorded, 1)
	assert.Equal(t, sl.ID.String(), recorded[0].(events.SaleRecorded).SaleID)
}

func TestCheckout_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	wings := f.addProduct(t, "Chicken Wings", 50, 4)
	juice := f.addProduct(t, "Orange Juice", 19, 1)

	_, err := f.sales.Checkout(ctx, CheckoutRequest{Items: []CheckoutItem{
		{ProductID: wings.ID.String(), Quantity: 2},
		{ProductID: juice.ID.String(), Quantity: 2},
	}})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 4, f.quantity(t, wings.ID))
	assert.Equal(t, 1, f.quantity(t, juice.ID))
	assert.Empty(t, f.allSales(t))

	sales, err := f.sales.Checkout(ctx, CheckoutRequest{Items: []CheckoutItem{
		{ProductID: wings.ID.String(), Quantity: 2},
		{ProductID: juice.ID.String(), Quantity: 1},
	}})
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "100", sales[0].TotalAmount.String())
	assert.Equal(t, "19", sales[1].TotalAmount.String())
	assert.Equal(t, 2, f.quantity(t, wings.ID))
	assert.Equal(t, 0, f.quantity(t, juice.ID))
}

func TestCheckout_RepeatedLinesShareStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ribs := f.addProduct(t, "Pork Ribs", 100, 3)

	_, err := f.sales.Checkout(ctx, CheckoutRequest{Items: []CheckoutItem{
		{ProductID: ribs.ID.String(), Quantity: 2},
		{ProductID: ribs.ID.String(), Quantity: 2},
	}})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Equal(t, 3, f.quantity(t, ribs.ID))

	sales, err := f.sales.Checkout(ctx, CheckoutRequest{Items: []CheckoutItem{
		{ProductID: ribs.ID.String(), Quantity: 1},
		{ProductID: ribs.ID.String(), Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	assert.Equal(t, 0, f.quantity(t, ribs.ID))
}

func TestCheckout_HugeRepeatedLinesCannotWrapStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addProduct(t, "Tea", 10, 5)

	for _, items := range [][]CheckoutItem{
		{{ProductID: tea.ID.String(), Quantity: math.MaxInt}, {ProductID: tea.ID.String(), Quantity: 2}},
		{{ProductID: tea.ID.String(), Quantity: 2}, {ProductID: tea.ID.String(), Quantity: math.MaxInt}},
		{{ProductID: tea.ID.String(), Quantity: math.MaxInt}, {ProductID: tea.ID.String(), Quantity: math.MaxInt}},
	} {
		_, err := f.sales.Checkout(ctx, CheckoutRequest{Items: items})
		assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
	}

	assert.Equal(t, 5, f.quantity(t, tea.ID))
	assert.Empty(t, f.allSales(t))
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.sales.Checkout(context.Background(), CheckoutRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckout_LowStockEventOnCrossing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lamb := f.addProduct(t, "Lamb Chops", 45, 6)

	_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: lamb.ID.String(), Quantity: 2})
	require.NoError(t, err)
	_, err = f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: lamb.ID.String(), Quantity: 1})
	require.NoError(t, err)

	low := f.events.Topic(events.TopicStockLow)
	require.Len(t, low, 1)
	assert.Equal(t, 4, low[0].(events.StockLow).Quantity)
	assert.Len(t, f.events.Topic(events.TopicStockAdjusted), 2)
}

func TestCheckout_RemovesSalesWhenStockSaveFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	steak := f.addProduct(t, "Beef Steak", 70, 5)

	f.backend.failWrites(product.CollectionName)
	_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: steak.ID.String(), Quantity: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorage)

	f.backend.failWrites("")
	assert.Equal(t, 5, f.quantity(t, steak.ID))
	assert.Empty(t, f.allSales(t))
	assert.Empty(t, f.events.Topic(events.TopicSaleRecorded))
}

func TestCheckout_ConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cola := f.addProduct(t, "Coca Cola", 14, 10)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: cola.ID.String(), Quantity: 1})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, f.quantity(t, cola.ID))
	assert.Len(t, f.allSales(t), 10)
}

func TestListSales_FiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.sales.(*service)
	tea := f.addProduct(t, "Tea", 10, 20)
	water := f.addProduct(t, "Water Bottle", 11, 20)

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []store.ID{tea.ID, water.ID, tea.ID} {
		svc.now = func() time.Time { return day.AddDate(0, 0, i) }
		_, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: id.String(), Quantity: 1})
		require.NoError(t, err)
	}

	all := f.allSales(t)
	require.Len(t, all, 3)
	assert.True(t, all[0].SaleDate.After(all[1].SaleDate.Time))
	assert.True(t, all[1].SaleDate.After(all[2].SaleDate.Time))

	teaOnly, err := f.sales.ListSales(ctx, ListFilter{ProductID: tea.ID.String()})
	require.NoError(t, err)
	assert.Len(t, teaOnly, 2)

	ranged, err := f.sales.ListSales(ctx, ListFilter{From: day.AddDate(0, 0, 1), To: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, water.ID, ranged[0].ProductID)
}

func TestListSales_ReadsLegacyRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	legacy := `[{"id":1718000000000,"productId":1717000000000,"productName":"Tea","productPrice":10,"quantity":2,"totalAmount":20,"saleDate":"2024-06-10"}]`
	require.NoError(t, f.backend.Write(ctx, CollectionName, []byte(legacy)))

	all := f.allSales(t)
	require.Len(t, all, 1)
	assert.Equal(t, store.ID("1718000000000"), all[0].ID)
	assert.Equal(t, store.ID("1717000000000"), all[0].ProductID)
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), all[0].SaleDate.Time)
	assert.Equal(t, "20", all[0].TotalAmount.String())
	assert.Equal(t, "10", all[0].UnitPrice.String())

	// Rewriting the collection keeps the price under its current name.
	_, err := f.sales.UpdateSale(ctx, "1718000000000", UpdateSaleRequest{CustomerID: new(string)})
	require.NoError(t, err)
	raw, err := f.backend.Read(ctx, CollectionName)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"unitPrice": 10`)
	assert.NotContains(t, string(raw), "productPrice")

	again, err := f.sales.GetSale(ctx, "1718000000000")
	require.NoError(t, err)
	assert.Equal(t, "10", again.UnitPrice.String())
}

func TestUpdateSale_ReassignsCustomer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addProduct(t, "Tea", 10, 5)
	sl, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 1})
	require.NoError(t, err)
	c, err := f.customers.CreateCustomer(ctx, customer.CreateCustomerRequest{Name: "Thabo", Email: "thabo@example.com"})
	require.NoError(t, err)

	id := c.ID.String()
	got, err := f.sales.UpdateSale(ctx, sl.ID.String(), UpdateSaleRequest{CustomerID: &id})
	require.NoError(t, err)
	assert.Equal(t, "Thabo", got.CustomerName)
	assert.Equal(t, sl.Quantity, got.Quantity)
	assert.True(t, sl.TotalAmount.Equal(got.TotalAmount))

	walkIn := ""
	got, err = f.sales.UpdateSale(ctx, sl.ID.String(), UpdateSaleRequest{CustomerID: &walkIn})
	require.NoError(t, err)
	assert.Equal(t, WalkInCustomer, got.CustomerName)
	assert.Empty(t, got.CustomerID)

	missing := "missing"
	_, err = f.sales.UpdateSale(ctx, sl.ID.String(), UpdateSaleRequest{CustomerID: &missing})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addProduct(t, "Tea", 10, 5)

	first, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 2})
	require.NoError(t, err)
	second, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.quantity(t, tea.ID))

	require.NoError(t, f.sales.DeleteSale(ctx, first.ID.String(), false))
	assert.Equal(t, 2, f.quantity(t, tea.ID))

	require.NoError(t, f.sales.DeleteSale(ctx, second.ID.String(), true))
	assert.Equal(t, 3, f.quantity(t, tea.ID))
	assert.Empty(t, f.allSales(t))

	assert.ErrorIs(t, f.sales.DeleteSale(ctx, second.ID.String(), true), apperr.ErrNotFound)
	assert.Equal(t, 3, f.quantity(t, tea.ID))
}

func TestDeleteSale_RestoresSaleWhenRestockFails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tea := f.addProduct(t, "Tea", 10, 5)
	sl, err := f.sales.RecordSale(ctx, RecordSaleRequest{ProductID: tea.ID.String(), Quantity: 2})
	require.NoError(t, err)

	f.backend.failWrites(product.CollectionName)
	assert.ErrorIs(t, f.sales.DeleteSale(ctx, sl.ID.String(), true), apperr.ErrStorage)
	f.backend.failWrites("")

	got, err := f.sales.GetSale(ctx, sl.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, 3, f.quantity(t, tea.ID))
}
