package report

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/foso7/wings-cafe-inventory/internal/modules/sale"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// Inventory statuses.
const (
	StatusOutOfStock = "Out of Stock"
	StatusLowStock   = "Low Stock"
	StatusInStock    = "In Stock"
)

// RecentLimit is how many sales Overview lists.
const RecentLimit = 10

// Overview summarizes all recorded sales.
type Overview struct {
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	SalesCount    int             `json:"salesCount"`
	AverageSale   decimal.Decimal `json:"averageSale"`
	ProductCount  int             `json:"productCount"`
	LowStockCount int             `json:"lowStockCount"`
	RecentSales   []*sale.Sale    `json:"recentSales"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

// ProductSales aggregates the sales of one product name.
type ProductSales struct {
	ProductName      string          `json:"productName"`
	Category         string          `json:"category,omitempty"`
	SalesCount       int             `json:"salesCount"`
	QuantitySold     int             `json:"quantitySold"`
	Revenue          decimal.Decimal `json:"revenue"`
	AverageUnitPrice decimal.Decimal `json:"averageUnitPrice"`
}

// InventoryItem is one product with its stock status.
type InventoryItem struct {
	ID         store.ID        `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	StockValue decimal.Decimal `json:"stockValue"`
	Status     string          `json:"status"`
}
