// Package app assembles storage, caching, events and the entity services from
// a Config, and builds the HTTP router over them.
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"github.com/foso7/wings-cafe-inventory/internal/cache"
	"github.com/foso7/wings-cafe-inventory/internal/config"
	"github.com/foso7/wings-cafe-inventory/internal/events"
	"github.com/foso7/wings-cafe-inventory/internal/modules/auth"
	"github.com/foso7/wings-cafe-inventory/internal/modules/customer"
	"github.com/foso7/wings-cafe-inventory/internal/modules/product"
	"github.com/foso7/wings-cafe-inventory/internal/modules/report"
	"github.com/foso7/wings-cafe-inventory/internal/modules/sale"
	"github.com/foso7/wings-cafe-inventory/internal/store"
)

// App holds every wired dependency of the service.
type App struct {
	Config    *config.Config
	Backend   store.Backend
	Reports   cache.Cache
	Publisher events.Publisher

	ProductRepo  product.Repository
	CustomerRepo customer.Repository
	SaleRepo     sale.Repository

	Products  product.Service
	Customers customer.Service
	Sales     sale.Service
	Report    report.Service
	Auth      auth.Service // nil when auth is disabled

	closers []func() error
}

// OpenBackend opens the record store selected by cfg. The returned close
// function releases any database connection.
func OpenBackend(ctx context.Context, cfg *config.Config) (store.Backend, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreDriver {
	case config.DriverFile:
		return store.NewFileBackend(cfg.DataDir), noop, nil
	case config.DriverMemory:
		return store.NewMemoryBackend(), noop, nil
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		backend := store.NewPostgresBackend(db)
		if err := backend.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return backend, db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// New opens every dependency named by cfg and wires the services.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	backend, closeBackend, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Backend: backend}
	a.closers = append(a.closers, closeBackend)

	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.ReportCacheTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Reports = redisCache
	} else {
		a.Reports = cache.NewMemory(cfg.ReportCacheTTL, time.Minute)
	}
	a.closers = append(a.closers, a.Reports.Close)

	if cfg.AMQPURL != "" {
		publisher, err := events.NewRabbitMQ(cfg.AMQPURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Publisher = publisher
	} else {
		a.Publisher = events.Noop{}
	}
	a.closers = append(a.closers, a.Publisher.Close)

	a.wire()
	return a, nil
}

// NewWith wires the services over already-open dependencies.
func NewWith(cfg *config.Config, backend store.Backend, reports cache.Cache, publisher events.Publisher) *App {
	if publisher == nil {
		publisher = events.Noop{}
	}
	a := &App{Config: cfg, Backend: backend, Reports: reports, Publisher: publisher}
	a.wire()
	return a
}

func (a *App) wire() {
	cfg := a.Config
	a.ProductRepo = product.NewJSONRepository(a.Backend)
	a.CustomerRepo = customer.NewJSONRepository(a.Backend)
	a.SaleRepo = sale.NewJSONRepository(a.Backend)

	a.Products = product.NewService(a.ProductRepo, a.Publisher, cfg.LowStock)
	a.Customers = customer.NewService(a.CustomerRepo)
	a.Sales = sale.NewService(a.SaleRepo, a.ProductRepo, a.CustomerRepo, a.Publisher, cfg.LowStock)
	a.Report = report.NewService(a.SaleRepo, a.ProductRepo, a.Reports, cfg.LowStock)
	if cfg.AuthEnabled() {
		a.Auth = auth.NewService(auth.Operator{Email: cfg.OperatorEmail, PasswordHash: cfg.OperatorHash}, cfg.JWTSecret, cfg.TokenTTL)
	}
}

// Router builds the HTTP surface.
func (a *App) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	if a.Auth != nil {
		router.Use(auth.Middleware(a.Auth))
		auth.NewHandler(a.Auth).RegisterRoutes(router)
	}

	router.Get("/api/health", health)
	product.NewHandler(a.Products, a.Reports).RegisterRoutes(router)
	customer.NewHandler(a.Customers).RegisterRoutes(router)
	sale.NewHandler(a.Sales, a.Reports).RegisterRoutes(router)
	report.NewHandler(a.Report).RegisterRoutes(router)
	return router
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
	})
}

// Close releases dependencies in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		log.Printf("close: %v", err)
		return err
	}
	return nil
}
