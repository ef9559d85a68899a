package product

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/cache"
)

// Handler exposes product HTTP endpoints.
type Handler struct {
	service Service
	reports cache.Cache
}

// NewHandler builds the product handler. reports may be nil when reports are
// not cached.
func NewHandler(service Service, reports cache.Cache) *Handler {
	return &Handler{service: service, reports: reports}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)   // GET    /api/products?category=&q=
		r.Post("/", h.createProduct) // POST   /api/products
		r.Get("/{id}", h.getProduct) // GET    /api/products/{id}
		r.Put("/{id}", h.updateProduct)
		r.Patch("/{id}", h.updateProduct)
		r.Post("/{id}/stock", h.adjustStock) // POST /api/products/{id}/stock
		r.Delete("/{id}", h.deleteProduct)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}
	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusOK, p)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var body struct {
		QuantityChange *int `json:"quantityChange"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if body.QuantityChange == nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "quantityChange is required"})
		return
	}
	p, err := h.service.AdjustStock(r.Context(), chi.URLParam(r, "id"), *body.QuantityChange)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) invalidate(r *http.Request) {
	if err := cache.InvalidateReports(r.Context(), h.reports); err != nil {
		log.Printf("invalidate report cache: %v", err)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
