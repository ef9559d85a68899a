package sale

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foso7/wings-cafe-inventory/internal/apperr"
	"github.com/foso7/wings-cafe-inventory/internal/cache"
)

// Handler exposes sale HTTP endpoints.
type Handler struct {
	service Service
	reports cache.Cache
}

// NewHandler builds the sale handler. reports may be nil.
func NewHandler(service Service, reports cache.Cache) *Handler {
	return &Handler{service: service, reports: reports}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sales", func(r chi.Router) {
		r.Get("/", h.listSales)         // GET    /api/sales?productId=&customerId=&from=&to=
		r.Post("/", h.recordSale)       // POST   /api/sales
		r.Post("/checkout", h.checkout) // POST   /api/sales/checkout
		r.Get("/{id}", h.getSale)       // GET    /api/sales/{id}
		r.Put("/{id}", h.updateSale)    // PUT    /api/sales/{id}
		r.Delete("/{id}", h.deleteSale) // DELETE /api/sales/{id}?restock=true
	})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{ProductID: q.Get("productId"), CustomerID: q.Get("customerId")}
	var err error
	if filter.From, err = parseBound(q.Get("from"), false); err != nil {
		respondError(w, apperr.Invalid("from", "from must be YYYY-MM-DD or RFC 3339"))
		return
	}
	if filter.To, err = parseBound(q.Get("to"), true); err != nil {
		respondError(w, apperr.Invalid("to", "to must be YYYY-MM-DD or RFC 3339"))
		return
	}
	sales, err := h.service.ListSales(r.Context(), filter)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sales)
}

// parseBound reads a from/to query value. A bare date as an upper bound covers
// the whole day.
func parseBound(v string, upper bool) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func (h *Handler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sl, err := h.service.RecordSale(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusCreated, sl)
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sales, err := h.service.Checkout(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusCreated, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	sl, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, sl)
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	var req UpdateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	sl, err := h.service.UpdateSale(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondError(w, err)
		return
	}
	h.invalidate(r)
	respond(w, http.StatusOK, sl)
}

func (h *Handler) deleteSale(w http.ResponseWriter, r *http.Request) {
	restock := false
	if v := r.URL.Query().Get("restock"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, apperr.Invalid("restock", "restock must be true or false"))
			return
		}
		restock = b
	}
	if err := h.service.DeleteSale(r.Context(), chi.URLParam(r, "id"), restock); err != nil {
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
