package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sepehrnz/go-storefront/internal/orders"
)

// ProductsHandler is the read-only catalog surface the storefront uses before
// checkout. It never mutates stock.
type ProductsHandler struct {
	Store orders.Store
}

func (h *ProductsHandler) Register(r *chi.Mux) {
	r.Get("/products", h.list)
	r.Get("/products/{id}", h.show)
	r.Post("/products/stock", h.stock)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	ps, err := h.Store.ActiveProducts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	p, err := h.Store.ProductByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !p.IsActive { // inactive products are invisible to the storefront
		writeError(w, orders.ErrProductNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) stock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing ids"})
		return
	}
	out, err := h.Store.StockByIDs(r.Context(), req.IDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
