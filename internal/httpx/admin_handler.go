package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sepehrnz/go-storefront/internal/metrics"
	"github.com/sepehrnz/go-storefront/internal/orders"
)

// AdminHandler is the back-office surface: order listing, status transitions,
// tracking codes, dashboard aggregates. Authn/authz sits in front of it,
// outside this service.
type AdminHandler struct {
	Svc   *orders.Service
	Store orders.Store
	Log   *zap.Logger
}

func (h *AdminHandler) Register(r *chi.Mux) {
	r.Route("/admin", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}", h.getOrder)
		r.Patch("/orders/{id}", h.updateStatus)
		r.Patch("/orders/{id}/tracking", h.setTracking)
		r.Get("/dashboard", h.dashboard)
	})
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := orders.OrderFilter{Search: q.Get("search")}
	if st := q.Get("status"); st != "" && st != "all" {
		f.Status = orders.Status(st)
	}
	f.Limit, _ = strconv.Atoi(q.Get("per_page"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))

	list, err := h.Store.ListOrders(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	o, err := h.Store.Order(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status orders.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	o, err := h.Svc.UpdateStatus(r.Context(), orderID, req.Status)
	metrics.RecordOrderOperation("update_status", err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Status updated", "order": o})
}

func (h *AdminHandler) setTracking(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		TrackingCode *string `json:"tracking_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	o, err := h.Svc.SetTrackingCode(r.Context(), orderID, req.TrackingCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Tracking updated", "order": o})
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Store.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return 0, false
	}
	return id, true
}
