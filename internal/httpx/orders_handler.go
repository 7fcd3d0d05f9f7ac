package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sepehrnz/go-storefront/internal/metrics"
	"github.com/sepehrnz/go-storefront/internal/orders"
	"github.com/sepehrnz/go-storefront/internal/redisx"
)

type OrdersHandler struct {
	Svc   *orders.Service
	Store orders.Store
	Cache *redisx.Cache
	Log   *zap.Logger
}

type CheckoutReq struct {
	UserID          int64             `json:"user_id"`
	ClientRequestID string            `json:"client_request_id,omitempty"`
	Items           []orders.CartLine `json:"items"`
	orders.CustomerInfo
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/checkout", h.checkout)
	r.Get("/orders/me", h.myOrders)
	r.Get("/orders/me/{id}", h.myOrder)
	r.Post("/orders/me/{id}/cancel", h.cancelOwn)
	r.Get("/orders/{id}/status", h.orderStatus)
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req CheckoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid json"})
		return
	}

	o, err := h.Svc.Checkout(r.Context(), orders.CheckoutInput{
		UserID:          req.UserID,
		Lines:           req.Items,
		Customer:        req.CustomerInfo,
		ClientRequestID: req.ClientRequestID,
	})
	metrics.RecordOrderOperation("checkout", err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.ObserveCheckout(start)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Order created", "order": o})
}

func (h *OrdersHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing user_id"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.Store.OrdersByUser(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrdersHandler) myOrder(w http.ResponseWriter, r *http.Request) {
	orderID, userID, ok := orderAndUser(w, r)
	if !ok {
		return
	}
	o, err := h.Store.Order(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if o.UserID != userID {
		writeError(w, orders.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrdersHandler) cancelOwn(w http.ResponseWriter, r *http.Request) {
	orderID, userID, ok := orderAndUser(w, r)
	if !ok {
		return
	}
	o, err := h.Svc.CancelOwnOrder(r.Context(), orderID, userID)
	metrics.RecordOrderOperation("cancel", err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order cancelled", "order": o})
}

// orderStatus serves the status poll through the Redis cache.
func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	if h.Cache != nil {
		if st, ok := h.Cache.OrderStatus(r.Context(), orderID); ok {
			writeJSON(w, http.StatusOK, map[string]any{"status": st})
			return
		}
	}
	o, err := h.Store.Order(r.Context(), orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.Cache != nil {
		h.Cache.RememberStatus(r.Context(), o.ID, o.Status)
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func orderAndUser(w http.ResponseWriter, r *http.Request) (orderID, userID int64, ok bool) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return 0, 0, false
	}
	userID, err = strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "missing user_id"})
		return 0, 0, false
	}
	return orderID, userID, true
}
