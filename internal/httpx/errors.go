package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sepehrnz/go-storefront/internal/orders"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain taxonomy onto HTTP. Unknown errors stay opaque.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr  *orders.ValidationError
		iaErr *orders.ProductInactiveError
		isErr *orders.InsufficientStockError
		itErr *orders.InvalidTransitionError
	)
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": vErr.Error()})
	case errors.As(err, &iaErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message":    iaErr.Error(),
			"product_id": iaErr.ProductID,
		})
	case errors.As(err, &isErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message":    isErr.Error(),
			"product_id": isErr.ProductID,
			"available":  isErr.Available,
			"requested":  isErr.Requested,
		})
	case errors.As(err, &itErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message":      itErr.Error(),
			"allowed_next": itErr.AllowedNext,
		})
	case errors.Is(err, orders.ErrOrderNotFound), errors.Is(err, orders.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	case errors.Is(err, orders.ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
	case errors.Is(err, orders.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"message": "conflict, retry later"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
	}
}
