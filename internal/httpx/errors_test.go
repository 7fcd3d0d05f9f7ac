package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sepehrnz/go-storefront/internal/orders"
)

func TestWriteErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &orders.ValidationError{Field: "city", Msg: "is required"}, http.StatusUnprocessableEntity},
		{"inactive product", &orders.ProductInactiveError{ProductID: 3}, http.StatusUnprocessableEntity},
		{"insufficient stock", &orders.InsufficientStockError{ProductID: 3, Available: 1, Requested: 2}, http.StatusUnprocessableEntity},
		{"invalid transition", &orders.InvalidTransitionError{From: orders.StatusPending, To: orders.StatusShipped}, http.StatusUnprocessableEntity},
		{"order not found", orders.ErrOrderNotFound, http.StatusNotFound},
		{"product not found", orders.ErrProductNotFound, http.StatusNotFound},
		{"forbidden", orders.ErrForbidden, http.StatusForbidden},
		{"conflict", orders.ErrConflict, http.StatusConflict},
		{"wrapped not found", errors.Join(errors.New("outer"), orders.ErrOrderNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, c.err)
			assert.Equal(t, c.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestWriteErrorInsufficientStockBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &orders.InsufficientStockError{ProductID: 3, Available: 1, Requested: 2})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["product_id"])
	assert.Equal(t, float64(1), body["available"])
	assert.Equal(t, float64(2), body["requested"])
}

func TestWriteErrorInvalidTransitionBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, &orders.InvalidTransitionError{
		From:        orders.StatusPending,
		To:          orders.StatusShipped,
		AllowedNext: orders.AllowedNext(orders.StatusPending),
	})

	var body struct {
		AllowedNext []orders.Status `json:"allowed_next"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []orders.Status{orders.StatusConfirmed, orders.StatusCancelled}, body.AllowedNext)
}

func TestWriteErrorUnknownStaysOpaque(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: connection reset"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal error", body["message"])
}
