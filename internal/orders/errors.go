package orders

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrForbidden       = errors.New("forbidden")

	// ErrConflict covers lock timeouts, deadlocks and idempotency races that
	// could not be resolved in-process. Safe to retry.
	ErrConflict = errors.New("conflict, retry later")

	// ErrDuplicateRequestID is returned by the store when the unique index on
	// client_request_id rejects an insert. The service resolves it by
	// returning the already-created order; it never reaches callers.
	ErrDuplicateRequestID = errors.New("duplicate client_request_id")
)

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Msg)
}

type ProductInactiveError struct {
	ProductID int64
}

func (e *ProductInactiveError) Error() string {
	return fmt.Sprintf("product %d is not active", e.ProductID)
}

type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available=%d requested=%d",
		e.ProductID, e.Available, e.Requested)
}

type InvalidTransitionError struct {
	From        Status
	To          Status
	AllowedNext []Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status change: %s -> %s", e.From, e.To)
}
