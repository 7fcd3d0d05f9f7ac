package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sepehrnz/go-storefront/internal/shipping"
)

// Cache is the optional Redis fast path. All methods are best-effort; the
// database stays the source of truth.
type Cache interface {
	CheckoutOrderID(ctx context.Context, requestID string) (int64, bool)
	RememberCheckout(ctx context.Context, requestID string, orderID int64)
	RememberStatus(ctx context.Context, orderID int64, st Status)
}

// Publisher emits lifecycle events after a successful commit. Fire-and-forget:
// a publish failure never fails the request.
type Publisher interface {
	OrderCreated(ctx context.Context, o *Order)
	StatusChanged(ctx context.Context, o *Order, from Status)
}

type Service struct {
	store Store
	cache Cache
	pub   Publisher
	log   *zap.Logger
}

func NewService(store Store, cache Cache, pub Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cache: cache, pub: pub, log: log}
}

type CheckoutInput struct {
	UserID          int64
	Lines           []CartLine
	Customer        CustomerInfo
	ClientRequestID string // optional idempotency key
}

// Checkout turns a cart into a durable order: merge lines, lock stock rows in
// ascending product-id order, price, snapshot items, decrement stock — one
// transaction, all or nothing. With a ClientRequestID the whole operation is
// at-most-once no matter how often it is retried.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*Order, error) {
	if err := validateCheckout(in); err != nil {
		return nil, err
	}
	lines := mergeLines(in.Lines)

	// idempotency fast path, before any locking
	if in.ClientRequestID != "" {
		if o, err := s.existingOrder(ctx, in.ClientRequestID); err != nil {
			return nil, err
		} else if o != nil {
			return o, nil
		}
	}

	var out *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		ids := make([]int64, len(lines))
		for i, l := range lines {
			ids[i] = l.ProductID
		}
		products, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}

		var subtotal int64
		items := make([]OrderItem, 0, len(lines))
		for _, l := range lines {
			p, ok := products[l.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", l.ProductID, ErrProductNotFound)
			}
			if !p.IsActive {
				return &ProductInactiveError{ProductID: p.ID}
			}
			if p.Stock < l.Qty {
				return &InsufficientStockError{ProductID: p.ID, Available: p.Stock, Requested: l.Qty}
			}
			line := p.Price * int64(l.Qty)
			subtotal += line
			pid := p.ID
			items = append(items, OrderItem{
				ProductID:    &pid,
				ProductTitle: p.Title,
				UnitPrice:    p.Price,
				Qty:          l.Qty,
				Subtotal:     line,
			})
		}

		method, fee := shipping.Calculate(in.Customer.City, subtotal)

		o := &Order{
			UserID:          in.UserID,
			Status:          StatusPending,
			Subtotal:        subtotal,
			ShippingFee:     fee,
			TotalPrice:      subtotal + fee,
			CustomerName:    in.Customer.Name,
			CustomerEmail:   in.Customer.Email,
			CustomerPhone:   in.Customer.Phone,
			ShippingAddress: in.Customer.Address,
			City:            strings.TrimSpace(in.Customer.City),
			ShippingMethod:  method,
		}
		if in.ClientRequestID != "" {
			rid := in.ClientRequestID
			o.ClientRequestID = &rid
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}

		// order_code embeds the generated id, so it is a second write
		o.OrderCode = FormatOrderCode(o.ID, o.CreatedAt)
		if err := tx.SetOrderCode(ctx, o.ID, o.OrderCode); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = o.ID
		}
		if err := tx.InsertOrderItems(ctx, items); err != nil {
			return err
		}
		o.Items = items

		for _, l := range lines {
			if err := tx.AdjustStock(ctx, l.ProductID, -l.Qty); err != nil {
				return err
			}
		}

		out = o
		return nil
	})

	if errors.Is(err, ErrDuplicateRequestID) {
		// lost the insert race; the winner's order is the result
		o, ferr := s.store.OrderByRequestID(ctx, in.ClientRequestID)
		if ferr != nil {
			return nil, ErrConflict
		}
		return o, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if in.ClientRequestID != "" {
			s.cache.RememberCheckout(ctx, in.ClientRequestID, out.ID)
		}
		s.cache.RememberStatus(ctx, out.ID, out.Status)
	}
	if s.pub != nil {
		s.pub.OrderCreated(ctx, out)
	}
	s.log.Info("order created",
		zap.Int64("order_id", out.ID),
		zap.String("order_code", out.OrderCode),
		zap.Int64("total", out.TotalPrice))
	return out, nil
}

func (s *Service) existingOrder(ctx context.Context, requestID string) (*Order, error) {
	if s.cache != nil {
		if id, ok := s.cache.CheckoutOrderID(ctx, requestID); ok {
			if o, err := s.store.Order(ctx, id); err == nil {
				return o, nil
			}
			// stale cache entry, fall through to the DB lookup
		}
	}
	o, err := s.store.OrderByRequestID(ctx, requestID)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus applies one lifecycle transition. Transitioning into cancelled
// restocks every item inside the same transaction; re-cancelling an already
// cancelled order is a successful no-op and does not restock twice.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, to Status) (*Order, error) {
	if !ValidStatus(to) {
		return nil, &ValidationError{Field: "status", Msg: "is not a known status"}
	}

	var out *Order
	var from Status
	err := s.store.InTx(ctx, func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		from = o.Status

		if from == to { // no-op, also the AlreadyCancelled success case
			out = o
			return nil
		}
		if !CanTransition(from, to) {
			return &InvalidTransitionError{From: from, To: to, AllowedNext: AllowedNext(from)}
		}

		if to == StatusCancelled {
			if err := s.restock(ctx, tx, o.ID); err != nil {
				return err
			}
		}

		if err := tx.UpdateOrderStatus(ctx, o.ID, to); err != nil {
			return err
		}
		o.Status = to
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.RememberStatus(ctx, out.ID, out.Status)
	}
	if from != out.Status {
		if s.pub != nil {
			s.pub.StatusChanged(ctx, out, from)
		}
		s.log.Info("order status changed",
			zap.Int64("order_id", out.ID),
			zap.String("from", string(from)),
			zap.String("to", string(out.Status)))
	}
	return out, nil
}

// restock is the compensating half of checkout: same lock discipline, stock
// moves back by each item's qty.
func (s *Service) restock(ctx context.Context, tx Tx, orderID int64) error {
	items, err := tx.OrderItems(ctx, orderID)
	if err != nil {
		return err
	}

	qtyByProduct := make(map[int64]int, len(items))
	for _, it := range items {
		if it.ProductID == nil { // product deleted since checkout, nothing to restock
			continue
		}
		qtyByProduct[*it.ProductID] += it.Qty
	}
	if len(qtyByProduct) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(qtyByProduct))
	for id := range qtyByProduct {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if _, err := tx.LockProducts(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		if err := tx.AdjustStock(ctx, id, qtyByProduct[id]); err != nil {
			return err
		}
	}
	return nil
}

// CancelOwnOrder is the customer-facing cancel: only the order's owner, and
// only while the order is still pending or confirmed (business policy on top
// of the state machine).
func (s *Service) CancelOwnOrder(ctx context.Context, orderID, requesterUserID int64) (*Order, error) {
	o, err := s.store.Order(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != requesterUserID {
		return nil, ErrForbidden
	}
	switch o.Status {
	case StatusPending, StatusConfirmed, StatusCancelled:
		// cancelled falls through so a retry stays a no-op success
	default:
		return nil, &InvalidTransitionError{From: o.Status, To: StatusCancelled, AllowedNext: AllowedNext(o.Status)}
	}
	return s.UpdateStatus(ctx, orderID, StatusCancelled)
}

// SetTrackingCode is a pure metadata write; it does not touch the lifecycle.
func (s *Service) SetTrackingCode(ctx context.Context, orderID int64, code *string) (*Order, error) {
	return s.store.SetTrackingCode(ctx, orderID, code)
}

// FormatOrderCode derives the human-facing code from the generated id.
func FormatOrderCode(id int64, createdAt time.Time) string {
	t := createdAt
	if t.IsZero() {
		t = time.Now()
	}
	return fmt.Sprintf("ORD-%d-%06d", t.Year(), id)
}

// mergeLines collapses duplicate product entries so a product is never
// double-charged or double-locked; the result is sorted by product id
// ascending, which is the lock acquisition order.
func mergeLines(lines []CartLine) []CartLine {
	qty := make(map[int64]int, len(lines))
	for _, l := range lines {
		qty[l.ProductID] += l.Qty
	}
	out := make([]CartLine, 0, len(qty))
	for id, q := range qty {
		out = append(out, CartLine{ProductID: id, Qty: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func validateCheckout(in CheckoutInput) error {
	if len(in.Lines) == 0 {
		return &ValidationError{Field: "items", Msg: "must contain at least one line"}
	}
	for _, l := range in.Lines {
		if l.ProductID <= 0 {
			return &ValidationError{Field: "items.product_id", Msg: "must be positive"}
		}
		if l.Qty < 1 {
			return &ValidationError{Field: "items.qty", Msg: "must be at least 1"}
		}
	}
	c := in.Customer
	switch {
	case strings.TrimSpace(c.Name) == "":
		return &ValidationError{Field: "customer_name", Msg: "is required"}
	case strings.TrimSpace(c.Email) == "" || !strings.Contains(c.Email, "@"):
		return &ValidationError{Field: "customer_email", Msg: "is required"}
	case strings.TrimSpace(c.Address) == "":
		return &ValidationError{Field: "shipping_address", Msg: "is required"}
	case strings.TrimSpace(c.City) == "":
		return &ValidationError{Field: "city", Msg: "is required"}
	}
	return nil
}
