package orders

import "context"

// Tx is the set of operations available while a storefront transaction is
// open. Stock may only move through AdjustStock, with the product row lock
// already held via LockProducts.
type Tx interface {
	// LockProducts takes FOR UPDATE locks on the given product rows, always
	// in ascending id order regardless of input order. Missing ids are simply
	// absent from the result.
	LockProducts(ctx context.Context, ids []int64) (map[int64]Product, error)

	InsertOrder(ctx context.Context, o *Order) error // assigns ID/CreatedAt; ErrDuplicateRequestID on idempotency-key collision
	SetOrderCode(ctx context.Context, orderID int64, code string) error
	InsertOrderItems(ctx context.Context, items []OrderItem) error
	AdjustStock(ctx context.Context, productID int64, delta int) error

	GetOrderForUpdate(ctx context.Context, orderID int64) (*Order, error)
	OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, st Status) error
}

type OrderFilter struct {
	Status Status // empty = all
	Search string // matches order id, code, customer name/email
	Limit  int
	Offset int
}

// Store is the persistence boundary of the order core.
type Store interface {
	// InTx runs fn inside a transaction: commit iff fn returns nil,
	// full rollback otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Order(ctx context.Context, orderID int64) (*Order, error) // with items
	OrderByRequestID(ctx context.Context, requestID string) (*Order, error)
	OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error)
	ListOrders(ctx context.Context, f OrderFilter) ([]Order, error)
	SetTrackingCode(ctx context.Context, orderID int64, code *string) (*Order, error)

	ActiveProducts(ctx context.Context, limit, offset int) ([]Product, error)
	ProductByID(ctx context.Context, productID int64) (*Product, error)
	StockByIDs(ctx context.Context, ids []int64) ([]ProductStock, error)

	Dashboard(ctx context.Context) (*DashboardStats, error)
}
