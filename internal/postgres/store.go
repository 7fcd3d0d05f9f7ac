package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sepehrnz/go-storefront/internal/orders"
)

const (
	pgUniqueViolation = "23505"
	pgLockNotAvail    = "55P03"
	pgDeadlock        = "40P01"
)

// Store implements orders.Store on a pgx pool. All stock mutation happens
// through Tx primitives while the product row lock is held; lock waits are
// bounded by LockTimeout so contention surfaces as orders.ErrConflict instead
// of an indefinite block.
type Store struct {
	Pool        *pgxpool.Pool
	LockTimeout time.Duration
}

var _ orders.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &Store{Pool: pool, LockTimeout: lockTimeout}
}

func (s *Store) InTx(ctx context.Context, fn func(tx orders.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapPgError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// SET LOCAL dies with the transaction; value must be inlined, it is not
	// a bindable parameter.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.LockTimeout.Milliseconds())); err != nil {
		return mapPgError(err)
	}

	if err := fn(&storeTx{tx: tx}); err != nil {
		return mapPgError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

// mapPgError converts driver errors into the domain taxonomy. Domain errors
// pass through untouched.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if strings.Contains(pgErr.ConstraintName, "client_request_id") {
				return orders.ErrDuplicateRequestID
			}
		case pgLockNotAvail, pgDeadlock:
			return orders.ErrConflict
		}
	}
	return err
}

type storeTx struct {
	tx pgx.Tx
}

var _ orders.Tx = (*storeTx)(nil)

const productCols = `id, title, description, price, stock, is_active, created_at, updated_at`

func (t *storeTx) LockProducts(ctx context.Context, ids []int64) (map[int64]orders.Product, error) {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	// ORDER BY id keeps lock acquisition order identical across all callers;
	// two transactions over the same product set can never lock crosswise.
	rows, err := t.tx.Query(ctx, `SELECT `+productCols+`
		FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]orders.Product, len(sorted))
	for rows.Next() {
		var p orders.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Stock,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *storeTx) InsertOrder(ctx context.Context, o *orders.Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders(user_id, client_request_id, status, subtotal, shipping_fee, total_price,
		                   customer_name, customer_email, customer_phone, shipping_address, city, shipping_method)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`,
		o.UserID, o.ClientRequestID, o.Status, o.Subtotal, o.ShippingFee, o.TotalPrice,
		o.CustomerName, o.CustomerEmail, o.CustomerPhone, o.ShippingAddress, o.City, o.ShippingMethod,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (t *storeTx) SetOrderCode(ctx context.Context, orderID int64, code string) error {
	_, err := t.tx.Exec(ctx, `UPDATE orders SET order_code=$2 WHERE id=$1`, orderID, code)
	return err
}

func (t *storeTx) InsertOrderItems(ctx context.Context, items []orders.OrderItem) error {
	for i := range items {
		it := &items[i]
		err := t.tx.QueryRow(ctx, `
			INSERT INTO order_items(order_id, product_id, product_title, unit_price, qty, subtotal)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id`,
			it.OrderID, it.ProductID, it.ProductTitle, it.UnitPrice, it.Qty, it.Subtotal,
		).Scan(&it.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *storeTx) AdjustStock(ctx context.Context, productID int64, delta int) error {
	ct, err := t.tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id=$1`,
		productID, delta)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("product %d: %w", productID, orders.ErrProductNotFound)
	}
	return nil
}

const orderCols = `id, COALESCE(order_code,''), client_request_id, user_id, status,
	subtotal, shipping_fee, total_price,
	customer_name, customer_email, COALESCE(customer_phone,''), shipping_address, city,
	COALESCE(shipping_method,''), tracking_code, created_at, updated_at`

func scanOrder(row pgx.Row) (*orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.OrderCode, &o.ClientRequestID, &o.UserID, &o.Status,
		&o.Subtotal, &o.ShippingFee, &o.TotalPrice,
		&o.CustomerName, &o.CustomerEmail, &o.CustomerPhone, &o.ShippingAddress, &o.City,
		&o.ShippingMethod, &o.TrackingCode, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (t *storeTx) GetOrderForUpdate(ctx context.Context, orderID int64) (*orders.Order, error) {
	return scanOrder(t.tx.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, orderID))
}

func (t *storeTx) OrderItems(ctx context.Context, orderID int64) ([]orders.OrderItem, error) {
	return queryItems(ctx, t.tx, orderID)
}

func (t *storeTx) UpdateOrderStatus(ctx context.Context, orderID int64, st orders.Status) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, st)
	return err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, orderID int64) ([]orders.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, product_title, unit_price, qty, subtotal
		FROM order_items WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.OrderItem
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductTitle,
			&it.UnitPrice, &it.Qty, &it.Subtotal); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *Store) Order(ctx context.Context, orderID int64) (*orders.Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id=$1`, orderID))
	if err != nil {
		return nil, err
	}
	if o.Items, err = queryItems(ctx, s.Pool, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) OrderByRequestID(ctx context.Context, requestID string) (*orders.Order, error) {
	o, err := scanOrder(s.Pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE client_request_id=$1`, requestID))
	if err != nil {
		return nil, err
	}
	if o.Items, err = queryItems(ctx, s.Pool, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Store) OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]orders.Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders
		WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (s *Store) ListOrders(ctx context.Context, f orders.OrderFilter) ([]orders.Order, error) {
	limit := f.Limit
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	where := []string{"true"}
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		if id, err := strconv.ParseInt(q, 10, 64); err == nil {
			args = append(args, id)
			where = append(where, fmt.Sprintf("id=$%d", len(args)))
		} else {
			args = append(args, "%"+q+"%")
			n := len(args)
			where = append(where, fmt.Sprintf(
				"(order_code ILIKE $%d OR customer_name ILIKE $%d OR customer_email ILIKE $%d)", n, n, n))
		}
	}
	args = append(args, limit, f.Offset)

	sql := `SELECT ` + orderCols + ` FROM orders WHERE ` + strings.Join(where, " AND ") +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return s.queryOrders(ctx, sql, args...)
}

func (s *Store) queryOrders(ctx context.Context, sql string, args ...any) ([]orders.Order, error) {
	rows, err := s.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Items, err = queryItems(ctx, s.Pool, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) SetTrackingCode(ctx context.Context, orderID int64, code *string) (*orders.Order, error) {
	ct, err := s.Pool.Exec(ctx,
		`UPDATE orders SET tracking_code=$2, updated_at=now() WHERE id=$1`, orderID, code)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() != 1 {
		return nil, orders.ErrOrderNotFound
	}
	return s.Order(ctx, orderID)
}

func (s *Store) ActiveProducts(ctx context.Context, limit, offset int) ([]orders.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 12
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+productCols+` FROM products
		WHERE is_active ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.Product
	for rows.Next() {
		var p orders.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Stock,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ProductByID(ctx context.Context, productID int64) (*orders.Product, error) {
	var p orders.Product
	err := s.Pool.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, productID).
		Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.Stock,
			&p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) StockByIDs(ctx context.Context, ids []int64) ([]orders.ProductStock, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, stock, is_active FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []orders.ProductStock
	for rows.Next() {
		var ps orders.ProductStock
		if err := rows.Scan(&ps.ID, &ps.Stock, &ps.IsActive); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (s *Store) Dashboard(ctx context.Context) (*orders.DashboardStats, error) {
	var d orders.DashboardStats
	err := s.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now())),
		       COALESCE(SUM(total_price), 0),
		       COALESCE(SUM(total_price) FILTER (WHERE created_at >= date_trunc('day', now())), 0)
		FROM orders`).
		Scan(&d.TotalOrders, &d.TodayOrders, &d.TotalRevenue, &d.TodayRevenue)
	if err != nil {
		return nil, err
	}
	if err := s.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&d.TotalProducts); err != nil {
		return nil, err
	}

	rows, err := s.Pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	d.OrdersByStatus = make(map[orders.Status]int)
	for rows.Next() {
		var st orders.Status
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		d.OrdersByStatus[st] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	latest, err := s.queryOrders(ctx,
		`SELECT `+orderCols+` FROM orders ORDER BY created_at DESC LIMIT $1 OFFSET $2`, 5, 0)
	if err != nil {
		return nil, err
	}
	d.LatestOrders = latest
	return &d, nil
}
