package orders

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// memStore implements Store in memory for service tests. A global mutex plays
// the role of the database's serialization: InTx holds it for the whole
// callback and rolls back by snapshot restore, so a failed checkout leaves no
// partial state, same as the real store.
type memStore struct {
	mu          sync.Mutex
	products    map[int64]*Product
	orders      map[int64]*Order
	items       map[int64][]OrderItem
	byRequestID map[string]int64
	nextOrderID int64
	nextItemID  int64
}

var _ Store = (*memStore)(nil)

func newMemStore(products ...Product) *memStore {
	m := &memStore{
		products:    make(map[int64]*Product),
		orders:      make(map[int64]*Order),
		items:       make(map[int64][]OrderItem),
		byRequestID: make(map[string]int64),
	}
	for i := range products {
		p := products[i]
		m.products[p.ID] = &p
	}
	return m
}

type memSnapshot struct {
	products    map[int64]*Product
	orders      map[int64]*Order
	items       map[int64][]OrderItem
	byRequestID map[string]int64
	nextOrderID int64
	nextItemID  int64
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		products:    make(map[int64]*Product, len(m.products)),
		orders:      make(map[int64]*Order, len(m.orders)),
		items:       make(map[int64][]OrderItem, len(m.items)),
		byRequestID: make(map[string]int64, len(m.byRequestID)),
		nextOrderID: m.nextOrderID,
		nextItemID:  m.nextItemID,
	}
	for id, p := range m.products {
		cp := *p
		s.products[id] = &cp
	}
	for id, o := range m.orders {
		co := *o
		s.orders[id] = &co
	}
	for id, its := range m.items {
		s.items[id] = append([]OrderItem(nil), its...)
	}
	for k, v := range m.byRequestID {
		s.byRequestID[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.products, m.orders, m.items = s.products, s.orders, s.items
	m.byRequestID = s.byRequestID
	m.nextOrderID, m.nextItemID = s.nextOrderID, s.nextItemID
}

func (m *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(&memTx{s: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memStore) stockOf(id int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Stock
}

type memTx struct{ s *memStore }

func (t *memTx) LockProducts(ctx context.Context, ids []int64) (map[int64]Product, error) {
	out := make(map[int64]Product, len(ids))
	for _, id := range ids {
		if p, ok := t.s.products[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (t *memTx) InsertOrder(ctx context.Context, o *Order) error {
	if o.ClientRequestID != nil {
		if _, dup := t.s.byRequestID[*o.ClientRequestID]; dup {
			return ErrDuplicateRequestID
		}
	}
	t.s.nextOrderID++
	o.ID = t.s.nextOrderID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	co := *o
	co.Items = nil
	t.s.orders[o.ID] = &co
	if o.ClientRequestID != nil {
		t.s.byRequestID[*o.ClientRequestID] = o.ID
	}
	return nil
}

func (t *memTx) SetOrderCode(ctx context.Context, orderID int64, code string) error {
	t.s.orders[orderID].OrderCode = code
	return nil
}

func (t *memTx) InsertOrderItems(ctx context.Context, items []OrderItem) error {
	for i := range items {
		t.s.nextItemID++
		items[i].ID = t.s.nextItemID
		t.s.items[items[i].OrderID] = append(t.s.items[items[i].OrderID], items[i])
	}
	return nil
}

func (t *memTx) AdjustStock(ctx context.Context, productID int64, delta int) error {
	p, ok := t.s.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		panic("stock went negative") // mirrors the DB check constraint
	}
	p.Stock += delta
	return nil
}

func (t *memTx) GetOrderForUpdate(ctx context.Context, orderID int64) (*Order, error) {
	o, ok := t.s.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	co := *o
	return &co, nil
}

func (t *memTx) OrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	return append([]OrderItem(nil), t.s.items[orderID]...), nil
}

func (t *memTx) UpdateOrderStatus(ctx context.Context, orderID int64, st Status) error {
	o, ok := t.s.orders[orderID]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = st
	o.UpdatedAt = time.Now()
	return nil
}

func (m *memStore) Order(ctx context.Context, orderID int64) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	co := *o
	co.Items = append([]OrderItem(nil), m.items[orderID]...)
	return &co, nil
}

func (m *memStore) OrderByRequestID(ctx context.Context, requestID string) (*Order, error) {
	m.mu.Lock()
	id, ok := m.byRequestID[requestID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrOrderNotFound
	}
	return m.Order(ctx, id)
}

func (m *memStore) OrdersByUser(ctx context.Context, userID int64, limit, offset int) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Order
	for _, o := range m.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if q := strings.TrimSpace(f.Search); q != "" &&
			!strings.Contains(o.OrderCode, q) && !strings.Contains(o.CustomerName, q) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) SetTrackingCode(ctx context.Context, orderID int64, code *string) (*Order, error) {
	m.mu.Lock()
	o, ok := m.orders[orderID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrOrderNotFound
	}
	o.TrackingCode = code
	m.mu.Unlock()
	return m.Order(ctx, orderID)
}

func (m *memStore) ActiveProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Product
	for _, p := range m.products {
		if p.IsActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ProductByID(ctx context.Context, productID int64) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) StockByIDs(ctx context.Context, ids []int64) ([]ProductStock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ProductStock
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, ProductStock{ID: p.ID, Stock: p.Stock, IsActive: p.IsActive})
		}
	}
	return out, nil
}

func (m *memStore) Dashboard(ctx context.Context) (*DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := &DashboardStats{OrdersByStatus: make(map[Status]int), TotalProducts: len(m.products)}
	for _, o := range m.orders {
		d.TotalOrders++
		d.TotalRevenue += o.TotalPrice
		d.OrdersByStatus[o.Status]++
	}
	return d, nil
}
