package redisx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/sepehrnz/go-storefront/internal/orders"
)

// Cache implements orders.Cache. Everything here is best-effort: a Redis
// failure degrades to the DB path, never to a request failure.
type Cache struct {
	RDB *redis.Client
}

var _ orders.Cache = (*Cache)(nil)

func (c *Cache) CheckoutOrderID(ctx context.Context, requestID string) (int64, bool) {
	s, err := c.RDB.Get(ctx, fmt.Sprintf(KeyIdemCheckout, requestID)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (c *Cache) RememberCheckout(ctx context.Context, requestID string, orderID int64) {
	_ = c.RDB.Set(ctx, fmt.Sprintf(KeyIdemCheckout, requestID),
		strconv.FormatInt(orderID, 10), TTLIdempotency).Err()
}

func (c *Cache) RememberStatus(ctx context.Context, orderID int64, st orders.Status) {
	_ = c.RDB.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), string(st), TTLStatusCache).Err()
}

// OrderStatus reads the cached status for the GET fast path.
func (c *Cache) OrderStatus(ctx context.Context, orderID int64) (orders.Status, bool) {
	s, err := c.RDB.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err != nil || s == "" {
		return "", false
	}
	return orders.Status(s), true
}
