package redisx

import "time"

const (
	// Idempotency fast path: idem:checkout:{client_request_id} -> order_id
	KeyIdemCheckout = "idem:checkout:%s"

	// Cache: order_status:{order_id} -> status string
	KeyOrderStatus = "order_status:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
