// Package statuscache keeps the Redis order-status cache warm from the
// order.status.changed stream, so status polls rarely hit Postgres.
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/sepehrnz/go-storefront/internal/kafka"
	"github.com/sepehrnz/go-storefront/internal/orders"
	"github.com/sepehrnz/go-storefront/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	Cache       *redisx.Cache
	ServiceName string
	Log         *zap.Logger
}

// HandleStatusChanged is wired as the consumer handler.
func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatusChanged {
		return nil // ignore
	}

	// dedup by event_id; redeliveries are expected with manual commits
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	s.Cache.RememberStatus(ctx, p.OrderID, p.To)
	s.Log.Debug("status cache warmed",
		zap.Int64("order_id", p.OrderID),
		zap.String("status", string(p.To)))
	return nil
}
