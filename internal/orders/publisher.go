package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/sepehrnz/go-storefront/internal/kafka"
)

// KafkaPublisher writes lifecycle events to their topics, one async producer
// per topic.
type KafkaPublisher struct {
	ProducerCreated *kafkax.Producer
	ProducerStatus  *kafkax.Producer
	Service         string
}

var _ Publisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) OrderCreated(ctx context.Context, o *Order) {
	items := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		if it.ProductID == nil {
			continue
		}
		items = append(items, ItemQty{ProductID: *it.ProductID, Qty: it.Qty})
	}
	p.publish(p.ProducerCreated, o.ID, EventOrderCreated, OrderCreatedPayload{
		OrderID:    o.ID,
		OrderCode:  o.OrderCode,
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice,
		Items:      items,
	})
}

func (p *KafkaPublisher) StatusChanged(ctx context.Context, o *Order, from Status) {
	p.publish(p.ProducerStatus, o.ID, EventOrderStatusChanged, StatusChangedPayload{
		OrderID: o.ID,
		From:    from,
		To:      o.Status,
	})
}

func (p *KafkaPublisher) publish(prod *kafkax.Producer, orderID int64, eventType string, payload any) {
	if prod == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      p.Service,
		CorrelationID: string(PartitionKey(orderID)),
		Payload:       kafkax.MustMarshal(payload),
	}
	prod.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
