package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"campusmart/internal/domain"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderCancelled = "order.cancelled"
)

type OrderEvent struct {
	EventID     string `json:"event_id"`
	Type        string `json:"type"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	SellerEmail string `json:"seller_email"`
	BuyerID     string `json:"buyer_id,omitempty"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	CancelledBy string `json:"cancelled_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher writes order events keyed by order id, so every event of one
// order lands on the same partition in order.
type EventPublisher struct {
	w   messageWriter
	now func() time.Time
}

func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return &EventPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		now: time.Now,
	}
}

func (e *EventPublisher) NotifyOrderCreated(ctx context.Context, o domain.Order, p domain.Product) error {
	return e.publish(ctx, EventOrderCreated, o, p, "")
}

func (e *EventPublisher) NotifyOrderCancelled(ctx context.Context, o domain.Order, p domain.Product, reason string) error {
	return e.publish(ctx, EventOrderCancelled, o, p, reason)
}

func (e *EventPublisher) publish(ctx context.Context, typ string, o domain.Order, p domain.Product, reason string) error {
	ev := OrderEvent{
		EventID:     uuid.NewString(),
		Type:        typ,
		OrderID:     o.ID,
		ProductID:   p.ID,
		SellerEmail: p.SellerEmail,
		BuyerID:     o.BuyerID,
		Amount:      o.Amount,
		Status:      string(o.Status),
		CancelledBy: string(o.CancelledBy),
		Reason:      reason,
		OccurredAt:  domain.FormatTime(e.now()),
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return e.w.WriteMessages(ctx, kafka.Message{Key: []byte(o.ID), Value: data, Time: e.now().UTC()})
}

func (e *EventPublisher) Close() error { return e.w.Close() }
