// internal/adapters/out/kafka/order_event_publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/twmb/franz-go/pkg/kgo"

	"gamestore/internal/application/usecase"
)

// Producer is the part of *kgo.Client the publisher uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// OrderEventPublisher implements usecase.EventPublisher. Records are keyed by
// order id so one order's events stay ordered within a partition.
type OrderEventPublisher struct {
	producer Producer
	topic    string
}

var _ usecase.EventPublisher = (*OrderEventPublisher)(nil)

// NewOrderEventPublisher uses the client's default topic when topic is empty.
func NewOrderEventPublisher(p Producer, topic string) *OrderEventPublisher {
	return &OrderEventPublisher{producer: p, topic: topic}
}

func (p *OrderEventPublisher) Publish(ctx context.Context, e usecase.OrderEvent) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka: producer is nil")
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(e.OrderID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		log.Printf("[kafka] WARN publish failed type=%s order=%s err=%v", e.Type, e.OrderID, err)
		return fmt.Errorf("kafka: produce: %w", err)
	}
	log.Printf("[kafka] published type=%s order=%s", e.Type, e.OrderID)
	return nil
}
