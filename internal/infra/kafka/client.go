// internal/infra/kafka/client.go
package kafkainfra

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// NewProducer builds a franz-go client whose records default to topic.
func NewProducer(brokers []string, topic string) (*kgo.Client, error) {
	seeds := make([]string, 0, len(brokers))
	for _, b := range brokers {
		if t := strings.TrimSpace(b); t != "" {
			seeds = append(seeds, t)
		}
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is empty")
	}

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(seeds...),
		kgo.DefaultProduceTopic(topic),
		kgo.AllowAutoTopicCreation(),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new client: %w", err)
	}
	log.Printf("[kafka] producer ready brokers=%s topic=%s", strings.Join(seeds, ","), topic)
	return cl, nil
}

// Ping checks broker reachability.
func Ping(ctx context.Context, cl *kgo.Client) error {
	if cl == nil {
		return fmt.Errorf("kafka: client is nil")
	}
	return cl.Ping(ctx)
}
