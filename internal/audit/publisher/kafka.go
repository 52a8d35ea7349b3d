// Package publisher mirrors timeline events to a Kafka topic for downstream
// compliance consumers. The mirror is best-effort: the synchronous audit
// append is the source of truth, and a failed produce only logs.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"patchdesk/internal/audit"
)

// Kafka publishes audit events to a single topic, keyed by patch request id
// so per-request event order is preserved within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Publish produces one event record synchronously.
func (k *Kafka) Publish(ctx context.Context, event audit.Event) error {
	record, err := EncodeRecord(event, k.topic)
	if err != nil {
		return err
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes and releases the producer.
func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}

// EncodeRecord serializes an event into a Kafka record. Split out so payload
// shape is testable without a broker.
func EncodeRecord(event audit.Event, topic string) (*kgo.Record, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal audit event: %w", err)
	}
	return &kgo.Record{
		Topic: topic,
		Key:   []byte(event.PatchRequestID),
		Value: payload,
	}, nil
}
