// Package publisher delivers ledger events to Kafka for the external
// transaction-history indexer.
package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes event payloads to a single topic, keyed by event kind so
// consumers can partition-filter without decoding.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects to the brokers and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, resp.Err)
	}

	return &Kafka{client: client, topic: topic}, nil
}

// Publish delivers one payload synchronously. The outbox worker calls this
// entry by entry and only marks entries published on success.
func (k *Kafka) Publish(ctx context.Context, key string, payload []byte) error {
	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(key),
		Value: payload,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes and releases the client.
func (k *Kafka) Close() {
	k.client.Close()
}
