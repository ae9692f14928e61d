// Package kafka provides a Transport backed by Apache Kafka via franz-go.
// Topic names map 1:1 to node names; each subscription runs its own
// consumer client in a per-topic consumer group so that every node sees
// every message published to its topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/dagmesh/dagmesh/transport"
)

// Transport publishes and subscribes through a Kafka cluster.
type Transport struct {
	brokers  []string
	group    string
	log      *slog.Logger
	producer *kgo.Client
}

// Option configures a Transport.
type Option func(*Transport)

// WithGroupPrefix sets the consumer group prefix. Each subscription joins
// the group "<prefix>-<topic>".
func WithGroupPrefix(prefix string) Option {
	return func(t *Transport) {
		t.group = prefix
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Transport) {
		t.log = log
	}
}

// New connects a producer client to the given brokers.
func New(brokers []string, opts ...Option) (*Transport, error) {
	t := &Transport{
		brokers: brokers,
		group:   "dagmesh",
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}

	producer, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("%w: create producer: %v", transport.ErrTransport, err)
	}
	t.producer = producer
	return t, nil
}

// Publish produces one record to topic and waits for the broker ack.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte) error {
	res := t.producer.ProduceSync(ctx, &kgo.Record{Topic: topic, Value: payload})
	if err := res.FirstErr(); err != nil {
		return fmt.Errorf("%w: produce to %q: %v", transport.ErrTransport, topic, err)
	}
	return nil
}

// Subscribe opens a dedicated consumer client on topic.
func (t *Transport) Subscribe(_ context.Context, topic string) (transport.Subscription, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(t.brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(fmt.Sprintf("%s-%s", t.group, topic)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create consumer for %q: %v", transport.ErrTransport, topic, err)
	}
	return &subscription{
		client: client,
		topic:  topic,
		log:    t.log.With("topic", topic),
	}, nil
}

// Close shuts down the producer. Subscriptions are closed individually.
func (t *Transport) Close() error {
	t.producer.Close()
	return nil
}

type subscription struct {
	client  *kgo.Client
	topic   string
	log     *slog.Logger
	pending [][]byte
}

// Receive polls Kafka until at least one record arrives and returns records
// one at a time, buffering the rest of the fetch locally.
func (s *subscription) Receive(ctx context.Context) ([]byte, error) {
	for len(s.pending) == 0 {
		fetches := s.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil, transport.ErrSubscriptionClosed
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, fetchErr := range fetches.Errors() {
			if errors.Is(fetchErr.Err, context.Canceled) || errors.Is(fetchErr.Err, context.DeadlineExceeded) {
				continue
			}
			return nil, fmt.Errorf("%w: fetch from %q partition %d: %v",
				transport.ErrTransport, fetchErr.Topic, fetchErr.Partition, fetchErr.Err)
		}
		fetches.EachRecord(func(record *kgo.Record) {
			s.pending = append(s.pending, record.Value)
		})
	}

	payload := s.pending[0]
	s.pending = s.pending[1:]
	return payload, nil
}

func (s *subscription) Close() error {
	s.client.Close()
	return nil
}
