// Package memory provides an in-process Transport backed by channels. It is
// used by tests and single-process deployments; semantics mirror an
// ephemeral pub/sub broker: a publish fans out to every current subscriber
// of the topic, and a publish to a topic with no subscribers is dropped.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dagmesh/dagmesh/transport"
)

const defaultBuffer = 64

// Transport is an in-process pub/sub substrate. The zero value is not
// usable; create one with New.
type Transport struct {
	mu     sync.RWMutex
	subs   map[string][]*subscription
	buffer int
	closed bool
}

// Option configures a Transport.
type Option func(*Transport)

// WithBuffer sets the per-subscription queue depth.
func WithBuffer(n int) Option {
	return func(t *Transport) {
		t.buffer = n
	}
}

// New creates an in-process transport.
func New(opts ...Option) *Transport {
	t := &Transport{
		subs:   make(map[string][]*subscription),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Publish delivers payload to every current subscriber of topic. It blocks
// while a subscriber's queue is full, honoring ctx.
func (t *Transport) Publish(ctx context.Context, topic string, payload []byte) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return fmt.Errorf("%w: transport closed", transport.ErrTransport)
	}
	targets := append([]*subscription(nil), t.subs[topic]...)
	t.mu.RUnlock()

	for _, sub := range targets {
		// Payloads are owned by the receiver; copy so publishers may
		// reuse their buffer.
		msg := append([]byte(nil), payload...)
		select {
		case sub.ch <- msg:
		case <-sub.done:
			// Subscriber went away mid-publish; not an error.
		case <-ctx.Done():
			return fmt.Errorf("%w: publish to %q: %v", transport.ErrTransport, topic, ctx.Err())
		}
	}
	return nil
}

// Subscribe opens a subscription on topic.
func (t *Transport) Subscribe(_ context.Context, topic string) (transport.Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("%w: transport closed", transport.ErrTransport)
	}
	sub := &subscription{
		t:     t,
		topic: topic,
		ch:    make(chan []byte, t.buffer),
		done:  make(chan struct{}),
	}
	t.subs[topic] = append(t.subs[topic], sub)
	return sub, nil
}

// Close closes the transport and every open subscription.
func (t *Transport) Close() error {
	t.mu.Lock()
	subs := t.subs
	t.subs = make(map[string][]*subscription)
	t.closed = true
	t.mu.Unlock()

	for _, topicSubs := range subs {
		for _, sub := range topicSubs {
			sub.closeOnce.Do(func() { close(sub.done) })
		}
	}
	return nil
}

func (t *Transport) remove(target *subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()
	topicSubs := t.subs[target.topic]
	for i, sub := range topicSubs {
		if sub == target {
			t.subs[target.topic] = append(topicSubs[:i:i], topicSubs[i+1:]...)
			break
		}
	}
}

type subscription struct {
	t         *Transport
	topic     string
	ch        chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// Receive returns the next payload. Buffered payloads drain even after
// Close; only then does it report ErrSubscriptionClosed.
func (s *subscription) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-s.ch:
		return msg, nil
	default:
	}

	select {
	case msg := <-s.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		// Close raced with a late publish; prefer the payload.
		select {
		case msg := <-s.ch:
			return msg, nil
		default:
		}
		return nil, transport.ErrSubscriptionClosed
	}
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.t.remove(s)
		close(s.done)
	})
	return nil
}
