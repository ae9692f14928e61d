// Package transport defines the pub/sub abstraction the dagmesh engine runs
// on, plus the message envelope that travels over it. Implementations live
// in the subpackages (kafka, memory).
package transport

import (
	"context"
	"errors"
)

// Sentinel errors. Implementations wrap their failures in ErrTransport so
// the engine can treat "the substrate misbehaved" uniformly.
// ErrSubscriptionClosed is terminal for the affected subscriber: the input
// stream is gone and will not come back.
var (
	ErrTransport          = errors.New("transport error")
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// Transport is the only interface the engine needs from a messaging
// substrate. Publish and Subscribe are independent operations; a single
// Transport handle may be shared by any number of concurrent publishers and
// subscribers.
type Transport interface {
	// Publish delivers payload to every current subscriber of topic.
	Publish(ctx context.Context, topic string, payload []byte) error

	// Subscribe opens a subscription on topic. The returned Subscription
	// yields payloads one at a time until closed.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription is a lazy, infinite stream of payloads for one topic.
type Subscription interface {
	// Receive blocks until the next payload arrives, ctx is cancelled, or
	// the subscription is closed (ErrSubscriptionClosed).
	Receive(ctx context.Context) ([]byte, error)

	// Close tears the subscription down. Pending and subsequent Receive
	// calls observe ErrSubscriptionClosed.
	Close() error
}
