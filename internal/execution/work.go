package execution

import (
	"context"
	"time"
)

// Work is the node's bounded unit of work. It receives the payloads of the
// round that released the node and returns the payload to publish
// downstream. Real deployments plug in actual computation; the barrier and
// publish logic are untouched by the substitution.
type Work func(ctx context.Context, node string, round [][]byte) ([]byte, error)

// DelayWork returns a Work that stands in for real computation: it sleeps
// for d (honoring ctx) and emits a provenance payload.
func DelayWork(d time.Duration) Work {
	return func(ctx context.Context, node string, _ [][]byte) ([]byte, error) {
		if d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return []byte("Processed by " + node), nil
	}
}
