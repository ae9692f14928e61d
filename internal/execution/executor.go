// Package execution contains the per-node runtime of the dagmesh engine:
// the receive/gate/process/publish loop and the fan-in barrier it gates on.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/multierr"

	"github.com/dagmesh/dagmesh/dag"
	"github.com/dagmesh/dagmesh/transport"
)

// Config carries the tunables of one executor.
type Config struct {
	// Work is the node's unit of work. Required.
	Work Work

	// PublishAttempts is the number of delivery attempts per downstream
	// edge, with exponential backoff between attempts. Minimum 1.
	PublishAttempts int

	// DedupWindow is the size of the duplicate-detection window. Zero
	// disables deduplication.
	DedupWindow int
}

// Executor runs the receive/gate/process/publish cycle for exactly one node
// until its context is cancelled or its subscription ends.
//
// Executors share nothing but the transport handle. The barrier is owned by
// this executor alone and is only touched from Run's loop.
type Executor struct {
	log     *slog.Logger
	spec    dag.NodeSpec
	tr      transport.Transport
	sub     transport.Subscription
	barrier *Barrier
	work    Work
	dedup   *dedupWindow

	publishAttempts int
	rounds          int
}

// NewExecutor binds an executor to one node spec, a shared transport and an
// already-open subscription on the node's topic. A fresh barrier is created
// when the spec declares a fan-in threshold.
func NewExecutor(log *slog.Logger, spec dag.NodeSpec, tr transport.Transport, sub transport.Subscription, cfg Config) *Executor {
	e := &Executor{
		log:             log.With("node", spec.Name),
		spec:            spec,
		tr:              tr,
		sub:             sub,
		work:            cfg.Work,
		publishAttempts: cfg.PublishAttempts,
	}
	if e.publishAttempts < 1 {
		e.publishAttempts = 1
	}
	if spec.RequiredDeps > 0 {
		e.barrier = NewBarrier(spec.RequiredDeps)
	}
	if cfg.DedupWindow > 0 {
		e.dedup = newDedupWindow(cfg.DedupWindow)
	}
	return e
}

// Rounds returns how many rounds the executor has completed.
func (e *Executor) Rounds() int {
	return e.rounds
}

// Run executes the node loop. It returns nil on cooperative cancellation,
// ErrSubscriptionClosed when the input stream ends, and a publish error
// only after the per-edge retry budget is exhausted. A failure here is
// local: sibling executors are unaffected.
func (e *Executor) Run(ctx context.Context) error {
	defer e.sub.Close()

	e.log.Debug("executor started", "required_deps", e.spec.RequiredDeps, "downstream", e.spec.Downstream)

	for {
		data, err := e.sub.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Cancellation mid-round abandons the partial barrier
				// state; nothing is persisted, so this is safe.
				e.log.Debug("executor cancelled")
				return nil
			}
			if errors.Is(err, transport.ErrSubscriptionClosed) {
				e.log.Info("subscription closed, stopping executor")
				return fmt.Errorf("node %s: %w", e.spec.Name, err)
			}
			return fmt.Errorf("node %s: receive: %w", e.spec.Name, err)
		}

		env := transport.DecodeEnvelope(data)
		if e.dedup != nil && e.dedup.observe(env.ID) {
			e.log.Debug("dropped duplicate message", "id", env.ID, "source", env.Source)
			continue
		}

		var round [][]byte
		if e.barrier != nil {
			released, r := e.barrier.Offer(env.Payload)
			if !released {
				e.log.Info("waiting for dependencies", "source", env.Source, "missing", e.barrier.Remaining())
				continue
			}
			round = r
		} else {
			round = [][]byte{env.Payload}
		}

		out, err := e.work(ctx, e.spec.Name, round)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A failed unit of work terminates this iteration only.
			e.log.Error("unit of work failed", "error", err)
			continue
		}
		e.rounds++
		e.log.Info("round completed", "round", e.rounds, "source", env.Source)

		if err := e.publishDownstream(ctx, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("node %s: %w", e.spec.Name, err)
		}
	}
}

// publishDownstream publishes the round's output to every downstream edge.
// Each edge is independent: a failure on one never prevents delivery to the
// others. Per-edge failures are retried with exponential backoff up to the
// configured attempt budget, then collected.
func (e *Executor) publishDownstream(ctx context.Context, out []byte) error {
	var errs error
	for _, target := range e.spec.Downstream {
		data, err := transport.EncodeEnvelope(transport.NewEnvelope(e.spec.Name, out))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("encode for %s: %w", target, err))
			continue
		}

		bo := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(e.publishAttempts-1)),
			ctx,
		)
		publish := func() error {
			return e.tr.Publish(ctx, target, data)
		}
		if err := backoff.Retry(publish, bo); err != nil {
			e.log.Error("publish failed", "target", target, "attempts", e.publishAttempts, "error", err)
			errs = multierr.Append(errs, fmt.Errorf("publish to %s: %w", target, err))
			continue
		}
		e.log.Debug("published", "target", target)
	}
	return errs
}
