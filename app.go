// Package dagmesh runs a directed acyclic graph of named tasks on top of a
// pub/sub transport. Each node subscribes to the topic matching its own
// name, optionally waits for a fan-in threshold of upstream completions, and
// announces its own completion to every declared downstream node. Nodes
// share nothing but the transport handle.
package dagmesh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dagmesh/dagmesh/dag"
	"github.com/dagmesh/dagmesh/internal/execution"
	"github.com/dagmesh/dagmesh/transport"
)

// ErrNotStarted is returned by Wait and Close before Start has run.
var ErrNotStarted = errors.New("dagmesh: app not started")

// Work is the pluggable unit of work a node performs per round. See
// WithWork and WithNodeWork.
type Work = execution.Work

// App wires a validated graph to a running set of node executors on a live
// transport.
type App struct {
	spec *dag.Spec
	tr   transport.Transport
	log  *slog.Logger

	defaultWork     Work
	nodeWork        map[string]Work
	processingDelay time.Duration
	publishAttempts int
	dedupWindow     int

	mu        sync.Mutex
	executors map[string]*execution.Executor
	eg        *errgroup.Group
	cancel    context.CancelFunc
}

// New creates an app for the given graph and transport.
func New(spec *dag.Spec, tr transport.Transport, opts ...Option) (*App, error) {
	if spec == nil {
		return nil, errors.New("dagmesh: spec is required")
	}
	if tr == nil {
		return nil, errors.New("dagmesh: transport is required")
	}

	a := &App{
		spec:            spec,
		tr:              tr,
		log:             NullLogger(),
		nodeWork:        map[string]Work{},
		processingDelay: 100 * time.Millisecond,
		publishAttempts: 3,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.defaultWork == nil {
		a.defaultWork = execution.DelayWork(a.processingDelay)
	}
	return a, nil
}

// Start subscribes every node and launches one executor per node. It
// returns once all executors are running; the graph then runs until the
// context is cancelled or Close is called. A single node failing does not
// halt unrelated branches.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.eg != nil {
		return errors.New("dagmesh: app already started")
	}

	runCtx, cancel := context.WithCancel(ctx)

	// Subscribe everything before launching anything, so that no message
	// published by an early executor can be lost by a late subscriber.
	subs := make(map[string]transport.Subscription, a.spec.Len())
	for _, node := range a.spec.Nodes() {
		sub, err := a.tr.Subscribe(runCtx, node.Name)
		if err != nil {
			for _, s := range subs {
				_ = s.Close()
			}
			cancel()
			return fmt.Errorf("subscribe node %s: %w", node.Name, err)
		}
		subs[node.Name] = sub
	}

	// Plain errgroup, deliberately not errgroup.WithContext: one failed
	// executor must not cancel its siblings.
	eg := &errgroup.Group{}
	a.executors = make(map[string]*execution.Executor, a.spec.Len())
	for _, node := range a.spec.Nodes() {
		exec := execution.NewExecutor(a.log, node, a.tr, subs[node.Name], execution.Config{
			Work:            a.workFor(node.Name),
			PublishAttempts: a.publishAttempts,
			DedupWindow:     a.dedupWindow,
		})
		a.executors[node.Name] = exec
		eg.Go(func() error { return exec.Run(runCtx) })
	}

	a.eg = eg
	a.cancel = cancel
	a.log.Info("graph started", "nodes", a.spec.Len())
	return nil
}

// Inject publishes a synthetic start message to the named node's topic.
// Typically used on the graph's root nodes, see dag.Spec.Roots.
func (a *App) Inject(ctx context.Context, node string, payload []byte) error {
	if _, ok := a.spec.Node(node); !ok {
		return fmt.Errorf("%w: %q", dag.ErrUnknownNode, node)
	}
	data, err := transport.EncodeEnvelope(transport.NewEnvelope("", payload))
	if err != nil {
		return fmt.Errorf("encode start message: %w", err)
	}
	return a.tr.Publish(ctx, node, data)
}

// Wait blocks until all executors have stopped and returns the first
// executor error, if any.
func (a *App) Wait() error {
	a.mu.Lock()
	eg := a.eg
	a.mu.Unlock()
	if eg == nil {
		return ErrNotStarted
	}
	return eg.Wait()
}

// Close cancels all executors and waits for them to stop. A clean
// cancellation returns nil.
func (a *App) Close() error {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel == nil {
		return ErrNotStarted
	}
	cancel()
	return a.Wait()
}

// Rounds reports how many rounds the named node has completed. Intended for
// tests and diagnostics; reads are only guaranteed stable after Close.
func (a *App) Rounds(node string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	exec, ok := a.executors[node]
	if !ok {
		return 0
	}
	return exec.Rounds()
}

func (a *App) workFor(node string) Work {
	if w, ok := a.nodeWork[node]; ok {
		return w
	}
	return a.defaultWork
}
