package dagmesh

import (
	"log/slog"
	"time"
)

// Option is a function that configures an App.
type Option func(*App)

// WithLogger sets the logger for the application.
var WithLogger = func(log *slog.Logger) Option {
	return func(a *App) {
		a.log = log
	}
}

// WithWork sets the unit of work used by every node that has no
// node-specific override.
var WithWork = func(w Work) Option {
	return func(a *App) {
		a.defaultWork = w
	}
}

// WithNodeWork sets the unit of work for one specific node.
var WithNodeWork = func(node string, w Work) Option {
	return func(a *App) {
		a.nodeWork[node] = w
	}
}

// WithProcessingDelay sets the simulated processing time of the default
// unit of work. Ignored when WithWork is given.
var WithProcessingDelay = func(d time.Duration) Option {
	return func(a *App) {
		a.processingDelay = d
	}
}

// WithPublishAttempts sets the delivery attempts per downstream edge before
// the failure escalates to the executor.
var WithPublishAttempts = func(n int) Option {
	return func(a *App) {
		a.publishAttempts = n
	}
}

// WithDedupWindow enables duplicate detection over the last n message IDs
// per node. Use with at-least-once transports; off by default.
var WithDedupWindow = func(n int) Option {
	return func(a *App) {
		a.dedupWindow = n
	}
}

// NullWriter is a writer that discards all data.
type NullWriter struct{}

func (NullWriter) Write([]byte) (int, error) { return 0, nil }

// NullLogger creates a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
