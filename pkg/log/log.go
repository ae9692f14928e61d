// Package log sets up console logging for dagmesh binaries. The engine
// itself takes a *slog.Logger; this package provides the zerolog-backed
// console writer used for human-facing CLI output.
package log

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger. Inside a cluster (detected via the
// Kubernetes service env) it emits plain JSON to stderr instead.
func New() *zerolog.Logger {
	var output io.Writer
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		output = os.Stderr
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(output).With().Timestamp().Logger()
	return &logger
}

// NewSlog returns the engine logger at the given level, writing text to
// stderr.
func NewSlog(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
