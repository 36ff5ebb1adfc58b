// Package observability provides structured logging, metrics, and tracing
// hooks for the pulse dispatch core.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogPublish logs an accepted publish at debug level.
func LogPublish(logger *slog.Logger, kind string, eventID, frame uint64, priority string) {
	if logger == nil {
		return
	}
	logger.Debug("event published",
		slog.String("kind", kind),
		slog.Uint64("event_id", eventID),
		slog.Uint64("frame", frame),
		slog.String("priority", priority),
	)
}

// LogDrop logs a publish rejected at queue capacity.
func LogDrop(logger *slog.Logger, kind string, eventID uint64, queueLen int) {
	if logger == nil {
		return
	}
	logger.Debug("event dropped at capacity",
		slog.String("kind", kind),
		slog.Uint64("event_id", eventID),
		slog.Int("queue_len", queueLen),
	)
}

// LogCycle logs a completed ProcessEvents cycle.
func LogCycle(logger *slog.Logger, frame uint64, processed, remaining int, duration time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("cycle processed",
		slog.Uint64("frame", frame),
		slog.Int("events_processed", processed),
		slog.Int("events_remaining", remaining),
		slog.Duration("duration", duration),
	)
}

// LogListenerPanic logs a recovered listener panic.
func LogListenerPanic(logger *slog.Logger, kind string, listenerID string, recovered any) {
	if logger == nil {
		return
	}
	logger.Error("listener panicked",
		slog.String("kind", kind),
		slog.String("listener_id", listenerID),
		slog.Any("panic", recovered),
	)
}

// LogCleanup logs a registry compaction pass.
func LogCleanup(logger *slog.Logger, removed int) {
	if logger == nil || removed == 0 {
		return
	}
	logger.Debug("registry compacted",
		slog.Int("listeners_removed", removed),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
