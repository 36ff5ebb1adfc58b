package pulse

import (
	"log/slog"

	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/event"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/queue"
	"github.com/randalmurphal/pulse/pkg/pulse/record"
)

// Defaults applied by New when the corresponding option is absent.
const (
	// DefaultMaxEventsPerFrame bounds dispatch work per ProcessEvents call.
	DefaultMaxEventsPerFrame = 1000

	// DefaultCleanupInterval is the number of cycles between registry
	// compaction passes.
	DefaultCleanupInterval = 256
)

// dispatcherConfig holds construction-time dispatcher settings.
type dispatcherConfig struct {
	queueCapacity     int
	maxEventsPerFrame int
	cleanupInterval   uint64
	logger            *slog.Logger
	metrics           observability.MetricsRecorder
	spans             observability.SpanManager
	recorder          record.Recorder
	onDrop            func(event.Event)
}

func defaultDispatcherConfig() dispatcherConfig {
	return dispatcherConfig{
		queueCapacity:     queue.DefaultCapacity,
		maxEventsPerFrame: DefaultMaxEventsPerFrame,
		cleanupInterval:   DefaultCleanupInterval,
		metrics:           observability.NoopMetrics{},
		spans:             observability.NoopSpanManager{},
	}
}

// Option configures a Dispatcher.
type Option func(*dispatcherConfig)

// WithQueueCapacity sets the queue's capacity ceiling across both lanes.
// Default: queue.DefaultCapacity
func WithQueueCapacity(n int) Option {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.queueCapacity = n
		}
	}
}

// WithMaxEventsPerFrame bounds the number of events dispatched per
// ProcessEvents call. Excess events remain queued for the next cycle.
// Default: DefaultMaxEventsPerFrame
func WithMaxEventsPerFrame(n int) Option {
	return func(c *dispatcherConfig) {
		if n > 0 {
			c.maxEventsPerFrame = n
		}
	}
}

// WithCleanupInterval sets how many cycles pass between registry
// compaction passes. Zero disables periodic compaction; disconnected
// listeners are then only skipped, never removed.
// Default: DefaultCleanupInterval
func WithCleanupInterval(n uint64) Option {
	return func(c *dispatcherConfig) {
		c.cleanupInterval = n
	}
}

// WithLogger sets the structured logger. Nil (the default) disables
// dispatcher logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *dispatcherConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics recorder. Default: no-op.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *dispatcherConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithSpans sets the trace span manager. Default: no-op.
func WithSpans(s observability.SpanManager) Option {
	return func(c *dispatcherConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithRecorder sets the dispatch recorder tap. Every event is recorded
// after its last listener returns. Default: none.
func WithRecorder(r record.Recorder) Option {
	return func(c *dispatcherConfig) {
		c.recorder = r
	}
}

// WithDropHook sets a callback invoked for every publish rejected at queue
// capacity. The hook runs on the publisher's goroutine and must not block.
func WithDropHook(fn func(event.Event)) Option {
	return func(c *dispatcherConfig) {
		c.onDrop = fn
	}
}

// FromConfig maps well-known config keys to dispatcher options. Keys not
// present in cfg are left at their defaults.
func FromConfig(cfg config.Config) []Option {
	var opts []Option
	if cfg.Has(config.KeyQueueCapacity) {
		opts = append(opts, WithQueueCapacity(cfg.Int(config.KeyQueueCapacity, 0)))
	}
	if cfg.Has(config.KeyMaxEventsPerFrame) {
		opts = append(opts, WithMaxEventsPerFrame(cfg.Int(config.KeyMaxEventsPerFrame, 0)))
	}
	if cfg.Has(config.KeyCleanupInterval) {
		opts = append(opts, WithCleanupInterval(uint64(cfg.Int(config.KeyCleanupInterval, 0))))
	}
	return opts
}

// subscribeConfig holds per-subscription settings.
type subscribeConfig struct {
	priority event.Priority
}

// SubscribeOption configures a subscription.
type SubscribeOption func(*subscribeConfig)

// WithPriority sets the listener priority. Higher priorities are invoked
// first. Default: event.PriorityNormal
func WithPriority(p event.Priority) SubscribeOption {
	return func(c *subscribeConfig) {
		c.priority = p
	}
}
