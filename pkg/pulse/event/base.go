package event

import (
	"sync/atomic"
	"time"
)

// Base is the generic concrete event. T is the payload type.
//
// Base has pointer semantics: the handled flag is shared between every
// listener that sees the event, so events are always passed as *Base[T].
type Base[T any] struct {
	Payload T

	id        uint64
	kind      Kind
	timestamp time.Time
	frame     atomic.Uint64
	priority  Priority
	handled   atomic.Bool
}

// Option configures event construction.
type Option func(*options)

type options struct {
	priority  Priority
	timestamp time.Time
}

// WithPriority sets the event priority (default PriorityNormal).
func WithPriority(p Priority) Option {
	return func(o *options) {
		o.priority = p
	}
}

// WithTimestamp overrides the creation timestamp (default time.Now()).
// Useful when translating platform callbacks that carry their own clock.
func WithTimestamp(t time.Time) Option {
	return func(o *options) {
		o.timestamp = t
	}
}

// New creates an event of the given kind carrying payload.
func New[T any](kind Kind, payload T, opts ...Option) *Base[T] {
	o := options{priority: PriorityNormal}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timestamp.IsZero() {
		o.timestamp = time.Now()
	}

	return &Base[T]{
		Payload:   payload,
		id:        nextID(),
		kind:      kind,
		timestamp: o.timestamp,
		priority:  o.priority,
	}
}

// ID returns the unique event identifier.
func (e *Base[T]) ID() uint64 {
	return e.id
}

// Kind returns the routing tag.
func (e *Base[T]) Kind() Kind {
	return e.kind
}

// Timestamp returns the creation time.
func (e *Base[T]) Timestamp() time.Time {
	return e.timestamp
}

// Frame returns the origin cycle number.
func (e *Base[T]) Frame() uint64 {
	return e.frame.Load()
}

// SetFrame stamps the origin cycle number.
func (e *Base[T]) SetFrame(frame uint64) {
	e.frame.Store(frame)
}

// Priority returns the priority tier.
func (e *Base[T]) Priority() Priority {
	return e.priority
}

// Handled reports whether the event has been marked handled.
func (e *Base[T]) Handled() bool {
	return e.handled.Load()
}

// MarkHandled sets the handled flag.
func (e *Base[T]) MarkHandled() {
	e.handled.Store(true)
}

// Data returns the payload as any.
func (e *Base[T]) Data() any {
	return e.Payload
}
