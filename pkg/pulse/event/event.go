// Package event defines the occurrence model for the pulse dispatch core.
//
// Every occurrence flowing through a dispatcher implements Event: a typed,
// timestamped value with a process-unique identity, an origin frame, a
// priority tier, and a mutable handled flag. Concrete kinds are built from
// the generic Base type:
//
//	type KeyPress struct {
//	    Code int
//	}
//
//	evt := event.New("input.key.pressed", KeyPress{Code: 42},
//	    event.WithPriority(event.PriorityHigh))
//
// Handlers receive events by interface and may downcast through
// TypedHandler for type-safe payload access.
package event

import (
	"sync/atomic"
	"time"
)

// Kind is the stable routing tag for an event type.
// Listeners subscribe by Kind; dispatch looks listeners up by Kind.
type Kind string

// Priority orders both queue draining and listener invocation.
// Higher values are processed first.
type Priority uint8

// Priority tiers. The gaps leave room for in-between tiers if a caller
// needs finer ordering.
const (
	PriorityLowest  Priority = 0
	PriorityLow     Priority = 64
	PriorityNormal  Priority = 128
	PriorityHigh    Priority = 192
	PriorityHighest Priority = 255
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	switch p {
	case PriorityLowest:
		return "lowest"
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityHighest:
		return "highest"
	default:
		return "custom"
	}
}

// Event is one discrete occurrence flowing through the dispatch core.
//
// An event is constructed by its publisher, owned by the queue while
// pending, handed to the dispatcher during a drain, and discarded after
// the last listener invocation returns. It never re-enters the queue.
type Event interface {
	// ID returns the process-lifetime-unique, monotonically increasing
	// event identifier.
	ID() uint64

	// Kind returns the routing tag.
	Kind() Kind

	// Timestamp returns the creation time.
	Timestamp() time.Time

	// Frame returns the cycle number the event was published in.
	Frame() uint64

	// SetFrame stamps the origin cycle. Called by the dispatcher at
	// publish time; not intended for listeners.
	SetFrame(frame uint64)

	// Priority returns the event's priority tier.
	Priority() Priority

	// Handled reports whether a listener has marked the event handled.
	// Later listeners may consult it to skip redundant work; dispatch
	// itself does not stop on a handled event.
	Handled() bool

	// MarkHandled sets the handled flag. Safe to call from any listener.
	MarkHandled()

	// Data returns the payload for type-erased consumers such as
	// recorders and loggers.
	Data() any
}

// idCounter backs ID generation for all events in the process.
var idCounter atomic.Uint64

// nextID returns the next event ID. IDs start at 1; zero is never issued,
// so a zero ID always means "no event".
func nextID() uint64 {
	return idCounter.Add(1)
}
