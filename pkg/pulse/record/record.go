// Package record provides the optional dispatch tap: a Recorder receives
// every event the dispatcher finishes dispatching, for offline inspection.
//
// The dispatch core itself persists nothing; recording is purely an
// observer concern wired in with pulse.WithRecorder. Implementations must
// be safe for use from the single dispatching goroutine and from
// concurrent readers.
package record

import (
	"context"
	"errors"
	"time"
)

// Entry is one recorded dispatch.
type Entry struct {
	EventID   uint64    `json:"event_id"`
	Kind      string    `json:"kind"`
	Priority  uint8     `json:"priority"`
	Frame     uint64    `json:"frame"`
	Timestamp time.Time `json:"timestamp"`
	Handled   bool      `json:"handled"`
	Payload   []byte    `json:"payload,omitempty"`
}

// Recorder stores dispatched events.
type Recorder interface {
	// Record stores one dispatch. Called after the last listener for the
	// event has returned.
	Record(ctx context.Context, entry Entry) error

	// List returns recorded entries for a kind, oldest first, up to limit.
	// An empty kind matches all entries. limit <= 0 means no limit.
	List(ctx context.Context, kind string, limit int) ([]Entry, error)

	// Count returns the number of recorded entries.
	Count(ctx context.Context) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for recorder operations.
var (
	// ErrRecorderClosed indicates the recorder has been closed.
	ErrRecorderClosed = errors.New("recorder closed")
)
