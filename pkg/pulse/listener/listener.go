// Package listener layers lifecycle management over raw pulse
// subscriptions: named, counted wrappers with optional invocation and
// time-to-live limits, conditional and one-shot variants, and named groups
// for batch operations.
//
// A Managed wrapper owns its subscription's lifetime. Close (or
// Disconnect) releases it explicitly:
//
//	m := listener.NewManager(d)
//	lis, err := m.SubscribeOnce("asset.loaded", handler, listener.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	defer lis.Close()
//
// Relying on garbage collection timing to disconnect a listener is unsafe;
// always call Close or Disconnect when the listener's scope ends.
package listener

import (
	"sync/atomic"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

// Config holds per-listener lifecycle settings.
type Config struct {
	// Name is the human-readable listener name. Auto-generated from the
	// kind when empty.
	Name string

	// Group is the named group the listener joins. Empty means no group.
	Group string

	// Priority is the listener priority. Note that the zero value is
	// event.PriorityLowest; start from DefaultConfig for PriorityNormal.
	Priority event.Priority

	// MaxInvocations self-disconnects the listener after this many
	// invocations. Zero means unlimited.
	MaxInvocations uint64

	// TTL expires the listener this long after creation. An expired
	// listener silently ignores further invocations and reports
	// Expired() == true. Zero means no deadline.
	TTL time.Duration
}

// DefaultConfig returns a Config with PriorityNormal and no limits.
func DefaultConfig() Config {
	return Config{Priority: event.PriorityNormal}
}

// Managed wraps a subscription with lifecycle state: creation and
// last-invocation times, an invocation counter, and the optional limits
// from Config.
type Managed struct {
	handle *pulse.Handle
	name   string
	group  string

	createdAt      time.Time
	expiresAt      time.Time // zero when no TTL
	maxInvocations uint64

	invocations   atomic.Uint64
	lastInvokedNs atomic.Int64
}

// Name returns the listener's name.
func (m *Managed) Name() string {
	return m.name
}

// Group returns the listener's group name, or "" if ungrouped.
func (m *Managed) Group() string {
	return m.group
}

// Kind returns the subscribed event kind.
func (m *Managed) Kind() event.Kind {
	return m.handle.Kind()
}

// Invocations returns how many times the handler has run.
func (m *Managed) Invocations() uint64 {
	return m.invocations.Load()
}

// CreatedAt returns the wrapper's creation time.
func (m *Managed) CreatedAt() time.Time {
	return m.createdAt
}

// LastInvoked returns the time of the most recent invocation, or the zero
// time if the handler has never run.
func (m *Managed) LastInvoked() time.Time {
	ns := m.lastInvokedNs.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Expired reports whether the listener's TTL has passed.
func (m *Managed) Expired() bool {
	return !m.expiresAt.IsZero() && time.Now().After(m.expiresAt)
}

// Connected reports whether the subscription is still registered.
func (m *Managed) Connected() bool {
	return m.handle.Connected()
}

// Disconnect releases the subscription. Idempotent.
func (m *Managed) Disconnect() {
	m.handle.Disconnect()
}

// Close releases the subscription. It exists so a Managed can be used
// with defer and io.Closer-shaped helpers; it never returns an error.
func (m *Managed) Close() error {
	m.Disconnect()
	return nil
}

// Enable resumes delivery after Disable.
func (m *Managed) Enable() {
	m.handle.Enable()
}

// Disable pauses delivery without disconnecting.
func (m *Managed) Disable() {
	m.handle.Disable()
}

// SetPriority changes the listener's priority for future dispatches.
func (m *Managed) SetPriority(p event.Priority) {
	m.handle.SetPriority(p)
}

// Priority returns the listener's current priority.
func (m *Managed) Priority() event.Priority {
	return m.handle.Priority()
}

// Unhandled is a predicate for conditional listeners that skips events
// already marked handled by an earlier, higher-priority listener.
func Unhandled(evt event.Event) bool {
	return !evt.Handled()
}
