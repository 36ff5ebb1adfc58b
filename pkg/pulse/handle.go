package pulse

import (
	"github.com/randalmurphal/pulse/pkg/pulse/event"
	"github.com/randalmurphal/pulse/pkg/pulse/registry"
)

// Handle is the disconnect-capable reference returned by Subscribe.
//
// Disconnect clears the registration's validity flag, which is re-checked
// immediately before every invocation: once Disconnect returns, no
// ProcessEvents call that starts afterwards will invoke the listener. An
// invocation already in flight on the dispatching goroutine cannot be
// interrupted.
type Handle struct {
	reg      *registry.Registration
	registry *registry.Registry
}

// Disconnect permanently disconnects the listener. Safe to call more than
// once; the second and later calls are no-ops.
func (h *Handle) Disconnect() {
	h.reg.Invalidate()
}

// Connected reports whether the listener is still registered.
func (h *Handle) Connected() bool {
	return h.reg.Valid()
}

// Enable resumes delivery after Disable. The listener keeps its place in
// the priority order while disabled.
func (h *Handle) Enable() {
	h.reg.SetEnabled(true)
}

// Disable pauses delivery without disconnecting.
func (h *Handle) Disable() {
	h.reg.SetEnabled(false)
}

// Enabled reports whether the listener currently receives events.
func (h *Handle) Enabled() bool {
	return h.reg.Enabled()
}

// SetPriority changes the listener's priority for future dispatches.
func (h *Handle) SetPriority(p event.Priority) {
	h.registry.SetPriority(h.reg, p)
}

// Priority returns the listener's current priority.
func (h *Handle) Priority() event.Priority {
	return h.reg.Priority()
}

// ID returns the unique subscription identifier.
func (h *Handle) ID() string {
	return h.reg.ID()
}

// Kind returns the subscribed event kind.
func (h *Handle) Kind() event.Kind {
	return h.reg.Kind()
}
