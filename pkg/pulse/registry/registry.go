// Package registry maintains the kind-indexed listener table used by the
// dispatcher.
//
// Listeners for a kind are kept sorted descending by priority with a
// stable tie-break on registration order. Disconnecting clears a validity
// flag; invalid entries are skipped at dispatch and physically removed
// only by CleanupInvalid, which the dispatcher runs off the hot path.
package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

// Registration is one (kind, priority, handler) entry in the table.
//
// The validity flag is checked immediately before every invocation, never
// cached, so invalidating a registration guarantees zero invocations from
// any dispatch that starts after Invalidate returns.
type Registration struct {
	id      string
	kind    event.Kind
	handler event.Handler
	seq     uint64

	priority atomic.Uint32 // event.Priority widened for atomic access
	valid    atomic.Bool
	enabled  atomic.Bool
}

// ID returns the unique registration identifier.
func (r *Registration) ID() string {
	return r.id
}

// Kind returns the subscribed event kind.
func (r *Registration) Kind() event.Kind {
	return r.kind
}

// Priority returns the current listener priority.
func (r *Registration) Priority() event.Priority {
	return event.Priority(r.priority.Load())
}

// Valid reports whether the registration is still connected.
func (r *Registration) Valid() bool {
	return r.valid.Load()
}

// Invalidate disconnects the registration. Idempotent. The entry stays in
// the table, skipped at dispatch, until the next CleanupInvalid pass.
func (r *Registration) Invalidate() {
	r.valid.Store(false)
}

// Enabled reports whether the registration currently receives events.
func (r *Registration) Enabled() bool {
	return r.enabled.Load()
}

// SetEnabled toggles delivery without disconnecting. A disabled listener
// keeps its place in the priority order.
func (r *Registration) SetEnabled(enabled bool) {
	r.enabled.Store(enabled)
}

// PanicHandler is invoked when a listener panics during dispatch. The
// remaining listeners still run.
type PanicHandler func(evt event.Event, reg *Registration, recovered any)

// Registry is the type-indexed listener table. Dispatch takes a shared
// lock; registration, priority changes, and cleanup take an exclusive one.
type Registry struct {
	mu      sync.RWMutex
	byKind  map[event.Kind][]*Registration
	seq     uint64
	onPanic PanicHandler

	dispatched atomic.Uint64
	panics     atomic.Uint64
}

// New creates an empty registry. onPanic may be nil, in which case a
// listener panic is swallowed after being counted.
func New(onPanic PanicHandler) *Registry {
	return &Registry{
		byKind:  make(map[event.Kind][]*Registration),
		onPanic: onPanic,
	}
}

// Register adds a handler for kind at the given priority and returns the
// registration. The kind's list is re-sorted descending by priority;
// entries with equal priority keep registration order.
func (r *Registry) Register(kind event.Kind, handler event.Handler, priority event.Priority) *Registration {
	reg := &Registration{
		id:      uuid.New().String(),
		kind:    kind,
		handler: handler,
	}
	reg.priority.Store(uint32(priority))
	reg.valid.Store(true)
	reg.enabled.Store(true)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	reg.seq = r.seq

	r.byKind[kind] = append(r.byKind[kind], reg)
	sortByPriority(r.byKind[kind])
	return reg
}

// SetPriority changes a registration's priority and restores the sorted
// order of its kind's list.
func (r *Registry) SetPriority(reg *Registration, priority event.Priority) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg.priority.Store(uint32(priority))
	sortByPriority(r.byKind[reg.kind])
}

// Dispatch invokes every valid, enabled listener registered for the
// event's kind, in descending priority order. An event with no listeners
// is a no-op. Handlers run outside the registry lock; each invocation is
// guarded so one panicking listener cannot starve the rest.
func (r *Registry) Dispatch(evt event.Event) {
	r.mu.RLock()
	regs := r.byKind[evt.Kind()]
	if len(regs) == 0 {
		r.mu.RUnlock()
		return
	}
	// Snapshot so handlers can subscribe or disconnect freely.
	snapshot := make([]*Registration, len(regs))
	copy(snapshot, regs)
	r.mu.RUnlock()

	r.dispatched.Add(1)

	for _, reg := range snapshot {
		// Validity is read here, immediately before the call, so a
		// disconnect during this dispatch still suppresses later
		// invocations.
		if !reg.valid.Load() || !reg.enabled.Load() {
			continue
		}
		r.invoke(evt, reg)
	}
}

func (r *Registry) invoke(evt event.Event, reg *Registration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.panics.Add(1)
			if r.onPanic != nil {
				r.onPanic(evt, reg, rec)
			}
		}
	}()
	reg.handler.Handle(evt)
}

// CleanupInvalid compacts every kind's list, dropping invalidated entries
// and empty kinds. Returns the number of entries removed. Run this
// periodically, not per dispatch.
func (r *Registry) CleanupInvalid() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for kind, regs := range r.byKind {
		kept := regs[:0]
		for _, reg := range regs {
			if reg.valid.Load() {
				kept = append(kept, reg)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(r.byKind, kind)
		} else {
			r.byKind[kind] = kept
		}
	}
	return removed
}

// Count returns the number of valid listeners for kind.
func (r *Registry) Count(kind event.Kind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, reg := range r.byKind[kind] {
		if reg.valid.Load() {
			n++
		}
	}
	return n
}

// Total returns the number of valid listeners across all kinds.
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, regs := range r.byKind {
		for _, reg := range regs {
			if reg.valid.Load() {
				n++
			}
		}
	}
	return n
}

// Kinds returns every kind that has at least one valid listener.
func (r *Registry) Kinds() []event.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]event.Kind, 0, len(r.byKind))
	for kind, regs := range r.byKind {
		for _, reg := range regs {
			if reg.valid.Load() {
				kinds = append(kinds, kind)
				break
			}
		}
	}
	return kinds
}

// Dispatched returns the number of Dispatch calls that found listeners.
func (r *Registry) Dispatched() uint64 {
	return r.dispatched.Load()
}

// Panics returns the number of recovered listener panics.
func (r *Registry) Panics() uint64 {
	return r.panics.Load()
}

// Clear invalidates and removes every registration.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, regs := range r.byKind {
		for _, reg := range regs {
			reg.valid.Store(false)
		}
	}
	r.byKind = make(map[event.Kind][]*Registration)
}

// sortByPriority sorts descending by priority; equal priorities keep
// registration order.
func sortByPriority(regs []*Registration) {
	sort.Slice(regs, func(i, j int) bool {
		pi, pj := regs[i].priority.Load(), regs[j].priority.Load()
		if pi != pj {
			return pi > pj
		}
		return regs[i].seq < regs[j].seq
	})
}
