package listener

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

// Manager creates and tracks Managed listeners on one dispatcher.
// It is safe for concurrent use.
type Manager struct {
	dispatcher *pulse.Dispatcher

	mu        sync.Mutex
	listeners []*Managed
	groups    map[string]*Group

	totalInvocations atomic.Uint64
	nameSeq          atomic.Uint64
}

// NewManager creates a Manager over the given dispatcher.
func NewManager(d *pulse.Dispatcher) *Manager {
	return &Manager{
		dispatcher: d,
		groups:     make(map[string]*Group),
	}
}

// Subscribe registers handler for kind wrapped in lifecycle tracking.
func (m *Manager) Subscribe(kind event.Kind, handler event.Handler, cfg Config) (*Managed, error) {
	return m.subscribe(kind, handler, nil, cfg)
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (m *Manager) SubscribeFunc(kind event.Kind, fn func(event.Event), cfg Config) (*Managed, error) {
	if fn == nil {
		return nil, pulse.ErrNilHandler
	}
	return m.subscribe(kind, event.HandlerFunc(fn), nil, cfg)
}

// SubscribeConditional registers handler gated by predicate: the handler
// runs only for events where predicate returns true. Skipped events do not
// count as invocations.
func (m *Manager) SubscribeConditional(kind event.Kind, handler event.Handler, predicate func(event.Event) bool, cfg Config) (*Managed, error) {
	return m.subscribe(kind, handler, predicate, cfg)
}

// SubscribeOnce registers a one-shot listener: the handler runs for
// exactly one event, then the listener self-disconnects, even if several
// matching events were queued before the next cycle.
func (m *Manager) SubscribeOnce(kind event.Kind, handler event.Handler, cfg Config) (*Managed, error) {
	cfg.MaxInvocations = 1
	return m.subscribe(kind, handler, nil, cfg)
}

// SubscribeTimed registers a listener that expires ttl after creation.
// Invocations past the deadline are silently ignored; the wrapper reports
// Expired() == true and is removed by the next CleanupExpired pass.
func (m *Manager) SubscribeTimed(kind event.Kind, handler event.Handler, ttl time.Duration, cfg Config) (*Managed, error) {
	cfg.TTL = ttl
	return m.subscribe(kind, handler, nil, cfg)
}

// OnConditional subscribes a typed conditional listener. The predicate and
// handler both see the typed event.
func OnConditional[T any](m *Manager, kind event.Kind, fn func(evt *event.Base[T]), predicate func(evt *event.Base[T]) bool, cfg Config) (*Managed, error) {
	if fn == nil {
		return nil, pulse.ErrNilHandler
	}
	handler := event.TypedHandler(fn)
	var pred func(event.Event) bool
	if predicate != nil {
		pred = func(evt event.Event) bool {
			typed, ok := evt.(*event.Base[T])
			return ok && predicate(typed)
		}
	}
	return m.subscribe(kind, handler, pred, cfg)
}

func (m *Manager) subscribe(kind event.Kind, handler event.Handler, predicate func(event.Event) bool, cfg Config) (*Managed, error) {
	if handler == nil {
		return nil, pulse.ErrNilHandler
	}

	md := &Managed{
		name:           cfg.Name,
		group:          cfg.Group,
		createdAt:      time.Now(),
		maxInvocations: cfg.MaxInvocations,
	}
	if cfg.TTL > 0 {
		md.expiresAt = md.createdAt.Add(cfg.TTL)
	}
	if md.name == "" {
		md.name = fmt.Sprintf("%s#%d", kind, m.nameSeq.Add(1))
	}

	wrapped := event.HandlerFunc(func(evt event.Event) {
		if md.Expired() {
			return
		}
		if md.maxInvocations > 0 && md.invocations.Load() >= md.maxInvocations {
			md.Disconnect()
			return
		}
		if predicate != nil && !predicate(evt) {
			return
		}

		handler.Handle(evt)

		md.lastInvokedNs.Store(time.Now().UnixNano())
		m.totalInvocations.Add(1)
		if n := md.invocations.Add(1); md.maxInvocations > 0 && n >= md.maxInvocations {
			md.Disconnect()
		}
	})

	handle, err := m.dispatcher.Subscribe(kind, wrapped, pulse.WithPriority(cfg.Priority))
	if err != nil {
		return nil, err
	}
	md.handle = handle

	m.mu.Lock()
	m.listeners = append(m.listeners, md)
	if cfg.Group != "" {
		m.groupLocked(cfg.Group).add(md)
	}
	m.mu.Unlock()

	return md, nil
}

// Group returns the named group, creating it if needed.
func (m *Manager) Group(name string) *Group {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupLocked(name)
}

func (m *Manager) groupLocked(name string) *Group {
	g, ok := m.groups[name]
	if !ok {
		g = newGroup(name)
		m.groups[name] = g
	}
	return g
}

// RemoveGroup drops the named group after disconnecting its members.
func (m *Manager) RemoveGroup(name string) {
	m.mu.Lock()
	g, ok := m.groups[name]
	delete(m.groups, name)
	m.mu.Unlock()

	if ok {
		g.Disconnect()
	}
}

// GroupNames returns the names of all groups.
func (m *Manager) GroupNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.groups))
	for name := range m.groups {
		names = append(names, name)
	}
	return names
}

// DisconnectAll disconnects every listener created through this manager.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	listeners := make([]*Managed, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, md := range listeners {
		md.Disconnect()
	}
}

// CleanupExpired disconnects expired listeners and prunes disconnected
// ones from the manager's tracking list. Returns the number pruned.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.listeners[:0]
	pruned := 0
	for _, md := range m.listeners {
		if md.Expired() {
			md.Disconnect()
		}
		if md.Connected() {
			kept = append(kept, md)
		} else {
			pruned++
		}
	}
	m.listeners = kept
	return pruned
}

// ListenerNames returns the names of all tracked listeners.
func (m *Manager) ListenerNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.listeners))
	for _, md := range m.listeners {
		names = append(names, md.name)
	}
	return names
}

// Stats is a snapshot of manager-level counters.
type Stats struct {
	// TotalListeners is the number of tracked wrappers, connected or not.
	TotalListeners int

	// ActiveListeners is the number of connected, unexpired wrappers.
	ActiveListeners int

	// Groups is the number of named groups.
	Groups int

	// TotalInvocations counts handler runs across all tracked listeners.
	TotalInvocations uint64
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := 0
	for _, md := range m.listeners {
		if md.Connected() && !md.Expired() {
			active++
		}
	}

	return Stats{
		TotalListeners:   len(m.listeners),
		ActiveListeners:  active,
		Groups:           len(m.groups),
		TotalInvocations: m.totalInvocations.Load(),
	}
}
