package listener

import (
	"sync"

	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

// Group is a named collection of Managed listeners for batch operations.
// A group holds non-owning references: disconnecting a member elsewhere is
// fine, the group silently skips it. Expired members are likewise skipped.
type Group struct {
	name string

	mu      sync.Mutex
	members []*Managed
}

func newGroup(name string) *Group {
	return &Group{name: name}
}

// Name returns the group name.
func (g *Group) Name() string {
	return g.name
}

// add appends a member. Called by the Manager under its own lock.
func (g *Group) add(md *Managed) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members = append(g.members, md)
}

// live returns the connected, unexpired members, pruning the rest.
func (g *Group) live() []*Managed {
	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.members[:0]
	for _, md := range g.members {
		if md.Connected() && !md.Expired() {
			kept = append(kept, md)
		}
	}
	g.members = kept

	out := make([]*Managed, len(kept))
	copy(out, kept)
	return out
}

// Size returns the number of connected, unexpired members.
func (g *Group) Size() int {
	return len(g.live())
}

// Empty reports whether the group has no live members.
func (g *Group) Empty() bool {
	return g.Size() == 0
}

// Disconnect disconnects every live member.
func (g *Group) Disconnect() {
	for _, md := range g.live() {
		md.Disconnect()
	}
}

// SetEnabled toggles delivery for every live member.
func (g *Group) SetEnabled(enabled bool) {
	for _, md := range g.live() {
		if enabled {
			md.Enable()
		} else {
			md.Disable()
		}
	}
}

// SetPriority changes the priority of every live member.
func (g *Group) SetPriority(p event.Priority) {
	for _, md := range g.live() {
		md.SetPriority(p)
	}
}

// TotalInvocations sums the invocation counters of the live members.
func (g *Group) TotalInvocations() uint64 {
	var total uint64
	for _, md := range g.live() {
		total += md.Invocations()
	}
	return total
}

// Names returns the names of the live members.
func (g *Group) Names() []string {
	live := g.live()
	names := make([]string, 0, len(live))
	for _, md := range live {
		names = append(names, md.Name())
	}
	return names
}
