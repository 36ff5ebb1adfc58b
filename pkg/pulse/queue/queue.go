// Package queue provides the thread-safe holding area for published but
// not-yet-dispatched events.
//
// The queue keeps two internal lanes: a priority lane ordered by event
// priority (ties broken by arrival) and a strict FIFO lane. Draining
// returns the priority lane first, then the FIFO lane. A capacity ceiling
// spans both lanes; pushes beyond it are rejected and counted rather than
// blocking the publisher or evicting pending events.
package queue

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

// DefaultCapacity is the lane-combined ceiling used when New is given a
// non-positive capacity.
const DefaultCapacity = 10000

// entry pairs an event with its arrival sequence. The sequence breaks
// priority ties and preserves FIFO order across partial drains.
type entry struct {
	evt event.Event
	seq uint64
}

// Queue is a dual-lane, capacity-bounded event queue. It is safe for
// arbitrarily many concurrent pushers and one concurrent drainer.
type Queue struct {
	mu       sync.Mutex
	priority []entry // sorted: priority desc, arrival asc
	fifo     []entry // strict arrival order
	capacity int
	seq      uint64

	dropped atomic.Uint64
}

// New creates a queue with the given capacity ceiling.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{capacity: capacity}
}

// Push takes ownership of evt and places it by the event's own priority:
// above PriorityNormal routes to the priority lane, everything else to the
// FIFO lane. Returns false if the queue is at capacity; the event is then
// rejected and counted, never blocking the caller.
func (q *Queue) Push(evt event.Event) bool {
	return q.push(evt, evt.Priority() > event.PriorityNormal)
}

// PushHigh places evt in the priority lane regardless of the event's own
// priority. The explicit hint wins over priority-derived routing.
func (q *Queue) PushHigh(evt event.Event) bool {
	return q.push(evt, true)
}

func (q *Queue) push(evt event.Event, high bool) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.priority)+len(q.fifo) >= q.capacity {
		q.dropped.Add(1)
		return false
	}

	q.seq++
	e := entry{evt: evt, seq: q.seq}

	if !high {
		q.fifo = append(q.fifo, e)
		return true
	}

	// Insert keeping priority desc, arrival asc. Equal priorities sort
	// after existing entries, so arrival order is preserved.
	idx := sort.Search(len(q.priority), func(i int) bool {
		return q.priority[i].evt.Priority() < e.evt.Priority()
	})
	q.priority = append(q.priority, entry{})
	copy(q.priority[idx+1:], q.priority[idx:])
	q.priority[idx] = e
	return true
}

// Drain removes and returns up to max events in dispatch order: the
// priority lane fully first (highest priority, ties by arrival), then the
// FIFO lane in arrival order. max <= 0 drains everything. Events beyond
// max stay queued for the next drain.
//
// Drain holds the queue lock for the duration of the removal, so a push
// arriving mid-drain is either included or deferred to the next drain,
// never lost or duplicated.
func (q *Queue) Drain(max int) []event.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	total := len(q.priority) + len(q.fifo)
	if total == 0 {
		return nil
	}
	if max <= 0 || max > total {
		max = total
	}

	out := make([]event.Event, 0, max)

	n := min(max, len(q.priority))
	for i := 0; i < n; i++ {
		out = append(out, q.priority[i].evt)
	}
	q.priority = q.priority[n:]

	n = max - len(out)
	for i := 0; i < n; i++ {
		out = append(out, q.fifo[i].evt)
	}
	q.fifo = q.fifo[n:]

	return out
}

// Len returns the number of queued events across both lanes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.priority) + len(q.fifo)
}

// PriorityLen returns the number of events in the priority lane.
func (q *Queue) PriorityLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.priority)
}

// Dropped returns the number of pushes rejected at capacity.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}

// Capacity returns the configured ceiling.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Clear discards all queued events in both lanes.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.priority = nil
	q.fifo = nil
}
