package queue

import (
	"sync"
	"testing"

	"github.com/randalmurphal/pulse/pkg/pulse/event"
)

func kinds(events []event.Event) []event.Kind {
	out := make([]event.Kind, len(events))
	for i, evt := range events {
		out[i] = evt.Kind()
	}
	return out
}

func TestFIFOOrder(t *testing.T) {
	q := New(10)

	q.Push(event.New("a", 1))
	q.Push(event.New("b", 2))
	q.Push(event.New("c", 3))

	got := kinds(q.Drain(0))
	want := []event.Kind{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPriorityLaneDrainsFirst(t *testing.T) {
	q := New(10)

	q.Push(event.New("normal", 0))
	q.Push(event.New("high", 0, event.WithPriority(event.PriorityHigh)))

	got := kinds(q.Drain(0))
	if got[0] != "high" || got[1] != "normal" {
		t.Fatalf("expected priority lane first, got %v", got)
	}
}

func TestPriorityOrderWithinLane(t *testing.T) {
	q := New(10)

	q.Push(event.New("high", 0, event.WithPriority(event.PriorityHigh)))
	q.Push(event.New("highest", 0, event.WithPriority(event.PriorityHighest)))
	q.Push(event.New("high2", 0, event.WithPriority(event.PriorityHigh)))

	got := kinds(q.Drain(0))
	want := []event.Kind{"highest", "high", "high2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPushHighHintWins(t *testing.T) {
	q := New(10)

	// A normal-priority event pushed with the explicit hint must still
	// land in the priority lane.
	q.Push(event.New("fifo", 0))
	q.PushHigh(event.New("hinted", 0))

	got := kinds(q.Drain(0))
	if got[0] != "hinted" {
		t.Fatalf("expected explicitly hinted event first, got %v", got)
	}
}

func TestCapacityRejects(t *testing.T) {
	q := New(3)

	for i := 0; i < 5; i++ {
		q.Push(event.New("tick", i))
	}

	if q.Len() != 3 {
		t.Errorf("expected queue length 3 at capacity, got %d", q.Len())
	}
	if q.Dropped() != 2 {
		t.Errorf("expected 2 drops, got %d", q.Dropped())
	}

	// The surviving events are the first three, arrival order intact.
	got := q.Drain(0)
	for i, evt := range got {
		if evt.(*event.Base[int]).Payload != i {
			t.Fatalf("expected arrival order preserved, got payload %d at %d",
				evt.(*event.Base[int]).Payload, i)
		}
	}
}

func TestCapacitySpansBothLanes(t *testing.T) {
	q := New(2)

	q.Push(event.New("a", 0))
	q.PushHigh(event.New("b", 0))

	if ok := q.PushHigh(event.New("c", 0)); ok {
		t.Error("expected priority push beyond capacity to be rejected")
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 drop, got %d", q.Dropped())
	}
}

func TestDrainBudget(t *testing.T) {
	q := New(20)

	for i := 0; i < 10; i++ {
		q.Push(event.New("tick", i))
	}

	first := q.Drain(5)
	if len(first) != 5 {
		t.Fatalf("expected 5 events in first drain, got %d", len(first))
	}
	if q.Len() != 5 {
		t.Fatalf("expected 5 events remaining, got %d", q.Len())
	}

	second := q.Drain(5)
	if len(second) != 5 {
		t.Fatalf("expected 5 events in second drain, got %d", len(second))
	}

	// FIFO order preserved across the two drains.
	for i, evt := range append(first, second...) {
		if evt.(*event.Base[int]).Payload != i {
			t.Fatalf("expected payload %d at position %d, got %d",
				i, i, evt.(*event.Base[int]).Payload)
		}
	}
}

func TestDrainBudgetPriorityFirst(t *testing.T) {
	q := New(20)

	q.Push(event.New("fifo1", 0))
	q.Push(event.New("pri", 0, event.WithPriority(event.PriorityHigh)))
	q.Push(event.New("fifo2", 0))

	got := kinds(q.Drain(2))
	if got[0] != "pri" || got[1] != "fifo1" {
		t.Fatalf("expected [pri fifo1], got %v", got)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 event remaining, got %d", q.Len())
	}
}

func TestDrainEmpty(t *testing.T) {
	q := New(10)
	if got := q.Drain(0); got != nil {
		t.Errorf("expected nil from draining empty queue, got %v", got)
	}
}

func TestClear(t *testing.T) {
	q := New(10)
	q.Push(event.New("a", 0))
	q.PushHigh(event.New("b", 0))

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("expected empty queue after Clear, got %d", q.Len())
	}
}

func TestConcurrentPush(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 200

	q := New(goroutines * perGoroutine)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				q.Push(event.New("tick", i))
			}
		}()
	}
	wg.Wait()

	if q.Len() != goroutines*perGoroutine {
		t.Errorf("expected %d queued events, got %d", goroutines*perGoroutine, q.Len())
	}
	if q.Dropped() != 0 {
		t.Errorf("expected no drops, got %d", q.Dropped())
	}
}
