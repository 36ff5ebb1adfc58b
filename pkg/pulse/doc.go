/*
Package pulse provides an in-process, frame-cycle event dispatch core.

# Overview

pulse decouples event producers from consumers inside a single process.
Producers publish typed events from any goroutine; listeners subscribe by
kind with an explicit priority; the owning loop calls ProcessEvents once
per logical cycle, which drains the queue and invokes listeners
synchronously under a per-cycle event budget.

The library is built around four pieces:

  - event: the occurrence model (identity, timestamp, origin frame,
    priority, handled flag, typed payload)
  - queue: a thread-safe dual-lane holding area (priority-ordered lane plus
    strict FIFO lane) with a capacity ceiling
  - registry: a kind-indexed, priority-sorted listener table with lazy
    removal of disconnected listeners
  - Dispatcher: the coordinating façade owning one queue and one registry

# Basic Usage

Construct a dispatcher at your composition root, subscribe, publish, and
process once per tick:

	type KeyPress struct {
	    Code int
	}

	func main() {
	    d := pulse.New(pulse.WithMaxEventsPerFrame(256))

	    handle, err := pulse.On(d, "input.key.pressed", func(evt *event.Base[KeyPress]) {
	        fmt.Println("key:", evt.Payload.Code)
	    }, pulse.WithPriority(event.PriorityHigh))
	    if err != nil {
	        log.Fatal(err)
	    }
	    defer handle.Disconnect()

	    d.Publish(event.New("input.key.pressed", KeyPress{Code: 42}))

	    for frame := uint64(1); ; frame++ {
	        d.SetFrame(frame)
	        d.ProcessEvents()
	    }
	}

# Ordering

Within one ProcessEvents call the priority lane dispatches before the FIFO
lane; within one event, listeners run strictly in descending priority
order with stable ties on subscription order; across cycles, FIFO order is
preserved for same-lane events.

# Backpressure

ProcessEvents dispatches at most the configured per-frame budget; excess
events stay queued for the next cycle. Publishing beyond the queue's
capacity ceiling rejects the event and increments the drop counter; the
publisher is never blocked.

# Concurrency

Publish is safe from any goroutine. Exactly one goroutine may call
ProcessEvents; handlers run synchronously on that goroutine and must not
call ProcessEvents reentrantly. Publishing from inside a handler is safe
and queues the event for a later cycle.

# Listener Lifecycle

Subscribe returns a Handle whose Disconnect is idempotent and takes effect
for every dispatch that starts after it returns. The listener subpackage
layers naming, invocation counters, one-shot and time-boxed variants,
conditional predicates, and named groups on top of raw handles.

# Observability

Structured logging (slog), OpenTelemetry metrics and spans, and a dispatch
recorder are all opt-in via options; the defaults are no-ops.
*/
package pulse
