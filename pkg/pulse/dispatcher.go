package pulse

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/pulse/pkg/pulse/event"
	"github.com/randalmurphal/pulse/pkg/pulse/observability"
	"github.com/randalmurphal/pulse/pkg/pulse/queue"
	"github.com/randalmurphal/pulse/pkg/pulse/record"
	"github.com/randalmurphal/pulse/pkg/pulse/registry"
)

// Dispatcher coordinates one queue and one registry. Construct it at the
// application's composition root with New; there is no package-level
// singleton.
//
// Any number of goroutines may Publish concurrently. Exactly one goroutine
// owns the cycle loop and calls SetFrame and ProcessEvents.
type Dispatcher struct {
	queue    *queue.Queue
	registry *registry.Registry
	cfg      dispatcherConfig

	frame atomic.Uint64

	published   atomic.Uint64
	processed   atomic.Uint64
	cycles      atomic.Uint64
	totalProcNs atomic.Int64
	lastCycleNs atomic.Int64
}

// New creates a Dispatcher with the given options.
func New(opts ...Option) *Dispatcher {
	cfg := defaultDispatcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	d := &Dispatcher{
		queue: queue.New(cfg.queueCapacity),
		cfg:   cfg,
	}
	d.registry = registry.New(d.onListenerPanic)
	return d
}

// Publish stamps evt with the current frame and places it in the queue,
// routed by the event's own priority. A publish beyond the queue's
// capacity ceiling is rejected, counted, and reported through the drop
// hook and metrics. It is not an error, because publishers must never be
// blocked by consumer backpressure.
func (d *Dispatcher) Publish(evt event.Event) error {
	return d.publish(evt, false)
}

// PublishHigh places evt in the priority lane regardless of the event's
// own priority. The explicit hint wins over priority-derived routing.
func (d *Dispatcher) PublishHigh(evt event.Event) error {
	return d.publish(evt, true)
}

func (d *Dispatcher) publish(evt event.Event, high bool) error {
	if evt == nil {
		return ErrNilEvent
	}

	evt.SetFrame(d.frame.Load())

	var accepted bool
	if high {
		accepted = d.queue.PushHigh(evt)
	} else {
		accepted = d.queue.Push(evt)
	}

	kind := string(evt.Kind())
	if !accepted {
		d.cfg.metrics.RecordDrop(context.Background(), kind)
		observability.LogDrop(d.cfg.logger, kind, evt.ID(), d.queue.Len())
		if d.cfg.onDrop != nil {
			d.cfg.onDrop(evt)
		}
		return nil
	}

	d.published.Add(1)
	d.cfg.metrics.RecordPublish(context.Background(), kind)
	observability.LogPublish(d.cfg.logger, kind, evt.ID(), evt.Frame(), evt.Priority().String())
	return nil
}

// Subscribe registers handler for events of the given kind and returns a
// disconnect-capable handle.
func (d *Dispatcher) Subscribe(kind event.Kind, handler event.Handler, opts ...SubscribeOption) (*Handle, error) {
	if kind == "" {
		return nil, ErrEmptyKind
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	cfg := subscribeConfig{priority: event.PriorityNormal}
	for _, opt := range opts {
		opt(&cfg)
	}

	reg := d.registry.Register(kind, handler, cfg.priority)
	return &Handle{reg: reg, registry: d.registry}, nil
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (d *Dispatcher) SubscribeFunc(kind event.Kind, fn func(event.Event), opts ...SubscribeOption) (*Handle, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return d.Subscribe(kind, event.HandlerFunc(fn), opts...)
}

// On subscribes a typed handler for events of the given kind. Events whose
// payload type does not match are ignored by the handler.
func On[T any](d *Dispatcher, kind event.Kind, fn func(evt *event.Base[T]), opts ...SubscribeOption) (*Handle, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return d.Subscribe(kind, event.TypedHandler(fn), opts...)
}

// ProcessEvents drains up to the per-frame budget and dispatches the
// drained events in drain order: priority lane first, then FIFO. Excess
// events remain queued for the next cycle. Returns the number of events
// dispatched.
//
// ProcessEvents is single-consumer and run-to-completion: handlers run
// synchronously on the calling goroutine and must not call ProcessEvents
// reentrantly. Events published by handlers are queued for a later cycle
// because the drain has already completed.
func (d *Dispatcher) ProcessEvents() int {
	return d.processBudget(d.cfg.maxEventsPerFrame)
}

// ProcessSingleEvent dispatches at most one queued event. Returns the
// number of events dispatched (0 or 1).
func (d *Dispatcher) ProcessSingleEvent() int {
	return d.processBudget(1)
}

func (d *Dispatcher) processBudget(budget int) int {
	frame := d.frame.Load()
	ctx, span := d.cfg.spans.StartCycleSpan(context.Background(), frame)
	done := observability.TimedOperation()

	events := d.queue.Drain(budget)
	for _, evt := range events {
		dispatchCtx, dispatchSpan := d.cfg.spans.StartDispatchSpan(ctx, string(evt.Kind()), evt.ID())
		d.registry.Dispatch(evt)
		d.processed.Add(1)
		d.record(dispatchCtx, evt)
		d.cfg.spans.EndSpanWithError(dispatchSpan, nil)
	}

	duration := done()
	d.lastCycleNs.Store(int64(duration))
	d.totalProcNs.Add(int64(duration))
	cycle := d.cycles.Add(1)

	d.cfg.metrics.RecordCycle(ctx, len(events), duration)
	observability.LogCycle(d.cfg.logger, frame, len(events), d.queue.Len(), duration)
	d.cfg.spans.EndSpanWithError(span, nil)

	if d.cfg.cleanupInterval > 0 && cycle%d.cfg.cleanupInterval == 0 {
		removed := d.registry.CleanupInvalid()
		observability.LogCleanup(d.cfg.logger, removed)
	}

	return len(events)
}

// record taps the configured recorder, best-effort: a recorder failure is
// logged and never interrupts dispatch.
func (d *Dispatcher) record(ctx context.Context, evt event.Event) {
	if d.cfg.recorder == nil {
		return
	}

	payload, _ := json.Marshal(evt.Data())
	err := d.cfg.recorder.Record(ctx, record.Entry{
		EventID:   evt.ID(),
		Kind:      string(evt.Kind()),
		Priority:  uint8(evt.Priority()),
		Frame:     evt.Frame(),
		Timestamp: evt.Timestamp(),
		Handled:   evt.Handled(),
		Payload:   payload,
	})
	if err != nil && d.cfg.logger != nil {
		d.cfg.logger.Warn("dispatch record failed",
			"kind", string(evt.Kind()),
			"event_id", evt.ID(),
			"error", err.Error(),
		)
	}
}

// onListenerPanic is the registry panic hook.
func (d *Dispatcher) onListenerPanic(evt event.Event, reg *registry.Registration, recovered any) {
	kind := string(evt.Kind())
	d.cfg.metrics.RecordListenerPanic(context.Background(), kind)
	observability.LogListenerPanic(d.cfg.logger, kind, reg.ID(), recovered)
}

// SetFrame sets the current cycle number. The owning loop advances it
// once per tick; dispatch never self-advances it.
func (d *Dispatcher) SetFrame(frame uint64) {
	d.frame.Store(frame)
}

// Frame returns the current cycle number.
func (d *Dispatcher) Frame() uint64 {
	return d.frame.Load()
}

// Stats is a read-only snapshot of dispatcher counters.
type Stats struct {
	// EventsPublished counts publishes accepted into the queue.
	EventsPublished uint64

	// EventsDropped counts publishes rejected at queue capacity.
	EventsDropped uint64

	// EventsProcessed counts events dispatched to listeners.
	EventsProcessed uint64

	// EventsQueued is the number of events currently pending.
	EventsQueued int

	// ActiveListeners is the number of connected listeners.
	ActiveListeners int

	// Cycles counts completed ProcessEvents calls.
	Cycles uint64

	// ListenerPanics counts recovered listener panics.
	ListenerPanics uint64

	// AvgCycleDuration is the mean ProcessEvents duration.
	AvgCycleDuration time.Duration

	// LastCycleDuration is the duration of the most recent cycle.
	LastCycleDuration time.Duration
}

// Stats returns a snapshot of the dispatcher's counters. All counters are
// maintained with lock-free atomics, so Stats is safe to call from any
// goroutine at any time.
func (d *Dispatcher) Stats() Stats {
	cycles := d.cycles.Load()
	var avg time.Duration
	if cycles > 0 {
		avg = time.Duration(d.totalProcNs.Load() / int64(cycles))
	}

	return Stats{
		EventsPublished:   d.published.Load(),
		EventsDropped:     d.queue.Dropped(),
		EventsProcessed:   d.processed.Load(),
		EventsQueued:      d.queue.Len(),
		ActiveListeners:   d.registry.Total(),
		Cycles:            cycles,
		ListenerPanics:    d.registry.Panics(),
		AvgCycleDuration:  avg,
		LastCycleDuration: time.Duration(d.lastCycleNs.Load()),
	}
}

// ResetStats zeroes the cycle timing counters. Queue drop and registry
// panic counters are monotonic and not reset.
func (d *Dispatcher) ResetStats() {
	d.cycles.Store(0)
	d.totalProcNs.Store(0)
	d.lastCycleNs.Store(0)
}

// QueueLen returns the number of currently queued events.
func (d *Dispatcher) QueueLen() int {
	return d.queue.Len()
}

// ListenerCount returns the number of connected listeners for kind.
func (d *Dispatcher) ListenerCount(kind event.Kind) int {
	return d.registry.Count(kind)
}

// Kinds returns every kind with at least one connected listener.
func (d *Dispatcher) Kinds() []event.Kind {
	return d.registry.Kinds()
}

// Clear discards all pending events without dispatching them.
func (d *Dispatcher) Clear() {
	d.queue.Clear()
}
