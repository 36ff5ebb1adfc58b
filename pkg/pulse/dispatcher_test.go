package pulse_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/pulse/pkg/pulse"
	"github.com/randalmurphal/pulse/pkg/pulse/config"
	"github.com/randalmurphal/pulse/pkg/pulse/event"
	"github.com/randalmurphal/pulse/pkg/pulse/record"
)

func TestPingPriorityOrder(t *testing.T) {
	d := pulse.New()

	var order []string
	_, err := d.SubscribeFunc("ping", func(event.Event) {
		order = append(order, "A")
	}, pulse.WithPriority(event.PriorityHigh))
	require.NoError(t, err)

	_, err = d.SubscribeFunc("ping", func(event.Event) {
		order = append(order, "B")
	}, pulse.WithPriority(event.PriorityLow))
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	d.ProcessEvents()

	assert.Equal(t, []string{"A", "B"}, order)
}

func TestFrameBudget(t *testing.T) {
	d := pulse.New(pulse.WithMaxEventsPerFrame(5))

	dispatched := 0
	_, err := d.SubscribeFunc("tick", func(event.Event) {
		dispatched++
	})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Publish(event.New("tick", i)))
	}

	d.SetFrame(1)
	assert.Equal(t, 5, d.ProcessEvents())
	assert.Equal(t, 5, dispatched)
	assert.Equal(t, 5, d.QueueLen(), "excess events remain queued")

	d.SetFrame(2)
	assert.Equal(t, 5, d.ProcessEvents())
	assert.Equal(t, 10, dispatched, "no events lost across cycles")
	assert.Zero(t, d.QueueLen())
}

func TestDisconnectStopsDelivery(t *testing.T) {
	d := pulse.New()

	calls := 0
	handle, err := d.SubscribeFunc("ping", func(event.Event) {
		calls++
	})
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	d.ProcessEvents()
	assert.Equal(t, 1, calls)

	handle.Disconnect()
	assert.False(t, handle.Connected())

	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	d.ProcessEvents()
	assert.Equal(t, 1, calls, "no invocations after disconnect returns")

	// Double disconnect is a no-op.
	require.NotPanics(t, handle.Disconnect)
}

func TestPublishFromHandlerDeferredToNextCycle(t *testing.T) {
	d := pulse.New()

	var frames []uint64
	_, err := d.SubscribeFunc("chain", func(evt event.Event) {
		frames = append(frames, evt.Frame())
		if len(frames) == 1 {
			require.NoError(t, d.Publish(event.New("chain", struct{}{})))
		}
	})
	require.NoError(t, err)

	d.SetFrame(1)
	require.NoError(t, d.Publish(event.New("chain", struct{}{})))
	assert.Equal(t, 1, d.ProcessEvents(), "event published mid-dispatch waits for the next cycle")

	d.SetFrame(2)
	assert.Equal(t, 1, d.ProcessEvents())
	assert.Equal(t, []uint64{1, 2}, frames)
}

func TestDropCounting(t *testing.T) {
	d := pulse.New(pulse.WithQueueCapacity(3))

	var droppedEvents []event.Event
	d2 := pulse.New(
		pulse.WithQueueCapacity(3),
		pulse.WithDropHook(func(evt event.Event) {
			droppedEvents = append(droppedEvents, evt)
		}),
	)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Publish(event.New("tick", i)))
		require.NoError(t, d2.Publish(event.New("tick", i)))
	}

	stats := d.Stats()
	assert.Equal(t, uint64(3), stats.EventsPublished)
	assert.Equal(t, uint64(2), stats.EventsDropped, "drop counter matches the overflow exactly")
	assert.Equal(t, 3, stats.EventsQueued, "queue never exceeds capacity")

	assert.Len(t, droppedEvents, 2, "drop hook fires once per rejected publish")
}

func TestFrameStamping(t *testing.T) {
	d := pulse.New()

	var got uint64
	_, err := d.SubscribeFunc("ping", func(evt event.Event) {
		got = evt.Frame()
	})
	require.NoError(t, err)

	d.SetFrame(7)
	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	d.ProcessEvents()

	assert.Equal(t, uint64(7), got)
	assert.Equal(t, uint64(7), d.Frame())
}

func TestPublishHighJumpsQueue(t *testing.T) {
	d := pulse.New()

	var order []string
	_, err := d.SubscribeFunc("a", func(event.Event) { order = append(order, "a") })
	require.NoError(t, err)
	_, err = d.SubscribeFunc("b", func(event.Event) { order = append(order, "b") })
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("a", struct{}{})))
	// Normal priority, but the explicit hint routes it to the priority lane.
	require.NoError(t, d.PublishHigh(event.New("b", struct{}{})))

	d.ProcessEvents()
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestAutoRoutingByEventPriority(t *testing.T) {
	d := pulse.New()

	var order []string
	_, err := d.SubscribeFunc("a", func(event.Event) { order = append(order, "a") })
	require.NoError(t, err)
	_, err = d.SubscribeFunc("b", func(event.Event) { order = append(order, "b") })
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("a", struct{}{})))
	require.NoError(t, d.Publish(event.New("b", struct{}{}, event.WithPriority(event.PriorityHigh))))

	d.ProcessEvents()
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestHandledFlagVisibleDownstream(t *testing.T) {
	d := pulse.New()

	var sawHandled bool
	_, err := d.SubscribeFunc("ping", func(evt event.Event) {
		evt.MarkHandled()
	}, pulse.WithPriority(event.PriorityHigh))
	require.NoError(t, err)

	lowCalls := 0
	_, err = d.SubscribeFunc("ping", func(evt event.Event) {
		lowCalls++
		sawHandled = evt.Handled()
	}, pulse.WithPriority(event.PriorityLow))
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	d.ProcessEvents()

	assert.Equal(t, 1, lowCalls, "dispatch continues past a handled event")
	assert.True(t, sawHandled, "downstream listener observes the handled flag")
}

func TestListenerPanicContained(t *testing.T) {
	d := pulse.New()

	_, err := d.SubscribeFunc("ping", func(event.Event) {
		panic("bad listener")
	}, pulse.WithPriority(event.PriorityHigh))
	require.NoError(t, err)

	lowCalls := 0
	_, err = d.SubscribeFunc("ping", func(event.Event) {
		lowCalls++
	}, pulse.WithPriority(event.PriorityLow))
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("ping", struct{}{})))
	require.NotPanics(t, func() { d.ProcessEvents() })

	assert.Equal(t, 1, lowCalls)
	assert.Equal(t, uint64(1), d.Stats().ListenerPanics)
}

func TestOnTypedSubscription(t *testing.T) {
	type keyPress struct {
		Code int
	}

	d := pulse.New()

	var codes []int
	_, err := pulse.On(d, "input.key.pressed", func(evt *event.Base[keyPress]) {
		codes = append(codes, evt.Payload.Code)
	})
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("input.key.pressed", keyPress{Code: 42})))
	d.ProcessEvents()

	assert.Equal(t, []int{42}, codes)
}

func TestProcessSingleEvent(t *testing.T) {
	d := pulse.New()

	calls := 0
	_, err := d.SubscribeFunc("tick", func(event.Event) {
		calls++
	})
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("tick", 1)))
	require.NoError(t, d.Publish(event.New("tick", 2)))

	assert.Equal(t, 1, d.ProcessSingleEvent())
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, d.QueueLen())

	assert.Equal(t, 1, d.ProcessSingleEvent())
	assert.Equal(t, 0, d.ProcessSingleEvent())
}

func TestSubscribeValidation(t *testing.T) {
	d := pulse.New()

	_, err := d.Subscribe("", event.HandlerFunc(func(event.Event) {}))
	assert.ErrorIs(t, err, pulse.ErrEmptyKind)

	_, err = d.Subscribe("ping", nil)
	assert.ErrorIs(t, err, pulse.ErrNilHandler)

	_, err = d.SubscribeFunc("ping", nil)
	assert.ErrorIs(t, err, pulse.ErrNilHandler)

	assert.ErrorIs(t, d.Publish(nil), pulse.ErrNilEvent)
}

func TestStatsSnapshot(t *testing.T) {
	d := pulse.New()

	_, err := d.SubscribeFunc("tick", func(event.Event) {})
	require.NoError(t, err)
	_, err = d.SubscribeFunc("tock", func(event.Event) {})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, d.Publish(event.New("tick", i)))
	}
	d.ProcessEvents()

	stats := d.Stats()
	assert.Equal(t, uint64(3), stats.EventsPublished)
	assert.Equal(t, uint64(3), stats.EventsProcessed)
	assert.Zero(t, stats.EventsQueued)
	assert.Equal(t, 2, stats.ActiveListeners)
	assert.Equal(t, uint64(1), stats.Cycles)

	assert.Equal(t, 1, d.ListenerCount("tick"))
	assert.ElementsMatch(t, []event.Kind{"tick", "tock"}, d.Kinds())

	d.ResetStats()
	assert.Zero(t, d.Stats().Cycles)
}

func TestRecorderTap(t *testing.T) {
	store := record.NewMemoryStore()
	d := pulse.New(pulse.WithRecorder(store))

	_, err := d.SubscribeFunc("ping", func(evt event.Event) {
		evt.MarkHandled()
	})
	require.NoError(t, err)

	d.SetFrame(3)
	require.NoError(t, d.Publish(event.New("ping", map[string]int{"value": 9})))
	d.ProcessEvents()

	entries, err := store.List(context.Background(), "ping", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, "ping", entries[0].Kind)
	assert.Equal(t, uint64(3), entries[0].Frame)
	assert.True(t, entries[0].Handled, "recorded after the last listener returned")
	assert.JSONEq(t, `{"value":9}`, string(entries[0].Payload))
}

func TestCleanupIntervalCompactsRegistry(t *testing.T) {
	d := pulse.New(pulse.WithCleanupInterval(2))

	handle, err := d.SubscribeFunc("ping", func(event.Event) {})
	require.NoError(t, err)
	handle.Disconnect()

	// Invalid entries linger until the cleanup cycle runs.
	d.ProcessEvents()
	d.ProcessEvents()

	assert.Zero(t, d.Stats().ActiveListeners)
}

func TestFromConfig(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
queue_capacity: 3
max_events_per_frame: 1
cleanup_interval: 16
`))
	require.NoError(t, err)

	d := pulse.New(pulse.FromConfig(cfg)...)

	_, err = d.SubscribeFunc("tick", func(event.Event) {})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, d.Publish(event.New("tick", i)))
	}

	assert.Equal(t, uint64(2), d.Stats().EventsDropped, "queue_capacity applied")
	assert.Equal(t, 1, d.ProcessEvents(), "max_events_per_frame applied")
}

func TestClearDiscardsPending(t *testing.T) {
	d := pulse.New()

	calls := 0
	_, err := d.SubscribeFunc("tick", func(event.Event) { calls++ })
	require.NoError(t, err)

	require.NoError(t, d.Publish(event.New("tick", 1)))
	d.Clear()
	d.ProcessEvents()

	assert.Zero(t, calls)
}
