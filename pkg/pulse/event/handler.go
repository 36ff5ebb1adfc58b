package event

// Handler processes one event. Handlers are synchronous: the dispatcher
// waits for Handle to return before invoking the next listener. A handler
// must not call ProcessEvents on the dispatcher that invoked it; publishing
// new events is safe and queues them for a later cycle.
type Handler interface {
	Handle(evt Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(evt Event)

// Handle implements Handler.
func (f HandlerFunc) Handle(evt Event) {
	f(evt)
}

// TypedHandler wraps a function over a concrete payload type. Events whose
// dynamic type is not *Base[T] are ignored, so a mis-routed event can never
// panic a listener. This is the stored-function-plus-type-tag form of
// dynamic dispatch: the Kind routes, the type assertion guards.
func TypedHandler[T any](fn func(evt *Base[T])) Handler {
	return HandlerFunc(func(evt Event) {
		if typed, ok := evt.(*Base[T]); ok {
			fn(typed)
		}
	})
}
