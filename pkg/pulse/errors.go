package pulse

import "errors"

// Sentinel errors for dispatcher operations. Queue capacity exhaustion is
// deliberately not among them: a rejected publish is counted and observable
// through Stats, never surfaced as an error to the publisher.
var (
	// ErrNilEvent indicates Publish was called with a nil event.
	ErrNilEvent = errors.New("nil event")

	// ErrNilHandler indicates Subscribe was called with a nil handler.
	ErrNilHandler = errors.New("nil handler")

	// ErrEmptyKind indicates Subscribe was called with an empty kind.
	ErrEmptyKind = errors.New("empty event kind")
)
