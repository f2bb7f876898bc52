package errors

import "fmt"

// Kind classifies a domain error. Every error surfaced by the engine's
// services is one of these; callers branch on the kind, not the message.
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidOperation
	KindConflict
	KindNotConfigured
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindConflict:
		return "conflict"
	case KindNotConfigured:
		return "not_configured"
	default:
		return "internal"
	}
}

// Error is the single error type crossing the service boundary.
type Error struct {
	Kind Kind
	Msg  string
	Err  error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound indicates a referenced user/match/preference does not exist.
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// InvalidOperation indicates the request itself is malformed or not
// allowed in the current state (self-swipe, empty message, inactive match).
func InvalidOperation(msg string) error {
	return &Error{Kind: KindInvalidOperation, Msg: msg}
}

// Conflict indicates the operation collides with existing state, e.g. a
// swipe against a user the actor is already matched with.
func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// NotConfigured indicates a prerequisite (the user's preference) is absent.
// Ranking without a preference fails closed with this.
func NotConfigured(msg string) error {
	return &Error{Kind: KindNotConfigured, Msg: msg}
}

// Internal wraps an unexpected infrastructure failure.
func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}
