// Package bfioerr defines the error kinds shared by every bfio component.
package bfioerr

import "fmt"

// Kind identifies the class of failure behind an [Error], independent of the
// human-readable message attached to it.
type Kind string

const (
	// ArgumentInvalid means a caller passed a null, out-of-range, or
	// otherwise unsupported parameter.
	ArgumentInvalid Kind = "argument invalid"
	// StateInvalid means the operation doesn't make sense given the current
	// state of the object, e.g. reopening a stream that can't reopen, or
	// calling a backend operation that has no implementation.
	StateInvalid Kind = "state invalid"
	// ResourceExhausted means an allocation failed.
	ResourceExhausted Kind = "resource exhausted"
	// IoOpen means a backend failed to open.
	IoOpen Kind = "open failed"
	// IoClose means a backend failed to close.
	IoClose Kind = "close failed"
	// IoRead means a backend read failed.
	IoRead Kind = "read failed"
	// IoWrite means a backend write failed.
	IoWrite Kind = "write failed"
	// IoSeek means a backend seek failed.
	IoSeek Kind = "seek failed"
	// NotFound means a path or resource is absent. Used internally by
	// Exists(); not normally surfaced to callers.
	NotFound Kind = "not found"
	// PermissionDenied means access was denied. Used internally by Exists().
	PermissionDenied Kind = "permission denied"
	// Conversion means a path-encoding conversion failed at the boundary.
	Conversion Kind = "conversion failed"
)

// Error is a kind-tagged error with an optional wrapped cause, in the style
// of disko's errors.DiskoError / errors.customDriverError pair, collapsed
// into a single type.
type Error struct {
	Kind    Kind
	message string
	cause   error
}

// New creates an Error of the given kind with the kind's own description as
// the message.
func New(kind Kind) Error {
	return Error{Kind: kind, message: string(kind)}
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.message != "" {
		return e.message
	}
	return string(e.Kind)
}

// WithMessage returns a copy of e whose message is "<kind>: <message>".
func (e Error) WithMessage(message string) Error {
	return Error{
		Kind:    e.Kind,
		message: fmt.Sprintf("%s: %s", e.Kind, message),
		cause:   e.cause,
	}
}

// WithMessagef is WithMessage with fmt.Sprintf-style formatting.
func (e Error) WithMessagef(format string, args ...any) Error {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Wrap returns a copy of e that chains to cause via Unwrap.
func (e Error) Wrap(cause error) Error {
	msg := string(e.Kind)
	if e.message != "" {
		msg = e.message
	}
	return Error{
		Kind:    e.Kind,
		message: fmt.Sprintf("%s: %s", msg, cause.Error()),
		cause:   cause,
	}
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an Error of the same Kind, supporting
// errors.Is(err, bfioerr.New(bfioerr.IoRead)) style checks.
func (e Error) Is(target error) bool {
	other, ok := target.(Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}
