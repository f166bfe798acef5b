package elicit

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an action failed.
type ErrorKind int

const (
	// KindInput: empty or invalid user input. Non-fatal, no state change.
	KindInput ErrorKind = iota + 1
	// KindDocument: the uploaded document could not be decoded and there
	// was no free text to fall back on.
	KindDocument
	// KindStep: a transformation step failed (transport or malformed output).
	KindStep
	// KindStage: the action is not valid in the record's current stage.
	KindStage
	// KindState: the session could not persist the record.
	KindState
)

func (k ErrorKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindDocument:
		return "document"
	case KindStep:
		return "step"
	case KindStage:
		return "stage"
	case KindState:
		return "state"
	default:
		return "unknown"
	}
}

// ErrMalformedOutput marks step output that failed structured parsing.
var ErrMalformedOutput = errors.New("malformed step output")

// Error is returned by every Engine action that does not commit.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Warning reports whether the error is a user-input warning rather than a failure.
func (e *Error) Warning() bool { return e.Kind == KindInput }

// KindOf extracts the ErrorKind from err.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func inputError(op, msg string) *Error {
	return &Error{Kind: KindInput, Op: op, Err: errors.New(msg)}
}
