// Package dErrors provides code-tagged domain errors. Services create these
// at decision points; callers branch on the code instead of matching message
// strings. Infrastructure layers return pkg/platform/sentinel errors and the
// service layer translates them into one of these.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error. The set is closed: every error the engine
// surfaces to a caller carries exactly one of these.
type Code string

const (
	// CodeDenied means an authorization rule rejected the caller.
	CodeDenied Code = "denied"
	// CodeNotFound means a referenced record id does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition means a state machine guard rejected the change,
	// e.g. processing a document that already left INPROGRESS.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeInvalidInput means the payload is malformed or missing a required
	// field.
	CodeInvalidInput Code = "invalid_input"
	// CodeDanglingReference means a relation field points at a record that no
	// longer exists.
	CodeDanglingReference Code = "dangling_reference"
	// CodeConflict means the operation collides with existing state.
	CodeConflict Code = "conflict"
	// CodeTimeout means the transaction context expired before commit.
	CodeTimeout Code = "timeout"
	// CodeInternal covers unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, preserving the
// cause for errors.Is/As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.cause
		if err == nil {
			break
		}
	}
	return false
}

// CodeOf returns the outermost domain error code, or CodeInternal when the
// error was never classified.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
