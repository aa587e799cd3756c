package binpacking

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInstance is returned when instance parameters cannot describe
	// a packable problem.
	ErrInvalidInstance = errors.New("invalid instance")
	// ErrAlreadySolved is returned when Solve is called on a Problem twice.
	ErrAlreadySolved = errors.New("problem already solved")
	// ErrPhaseOrder is returned when a model-building phase runs before the
	// phase it depends on.
	ErrPhaseOrder = errors.New("model phases out of order")
	// ErrNoSolution is returned when a packing is requested from a solve that
	// found none.
	ErrNoSolution = errors.New("no solution available")
)

// Error represents a bin packing error with context.
type Error struct {
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error, usually one of the sentinels above.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	switch {
	case e.Component != "" && e.Op != "":
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	case e.Component != "":
		prefix = e.Component
	case e.Op != "":
		prefix = e.Op
	}

	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%v: %s", e.Err, e.Message)
		if e.Message == "" {
			msg = e.Err.Error()
		}
	}
	if prefix != "" {
		return prefix + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// invalidf returns an ErrInvalidInstance error with a formatted message.
func invalidf(format string, args ...interface{}) *Error {
	return &Error{
		Message:   fmt.Sprintf(format, args...),
		Component: "instance",
		Err:       ErrInvalidInstance,
	}
}

// wrapError wraps err with a message. If err is nil, wrapError returns nil.
func wrapError(err error, component, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message:   message,
		Op:        op,
		Component: component,
		Err:       err,
	}
}

// IsInvalidInstance reports whether err was caused by invalid instance
// parameters.
func IsInvalidInstance(err error) bool {
	return errors.Is(err, ErrInvalidInstance)
}
