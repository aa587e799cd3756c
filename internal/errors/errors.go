// Package errors provides stack-carrying errors and HTTP error middleware for
// the bin packing service.
package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

// Error is an error annotated with the operation and component that produced
// it and the stack at the point it was created.
type Error struct {
	// Err is the underlying cause.
	Err error
	// Message is a human-readable summary.
	Message string
	// Operation is what was being attempted, e.g. "encode".
	Operation string
	// Component is the package or engine that failed.
	Component string
	// Stack is captured when the Error is created.
	Stack []string
}

// Error implements the error interface. The format is
// "component: operation: message: cause" with empty parts omitted.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{e.Component, e.Operation, e.Message} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithMessage sets the message.
func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

// WithOperation sets the operation.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithComponent sets the component.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// StackTrace returns the captured stack, innermost frame first.
func (e *Error) StackTrace() []string {
	return e.Stack
}

// New creates an error with a message.
func New(msg string) *Error {
	return &Error{
		Message: msg,
		Stack:   callers(),
	}
}

// Errorf creates an error with a formatted message.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, args...),
		Stack:   callers(),
	}
}

// Wrap returns a new Error with cause err. If err already carries a stack,
// that stack is kept since it is closer to the failure.
// Wrap returns nil if err is nil.
func Wrap(err error, msg string) *Error {
	if err == nil {
		return nil
	}
	e := &Error{Err: err, Message: msg}
	var inner *Error
	if stderrors.As(err, &inner) && len(inner.Stack) > 0 {
		e.Stack = inner.Stack
	} else {
		e.Stack = callers()
	}
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// callers returns the stack of the caller of the constructor, skipping the
// runtime and this package.
func callers() []string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]string, 0, n)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") && !strings.Contains(frame.File, "internal/errors") {
			stack = append(stack, fmt.Sprintf("%s\n\t%s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return stack
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	if err == nil || target == nil {
		return false
	}
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err, if any.
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}
