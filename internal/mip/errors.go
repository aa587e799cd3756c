package mip

import "errors"

var (
	// ErrSolverFailure marks failures of the solver itself, as opposed to
	// outcomes reported through Status.
	ErrSolverFailure = errors.New("mip: solver failure")
	// ErrUnsupported is returned when a solver cannot handle part of a model.
	ErrUnsupported = errors.New("mip: unsupported model")
	// ErrUnknownVar is returned when an expression references a variable the
	// model does not own.
	ErrUnknownVar = errors.New("mip: unknown variable")
	// ErrDuplicateName is returned when a name is registered twice.
	ErrDuplicateName = errors.New("mip: duplicate name")
	// ErrInvalidName is returned for names that cannot be exported.
	ErrInvalidName = errors.New("mip: invalid name")
	// ErrInvalidBounds is returned for empty or out-of-domain bounds.
	ErrInvalidBounds = errors.New("mip: invalid bounds")
	// ErrAlreadyOptimized is returned when Optimize is called twice.
	ErrAlreadyOptimized = errors.New("mip: model already optimized")
)
