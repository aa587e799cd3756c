// Package mip defines the contract between model formulations and the
// integer-program solvers that optimize them.
package mip

import (
	"time"
)

// Solver is an integer-program solver. Variables must be created before any
// constraint or objective references them.
type Solver interface {
	// NewVar creates a decision variable with the given name, domain and bounds.
	NewVar(name string, domain Domain, lb, ub float64) (Var, error)

	// AddConstraint registers the linear constraint expr rel rhs.
	AddConstraint(name string, expr Expr, rel Relation, rhs float64) error

	// SetObjective registers the objective expression and its direction.
	SetObjective(expr Expr, sense Sense) error

	// Optimize runs a single bounded-time solve and reports its outcome.
	// Outcomes such as infeasibility or an expired time limit are statuses,
	// not errors. Errors are reserved for failures of the solver itself.
	Optimize(timeLimit time.Duration) (Status, error)

	// Value returns the value of v in the best solution found, or 0 when no
	// solution is available.
	Value(v Var) float64

	// ObjectiveValue returns the objective value of the best solution found.
	ObjectiveValue() float64

	// Model returns the registered model.
	Model() *Model
}

// Domain is the set of values a variable may take.
type Domain int

const (
	// Continuous variables take any real value within their bounds.
	Continuous Domain = iota
	// Integer variables take integral values within their bounds.
	Integer
	// Binary variables take the values 0 or 1.
	Binary
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// Relation is the comparison operator of a linear constraint.
type Relation int

const (
	// LessEq means expr <= rhs.
	LessEq Relation = iota
	// GreaterEq means expr >= rhs.
	GreaterEq
	// Equal means expr == rhs.
	Equal
)

func (r Relation) String() string {
	switch r {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// Sense is the direction of optimization.
type Sense int

const (
	// Minimize the objective.
	Minimize Sense = iota
	// Maximize the objective.
	Maximize
)

func (s Sense) String() string {
	if s == Maximize {
		return "maximize"
	}
	return "minimize"
}
