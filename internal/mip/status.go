package mip

import "fmt"

// Status is the outcome of a single Optimize call.
type Status int

const (
	// NotSolved means Optimize has not run yet.
	NotSolved Status = iota
	// Optimal means a solution was found and proven optimal.
	Optimal
	// Feasible means a solution was found but optimality was not proven
	// before the time limit.
	Feasible
	// Infeasible means the model was proven to have no solution.
	Infeasible
	// Unbounded means the objective can be improved without limit.
	Unbounded
	// NoSolutionFound means the time limit expired before any solution was
	// found. The model may still be feasible.
	NoSolutionFound
)

var statusNames = map[Status]string{
	NotSolved:       "NOT_SOLVED",
	Optimal:         "OPTIMAL",
	Feasible:        "FEASIBLE",
	Infeasible:      "INFEASIBLE",
	Unbounded:       "UNBOUNDED",
	NoSolutionFound: "NO_SOLUTION_FOUND",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// HasSolution reports whether the status carries a usable solution.
func (s Status) HasSolution() bool {
	return s == Optimal || s == Feasible
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for status, name := range statusNames {
		if name == string(text) {
			*s = status
			return nil
		}
	}
	return fmt.Errorf("mip: unknown status %q", text)
}
