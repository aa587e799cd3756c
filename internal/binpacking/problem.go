package binpacking

import (
	"errors"
	"time"

	"github.com/copyleftdev/binpack/internal/logging"
	"github.com/copyleftdev/binpack/internal/mip"
)

// DefaultTimeLimit is the time limit callers use when they have no better
// figure.
const DefaultTimeLimit = 100 * time.Second

// Logger is the logging interface used by Problem.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
}

// SolveReport summarizes one Solve call.
type SolveReport struct {
	Status         mip.Status
	Elapsed        time.Duration
	NumItems       int
	NumVars        int
	NumConstraints int
	// Objective is meaningful only when Status has a solution.
	Objective float64
	Err       error
}

// Observer receives a report after every Solve call.
type Observer interface {
	ObserveSolve(r SolveReport)
}

// Problem ties an instance to the solver that optimizes its formulation.
// A Problem is solved at most once.
type Problem struct {
	inst     *Instance
	solver   mip.Solver
	logger   Logger
	observer Observer

	symmetryBreaking bool

	solved bool
	status mip.Status
	model  *Model
}

// ProblemOption configures a Problem.
type ProblemOption func(*Problem)

// WithLogger sets the logger.
func WithLogger(logger Logger) ProblemOption {
	return func(p *Problem) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver sets the observer notified after Solve.
func WithObserver(o Observer) ProblemOption {
	return func(p *Problem) { p.observer = o }
}

// WithSymmetryBreaking orders used bin-slots first.
func WithSymmetryBreaking() ProblemOption {
	return func(p *Problem) { p.symmetryBreaking = true }
}

// NewProblem returns a Problem formulating inst into s. The solver must be
// fresh: Problem owns every variable and constraint it registers.
func NewProblem(inst *Instance, s mip.Solver, opts ...ProblemOption) (*Problem, error) {
	if inst == nil {
		return nil, invalidf("instance is nil")
	}
	if s == nil {
		return nil, wrapError(mip.ErrSolverFailure, "problem", "new", "solver is nil")
	}
	p := &Problem{
		inst:   inst,
		solver: s,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Solve builds the model and runs one optimization bounded by timeLimit.
// The solver's status is returned as is. Errors are returned only for
// failures of the model or the solver; an expired time limit is the status
// mip.NoSolutionFound or mip.Feasible.
func (p *Problem) Solve(timeLimit time.Duration) (mip.Status, error) {
	if p.solved {
		return p.status, wrapError(ErrAlreadySolved, "problem", "solve", "create a new Problem to solve again")
	}
	p.solved = true
	start := time.Now()

	builder := NewModelBuilder(p.inst, p.solver)
	builder.SymmetryBreaking = p.symmetryBreaking
	model, err := builder.Build()
	if err != nil {
		p.report(start, err)
		return p.status, err
	}
	p.model = model

	reg := p.solver.Model()
	p.logger.Debug("model built", map[string]interface{}{
		"items":       p.inst.NumItems(),
		"bin_size":    p.inst.BinSize(),
		"vars":        reg.NumVars(),
		"constraints": reg.NumConstraints(),
		"time_limit":  timeLimit.String(),
	})

	status, err := p.solver.Optimize(timeLimit)
	p.status = status
	if err != nil {
		err = wrapError(err, "problem", "solve", "optimize")
		p.logger.Warn("solver failed", map[string]interface{}{"error": err.Error()})
		p.report(start, err)
		return status, err
	}

	fields := map[string]interface{}{
		"status":      status.String(),
		"lower_bound": p.inst.LowerBound(),
		"elapsed":     time.Since(start).String(),
	}
	if status.HasSolution() {
		fields["bins"] = p.solver.ObjectiveValue()
	}
	p.logger.Info("bin packing solved", fields)
	p.report(start, nil)
	return status, nil
}

func (p *Problem) report(start time.Time, err error) {
	if p.observer == nil {
		return
	}
	reg := p.solver.Model()
	r := SolveReport{
		Status:         p.status,
		Elapsed:        time.Since(start),
		NumItems:       p.inst.NumItems(),
		NumVars:        reg.NumVars(),
		NumConstraints: reg.NumConstraints(),
		Err:            err,
	}
	if p.status.HasSolution() {
		r.Objective = p.solver.ObjectiveValue()
	}
	p.observer.ObserveSolve(r)
}

// Instance returns the instance being solved.
func (p *Problem) Instance() *Instance { return p.inst }

// Status returns the status of the last Solve, or mip.NotSolved.
func (p *Problem) Status() mip.Status { return p.status }

// Model returns the formulation's variables, or nil before Solve.
func (p *Problem) Model() *Model { return p.model }

// Objective returns the number of bins in the solution found by Solve.
func (p *Problem) Objective() (float64, bool) {
	if !p.status.HasSolution() {
		return 0, false
	}
	return p.solver.ObjectiveValue(), true
}

// Packing returns the packing found by Solve.
func (p *Problem) Packing() (*Packing, error) {
	if !p.status.HasSolution() {
		return nil, wrapError(ErrNoSolution, "problem", "packing", "solve status is "+p.status.String())
	}
	pk, err := extractPacking(p.inst, p.model, p.solver)
	if err != nil {
		return nil, wrapError(err, "problem", "packing", "read solution")
	}
	return pk, nil
}

// IsSolverFailure reports whether err was caused by the solver rather than
// by the instance or the caller.
func IsSolverFailure(err error) bool {
	return errors.Is(err, mip.ErrSolverFailure)
}
