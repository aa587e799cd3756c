// Package pbsolver implements mip.Solver on top of the gophersat
// pseudo-boolean optimizer. It accepts 0-1 models with integral coefficients.
package pbsolver

import (
	"fmt"
	"time"

	"github.com/crillab/gophersat/solver"
	"go.uber.org/zap"

	apperrors "github.com/copyleftdev/binpack/internal/errors"
	"github.com/copyleftdev/binpack/internal/mip"
)

// Name identifies this engine in configuration and metrics.
const Name = "gophersat"

// searchSlot admits one gophersat search per process. The library keeps
// package-level learning and allocation buffers, so concurrent searches
// corrupt each other. The slot is held until the search itself returns,
// which may be long after an Optimize call gave up on it.
var searchSlot = make(chan struct{}, 1)

// Busy reports whether a search is running in this process.
func Busy() bool { return len(searchSlot) > 0 }

// Stats describes the last Optimize call.
type Stats struct {
	// Improvements is the number of successively better solutions found.
	Improvements int
	// Elapsed is the wall time spent in Optimize.
	Elapsed time.Duration
	// TimedOut is set when the time limit expired before the search ended.
	TimedOut bool
	// Busy is set when another search held the process for the whole time
	// limit, so this one never started.
	Busy bool
}

// Engine is a mip.Solver backed by gophersat. An Engine solves one model
// once; create a new Engine per solve.
type Engine struct {
	model   *mip.Model
	logger  *zap.Logger
	verbose bool

	optimized bool
	status    mip.Status
	values    []float64
	objective float64
	stats     Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report solve progress.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithVerbose makes gophersat print its search statistics to stdout.
func WithVerbose(verbose bool) Option {
	return func(e *Engine) { e.verbose = verbose }
}

// New returns an Engine with an empty model.
func New(opts ...Option) *Engine {
	e := &Engine{
		model:  mip.NewModel(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ mip.Solver = (*Engine)(nil)

// NewVar implements mip.Solver. Only 0-1 variables are supported.
func (e *Engine) NewVar(name string, domain mip.Domain, lb, ub float64) (mip.Var, error) {
	if domain == mip.Continuous {
		return -1, fmt.Errorf("%w: continuous variable %q", mip.ErrUnsupported, name)
	}
	if lb < 0 || ub > 1 {
		return -1, fmt.Errorf("%w: variable %q has bounds [%v, %v], want a subset of [0, 1]", mip.ErrUnsupported, name, lb, ub)
	}
	return e.model.NewVar(name, domain, lb, ub)
}

// AddConstraint implements mip.Solver.
func (e *Engine) AddConstraint(name string, expr mip.Expr, rel mip.Relation, rhs float64) error {
	return e.model.AddConstraint(name, expr, rel, rhs)
}

// SetObjective implements mip.Solver.
func (e *Engine) SetObjective(expr mip.Expr, sense mip.Sense) error {
	return e.model.SetObjective(expr, sense)
}

// Model implements mip.Solver.
func (e *Engine) Model() *mip.Model { return e.model }

// Value implements mip.Solver.
func (e *Engine) Value(v mip.Var) float64 {
	if v < 0 || int(v) >= len(e.values) {
		return 0
	}
	return e.values[v]
}

// ObjectiveValue implements mip.Solver.
func (e *Engine) ObjectiveValue() float64 { return e.objective }

// Status returns the status of the last Optimize call.
func (e *Engine) Status() mip.Status { return e.status }

// Stats returns statistics about the last Optimize call.
func (e *Engine) Stats() Stats { return e.stats }

// Optimize implements mip.Solver. Searches are serialized process-wide:
// Optimize first waits for the running search, if any, then runs its own in
// a separate goroutine. It returns as soon as the search completes or
// timeLimit expires, whichever comes first; waiting counts against the limit.
// gophersat cannot be interrupted, so after a timeout the search keeps
// running in the background, holding the process slot until it ends on its
// own; its results are discarded.
func (e *Engine) Optimize(timeLimit time.Duration) (mip.Status, error) {
	if e.optimized {
		return e.status, e.failure(mip.ErrAlreadyOptimized, "optimize")
	}
	e.optimized = true
	start := time.Now()
	defer func() { e.stats.Elapsed = time.Since(start) }()

	enc, err := encode(e.model)
	if err != nil {
		return mip.NotSolved, e.failure(err, "encode")
	}
	e.logger.Debug("model encoded",
		zap.Int("vars", e.model.NumVars()),
		zap.Int("constraints", e.model.NumConstraints()),
		zap.Int("pb_constraints", len(enc.constrs)),
		zap.Duration("time_limit", timeLimit),
	)

	if enc.infeasible {
		return e.finish(mip.Infeasible, nil), nil
	}
	if e.model.NumVars() == 0 {
		return e.finish(mip.Optimal, nil), nil
	}
	pb := enc.problem()
	if pb.Status == solver.Unsat {
		return e.finish(mip.Infeasible, nil), nil
	}
	if timeLimit <= 0 {
		e.stats.TimedOut = true
		return e.finish(mip.NoSolutionFound, nil), nil
	}

	timer := time.NewTimer(timeLimit)
	defer timer.Stop()
	select {
	case searchSlot <- struct{}{}:
	case <-timer.C:
		e.stats.TimedOut = true
		e.stats.Busy = true
		e.logger.Warn("search slot busy", zap.Duration("time_limit", timeLimit))
		return e.finish(mip.NoSolutionFound, nil), nil
	}

	s := solver.New(pb)
	s.Verbose = e.verbose
	best, finished, err := e.run(s, timer)
	if err != nil {
		return mip.NotSolved, e.failure(err, "search")
	}
	e.stats.TimedOut = !finished

	switch {
	case finished && best != nil:
		return e.finish(mip.Optimal, best), nil
	case finished:
		return e.finish(mip.Infeasible, nil), nil
	case best != nil:
		return e.finish(mip.Feasible, best), nil
	default:
		return e.finish(mip.NoSolutionFound, nil), nil
	}
}

// run drives s.Optimal until it returns or timer fires. The caller must hold
// searchSlot; the search goroutine releases it. run returns the best
// satisfying result seen, if any, and whether the search completed.
func (e *Engine) run(s *solver.Solver, timer *time.Timer) (best *solver.Result, finished bool, err error) {
	results := make(chan solver.Result)
	done := make(chan solver.Result, 1)
	panicked := make(chan interface{}, 1)

	go func() {
		defer func() { <-searchSlot }()
		defer func() {
			if r := recover(); r != nil {
				panicked <- r
			}
		}()
		done <- s.Optimal(results, nil)
	}()

	for {
		select {
		case res, ok := <-results:
			if !ok {
				results = nil
				continue
			}
			if res.Status == solver.Sat {
				r := res
				best = &r
				e.stats.Improvements++
				e.logger.Debug("improved solution", zap.Int("cost", res.Weight))
			}
		case res := <-done:
			if res.Status == solver.Sat {
				best = &res
			}
			return best, true, nil
		case r := <-panicked:
			return nil, false, fmt.Errorf("gophersat panicked: %v", r)
		case <-timer.C:
			if results != nil {
				go drain(results)
			}
			return best, false, nil
		}
	}
}

// drain consumes results so that an abandoned search can run to completion.
func drain(results <-chan solver.Result) {
	for range results {
	}
}

func (e *Engine) finish(status mip.Status, best *solver.Result) mip.Status {
	e.status = status
	e.values = make([]float64, e.model.NumVars())
	if best != nil {
		for i := range e.values {
			if i < len(best.Model) && best.Model[i] {
				e.values[i] = 1
			}
		}
	}
	e.objective = 0
	if obj := e.model.Objective(); obj != nil && status.HasSolution() {
		e.objective = obj.Expr.Eval(e.Value)
	}

	fields := []zap.Field{
		zap.String("status", status.String()),
		zap.Int("improvements", e.stats.Improvements),
		zap.Bool("timed_out", e.stats.TimedOut),
	}
	if status.HasSolution() {
		fields = append(fields, zap.Float64("objective", e.objective))
	}
	e.logger.Info("optimization finished", fields...)
	return status
}

func (e *Engine) failure(err error, op string) error {
	return apperrors.Wrap(fmt.Errorf("%w: %w", mip.ErrSolverFailure, err), "optimization failed").
		WithComponent(Name).
		WithOperation(op)
}
