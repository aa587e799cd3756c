package binpacking

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/binpack/internal/mip"
)

// recordingSolver records the model and answers Optimize with a canned
// status and values.
type recordingSolver struct {
	model  *mip.Model
	status mip.Status
	values map[mip.Var]float64
	err    error

	optimizeCalls int
	timeLimit     time.Duration
}

func newRecordingSolver() *recordingSolver {
	return &recordingSolver{model: mip.NewModel(), status: mip.Optimal, values: map[mip.Var]float64{}}
}

func (s *recordingSolver) NewVar(name string, domain mip.Domain, lb, ub float64) (mip.Var, error) {
	return s.model.NewVar(name, domain, lb, ub)
}

func (s *recordingSolver) AddConstraint(name string, expr mip.Expr, rel mip.Relation, rhs float64) error {
	return s.model.AddConstraint(name, expr, rel, rhs)
}

func (s *recordingSolver) SetObjective(expr mip.Expr, sense mip.Sense) error {
	return s.model.SetObjective(expr, sense)
}

func (s *recordingSolver) Optimize(timeLimit time.Duration) (mip.Status, error) {
	s.optimizeCalls++
	s.timeLimit = timeLimit
	return s.status, s.err
}

func (s *recordingSolver) Value(v mip.Var) float64 { return s.values[v] }

func (s *recordingSolver) ObjectiveValue() float64 {
	obj := s.model.Objective()
	if obj == nil {
		return 0
	}
	return obj.Expr.Eval(s.Value)
}

func (s *recordingSolver) Model() *mip.Model { return s.model }

// assign sets the values of the formulation so that item i sits in
// bin-slot slots[i].
func (s *recordingSolver) assign(t *testing.T, slots ...int) {
	t.Helper()
	for i, j := range slots {
		x, ok := s.model.LookupVar(fmt.Sprintf("x_%d_%d", i, j))
		require.True(t, ok, "missing x_%d_%d", i, j)
		y, ok := s.model.LookupVar(fmt.Sprintf("y_%d", j))
		require.True(t, ok, "missing y_%d", j)
		s.values[x] = 1
		s.values[y] = 1
	}
}

type observerFunc func(SolveReport)

func (f observerFunc) ObserveSolve(r SolveReport) { f(r) }
