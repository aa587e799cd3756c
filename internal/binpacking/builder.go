package binpacking

import (
	"fmt"

	"github.com/copyleftdev/binpack/internal/mip"
)

// Model holds the decision variables of a built formulation.
// X[i][j] is 1 iff item i goes to bin-slot j; Y[j] is 1 iff bin-slot j is
// used. There is one bin-slot per item.
type Model struct {
	X [][]mip.Var
	Y []mip.Var
}

type phase int

const (
	phaseEmpty phase = iota
	phaseVariables
	phaseConstraints
	phaseObjective
)

// ModelBuilder emits the bin packing formulation of an instance into a
// solver. The phases must run in order: variables, constraints, objective.
type ModelBuilder struct {
	inst   *Instance
	solver mip.Solver

	// SymmetryBreaking adds y[j] >= y[j+1], so used bin-slots come first.
	SymmetryBreaking bool

	phase phase
	model *Model
}

// NewModelBuilder returns a builder for inst targeting s.
func NewModelBuilder(inst *Instance, s mip.Solver) *ModelBuilder {
	return &ModelBuilder{inst: inst, solver: s}
}

// Build runs all three phases.
func (b *ModelBuilder) Build() (*Model, error) {
	if err := b.AddVariables(); err != nil {
		return nil, err
	}
	if err := b.AddConstraints(); err != nil {
		return nil, err
	}
	if err := b.SetObjective(); err != nil {
		return nil, err
	}
	return b.model, nil
}

func (b *ModelBuilder) advance(from, to phase, op string) error {
	if b.phase != from {
		return &Error{
			Message:   fmt.Sprintf("%s requires phase %d, model is at phase %d", op, from, b.phase),
			Op:        op,
			Component: "builder",
			Err:       ErrPhaseOrder,
		}
	}
	b.phase = to
	return nil
}

// AddVariables creates the binary variables x_<i>_<j> and y_<j>.
func (b *ModelBuilder) AddVariables() error {
	if err := b.advance(phaseEmpty, phaseVariables, "add variables"); err != nil {
		return err
	}

	n := b.inst.NumItems()
	m := &Model{
		X: make([][]mip.Var, n),
		Y: make([]mip.Var, n),
	}
	for i := 0; i < n; i++ {
		m.X[i] = make([]mip.Var, n)
		for j := 0; j < n; j++ {
			v, err := b.solver.NewVar(fmt.Sprintf("x_%d_%d", i, j), mip.Binary, 0, 1)
			if err != nil {
				return wrapError(err, "builder", "add variables", "create assignment variable")
			}
			m.X[i][j] = v
		}
	}
	for j := 0; j < n; j++ {
		v, err := b.solver.NewVar(fmt.Sprintf("y_%d", j), mip.Binary, 0, 1)
		if err != nil {
			return wrapError(err, "builder", "add variables", "create usage variable")
		}
		m.Y[j] = v
	}

	b.model = m
	return nil
}

// AddConstraints registers one assignment constraint per item and one
// capacity constraint per bin-slot.
func (b *ModelBuilder) AddConstraints() error {
	if err := b.advance(phaseVariables, phaseConstraints, "add constraints"); err != nil {
		return err
	}

	n := b.inst.NumItems()
	x, y := b.model.X, b.model.Y

	for i := 0; i < n; i++ {
		if err := b.solver.AddConstraint(fmt.Sprintf("assign_%d", i), mip.Sum(x[i]...), mip.Equal, 1); err != nil {
			return wrapError(err, "builder", "add constraints", "register assignment constraint")
		}
	}

	for j := 0; j < n; j++ {
		expr := make(mip.Expr, 0, n+1)
		for i := 0; i < n; i++ {
			expr = expr.Plus(float64(b.inst.ItemSize(i)), x[i][j])
		}
		expr = expr.Plus(-float64(b.inst.BinSize()), y[j])
		if err := b.solver.AddConstraint(fmt.Sprintf("capacity_%d", j), expr, mip.LessEq, 0); err != nil {
			return wrapError(err, "builder", "add constraints", "register capacity constraint")
		}
	}

	if b.SymmetryBreaking {
		for j := 0; j+1 < n; j++ {
			expr := mip.Sum(y[j]).Plus(-1, y[j+1])
			if err := b.solver.AddConstraint(fmt.Sprintf("order_%d", j), expr, mip.GreaterEq, 0); err != nil {
				return wrapError(err, "builder", "add constraints", "register symmetry-breaking constraint")
			}
		}
	}
	return nil
}

// SetObjective registers the objective: minimize the number of used bins.
func (b *ModelBuilder) SetObjective() error {
	if err := b.advance(phaseConstraints, phaseObjective, "set objective"); err != nil {
		return err
	}
	if err := b.solver.SetObjective(mip.Sum(b.model.Y...), mip.Minimize); err != nil {
		return wrapError(err, "builder", "set objective", "register objective")
	}
	return nil
}
