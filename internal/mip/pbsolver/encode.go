package pbsolver

import (
	"fmt"
	"math"

	"github.com/crillab/gophersat/solver"

	"github.com/copyleftdev/binpack/internal/mip"
)

// maxWeight bounds coefficients so that weight sums cannot overflow.
const maxWeight = 1 << 30

// encoding is a model translated into pseudo-boolean constraints over the
// literals 1..n, where literal i+1 is model variable i.
type encoding struct {
	constrs     []solver.PBConstr
	costLits    []solver.Lit
	costWeights []int
	// infeasible is set when a constraint without terms cannot hold.
	infeasible bool
}

func lit(v mip.Var) int { return int(v) + 1 }

func toWeight(f float64) (int, error) {
	if f != math.Trunc(f) || math.Abs(f) > maxWeight {
		return 0, fmt.Errorf("%w: coefficient %v is not an integer in [-%d, %d]", mip.ErrUnsupported, f, maxWeight, maxWeight)
	}
	return int(f), nil
}

func encode(m *mip.Model) (*encoding, error) {
	enc := &encoding{}

	for i, v := range m.Vars() {
		l := lit(mip.Var(i))
		// Registers the literal even if no constraint mentions it.
		enc.constrs = append(enc.constrs, solver.PBConstr{Lits: []int{l}, AtLeast: 0})
		if v.LB > 0 {
			enc.constrs = append(enc.constrs, solver.PropClause(l))
		}
		if v.UB < 1 {
			enc.constrs = append(enc.constrs, solver.PropClause(-l))
		}
	}

	for _, c := range m.Constraints() {
		expr := c.Expr.Normalize()
		rhs, err := toWeight(c.RHS)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
		}
		if len(expr) == 0 {
			if !holds(0, c.Rel, rhs) {
				enc.infeasible = true
			}
			continue
		}

		lits := make([]int, len(expr))
		weights := make([]int, len(expr))
		for i, t := range expr {
			w, err := toWeight(t.Coef)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: %w", c.Name, err)
			}
			lits[i] = lit(t.Var)
			weights[i] = w
		}

		switch c.Rel {
		case mip.LessEq:
			enc.constrs = append(enc.constrs, solver.LtEq(lits, weights, rhs))
		case mip.GreaterEq:
			enc.constrs = append(enc.constrs, solver.GtEq(lits, weights, rhs))
		case mip.Equal:
			enc.constrs = append(enc.constrs, solver.Eq(lits, weights, rhs)...)
		default:
			return nil, fmt.Errorf("%w: constraint %q has relation %v", mip.ErrUnsupported, c.Name, c.Rel)
		}
	}

	if obj := m.Objective(); obj != nil {
		for _, t := range obj.Expr.Normalize() {
			coef := t.Coef
			if obj.Sense == mip.Maximize {
				coef = -coef
			}
			w, err := toWeight(coef)
			if err != nil {
				return nil, fmt.Errorf("objective: %w", err)
			}
			// A negative weight on x is a positive weight on not-x plus a
			// constant, which does not change the minimizer.
			negated := w < 0
			if negated {
				w = -w
			}
			enc.costLits = append(enc.costLits, solver.Var(t.Var).SignedLit(negated))
			enc.costWeights = append(enc.costWeights, w)
		}
	}

	return enc, nil
}

func holds(lhs int, rel mip.Relation, rhs int) bool {
	switch rel {
	case mip.LessEq:
		return lhs <= rhs
	case mip.GreaterEq:
		return lhs >= rhs
	default:
		return lhs == rhs
	}
}

// problem builds the gophersat problem for the encoding.
func (enc *encoding) problem() *solver.Problem {
	pb := solver.ParsePBConstrs(enc.constrs)
	if len(enc.costLits) > 0 && pb.Status != solver.Unsat {
		pb.SetCostFunc(enc.costLits, enc.costWeights)
	}
	return pb
}
