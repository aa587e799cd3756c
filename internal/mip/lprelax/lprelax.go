// Package lprelax solves the linear relaxation of a mip.Model with the
// gonum simplex method. Integrality is dropped; bounds and constraints are
// kept. The relaxed optimum bounds the integer optimum.
package lprelax

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/copyleftdev/binpack/internal/mip"
)

// DefaultMaxCells bounds rows*columns of the dense standard form.
const DefaultMaxCells = 1 << 16

// ErrTooLarge is returned when the standard form exceeds the size limit.
var ErrTooLarge = fmt.Errorf("%w: relaxation too large", mip.ErrUnsupported)

// Solution is the optimum of the relaxation.
type Solution struct {
	Status mip.Status
	// Objective is set when Status is mip.Optimal.
	Objective float64
	// Values holds one value per model variable when Status is mip.Optimal.
	Values []float64
}

type options struct {
	maxCells int
	tol      float64
}

// Option configures Solve.
type Option func(*options)

// WithMaxCells overrides DefaultMaxCells.
func WithMaxCells(n int) Option {
	return func(o *options) { o.maxCells = n }
}

// part maps a variable to its nonnegative columns: x = offset + sum(sign*z).
type part struct {
	offset float64
	cols   []int
	signs  []float64
}

type row struct {
	coefs map[int]float64
	rhs   float64
}

// Solve relaxes m and solves it.
func Solve(m *mip.Model, opts ...Option) (*Solution, error) {
	o := options{maxCells: DefaultMaxCells, tol: 1e-10}
	for _, opt := range opts {
		opt(&o)
	}

	vars := m.Vars()
	parts := make([]part, len(vars))
	var rows []row
	ncols := 0
	newCol := func() int { ncols++; return ncols - 1 }

	for i, v := range vars {
		lbInf, ubInf := math.IsInf(v.LB, -1), math.IsInf(v.UB, 1)
		switch {
		case !lbInf:
			c := newCol()
			parts[i] = part{offset: v.LB, cols: []int{c}, signs: []float64{1}}
			if !ubInf {
				s := newCol()
				rows = append(rows, row{coefs: map[int]float64{c: 1, s: 1}, rhs: v.UB - v.LB})
			}
		case !ubInf:
			parts[i] = part{offset: v.UB, cols: []int{newCol()}, signs: []float64{-1}}
		default:
			parts[i] = part{cols: []int{newCol(), newCol()}, signs: []float64{1, -1}}
		}
	}

	for _, con := range m.Constraints() {
		expr := con.Expr.Normalize()
		if len(expr) == 0 {
			if !holds(0, con.Rel, con.RHS) {
				return &Solution{Status: mip.Infeasible}, nil
			}
			continue
		}
		r := row{coefs: make(map[int]float64), rhs: con.RHS}
		for _, t := range expr {
			p := parts[t.Var]
			r.rhs -= t.Coef * p.offset
			for k, c := range p.cols {
				r.coefs[c] += t.Coef * p.signs[k]
			}
		}
		switch con.Rel {
		case mip.LessEq:
			r.coefs[newCol()] = 1
		case mip.GreaterEq:
			r.coefs[newCol()] = -1
		}
		rows = append(rows, r)
	}

	cost := make([]float64, ncols)
	if obj := m.Objective(); obj != nil {
		sense := 1.0
		if obj.Sense == mip.Maximize {
			sense = -1
		}
		for _, t := range obj.Expr.Normalize() {
			p := parts[t.Var]
			for k, c := range p.cols {
				cost[c] += sense * t.Coef * p.signs[k]
			}
		}
	}

	// Columns no row mentions are fixed at zero, unless the objective
	// improves along them without limit.
	used := make([]bool, ncols)
	for _, r := range rows {
		for c, a := range r.coefs {
			if a != 0 {
				used[c] = true
			}
		}
	}
	index := make([]int, ncols)
	n := 0
	for c := range used {
		index[c] = -1
		if used[c] {
			index[c] = n
			n++
			continue
		}
		if cost[c] < 0 {
			return &Solution{Status: mip.Unbounded}, nil
		}
	}

	z := make([]float64, ncols)
	if len(rows) > 0 {
		if len(rows) > n {
			return nil, fmt.Errorf("%w: %d rows over %d columns", mip.ErrUnsupported, len(rows), n)
		}
		if len(rows)*n > o.maxCells {
			return nil, fmt.Errorf("%w: %d x %d standard form", ErrTooLarge, len(rows), n)
		}

		A := mat.NewDense(len(rows), n, nil)
		b := make([]float64, len(rows))
		for i, r := range rows {
			sign := 1.0
			if r.rhs < 0 {
				sign = -1
			}
			for col, a := range r.coefs {
				if index[col] >= 0 {
					A.Set(i, index[col], sign*a)
				}
			}
			b[i] = sign * r.rhs
		}
		c := make([]float64, n)
		for col, k := range index {
			if k >= 0 {
				c[k] = cost[col]
			}
		}

		_, x, err := lp.Simplex(c, A, b, o.tol, nil)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			return &Solution{Status: mip.Infeasible}, nil
		case errors.Is(err, lp.ErrUnbounded):
			return &Solution{Status: mip.Unbounded}, nil
		case err != nil:
			return nil, fmt.Errorf("%w: simplex: %w", mip.ErrSolverFailure, err)
		}
		for col, k := range index {
			if k >= 0 {
				z[col] = x[k]
			}
		}
	}

	sol := &Solution{Status: mip.Optimal, Values: make([]float64, len(vars))}
	for i, p := range parts {
		val := p.offset
		for k, c := range p.cols {
			val += p.signs[k] * z[c]
		}
		sol.Values[i] = val
	}
	if obj := m.Objective(); obj != nil {
		sol.Objective = obj.Expr.Eval(func(v mip.Var) float64 { return sol.Values[v] })
	}
	return sol, nil
}

func holds(lhs float64, rel mip.Relation, rhs float64) bool {
	switch rel {
	case mip.LessEq:
		return lhs <= rhs
	case mip.GreaterEq:
		return lhs >= rhs
	default:
		return lhs == rhs
	}
}
