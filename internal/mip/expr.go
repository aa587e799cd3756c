package mip

import "sort"

// Var is an opaque handle to a variable of a Model.
type Var int

// Term is a coefficient applied to a variable.
type Term struct {
	Coef float64
	Var  Var
}

// Expr is a linear expression: the sum of its terms.
type Expr []Term

// Sum returns the expression adding each of vars with coefficient 1.
func Sum(vars ...Var) Expr {
	e := make(Expr, len(vars))
	for i, v := range vars {
		e[i] = Term{Coef: 1, Var: v}
	}
	return e
}

// Plus returns e with coef*v appended.
func (e Expr) Plus(coef float64, v Var) Expr {
	return append(e, Term{Coef: coef, Var: v})
}

// Normalize merges terms on the same variable and drops zero coefficients.
// The result is ordered by variable.
func (e Expr) Normalize() Expr {
	coefs := make(map[Var]float64, len(e))
	for _, t := range e {
		coefs[t.Var] += t.Coef
	}
	out := make(Expr, 0, len(coefs))
	for v, c := range coefs {
		if c != 0 {
			out = append(out, Term{Coef: c, Var: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out
}

// Eval evaluates e with the value of each variable given by value.
func (e Expr) Eval(value func(Var) float64) float64 {
	var sum float64
	for _, t := range e {
		sum += t.Coef * value(t.Var)
	}
	return sum
}
