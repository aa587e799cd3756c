package mip

import (
	"fmt"
	"math"
	"regexp"
)

// VarInfo describes a registered variable.
type VarInfo struct {
	Name   string
	Domain Domain
	LB, UB float64
}

// Constraint is a registered linear constraint.
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Objective is the registered objective.
type Objective struct {
	Expr  Expr
	Sense Sense
}

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\[\]]*$`)

// Model records variables, constraints and the objective in registration
// order. Solvers keep one to share validation and bookkeeping.
type Model struct {
	vars        []VarInfo
	varNames    map[string]Var
	constraints []Constraint
	conNames    map[string]struct{}
	objective   *Objective
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		varNames: make(map[string]Var),
		conNames: make(map[string]struct{}),
	}
}

// NewVar registers a variable.
func (m *Model) NewVar(name string, domain Domain, lb, ub float64) (Var, error) {
	if !validName.MatchString(name) {
		return -1, fmt.Errorf("%w: variable %q", ErrInvalidName, name)
	}
	if _, exists := m.varNames[name]; exists {
		return -1, fmt.Errorf("%w: variable %q", ErrDuplicateName, name)
	}
	if math.IsNaN(lb) || math.IsNaN(ub) || lb > ub {
		return -1, fmt.Errorf("%w: variable %q has bounds [%v, %v]", ErrInvalidBounds, name, lb, ub)
	}
	if domain == Binary && (lb < 0 || ub > 1) {
		return -1, fmt.Errorf("%w: binary variable %q has bounds [%v, %v]", ErrInvalidBounds, name, lb, ub)
	}

	v := Var(len(m.vars))
	m.vars = append(m.vars, VarInfo{Name: name, Domain: domain, LB: lb, UB: ub})
	m.varNames[name] = v
	return v, nil
}

// AddConstraint registers expr rel rhs. An empty name is replaced by c<index>.
func (m *Model) AddConstraint(name string, expr Expr, rel Relation, rhs float64) error {
	if name == "" {
		name = fmt.Sprintf("c%d", len(m.constraints))
	}
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: constraint %q", ErrInvalidName, name)
	}
	if _, exists := m.conNames[name]; exists {
		return fmt.Errorf("%w: constraint %q", ErrDuplicateName, name)
	}
	if err := m.checkExpr(expr); err != nil {
		return fmt.Errorf("constraint %q: %w", name, err)
	}
	if math.IsNaN(rhs) || math.IsInf(rhs, 0) {
		return fmt.Errorf("constraint %q: right-hand side %v is not finite", name, rhs)
	}

	m.constraints = append(m.constraints, Constraint{
		Name: name,
		Expr: append(Expr(nil), expr...),
		Rel:  rel,
		RHS:  rhs,
	})
	m.conNames[name] = struct{}{}
	return nil
}

// SetObjective registers the objective, replacing any previous one.
func (m *Model) SetObjective(expr Expr, sense Sense) error {
	if err := m.checkExpr(expr); err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	m.objective = &Objective{Expr: append(Expr(nil), expr...), Sense: sense}
	return nil
}

func (m *Model) checkExpr(expr Expr) error {
	for _, t := range expr {
		if t.Var < 0 || int(t.Var) >= len(m.vars) {
			return fmt.Errorf("%w: %d", ErrUnknownVar, t.Var)
		}
		if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("coefficient %v of %s is not finite", t.Coef, m.vars[t.Var].Name)
		}
	}
	return nil
}

// NumVars returns the number of registered variables.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of registered constraints.
func (m *Model) NumConstraints() int { return len(m.constraints) }

// Var returns the description of v.
func (m *Model) Var(v Var) VarInfo { return m.vars[v] }

// Vars returns the registered variables in creation order.
func (m *Model) Vars() []VarInfo {
	out := make([]VarInfo, len(m.vars))
	copy(out, m.vars)
	return out
}

// LookupVar returns the variable registered under name.
func (m *Model) LookupVar(name string) (Var, bool) {
	v, ok := m.varNames[name]
	return v, ok
}

// Constraints returns the registered constraints in registration order.
func (m *Model) Constraints() []Constraint {
	out := make([]Constraint, len(m.constraints))
	copy(out, m.constraints)
	return out
}

// Objective returns the registered objective, or nil.
func (m *Model) Objective() *Objective { return m.objective }
