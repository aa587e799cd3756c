package mip

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelNewVar(t *testing.T) {
	tests := []struct {
		name    string
		varName string
		domain  Domain
		lb, ub  float64
		wantErr error
	}{
		{"binary", "x_0_0", Binary, 0, 1, nil},
		{"continuous free", "z", Continuous, math.Inf(-1), math.Inf(1), nil},
		{"integer", "n", Integer, 0, 10, nil},
		{"empty name", "", Binary, 0, 1, ErrInvalidName},
		{"name with space", "x 1", Binary, 0, 1, ErrInvalidName},
		{"leading digit", "1x", Binary, 0, 1, ErrInvalidName},
		{"crossed bounds", "a", Integer, 2, 1, ErrInvalidBounds},
		{"binary out of range", "b", Binary, 0, 2, ErrInvalidBounds},
		{"nan bound", "c", Continuous, math.NaN(), 1, ErrInvalidBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel()
			v, err := m.NewVar(tt.varName, tt.domain, tt.lb, tt.ub)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, 0, m.NumVars())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Var(0), v)
			assert.Equal(t, VarInfo{Name: tt.varName, Domain: tt.domain, LB: tt.lb, UB: tt.ub}, m.Var(v))
		})
	}
}

func TestModelDuplicateNames(t *testing.T) {
	m := NewModel()
	x, err := m.NewVar("x", Binary, 0, 1)
	require.NoError(t, err)

	_, err = m.NewVar("x", Binary, 0, 1)
	assert.ErrorIs(t, err, ErrDuplicateName)

	require.NoError(t, m.AddConstraint("c", Sum(x), LessEq, 1))
	err = m.AddConstraint("c", Sum(x), GreaterEq, 0)
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Variables and constraints live in separate namespaces.
	require.NoError(t, m.AddConstraint("x", Sum(x), GreaterEq, 0))
	assert.Equal(t, 2, m.NumConstraints())
}

func TestModelRejectsUnknownVariables(t *testing.T) {
	m := NewModel()
	x, err := m.NewVar("x", Binary, 0, 1)
	require.NoError(t, err)

	err = m.AddConstraint("c", Sum(x, Var(1)), Equal, 1)
	assert.ErrorIs(t, err, ErrUnknownVar)
	assert.Equal(t, 0, m.NumConstraints())

	err = m.SetObjective(Sum(Var(-1)), Minimize)
	assert.ErrorIs(t, err, ErrUnknownVar)
	assert.Nil(t, m.Objective())
}

func TestModelConstraintDefaults(t *testing.T) {
	m := NewModel()
	x, _ := m.NewVar("x", Binary, 0, 1)
	y, _ := m.NewVar("y", Binary, 0, 1)

	expr := Sum(x).Plus(-2, y)
	require.NoError(t, m.AddConstraint("", expr, LessEq, 0))
	require.NoError(t, m.AddConstraint("", expr, GreaterEq, -1))

	// The model keeps its own copy of the expression.
	expr[0].Coef = 42

	cons := m.Constraints()
	require.Len(t, cons, 2)
	assert.Equal(t, "c0", cons[0].Name)
	assert.Equal(t, "c1", cons[1].Name)
	assert.Equal(t, 1.0, cons[0].Expr[0].Coef)

	err := m.AddConstraint("bad", expr, LessEq, math.Inf(1))
	assert.Error(t, err)
}

func TestModelLookupVar(t *testing.T) {
	m := NewModel()
	_, _ = m.NewVar("a", Binary, 0, 1)
	b, _ := m.NewVar("b", Binary, 0, 1)

	got, ok := m.LookupVar("b")
	assert.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = m.LookupVar("missing")
	assert.False(t, ok)
	assert.Len(t, m.Vars(), 2)
}

func TestExprNormalize(t *testing.T) {
	e := Expr{{Coef: 2, Var: 3}, {Coef: 1, Var: 1}, {Coef: -2, Var: 3}, {Coef: 4, Var: 1}, {Coef: 1, Var: 0}}
	assert.Equal(t, Expr{{Coef: 1, Var: 0}, {Coef: 5, Var: 1}}, e.Normalize())

	values := map[Var]float64{0: 1, 1: 0.5, 3: 10}
	assert.InDelta(t, 3.5, e.Eval(func(v Var) float64 { return values[v] }), 1e-12)
}

func TestStatusText(t *testing.T) {
	for status, name := range statusNames {
		text, err := status.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))

		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, status, back)
	}

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("MAYBE")))
	assert.Equal(t, "Status(42)", Status(42).String())

	assert.True(t, Optimal.HasSolution())
	assert.True(t, Feasible.HasSolution())
	assert.False(t, NoSolutionFound.HasSolution())
	assert.False(t, Infeasible.HasSolution())
}
