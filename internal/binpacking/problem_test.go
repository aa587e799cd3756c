package binpacking

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/binpack/internal/logging"
	"github.com/copyleftdev/binpack/internal/mip"
	"github.com/copyleftdev/binpack/internal/mip/pbsolver"
)

const testTimeLimit = 30 * time.Second

func solve(t *testing.T, inst *Instance, opts ...ProblemOption) (*Problem, mip.Status) {
	t.Helper()
	p, err := NewProblem(inst, pbsolver.New(), opts...)
	require.NoError(t, err)
	status, err := p.Solve(testTimeLimit)
	require.NoError(t, err)
	return p, status
}

func TestSolveKnownInstances(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int
		want  int
	}{
		{"two bins", []int{6, 5, 4}, 2},
		{"full bins", []int{10, 10, 10}, 3},
		{"single item", []int{7}, 1},
		{"perfect fit", []int{5, 5, 3, 7, 2, 8}, 3},
	}

	for _, tt := range tests {
		for _, symmetry := range []bool{false, true} {
			name := tt.name
			var opts []ProblemOption
			if symmetry {
				name += " with symmetry breaking"
				opts = append(opts, WithSymmetryBreaking())
			}
			t.Run(name, func(t *testing.T) {
				inst, err := NewInstance(10, WithItemSizes(tt.sizes...))
				require.NoError(t, err)

				p, status := solve(t, inst, opts...)
				assert.Equal(t, mip.Optimal, status)

				obj, ok := p.Objective()
				require.True(t, ok)
				assert.Equal(t, float64(tt.want), obj)

				packing, err := p.Packing()
				require.NoError(t, err)
				assert.NoError(t, packing.Validate(inst))
				assert.Equal(t, tt.want, packing.NumBins())
			})
		}
	}
}

func TestSolveRespectsLowerBound(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for k := 0; k < 5; k++ {
		inst, err := NewInstance(10, WithNumItems(6), WithRand(rng))
		require.NoError(t, err)

		p, status := solve(t, inst)
		require.Equal(t, mip.Optimal, status, "sizes %v", inst.ItemSizes())

		obj, _ := p.Objective()
		assert.GreaterOrEqual(t, obj, float64(inst.LowerBound()), "sizes %v", inst.ItemSizes())
		assert.LessOrEqual(t, obj, float64(inst.NumItems()))

		packing, err := p.Packing()
		require.NoError(t, err)
		assert.NoError(t, packing.Validate(inst))
	}
}

func TestSolveZeroTimeLimit(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	p, err := NewProblem(inst, pbsolver.New())
	require.NoError(t, err)
	status, err := p.Solve(0)
	require.NoError(t, err)
	assert.Equal(t, mip.NoSolutionFound, status)
	assert.NotEqual(t, mip.Infeasible, status)

	_, ok := p.Objective()
	assert.False(t, ok)
	_, err = p.Packing()
	assert.ErrorIs(t, err, ErrNoSolution)
}

func TestSolveIsIdempotentAcrossProblems(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(3, 7, 2, 8, 5))
	require.NoError(t, err)

	p1, s1 := solve(t, inst)
	p2, s2 := solve(t, inst)
	assert.Equal(t, s1, s2)

	o1, _ := p1.Objective()
	o2, _ := p2.Objective()
	assert.Equal(t, o1, o2)
}

func TestSolveTwice(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	s := newRecordingSolver()
	p, err := NewProblem(inst, s)
	require.NoError(t, err)

	_, err = p.Solve(time.Second)
	require.NoError(t, err)
	status, err := p.Solve(time.Second)
	assert.ErrorIs(t, err, ErrAlreadySolved)
	assert.Equal(t, mip.Optimal, status)
	assert.Equal(t, 1, s.optimizeCalls)
}

func TestSolvePassesStatusThrough(t *testing.T) {
	for _, want := range []mip.Status{mip.Optimal, mip.Feasible, mip.Infeasible, mip.NoSolutionFound} {
		t.Run(want.String(), func(t *testing.T) {
			inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
			require.NoError(t, err)

			s := newRecordingSolver()
			s.status = want
			p, err := NewProblem(inst, s)
			require.NoError(t, err)

			got, err := p.Solve(42 * time.Second)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, want, p.Status())
			assert.Equal(t, 42*time.Second, s.timeLimit)
		})
	}
}

func TestSolveSurfacesSolverFailure(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	s := newRecordingSolver()
	s.status = mip.NotSolved
	s.err = errors.Join(mip.ErrSolverFailure, errors.New("backend crashed"))

	var report SolveReport
	p, err := NewProblem(inst, s, WithObserver(observerFunc(func(r SolveReport) { report = r })))
	require.NoError(t, err)

	_, err = p.Solve(time.Second)
	require.Error(t, err)
	assert.True(t, IsSolverFailure(err))
	assert.False(t, IsInvalidInstance(err))
	assert.ErrorIs(t, report.Err, mip.ErrSolverFailure)
}

func TestPackingFromSolverValues(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	s := newRecordingSolver()
	p, err := NewProblem(inst, s)
	require.NoError(t, err)
	_, err = p.Solve(time.Second)
	require.NoError(t, err)

	s.assign(t, 2, 0, 2)
	packing, err := p.Packing()
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {0, 2}}, packing.Bins)
	assert.Equal(t, []int{5, 10}, packing.Loads)
	assert.NoError(t, packing.Validate(inst))

	obj, ok := p.Objective()
	require.True(t, ok)
	assert.Equal(t, 2.0, obj)
}

func TestPackingRejectsInconsistentValues(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5))
	require.NoError(t, err)

	s := newRecordingSolver()
	p, err := NewProblem(inst, s)
	require.NoError(t, err)
	_, err = p.Solve(time.Second)
	require.NoError(t, err)

	// Item 1 is unassigned.
	x, _ := s.model.LookupVar("x_0_0")
	y, _ := s.model.LookupVar("y_0")
	s.values[x], s.values[y] = 1, 1

	_, err = p.Packing()
	assert.ErrorIs(t, err, mip.ErrSolverFailure)
}

func TestPackingValidate(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	tests := []struct {
		name    string
		packing Packing
		wantErr bool
	}{
		{"valid", Packing{Bins: [][]int{{0, 2}, {1}}, Loads: []int{10, 5}}, false},
		{"overfull", Packing{Bins: [][]int{{0, 1}, {2}}, Loads: []int{11, 4}}, true},
		{"missing item", Packing{Bins: [][]int{{0, 2}}, Loads: []int{10}}, true},
		{"duplicate item", Packing{Bins: [][]int{{0, 2}, {1, 2}}, Loads: []int{10, 9}}, true},
		{"unknown item", Packing{Bins: [][]int{{0, 2}, {1, 3}}, Loads: []int{10, 5}}, true},
		{"wrong load", Packing{Bins: [][]int{{0, 2}, {1}}, Loads: []int{10, 6}}, true},
		{"loads mismatch", Packing{Bins: [][]int{{0, 2}, {1}}, Loads: []int{10}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.packing.Validate(inst)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProblemLogsAndReports(t *testing.T) {
	inst, err := NewInstance(10, WithItemSizes(6, 5, 4))
	require.NoError(t, err)

	var buf bytes.Buffer
	var reports []SolveReport
	p, err := NewProblem(inst, pbsolver.New(),
		WithLogger(logging.New(logging.DebugLevel, &buf)),
		WithObserver(observerFunc(func(r SolveReport) { reports = append(reports, r) })),
	)
	require.NoError(t, err)

	_, err = p.Solve(testTimeLimit)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "model built")
	assert.Contains(t, buf.String(), "bin packing solved")

	require.Len(t, reports, 1)
	r := reports[0]
	assert.Equal(t, mip.Optimal, r.Status)
	assert.Equal(t, 3, r.NumItems)
	assert.Equal(t, 12, r.NumVars)
	assert.Equal(t, 6, r.NumConstraints)
	assert.Equal(t, 2.0, r.Objective)
	assert.NoError(t, r.Err)
}

func TestNewProblemRejectsNil(t *testing.T) {
	_, err := NewProblem(nil, newRecordingSolver())
	assert.ErrorIs(t, err, ErrInvalidInstance)

	inst, err := NewInstance(10, WithItemSizes(1))
	require.NoError(t, err)
	_, err = NewProblem(inst, nil)
	assert.Error(t, err)
}
