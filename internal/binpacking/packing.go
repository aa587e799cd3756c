package binpacking

import (
	"fmt"

	"github.com/copyleftdev/binpack/internal/mip"
)

// Packing is an assignment of items to bins.
type Packing struct {
	// Bins lists the item indices of each non-empty bin, ordered by bin-slot.
	Bins [][]int `json:"bins"`
	// Loads is the total size packed in each bin of Bins.
	Loads []int `json:"loads"`
}

// NumBins returns the number of non-empty bins.
func (p *Packing) NumBins() int { return len(p.Bins) }

// Validate checks that every item of inst is packed exactly once and that no
// bin exceeds the capacity.
func (p *Packing) Validate(inst *Instance) error {
	if len(p.Loads) != len(p.Bins) {
		return fmt.Errorf("packing has %d bins but %d loads", len(p.Bins), len(p.Loads))
	}
	seen := make([]bool, inst.NumItems())
	for b, items := range p.Bins {
		load := 0
		for _, i := range items {
			if i < 0 || i >= inst.NumItems() {
				return fmt.Errorf("bin %d holds unknown item %d", b, i)
			}
			if seen[i] {
				return fmt.Errorf("item %d is packed more than once", i)
			}
			seen[i] = true
			load += inst.ItemSize(i)
		}
		if load != p.Loads[b] {
			return fmt.Errorf("bin %d reports load %d, items sum to %d", b, p.Loads[b], load)
		}
		if load > inst.BinSize() {
			return fmt.Errorf("bin %d load %d exceeds capacity %d", b, load, inst.BinSize())
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("item %d is not packed", i)
		}
	}
	return nil
}

// extractPacking reads the assignment from solver values. It checks the
// formulation's own invariants: each item is in exactly one bin-slot, and a
// slot with y[j] = 0 is empty.
func extractPacking(inst *Instance, m *Model, s mip.Solver) (*Packing, error) {
	n := inst.NumItems()
	slots := make([][]int, n)
	for i := 0; i < n; i++ {
		assigned := -1
		for j := 0; j < n; j++ {
			if s.Value(m.X[i][j]) < 0.5 {
				continue
			}
			if assigned >= 0 {
				return nil, fmt.Errorf("%w: item %d assigned to bin-slots %d and %d", mip.ErrSolverFailure, i, assigned, j)
			}
			assigned = j
		}
		if assigned < 0 {
			return nil, fmt.Errorf("%w: item %d is not assigned", mip.ErrSolverFailure, i)
		}
		slots[assigned] = append(slots[assigned], i)
	}

	p := &Packing{}
	for j, items := range slots {
		if len(items) == 0 {
			continue
		}
		if s.Value(m.Y[j]) < 0.5 {
			return nil, fmt.Errorf("%w: bin-slot %d holds items but is marked unused", mip.ErrSolverFailure, j)
		}
		load := 0
		for _, i := range items {
			load += inst.ItemSize(i)
		}
		p.Bins = append(p.Bins, items)
		p.Loads = append(p.Loads, load)
	}
	return p, nil
}
