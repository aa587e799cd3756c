// Package binpacking formulates bin packing as a binary integer program and
// solves it through a mip.Solver.
package binpacking

import (
	"math/rand"
)

// DefaultNumItems is the number of items generated when neither explicit
// sizes nor a count are given.
const DefaultNumItems = 10

// Instance is an immutable bin packing problem: a bin capacity and the sizes
// of the items to pack. Item i is the i-th size.
type Instance struct {
	binSize   int
	itemSizes []int
}

type instanceConfig struct {
	itemSizes   []int
	explicit    bool
	numItems    int
	maxItemSize int
	rng         *rand.Rand
}

// InstanceOption configures NewInstance.
type InstanceOption func(*instanceConfig)

// WithItemSizes sets the item sizes explicitly. The number of items becomes
// len(sizes), overriding WithNumItems.
func WithItemSizes(sizes ...int) InstanceOption {
	return func(c *instanceConfig) {
		c.itemSizes = append([]int(nil), sizes...)
		c.explicit = true
	}
}

// WithNumItems sets how many items to generate. Ignored with WithItemSizes.
func WithNumItems(n int) InstanceOption {
	return func(c *instanceConfig) { c.numItems = n }
}

// WithMaxItemSize sets the largest size the generator may draw. It defaults
// to the bin size and must not exceed it.
func WithMaxItemSize(s int) InstanceOption {
	return func(c *instanceConfig) { c.maxItemSize = s }
}

// WithRand sets the random source used to generate item sizes.
func WithRand(rng *rand.Rand) InstanceOption {
	return func(c *instanceConfig) { c.rng = rng }
}

// NewInstance validates the parameters and returns the instance. Sizes are
// generated at random unless WithItemSizes is given. All validation happens
// before anything is generated; failures wrap ErrInvalidInstance.
func NewInstance(binSize int, opts ...InstanceOption) (*Instance, error) {
	cfg := instanceConfig{numItems: DefaultNumItems, maxItemSize: binSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	if binSize <= 0 {
		return nil, invalidf("bin size must be positive, got %d", binSize)
	}
	if cfg.maxItemSize <= 0 {
		return nil, invalidf("maximum item size must be positive, got %d", cfg.maxItemSize)
	}
	if binSize < cfg.maxItemSize {
		return nil, invalidf("bin size %d is smaller than the maximum item size %d", binSize, cfg.maxItemSize)
	}

	if cfg.explicit {
		if len(cfg.itemSizes) == 0 {
			return nil, invalidf("at least one item is required")
		}
		for i, s := range cfg.itemSizes {
			if s <= 0 {
				return nil, invalidf("item %d has non-positive size %d", i, s)
			}
			if s > binSize {
				return nil, invalidf("item %d of size %d does not fit in a bin of size %d", i, s, binSize)
			}
		}
		return &Instance{binSize: binSize, itemSizes: cfg.itemSizes}, nil
	}

	if cfg.numItems <= 0 {
		return nil, invalidf("number of items must be positive, got %d", cfg.numItems)
	}
	sizes, err := NewGenerator(cfg.rng).Generate(cfg.numItems, cfg.maxItemSize)
	if err != nil {
		return nil, err
	}
	return &Instance{binSize: binSize, itemSizes: sizes}, nil
}

// BinSize returns the capacity of every bin.
func (in *Instance) BinSize() int { return in.binSize }

// NumItems returns the number of items.
func (in *Instance) NumItems() int { return len(in.itemSizes) }

// ItemSize returns the size of item i.
func (in *Instance) ItemSize(i int) int { return in.itemSizes[i] }

// ItemSizes returns a copy of the item sizes.
func (in *Instance) ItemSizes() []int {
	return append([]int(nil), in.itemSizes...)
}

// TotalSize returns the sum of all item sizes.
func (in *Instance) TotalSize() int {
	total := 0
	for _, s := range in.itemSizes {
		total += s
	}
	return total
}

// MaxItemSize returns the largest item size.
func (in *Instance) MaxItemSize() int {
	max := 0
	for _, s := range in.itemSizes {
		if s > max {
			max = s
		}
	}
	return max
}

// LowerBound returns ceil(TotalSize / BinSize), a bound no packing can beat.
func (in *Instance) LowerBound() int {
	return (in.TotalSize() + in.binSize - 1) / in.binSize
}
