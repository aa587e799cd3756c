package binpacking

import (
	"math/rand"
	"time"
)

// Generator draws random item sizes.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a Generator drawing from rng. A nil rng is seeded
// from the clock; pass a seeded rng for reproducible instances.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{rng: rng}
}

// Generate returns numItems sizes, each uniform in [1, maxItemSize].
func (g *Generator) Generate(numItems, maxItemSize int) ([]int, error) {
	if numItems < 0 {
		return nil, invalidf("number of items must not be negative, got %d", numItems).WithOperation("generate")
	}
	if maxItemSize < 1 {
		return nil, invalidf("maximum item size must be at least 1, got %d", maxItemSize).WithOperation("generate")
	}

	sizes := make([]int, numItems)
	for i := range sizes {
		sizes[i] = g.rng.Intn(maxItemSize) + 1
	}
	return sizes, nil
}
