package attribution

import (
	"math"
	"math/rand/v2"

	"github.com/absmach/shapley/pkg/coalition"
)

// defaultSeed replaces seed 0 so the default configuration stays reproducible.
const defaultSeed int64 = 1

func newRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}

	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

// subsetSampler yields distinct non-empty subsets of active in a uniformly
// random order. It is a lazy Fisher-Yates shuffle over the subset indices
// [1, 2^n): only displaced positions are stored, so memory grows with the
// number of samples drawn, not with 2^n.
type subsetSampler struct {
	active    coalition.Coalition
	total     uint64
	drawn     uint64
	displaced map[uint64]uint64
	rng       *rand.Rand
}

func newSubsetSampler(active coalition.Coalition, rng *rand.Rand) *subsetSampler {
	return &subsetSampler{
		active:    active,
		total:     nonEmptySubsets(active.Size()),
		displaced: make(map[uint64]uint64),
		rng:       rng,
	}
}

// nonEmptySubsets returns 2^n - 1.
func nonEmptySubsets(n int) uint64 {
	if n >= 64 {
		return math.MaxUint64
	}

	return uint64(1)<<uint(n) - 1
}

func (s *subsetSampler) at(pos uint64) uint64 {
	if v, ok := s.displaced[pos]; ok {
		return v
	}

	return pos
}

// Next returns the next subset, or false once every non-empty subset has
// been returned.
func (s *subsetSampler) Next() (coalition.Coalition, bool) {
	if s.drawn >= s.total {
		return coalition.Empty, false
	}

	j := s.drawn + s.rng.Uint64N(s.total-s.drawn)
	picked := s.at(j)
	s.displaced[j] = s.at(s.drawn)
	delete(s.displaced, s.drawn)
	s.drawn++

	return s.active.Expand(picked + 1), true
}

// sampleCount clamps the configured budget to the number of non-empty
// subsets of an n member active set.
func sampleCount(budget, n int) int {
	if budget <= 0 {
		return 0
	}
	if total := nonEmptySubsets(n); uint64(budget) > total {
		return int(total)
	}

	return budget
}
