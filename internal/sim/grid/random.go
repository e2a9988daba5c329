package grid

import "math/rand"

// RandomGenerator is the grid-owned seeded PRNG. All probabilistic behaviour
// in a grid instance draws from it so that identically seeded instances stay
// in lockstep.
type RandomGenerator struct {
	rng *rand.Rand
}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{rng: rand.New(rand.NewSource(0))}
}

func (r *RandomGenerator) Seed(seed uint32) {
	r.rng = rand.New(rand.NewSource(int64(seed)))
}

// SampleInt returns a uniform value in [low, high].
func (r *RandomGenerator) SampleInt(low, high int32) int32 {
	if high <= low {
		return low
	}
	return low + r.rng.Int31n(high-low+1)
}

// SampleFloat returns a uniform value in [0, 1).
func (r *RandomGenerator) SampleFloat() float64 {
	return r.rng.Float64()
}
