package systems

import "math/rand"

// Random supplies the draws the rule engine needs. One instance is shared by
// the whole run; the order of calls is part of the simulated trajectory.
type Random interface {
	Float64() float64 // uniform in [0,1)
	Intn(n int) int   // uniform in [0,n)
	Bool() bool
}

// SeededRandom is the default Random backed by math/rand.
type SeededRandom struct {
	r *rand.Rand
}

// NewRandom creates a seeded Random.
func NewRandom(seed int64) *SeededRandom {
	return &SeededRandom{r: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform draw in [0,1).
func (s *SeededRandom) Float64() float64 { return s.r.Float64() }

// Intn returns a uniform draw in [0,n). Panics if n <= 0.
func (s *SeededRandom) Intn(n int) int { return s.r.Intn(n) }

// Bool returns a fair coin flip.
func (s *SeededRandom) Bool() bool { return s.r.Intn(2) == 1 }

// chance draws once and reports whether the draw fell below p.
func chance(rng Random, p float64) bool {
	return rng.Float64() < p
}
