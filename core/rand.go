package core

import "math/rand"

// RandSource supplies uniformly distributed values in [0,1).
// *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// NewRandSource returns a seeded source for reproducible passes.
func NewRandSource(seed int64) RandSource {
	return rand.New(rand.NewSource(seed))
}

// uniform draws from [lo, hi).
func uniform(src RandSource, lo, hi float64) float64 {
	return lo + (hi-lo)*src.Float64()
}
