package domain

import "math/rand/v2"

// RandomSource abstracts the randomness used for demo locations, weather
// simulation, and reward selection so tests can pin outcomes.
type RandomSource interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type systemRandom struct{}

func (systemRandom) Float64() float64 { return rand.Float64() }
func (systemRandom) IntN(n int) int   { return rand.IntN(n) }

// NewRandomSource returns the production RandomSource backed by math/rand/v2.
func NewRandomSource() RandomSource {
	return systemRandom{}
}
