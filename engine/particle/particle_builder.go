package particle

import (
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-drift/common"
)

const (
	// DefaultCount is the number of particles built when no count is configured.
	DefaultCount = 2000
	// DefaultRange is the default half-extent of the field.
	DefaultRange float32 = 50
	// DefaultOscillationPeriod is K, the divisor applied to elapsed milliseconds in the sway term.
	DefaultOscillationPeriod = 1000.0
	// DefaultOscillationDamping is D, the divisor applied to the sway amplitude.
	DefaultOscillationDamping = 20.0
)

// FieldBuilderOption is a functional option used to configure a Field during construction.
type FieldBuilderOption func(*Field)

// WithCount sets the number of particles to generate.
//
// Parameters:
//   - count: the particle count
//
// Returns:
//   - FieldBuilderOption: a function that sets the count
func WithCount(count int) FieldBuilderOption {
	return func(f *Field) {
		f.count = count
	}
}

// WithRange sets the half-extent of the field on every axis.
//
// Parameters:
//   - extent: the half-extent
//
// Returns:
//   - FieldBuilderOption: a function that sets the range
func WithRange(extent float32) FieldBuilderOption {
	return func(f *Field) {
		f.extent = extent
	}
}

// WithSpeed sets the interval per-particle fall speeds are drawn from.
func WithSpeed(r common.Range) FieldBuilderOption {
	return func(f *Field) {
		f.speed = r
	}
}

// WithVelocityStep sets the interval per-particle acceleration steps are drawn from.
func WithVelocityStep(r common.Range) FieldBuilderOption {
	return func(f *Field) {
		f.step = r
	}
}

// WithPhaseOffset sets the interval per-particle sway phase offsets are drawn from.
func WithPhaseOffset(r common.Range) FieldBuilderOption {
	return func(f *Field) {
		f.phase = r
	}
}

// WithOscillation sets the sway period K (milliseconds divisor) and damping D (amplitude divisor).
//
// Parameters:
//   - period: K
//   - damping: D
//
// Returns:
//   - FieldBuilderOption: a function that sets both constants
func WithOscillation(period, damping float64) FieldBuilderOption {
	return func(f *Field) {
		f.period = period
		f.damping = damping
	}
}

// WithSeed makes particle generation reproducible.
//
// Parameters:
//   - seed: the PCG seed
//
// Returns:
//   - FieldBuilderOption: a function that seeds the field's random source
func WithSeed(seed uint64) FieldBuilderOption {
	return func(f *Field) {
		f.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	}
}

// WithRand injects the random source used for generation.
func WithRand(rng *rand.Rand) FieldBuilderOption {
	return func(f *Field) {
		f.rng = rng
	}
}

// WithParticles replaces random generation with explicit particles. The count option is ignored.
//
// Parameters:
//   - particles: the particles to simulate, copied
//
// Returns:
//   - FieldBuilderOption: a function that sets the explicit particles
func WithParticles(particles ...Particle) FieldBuilderOption {
	return func(f *Field) {
		f.explicit = particles
		f.hasExplicit = true
	}
}
