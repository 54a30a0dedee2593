// Package particle implements the drifting particle field: a fixed set of particles integrated
// once per frame with a constant-rate fall, a sawtooth acceleration, a sinusoidal sideways sway
// and wrap-around at the field bounds.
package particle

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/Carmen-Shannon/oxy-drift/common"
)

var (
	// ErrInvalidCount is returned for a negative particle count.
	ErrInvalidCount = errors.New("particle count must not be negative")
	// ErrInvalidRange is returned for a non-positive half-extent or an inverted parameter interval.
	ErrInvalidRange = errors.New("invalid particle range")
	// ErrInvalidOscillation is returned for a zero oscillation period or damping.
	ErrInvalidOscillation = errors.New("oscillation period and damping must be non-zero")
)

// Particle is one simulated point. Velocity is non-decreasing between wraps and resets to zero at a wrap.
type Particle struct {
	X, Y, Z      float32
	Speed        float32
	Velocity     float32
	VelocityStep float32
	PhaseOffset  float32
}

// Field owns the particles and the contiguous position buffer mirrored from them.
// A Field is not safe for concurrent use; it is driven by a single frame loop.
type Field struct {
	particles []Particle
	positions []float32
	rng       *rand.Rand

	count       int
	extent      float32
	speed       common.Range
	step        common.Range
	phase       common.Range
	period      float64
	damping     float64
	explicit    []Particle
	hasExplicit bool
}

// NewField builds a particle field. Without WithParticles, count particles are created with
// positions uniform in [-range, range] on every axis and speed, velocity step and phase offset
// drawn from their configured intervals. The position buffer is allocated once here.
//
// Parameters:
//   - options: a variadic list of FieldBuilderOption functions
//
// Returns:
//   - *Field: the built field
//   - error: an error if the configuration is invalid
func NewField(options ...FieldBuilderOption) (*Field, error) {
	f := &Field{
		count:   DefaultCount,
		extent:  DefaultRange,
		speed:   common.Range{Min: 0.05, Max: 0.15},
		step:    common.Range{Min: 0.0005, Max: 0.002},
		phase:   common.Range{Min: 0, Max: 2 * math.Pi},
		period:  DefaultOscillationPeriod,
		damping: DefaultOscillationDamping,
	}
	for _, opt := range options {
		opt(f)
	}
	if f.rng == nil {
		f.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if err := f.validate(); err != nil {
		return nil, err
	}

	if f.hasExplicit {
		f.particles = append([]Particle(nil), f.explicit...)
	} else {
		f.particles = make([]Particle, f.count)
		for i := range f.particles {
			f.particles[i] = f.spawn()
		}
	}
	f.count = len(f.particles)
	f.positions = make([]float32, 3*f.count)
	for i := range f.particles {
		f.mirror(i)
	}
	return f, nil
}

func (f *Field) validate() error {
	if f.count < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, f.count)
	}
	if !(f.extent > 0) {
		return fmt.Errorf("%w: half-extent %v", ErrInvalidRange, f.extent)
	}
	for name, r := range map[string]common.Range{"speed": f.speed, "velocity_step": f.step, "phase_offset": f.phase} {
		if !r.Valid() {
			return fmt.Errorf("%w: %s min %v > max %v", ErrInvalidRange, name, r.Min, r.Max)
		}
	}
	if f.period == 0 || f.damping == 0 {
		return ErrInvalidOscillation
	}
	return nil
}

func (f *Field) spawn() Particle {
	extent := common.Range{Min: -f.extent, Max: f.extent}
	return Particle{
		X:            extent.Sample(f.rng),
		Y:            extent.Sample(f.rng),
		Z:            extent.Sample(f.rng),
		Speed:        f.speed.Sample(f.rng),
		VelocityStep: f.step.Sample(f.rng),
		PhaseOffset:  f.phase.Sample(f.rng),
	}
}

// Tick advances every particle by one frame, in index order, and rewrites the position buffer.
// Count zero is a no-op.
//
// Parameters:
//   - elapsedMs: milliseconds since the animation started, drives the sideways sway
//
// Returns:
//   - int: the number of wraps that occurred during this tick
func (f *Field) Tick(elapsedMs float64) int {
	wraps := 0
	for i := range f.particles {
		p := &f.particles[i]
		p.Velocity += p.VelocityStep
		p.Y -= p.Speed + p.Velocity
		p.X += float32(math.Sin(elapsedMs/f.period+float64(p.PhaseOffset)) / f.damping)

		if p.Y < -f.extent {
			p.Y = f.extent
			p.Velocity = 0
			wraps++
		}
		if p.X > f.extent {
			p.X = -f.extent
			p.Velocity = 0
			wraps++
		}
		f.mirror(i)
	}
	return wraps
}

func (f *Field) mirror(i int) {
	p := &f.particles[i]
	f.positions[3*i] = p.X
	f.positions[3*i+1] = p.Y
	f.positions[3*i+2] = p.Z
}

// Positions returns the position buffer, x y z per particle. The same backing array is
// returned on every call and rewritten in place by Tick.
func (f *Field) Positions() []float32 {
	return f.positions
}

// Particles returns a read-only view of the particles. Callers must not modify the slice.
func (f *Field) Particles() []Particle {
	return f.particles
}

// Count returns the number of particles.
func (f *Field) Count() int {
	return f.count
}

// Range returns the half-extent of the field.
func (f *Field) Range() float32 {
	return f.extent
}
