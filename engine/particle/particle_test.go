package particle

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewField_Defaults(t *testing.T) {
	f, err := NewField(WithSeed(7))
	require.NoError(t, err)

	assert.Equal(t, DefaultCount, f.Count())
	assert.Len(t, f.Positions(), 3*DefaultCount)
	for i, p := range f.Particles() {
		assert.InDelta(t, 0, p.X, float64(DefaultRange))
		assert.InDelta(t, 0, p.Y, float64(DefaultRange))
		assert.InDelta(t, 0, p.Z, float64(DefaultRange))
		assert.Zero(t, p.Velocity)
		assert.GreaterOrEqual(t, p.Speed, float32(0.05))
		assert.LessOrEqual(t, p.Speed, float32(0.15))
		assert.Equal(t, p.Y, f.Positions()[3*i+1])
	}
}

func TestNewField_SeedIsReproducible(t *testing.T) {
	a, err := NewField(WithSeed(42), WithCount(16))
	require.NoError(t, err)
	b, err := NewField(WithSeed(42), WithCount(16))
	require.NoError(t, err)

	assert.Equal(t, a.Particles(), b.Particles())
}

func TestNewField_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []FieldBuilderOption
		err  error
	}{
		{"negative count", []FieldBuilderOption{WithCount(-1)}, ErrInvalidCount},
		{"zero range", []FieldBuilderOption{WithRange(0)}, ErrInvalidRange},
		{"inverted speed", []FieldBuilderOption{WithSpeed(common.Range{Min: 2, Max: 1})}, ErrInvalidRange},
		{"inverted step", []FieldBuilderOption{WithVelocityStep(common.Range{Min: 1, Max: 0})}, ErrInvalidRange},
		{"inverted phase", []FieldBuilderOption{WithPhaseOffset(common.Range{Min: 1, Max: 0})}, ErrInvalidRange},
		{"zero damping", []FieldBuilderOption{WithOscillation(1000, 0)}, ErrInvalidOscillation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewField(tt.opts...)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTick_ZeroCountIsNoOp(t *testing.T) {
	f, err := NewField(WithCount(0))
	require.NoError(t, err)

	assert.Equal(t, 0, f.Tick(16))
	assert.Empty(t, f.Positions())
}

func TestTick_FourParticleScenario(t *testing.T) {
	start := make([]Particle, 4)
	for i := range start {
		start[i] = Particle{X: float32(i) - 2, Y: 0, Z: float32(i), Speed: 1}
	}
	f, err := NewField(WithRange(10), WithParticles(start...))
	require.NoError(t, err)

	f.Tick(0)
	for _, p := range f.Particles() {
		assert.Equal(t, float32(-1), p.Y)
	}

	// y reaches -10 at tick 10 without wrapping; tick 11 falls to -11 and wraps to 10.
	wraps := 0
	for tick := 2; tick <= 11; tick++ {
		wraps += f.Tick(0)
	}
	assert.Equal(t, 4, wraps)
	for _, p := range f.Particles() {
		assert.Equal(t, float32(10), p.Y)
	}

	for tick := 12; tick <= 22; tick++ {
		wraps += f.Tick(0)
	}
	assert.Equal(t, 4, wraps, "each particle wraps exactly once")
	for i, p := range f.Particles() {
		assert.Equal(t, float32(-1), p.Y)
		assert.Equal(t, float32(i), p.Z, "z is never touched")
	}
}

func TestTick_VelocityRampAndReset(t *testing.T) {
	f, err := NewField(WithRange(10), WithParticles(Particle{Y: 10, Speed: 0.5, VelocityStep: 0.25}))
	require.NoError(t, err)

	prev := float32(0)
	for range 200 {
		wrapped := f.Tick(0) > 0
		p := f.Particles()[0]
		if wrapped {
			assert.Zero(t, p.Velocity)
			assert.Equal(t, float32(10), p.Y)
		} else {
			assert.InDelta(t, prev+0.25, p.Velocity, 1e-5)
		}
		prev = p.Velocity
	}
}

func TestTick_HorizontalWrap(t *testing.T) {
	f, err := NewField(
		WithRange(1),
		WithOscillation(1, 1),
		WithParticles(Particle{X: 0.9, Speed: 0, VelocityStep: 0.1, PhaseOffset: 1.5707964}),
	)
	require.NoError(t, err)

	// sin(0/1 + pi/2) / 1 == 1 pushes x past the bound.
	assert.Equal(t, 1, f.Tick(0))
	p := f.Particles()[0]
	assert.Equal(t, float32(-1), p.X)
	assert.Zero(t, p.Velocity)
}

func TestTick_WrapInvariantHolds(t *testing.T) {
	f, err := NewField(WithSeed(3), WithCount(256), WithRange(5),
		WithSpeed(common.Range{Min: 0.1, Max: 1}),
		WithVelocityStep(common.Range{Min: 0.01, Max: 0.2}),
		WithOscillation(50, 2),
	)
	require.NoError(t, err)

	for frame := range 500 {
		f.Tick(float64(frame) * 16.6)
		for _, p := range f.Particles() {
			require.GreaterOrEqual(t, p.Y, float32(-5))
			require.LessOrEqual(t, p.Y, float32(5))
			require.LessOrEqual(t, p.X, float32(5))
		}
	}
}

func TestPositions_BufferIdentityIsStable(t *testing.T) {
	f, err := NewField(WithSeed(1), WithCount(8))
	require.NoError(t, err)

	before := f.Positions()
	f.Tick(10)
	f.Tick(20)
	after := f.Positions()

	require.Len(t, after, 24)
	assert.Same(t, &before[0], &after[0])
	for i, p := range f.Particles() {
		assert.Equal(t, []float32{p.X, p.Y, p.Z}, after[3*i:3*i+3])
	}
}
