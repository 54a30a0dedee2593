package depth_sorter

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMVP() mgl32.Mat4 {
	proj := mgl32.Perspective(mgl32.DegToRad(45), 16.0/9.0, 0.1, 1000)
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 100}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	return proj.Mul4(view)
}

func depth(mvp mgl32.Mat4, positions []float32, i uint32) float32 {
	p := mvp.Mul4x1(mgl32.Vec4{positions[3*i], positions[3*i+1], positions[3*i+2], 1})
	return p.Z() / p.W()
}

func TestSort_FarthestFirst(t *testing.T) {
	s := NewSorter()
	positions := []float32{
		0, 0, 10, // near
		0, 0, -40, // far
		0, 0, 0, // middle
	}

	assert.Equal(t, []uint32{1, 2, 0}, s.Sort(testMVP(), positions))
}

func TestSort_TiesKeepIndexOrder(t *testing.T) {
	s := NewSorter()
	positions := []float32{
		0, 0, -5,
		1, 0, 5,
		-1, 0, 5,
		0, 2, 5,
	}

	assert.Equal(t, []uint32{1, 2, 3, 0}, s.Sort(mgl32.Ident4(), positions))
}

func TestSort_PermutationAndDescending(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	positions := make([]float32, 3*500)
	for i := range positions {
		positions[i] = rng.Float32()*100 - 50
	}
	mvp := testMVP()
	s := NewSorter()

	index := s.Sort(mvp, positions)
	require.Len(t, index, 500)

	sorted := slices.Clone(index)
	slices.Sort(sorted)
	for i, v := range sorted {
		require.Equal(t, uint32(i), v)
	}
	for i := 0; i+1 < len(index); i++ {
		assert.GreaterOrEqual(t, depth(mvp, positions, index[i]), depth(mvp, positions, index[i+1]))
	}
}

func TestSort_ReusesBuffer(t *testing.T) {
	s := NewSorter()
	positions := []float32{0, 0, 1, 0, 0, 2}

	first := s.Sort(mgl32.Ident4(), positions)
	positions[2], positions[5] = 3, -3
	second := s.Sort(mgl32.Ident4(), positions)

	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, []uint32{0, 1}, second)
	assert.Equal(t, second, s.Index())
}

func TestSort_EmptyIsNoOp(t *testing.T) {
	s := NewSorter()

	assert.Empty(t, s.Sort(testMVP(), nil))
	assert.Empty(t, s.Index())
}

func TestIdentity(t *testing.T) {
	s := NewSorter()
	s.Sort(mgl32.Ident4(), []float32{0, 0, -1, 0, 0, 1})

	assert.Equal(t, []uint32{0, 1, 2}, s.Identity(3))
}
