// Package depth_sorter orders particles back to front so alpha-blended sprites composite correctly
// without sorting the whole scene.
package depth_sorter

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
)

type depthKey struct {
	depth float32
	index uint32
}

// Sorter owns the draw-order index buffer and the scratch space used to rebuild it.
// A Sorter is not safe for concurrent use; it runs on the frame loop after the particle tick.
type Sorter struct {
	index   []uint32
	scratch []depthKey
}

// NewSorter creates a Sorter. The index buffer is allocated lazily on the first Sort.
func NewSorter() *Sorter {
	return &Sorter{}
}

// Sort rewrites the index buffer so index[i] is the i-th farthest particle from the camera.
// Depth is the clip-space z of each position after the perspective divide. Equal depths keep
// ascending particle order so the result does not flicker between frames. The buffer is reused
// across calls and only reallocated when the particle count changes.
//
// Parameters:
//   - mvp: the combined projection * view * model transform
//   - positions: packed x y z triples, one per particle
//
// Returns:
//   - []uint32: the index buffer, a permutation of [0, len(positions)/3)
func (s *Sorter) Sort(mvp mgl32.Mat4, positions []float32) []uint32 {
	n := len(positions) / 3
	s.ensure(n)
	if n == 0 {
		return s.index
	}

	for i := range n {
		p := mvp.Mul4x1(mgl32.Vec4{positions[3*i], positions[3*i+1], positions[3*i+2], 1})
		z := p.Z()
		if w := p.W(); w != 0 {
			z /= w
		}
		s.scratch[i] = depthKey{depth: z, index: uint32(i)}
	}

	slices.SortFunc(s.scratch, func(a, b depthKey) int {
		if c := cmp.Compare(b.depth, a.depth); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	for i, k := range s.scratch {
		s.index[i] = k.index
	}
	return s.index
}

// Index returns the current index buffer. Before any sort it is empty.
func (s *Sorter) Index() []uint32 {
	return s.index
}

// Identity resets the index buffer to [0, n) without sorting. Used when depth sorting is disabled.
//
// Parameters:
//   - n: the particle count
//
// Returns:
//   - []uint32: the identity index buffer
func (s *Sorter) Identity(n int) []uint32 {
	s.ensure(n)
	for i := range s.index {
		s.index[i] = uint32(i)
	}
	return s.index
}

func (s *Sorter) ensure(n int) {
	if s.index != nil && len(s.index) == n {
		return
	}
	s.index = make([]uint32, n)
	s.scratch = make([]depthKey, n)
	for i := range s.index {
		s.index[i] = uint32(i)
	}
}
