package common

import (
	"math/rand/v2"
	"unsafe"
)

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// Range is a closed interval [Min, Max] used for randomized per-particle parameters.
type Range struct {
	Min float32 `yaml:"min"`
	Max float32 `yaml:"max"`
}

// Valid reports whether the interval is well formed (Min <= Max).
func (r Range) Valid() bool {
	return r.Min <= r.Max
}

// Sample draws a value uniformly from the interval using rng.
// A degenerate interval (Min == Max) always returns Min.
//
// Parameters:
//   - rng: the random source to draw from
//
// Returns:
//   - float32: a value in [Min, Max]
func (r Range) Sample(rng *rand.Rand) float32 {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + (r.Max-r.Min)*rng.Float32()
}
