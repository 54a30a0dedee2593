package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUBackdropParamsSource is the canonical WGSL definition of the BackdropParams struct.
// Matches GPUBackdropParams layout exactly (48 bytes, std140 aligned).
//
//go:embed assets/backdrop_params.wgsl
var GPUBackdropParamsSource string

// GPUBackdropParams is the uniform shared by the backdrop and sprite shaders.
// Time is the shared animation clock in seconds.
// Size: 48 bytes (two vec4<f32> + f32 padded to 16).
type GPUBackdropParams struct {
	Color1 [4]float32 // offset 0
	Color2 [4]float32 // offset 16
	Time   float32    // offset 32
	_      [3]float32 // offset 36: padding to 48
}

// Size returns the size of the GPUBackdropParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUBackdropParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBackdropParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload.
func (g *GPUBackdropParams) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.Color1 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.Color2 {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Time))
	return buf
}
