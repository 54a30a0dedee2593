package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUCameraUniformSource declares the WGSL CameraUniform struct mirrored by GPUCameraUniform.
// Shaders that bind a camera prepend it to their own source.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the camera uniform as laid out in the buffer: 80 bytes, std140 aligned.
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset  0: column-major view-projection matrix
	CameraPosition [3]float32  // offset 64: world-space camera position
	_              float32     // offset 76: padding to 80 bytes
}

// Size returns the uniform size in bytes.
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal encodes the uniform little-endian, ready for a BufferWrite.
//
// Returns:
//   - []byte: the encoded uniform
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.ViewProj {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.CameraPosition {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	return buf
}
