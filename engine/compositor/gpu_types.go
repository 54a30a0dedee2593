package compositor

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSpriteFrame is the per-frame uniform of the sprite pipeline.
// Matches the SpriteFrame struct in shaders/sprites.wgsl (144 bytes).
type GPUSpriteFrame struct {
	View       [16]float32 // offset   0: column-major world to view
	Projection [16]float32 // offset  64: column-major view to clip
	SpriteSize float32     // offset 128: billboard half size in world units
	LayerCount uint32      // offset 132: number of sprite texture layers
	_          [2]float32  // offset 136: padding to 144
}

// Size returns the size of the GPUSpriteFrame struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUSpriteFrame) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSpriteFrame struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSpriteFrame) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i, v := range g.View {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	for i, v := range g.Projection {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[128:], math.Float32bits(g.SpriteSize))
	binary.LittleEndian.PutUint32(buf[132:], g.LayerCount)
	return buf
}
