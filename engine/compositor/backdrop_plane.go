package compositor

import (
	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// backdropSegments subdivides the backdrop plane along x.
const backdropSegments = 32

// planeVertex is one backdrop vertex as laid out in the vertex buffer.
type planeVertex struct {
	Position [3]float32
	UV       [2]float32
}

var planeVertexLayout = wgpu.VertexBufferLayout{
	ArrayStride: 20,
	StepMode:    wgpu.VertexStepModeVertex,
	Attributes: []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
		{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
	},
}

// planeMesh builds a width by height plane at z = 0 facing +z, split into segX by segY cells.
// Rows run top to bottom; uv (0, 0) is the bottom-left corner.
func planeMesh(width, height float32, segX, segY int) ([]planeVertex, []uint32) {
	segX, segY = max(segX, 1), max(segY, 1)
	cellW := width / float32(segX)
	cellH := height / float32(segY)

	vertices := make([]planeVertex, 0, (segX+1)*(segY+1))
	for iy := 0; iy <= segY; iy++ {
		y := height/2 - float32(iy)*cellH
		for ix := 0; ix <= segX; ix++ {
			vertices = append(vertices, planeVertex{
				Position: [3]float32{float32(ix)*cellW - width/2, y, 0},
				UV:       [2]float32{float32(ix) / float32(segX), 1 - float32(iy)/float32(segY)},
			})
		}
	}

	row := uint32(segX + 1)
	indices := make([]uint32, 0, segX*segY*6)
	for iy := range uint32(segY) {
		for ix := range uint32(segX) {
			a := ix + row*iy
			b := ix + row*(iy+1)
			c := ix + 1 + row*(iy+1)
			d := ix + 1 + row*iy
			indices = append(indices, a, b, d, b, c, d)
		}
	}
	return vertices, indices
}

// initBackdropPlane uploads the plane the backdrop shader draws. Caller must hold the mutex.
func (c *compositor) initBackdropPlane() error {
	vertices, indices := planeMesh(2*backdropHalfWidth, 2*backdropHalfHeight, backdropSegments, 1)
	return c.renderer.InitMeshBuffers(c.backdropPlane, common.SliceToBytes(vertices), common.SliceToBytes(indices), len(indices))
}
