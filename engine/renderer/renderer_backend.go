package renderer

import (
	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeHeadless selects a backend that touches no GPU and records every pass, draw and
	// buffer write into a Recorder. Used by tests and by the binary's headless mode.
	BackendTypeHeadless
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA)
// in the main pass. Off-screen targets are always single sampled.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4
)

// DrawCommand describes one draw within the current pass.
type DrawCommand struct {
	// Mesh holds vertex/index buffers. When nil, or when it has no index buffer, the draw is
	// non-indexed and VertexCount vertices are generated in the vertex shader.
	Mesh bind_group_provider.BindGroupProvider
	// VertexCount is the vertex count for non-indexed draws.
	VertexCount uint32
	// InstanceCount is the number of instances to draw. Zero is treated as one.
	InstanceCount uint32
	// BindGroups are set on the pass in order, group i = BindGroups[i].
	BindGroups []bind_group_provider.BindGroupProvider
}

// RendererBackend is the interface every backend implements. The Renderer validates calls
// (frame and pass state, pipeline lookups, argument checks) before delegating here.
type RendererBackend interface {
	// ConfigureSurface (re)creates the surface configuration and the main pass attachments.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	ConfigureSurface(width, height int)

	// SetPresentMode sets the surface present mode.
	SetPresentMode(mode PresentMode)

	// RegisterRenderPipeline creates the GPU pipeline for p and stores it on p.
	//
	// Parameters:
	//   - p: the pipeline description
	//   - layouts: merged bind group layouts of both stages keyed by group index
	//
	// Returns:
	//   - error: an error if the pipeline could not be created
	RegisterRenderPipeline(p pipeline.Pipeline, layouts map[int]wgpu.BindGroupLayoutDescriptor) error

	// InitMeshBuffers uploads vertex and index data to new GPU buffers stored on provider.
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates missing buffers and the bind group described by descriptor.
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitTextureView uploads one or more equally sized RGBA layers into one texture and stores its view.
	InitTextureView(provider bind_group_provider.BindGroupProvider, binding int, dimension wgpu.TextureViewDimension, layers []common.TextureStagingData) error

	// InitSampler creates a sampler stored on provider.
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, data common.SamplerStagingData) error

	// InitRenderTarget creates an off-screen color texture usable both as a pass attachment and as a sampled texture.
	InitRenderTarget(provider bind_group_provider.BindGroupProvider, binding, width, height int) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and creates the frame's command encoder.
	BeginFrame() error

	// BeginPass begins a render pass into target, or into the surface when target is nil.
	BeginPass(target bind_group_provider.BindGroupProvider, clear common.Color) error

	// DrawCall encodes one draw in the current pass.
	DrawCall(p pipeline.Pipeline, cmd DrawCommand)

	// EndPass ends the current render pass.
	EndPass()

	// EndFrame finishes the frame's command encoder and submits it.
	EndFrame()

	// Present presents the surface and releases the swapchain texture.
	Present()
}
