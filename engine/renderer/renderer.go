package renderer

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

var (
	// ErrPipelineNotFound is returned when a draw references an unregistered pipeline key.
	ErrPipelineNotFound = errors.New("render pipeline not found")
	// ErrNoFrame is returned when a pass is begun outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")
	// ErrPassActive is returned when a pass is begun while another is still open.
	ErrPassActive = errors.New("a render pass is already active")
	// ErrNoPass is returned when drawing outside a pass.
	ErrNoPass = errors.New("no render pass active")
	// ErrTargetMismatch is returned when a pipeline is drawn into a pass of the wrong target kind.
	ErrTargetMismatch = errors.New("pipeline target does not match pass target")
	// ErrSurfaceUnavailable is returned by BeginFrame when no surface texture could be acquired,
	// usually while the window is being resized or minimized. The frame should be skipped.
	ErrSurfaceUnavailable = errors.New("surface texture unavailable")
)

// Surface is what the WGPU backend needs from a window to present into it.
// window.Window satisfies it; the headless backend accepts nil.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu     *sync.Mutex
	logger *zap.Logger

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	width, height int

	frameActive bool
	passActive  bool
	passKind    pipeline.TargetKind

	// presentPending is set between EndFrame and Present, while the acquired surface texture is still owed.
	presentPending bool
	// resizePending marks a surface size recorded mid-frame, applied after Present or at the next BeginFrame.
	resizePending bool

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	recorder             *Recorder
	surfaceWidth         int
	surfaceHeight        int
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API over a backend: pipelines are registered once and cached by key, GPU
// resources are created onto BindGroupProviders, and each frame is a sequence of passes bracketed
// by BeginFrame/EndFrame. A pass targets either the surface (nil target) or a provider that owns an
// off-screen render target created by InitRenderTarget.
type Renderer interface {
	// BackendType returns the backend this renderer was created with.
	BackendType() RendererBackendType

	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the GPU pipeline objects for each pipeline, then caches them by key.
	// Pipelines whose keys are already registered are skipped. Every binding declared in the WGSL
	// source must be covered by a declared bind group layout entry.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if a pipeline is incomplete or creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize reconfigures the surface to a new size. Zero sizes (minimized windows) are ignored.
	// A resize that arrives between BeginFrame and Present only records the size; the surface is
	// reconfigured at the start of the next frame, before its texture is acquired.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Size returns the current surface size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (int, int)

	// SetPresentMode sets the surface present mode. Takes effect on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes (uint32 indices) to upload to the GPU
	//   - indexCount: the number of indices, used for draw calls
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error

	// InitBindGroup creates GPU buffers and a bind group from a layout descriptor and stores them
	// on the given BindGroupProvider. Textures and samplers must be initialized via InitTextureView,
	// InitRenderTarget and InitSampler first. Buffer sizes come from the provider (WithBufferSize)
	// and fall back to the entry's MinBindingSize.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error

	// InitTextureView creates a GPU texture from one or more RGBA layers and stores its view on the
	// provider. All layers must share the same dimensions.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created texture view on
	//   - binding: the binding index for this texture
	//   - dimension: the view dimension (2D, or 2DArray for sprite atlases)
	//   - layers: the pixel data for each layer
	//
	// Returns:
	//   - error: an error if the layers are inconsistent or texture creation fails
	InitTextureView(provider bind_group_provider.BindGroupProvider, binding int, dimension wgpu.TextureViewDimension, layers ...common.TextureStagingData) error

	// InitSampler creates a GPU sampler and stores it on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created sampler on
	//   - binding: the binding index for this sampler
	//   - data: the sampler configuration
	//
	// Returns:
	//   - error: an error if sampler creation fails
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, data common.SamplerStagingData) error

	// InitRenderTarget creates an off-screen color target of the given size and attaches it to the
	// provider at binding. The provider can then be passed to BeginPass and sampled in later passes.
	//
	// Parameters:
	//   - provider: the BindGroupProvider that owns the target
	//   - binding: the binding index holding the target's texture view
	//   - width: the target width in pixels
	//   - height: the target height in pixels
	//
	// Returns:
	//   - error: an error if the size is invalid or texture creation fails
	InitRenderTarget(provider bind_group_provider.BindGroupProvider, binding, width, height int) error

	// WriteBuffers writes all staged buffer writes to the GPU queue in one batch.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the frame's command encoder.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired or a frame is already open
	BeginFrame() error

	// BeginPass begins a render pass. A nil target renders to the surface (the main pass).
	//
	// Parameters:
	//   - target: a provider initialized with InitRenderTarget, or nil for the surface
	//   - clear: the clear color for the pass
	//
	// Returns:
	//   - error: an error if no frame is open, a pass is already active or the target has no render target
	BeginPass(target bind_group_provider.BindGroupProvider, clear common.Color) error

	// DrawCall encodes a single draw command within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - cmd: the draw description
	//
	// Returns:
	//   - error: an error if the pipeline is not found, no pass is active or the target kind mismatches
	DrawCall(pipelineKey string, cmd DrawCommand) error

	// EndPass ends the current render pass. No-op when no pass is active.
	EndPass()

	// EndFrame ends any open pass, then submits the frame's command buffer.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - surface: the window to present into; may be nil for BackendTypeHeadless
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		logger:        zap.NewNop(),
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		surfaceWidth:  1280,
		surfaceHeight: 720,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	if surface != nil {
		r.surfaceWidth, r.surfaceHeight = surface.Width(), surface.Height()
	}

	switch backendType {
	case BackendTypeHeadless:
		if r.recorder == nil {
			r.recorder = NewRecorder()
		}
		r.backend = newHeadlessRendererBackend(r.recorder)
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.width, r.height = r.surfaceWidth, r.surfaceHeight
	r.backend.ConfigureSurface(r.width, r.height)
	r.logger.Debug("renderer created",
		zap.Int("backend", int(backendType)),
		zap.Int("width", r.width),
		zap.Int("height", r.height),
		zap.Uint32("msaa", uint32(msaa)),
	)
	return r
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	if r.frameActive || r.presentPending {
		r.resizePending = true
		return
	}
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) Size() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		vs := p.Shader(shader.ShaderTypeVertex)
		fs := p.Shader(shader.ShaderTypeFragment)
		if vs == nil || fs == nil {
			return fmt.Errorf("pipeline %q: both vertex and fragment shaders must be set", key)
		}
		merged := mergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
		if err := checkLayoutCoverage(merged, vs, fs); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		if err := r.backend.RegisterRenderPipeline(p, merged); err != nil {
			return fmt.Errorf("pipeline %q: %w", key, err)
		}
		r.pipelineCache[key] = p
		r.logger.Debug("pipeline registered", zap.String("key", key), zap.Int("groups", len(merged)))
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	if len(indexData) != indexCount*4 {
		return fmt.Errorf("%s: index data holds %d bytes, want %d uint32 indices", provider.Label(), len(indexData), indexCount)
	}
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, indexCount)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	return r.backend.InitBindGroup(provider, descriptor)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, binding int, dimension wgpu.TextureViewDimension, layers ...common.TextureStagingData) error {
	if len(layers) == 0 {
		return fmt.Errorf("%s: texture binding %d has no layers", provider.Label(), binding)
	}
	w, h := layers[0].Width, layers[0].Height
	for i, l := range layers {
		if l.Width != w || l.Height != h {
			return fmt.Errorf("%s: layer %d is %dx%d, want %dx%d", provider.Label(), i, l.Width, l.Height, w, h)
		}
		if len(l.Pixels) != int(w*h*4) {
			return fmt.Errorf("%s: layer %d holds %d bytes, want %d", provider.Label(), i, len(l.Pixels), w*h*4)
		}
	}
	return r.backend.InitTextureView(provider, binding, dimension, layers)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, binding int, data common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, binding, data)
}

func (r *renderer) InitRenderTarget(provider bind_group_provider.BindGroupProvider, binding, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%s: invalid render target size %dx%d", provider.Label(), width, height)
	}
	if err := r.backend.InitRenderTarget(provider, binding, width, height); err != nil {
		return err
	}
	provider.SetTarget(&bind_group_provider.TargetInfo{Binding: binding, Width: width, Height: height})
	return nil
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frameActive {
		return errors.New("previous frame not yet ended")
	}
	r.presentPending = false
	if r.resizePending {
		r.backend.ConfigureSurface(r.width, r.height)
		r.resizePending = false
	}
	if err := r.backend.BeginFrame(); err != nil {
		return err
	}
	r.frameActive = true
	return nil
}

func (r *renderer) BeginPass(target bind_group_provider.BindGroupProvider, clear common.Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frameActive {
		return ErrNoFrame
	}
	if r.passActive {
		return ErrPassActive
	}
	kind := pipeline.TargetSurface
	if target != nil {
		if target.Target() == nil {
			return fmt.Errorf("%s: provider has no render target", target.Label())
		}
		kind = pipeline.TargetOffscreen
	}
	if err := r.backend.BeginPass(target, clear); err != nil {
		return err
	}
	r.passActive = true
	r.passKind = kind
	return nil
}

func (r *renderer) DrawCall(pipelineKey string, cmd DrawCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.pipelineCache[pipelineKey]
	if !exists {
		return fmt.Errorf("%w: %q", ErrPipelineNotFound, pipelineKey)
	}
	if !r.passActive {
		return ErrNoPass
	}
	if p.Target() != r.passKind {
		return fmt.Errorf("%w: %q", ErrTargetMismatch, pipelineKey)
	}
	if cmd.InstanceCount == 0 {
		cmd.InstanceCount = 1
	}
	r.backend.DrawCall(p, cmd)
	return nil
}

func (r *renderer) EndPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.passActive {
		return
	}
	r.backend.EndPass()
	r.passActive = false
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.frameActive {
		return
	}
	if r.passActive {
		r.backend.EndPass()
		r.passActive = false
	}
	r.backend.EndFrame()
	r.frameActive = false
	r.presentPending = true
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Present()
	r.presentPending = false
	if r.resizePending {
		r.backend.ConfigureSurface(r.width, r.height)
		r.resizePending = false
	}
}

// mergeBindGroupLayouts merges per-stage bind group layouts. Groups present in both stages are
// merged entry by entry and the visibility of shared bindings is OR'ed together.
//
// Parameters:
//   - vertexLayouts: layouts declared on the vertex shader
//   - fragmentLayouts: layouts declared on the fragment shader
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: the merged descriptors keyed by group index
func mergeBindGroupLayouts(vertexLayouts, fragmentLayouts map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor, len(vertexLayouts)+len(fragmentLayouts))
	for g, desc := range vertexLayouts {
		merged[g] = desc
	}
	for g, fDesc := range fragmentLayouts {
		vDesc, ok := merged[g]
		if !ok {
			merged[g] = fDesc
			continue
		}
		entries := slices.Clone(vDesc.Entries)
		for _, e := range fDesc.Entries {
			idx := slices.IndexFunc(entries, func(x wgpu.BindGroupLayoutEntry) bool { return x.Binding == e.Binding })
			if idx >= 0 {
				entries[idx].Visibility |= e.Visibility
				continue
			}
			entries = append(entries, e)
		}
		slices.SortFunc(entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return int(a.Binding) - int(b.Binding)
		})
		merged[g] = wgpu.BindGroupLayoutDescriptor{Label: vDesc.Label, Entries: entries}
	}
	return merged
}

// checkLayoutCoverage verifies every binding the WGSL sources declare has a layout entry.
func checkLayoutCoverage(merged map[int]wgpu.BindGroupLayoutDescriptor, shaders ...shader.Shader) error {
	for _, s := range shaders {
		for group, bindings := range s.Bindings() {
			desc, ok := merged[group]
			if !ok {
				return fmt.Errorf("%s: group %d declared in source but has no layout", s.Key(), group)
			}
			for _, b := range bindings {
				if !slices.ContainsFunc(desc.Entries, func(e wgpu.BindGroupLayoutEntry) bool { return e.Binding == b }) {
					return fmt.Errorf("%s: group %d binding %d declared in source but has no layout entry", s.Key(), group, b)
				}
			}
		}
	}
	return nil
}
