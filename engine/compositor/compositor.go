package compositor

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrTooManyParticles is returned by Render when the frame holds more particles than the
// storage buffers were sized for.
var ErrTooManyParticles = errors.New("particle count exceeds compositor capacity")

// Half extent of the backdrop plane, framed exactly by the backdrop camera.
const (
	backdropHalfWidth  = 8
	backdropHalfHeight = 5
)

var linearClamp = common.SamplerStagingData{
	AddressModeU: wgpu.AddressModeClampToEdge,
	AddressModeV: wgpu.AddressModeClampToEdge,
	AddressModeW: wgpu.AddressModeClampToEdge,
	MagFilter:    wgpu.FilterModeLinear,
	MinFilter:    wgpu.FilterModeLinear,
	MipmapFilter: wgpu.MipmapFilterModeLinear,
}

// Features selects which variant of the two-pass design is built.
type Features struct {
	// BackdropComposite enables the off-screen backdrop pass and its blit into the main pass.
	// When off, the main pass clears to the material's first color.
	BackdropComposite bool
	// Overlay enables the static textured quad drawn over the sprites.
	Overlay bool
	// ParticleTextureCount is the number of sprite texture layers. Particle i samples layer i % count.
	ParticleTextureCount int
}

// DefaultFeatures enables every stage with a single sprite layer.
func DefaultFeatures() Features {
	return Features{BackdropComposite: true, Overlay: true, ParticleTextureCount: 1}
}

// RenderTarget describes the off-screen color buffer the backdrop pass renders into.
type RenderTarget struct {
	Width, Height int
	// Provider owns the target texture and the blit bind group sampling it.
	Provider bind_group_provider.BindGroupProvider
}

// FrameInput is everything Render needs from the frame driver.
type FrameInput struct {
	// View and Projection are the scene camera matrices. Sprites are billboarded in view space.
	View       mgl32.Mat4
	Projection mgl32.Mat4
	// Positions is the particle position buffer, 3 floats per particle.
	Positions []float32
	// Order is the draw order, farthest particle first. Its length is the number of sprites drawn.
	Order []uint32
}

type compositor struct {
	mu       *sync.Mutex
	logger   *zap.Logger
	renderer renderer.Renderer

	features         Features
	material         material.Material
	backdropCamera   camera.Camera
	backdropPlane    bind_group_provider.BindGroupProvider
	particleCapacity int
	spriteSize       float32
	spriteResolution int
	spriteImages     []image.Image
	overlayTexture   *loader.Texture
	ownsOverlay      bool
	targetWidth      int
	targetHeight     int
	renderTarget     bind_group_provider.BindGroupProvider
	spriteFrame      bind_group_provider.BindGroupProvider
	spriteLayers     bind_group_provider.BindGroupProvider
	spriteLayerCount int
	released         bool
}

// Compositor renders one frame as two passes: the procedural backdrop into an off-screen render
// target, then the main pass that blits that target as the background, draws the particle sprites
// in the supplied order and layers the overlay on top.
type Compositor interface {
	// Render uploads the frame's uniforms and buffers in one batch, then encodes and presents
	// the off-screen pass followed by the main pass.
	//
	// Parameters:
	//   - in: camera matrices, particle positions and draw order for this frame
	//
	// Returns:
	//   - error: an error if the input exceeds capacity or a pass could not be encoded
	Render(in FrameInput) error

	// SetTime stores the shared time uniform. It is uploaded once at the start of the next Render,
	// so both passes of a frame observe the same value.
	//
	// Parameters:
	//   - seconds: the time value
	SetTime(seconds float32)

	// Resize releases and recreates the render target and its blit bind group at the new size
	// before returning. Zero sizes and the current size are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the target could not be recreated
	Resize(width, height int) error

	// RenderTarget returns the current off-screen target. The zero value is returned when the
	// backdrop composite is disabled.
	RenderTarget() RenderTarget

	// Material returns the backdrop material.
	Material() material.Material

	// Features returns the enabled feature set.
	Features() Features

	// Release frees every GPU resource the compositor created. Textures owned by the loader are left alone.
	Release()
}

var _ Compositor = &compositor{}

// NewCompositor creates the compositor's GPU resources on r and registers its pipelines.
//
// Parameters:
//   - r: the renderer to build on
//   - options: functional options to configure the compositor
//
// Returns:
//   - Compositor: the compositor
//   - error: an error if any resource or pipeline could not be created
func NewCompositor(r renderer.Renderer, options ...CompositorBuilderOption) (Compositor, error) {
	w, h := r.Size()
	c := &compositor{
		mu:               &sync.Mutex{},
		logger:           zap.NewNop(),
		renderer:         r,
		features:         DefaultFeatures(),
		particleCapacity: DefaultParticleCapacity,
		spriteSize:       DefaultSpriteSize,
		spriteResolution: DefaultSpriteResolution,
		targetWidth:      w,
		targetHeight:     h,
	}
	for _, option := range options {
		option(c)
	}
	if c.material == nil {
		c.material = material.NewMaterial()
	}
	c.features.ParticleTextureCount = max(c.features.ParticleTextureCount, 1)

	if err := c.init(); err != nil {
		c.Release()
		return nil, err
	}
	c.logger.Debug("compositor created",
		zap.Bool("backdrop_composite", c.features.BackdropComposite),
		zap.Bool("overlay", c.features.Overlay),
		zap.Int("sprite_layers", c.spriteLayerCount),
		zap.Int("particle_capacity", c.particleCapacity),
		zap.Int("target_width", c.targetWidth),
		zap.Int("target_height", c.targetHeight),
	)
	return c, nil
}

func (c *compositor) init() error {
	params := c.material.BindGroupProvider()
	if params == nil {
		params = bind_group_provider.NewBindGroupProvider("Backdrop Params")
		c.material.SetBindGroupProvider(params)
	}
	if err := c.renderer.InitBindGroup(params, paramsLayout); err != nil {
		return fmt.Errorf("backdrop params: %w", err)
	}

	pipelines := []pipeline.Pipeline{newSpritesPipeline()}

	if c.features.BackdropComposite {
		c.material.SetPipelineKey(BackdropPipelineKey)
		c.backdropCamera = camera.NewCamera(
			camera.WithOrthographic(-backdropHalfWidth, backdropHalfWidth, -backdropHalfHeight, backdropHalfHeight),
			camera.WithClipPlanes(-1, 1),
		)
		if err := c.renderer.InitBindGroup(c.backdropCamera.BindGroupProvider(), cameraLayout); err != nil {
			return fmt.Errorf("backdrop camera: %w", err)
		}
		uniform := c.backdropCamera.Uniform()
		c.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
			Provider: c.backdropCamera.BindGroupProvider(),
			Binding:  0,
			Data:     uniform.Marshal(),
		}})

		c.backdropPlane = bind_group_provider.NewBindGroupProvider("Backdrop Plane")
		if err := c.initBackdropPlane(); err != nil {
			return fmt.Errorf("backdrop plane: %w", err)
		}

		target, err := c.newRenderTarget(c.targetWidth, c.targetHeight)
		if err != nil {
			return err
		}
		c.renderTarget = target
		pipelines = append(pipelines, newBackdropPipeline(), newBlitPipeline())
	}

	c.spriteFrame = bind_group_provider.NewBindGroupProvider("Sprite Frame",
		bind_group_provider.WithBufferSize(framePositionsBinding, uint64(c.particleCapacity)*12),
		bind_group_provider.WithBufferSize(frameOrderBinding, uint64(c.particleCapacity)*4),
	)
	if err := c.renderer.InitBindGroup(c.spriteFrame, spriteFrameLayout); err != nil {
		return fmt.Errorf("sprite frame: %w", err)
	}

	c.spriteLayers = bind_group_provider.NewBindGroupProvider("Sprite Layers")
	layers := spriteLayers(c.spriteImages, c.features.ParticleTextureCount, c.spriteResolution)
	c.spriteLayerCount = len(layers)
	if err := c.renderer.InitTextureView(c.spriteLayers, textureBinding, wgpu.TextureViewDimension2DArray, layers...); err != nil {
		return fmt.Errorf("sprite layers: %w", err)
	}
	if err := c.renderer.InitSampler(c.spriteLayers, samplerBinding, linearClamp); err != nil {
		return fmt.Errorf("sprite layers: %w", err)
	}
	if err := c.renderer.InitBindGroup(c.spriteLayers, spriteLayersLayout); err != nil {
		return fmt.Errorf("sprite layers: %w", err)
	}

	if c.features.Overlay {
		if err := c.initOverlay(); err != nil {
			return err
		}
		pipelines = append(pipelines, newOverlayPipeline())
	}

	return c.renderer.RegisterPipelines(pipelines...)
}

// initOverlay binds the loader supplied overlay texture, or uploads the procedural vignette.
func (c *compositor) initOverlay() error {
	if c.overlayTexture == nil {
		w, h := max(c.targetWidth/4, 1), max(c.targetHeight/4, 1)
		provider := bind_group_provider.NewBindGroupProvider("Overlay")
		if err := c.renderer.InitTextureView(provider, loader.TextureBinding, wgpu.TextureViewDimension2D, common.StagingFromImage(vignette(w, h))); err != nil {
			return fmt.Errorf("overlay: %w", err)
		}
		if err := c.renderer.InitSampler(provider, loader.SamplerBinding, linearClamp); err != nil {
			provider.Release()
			return fmt.Errorf("overlay: %w", err)
		}
		c.overlayTexture = &loader.Texture{Provider: provider, Width: w, Height: h}
		c.ownsOverlay = true
	}
	if err := c.renderer.InitBindGroup(c.overlayTexture.Provider, overlayLayout); err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	return nil
}

// newRenderTarget builds a complete off-screen target on a fresh provider. A partially built
// provider is released before returning the error. Caller must hold the mutex, or be the constructor.
func (c *compositor) newRenderTarget(width, height int) (bind_group_provider.BindGroupProvider, error) {
	target := bind_group_provider.NewBindGroupProvider("Render Target")
	err := c.renderer.InitRenderTarget(target, textureBinding, width, height)
	if err == nil {
		err = c.renderer.InitSampler(target, samplerBinding, linearClamp)
	}
	if err == nil {
		err = c.renderer.InitBindGroup(target, renderTargetLayout)
	}
	if err != nil {
		target.Release()
		return nil, fmt.Errorf("render target: %w", err)
	}
	c.targetWidth, c.targetHeight = width, height
	return target, nil
}

func (c *compositor) Render(in FrameInput) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(in.Order)
	if n > c.particleCapacity {
		return fmt.Errorf("%w: %d > %d", ErrTooManyParticles, n, c.particleCapacity)
	}
	if len(in.Positions) < n*3 {
		return fmt.Errorf("position buffer holds %d floats, want at least %d", len(in.Positions), n*3)
	}

	c.renderer.WriteBuffers(c.stageWrites(in))

	if err := c.renderer.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	err := c.encodePasses(n)
	c.renderer.EndFrame()
	c.renderer.Present()
	return err
}

// stageWrites collects every buffer write of the frame so they reach the queue as one batch.
func (c *compositor) stageWrites(in FrameInput) []bind_group_provider.BufferWrite {
	params := c.material.Params()
	frame := GPUSpriteFrame{
		View:       in.View,
		Projection: in.Projection,
		SpriteSize: c.spriteSize,
		LayerCount: uint32(c.spriteLayerCount),
	}
	writes := []bind_group_provider.BufferWrite{
		{Provider: c.material.BindGroupProvider(), Binding: 0, Data: params.Marshal()},
		{Provider: c.spriteFrame, Binding: frameUniformBinding, Data: frame.Marshal()},
	}
	if n := len(in.Order); n > 0 {
		writes = append(writes,
			bind_group_provider.BufferWrite{Provider: c.spriteFrame, Binding: framePositionsBinding, Data: common.SliceToBytes(in.Positions[:n*3])},
			bind_group_provider.BufferWrite{Provider: c.spriteFrame, Binding: frameOrderBinding, Data: common.SliceToBytes(in.Order)},
		)
	}
	return writes
}

// encodePasses records the off-screen pass then the main pass. Caller must hold the mutex.
func (c *compositor) encodePasses(n int) error {
	params := c.material.BindGroupProvider()
	clearColor := common.Color{}

	if c.features.BackdropComposite {
		if err := c.renderer.BeginPass(c.renderTarget, common.Color{}); err != nil {
			return fmt.Errorf("offscreen pass: %w", err)
		}
		if err := c.renderer.DrawCall(BackdropPipelineKey, renderer.DrawCommand{
			Mesh:       c.backdropPlane,
			BindGroups: []bind_group_provider.BindGroupProvider{params, c.backdropCamera.BindGroupProvider()},
		}); err != nil {
			return fmt.Errorf("offscreen pass: %w", err)
		}
		c.renderer.EndPass()
	} else {
		clearColor = c.material.Color1()
	}

	if err := c.renderer.BeginPass(nil, clearColor); err != nil {
		return fmt.Errorf("main pass: %w", err)
	}
	if c.features.BackdropComposite {
		if err := c.renderer.DrawCall(BlitPipelineKey, renderer.DrawCommand{
			VertexCount: 6,
			BindGroups:  []bind_group_provider.BindGroupProvider{c.renderTarget},
		}); err != nil {
			return fmt.Errorf("main pass: %w", err)
		}
	}
	if n > 0 {
		if err := c.renderer.DrawCall(SpritesPipelineKey, renderer.DrawCommand{
			VertexCount:   6,
			InstanceCount: uint32(n),
			BindGroups:    []bind_group_provider.BindGroupProvider{params, c.spriteFrame, c.spriteLayers},
		}); err != nil {
			return fmt.Errorf("main pass: %w", err)
		}
	}
	if c.features.Overlay {
		if err := c.renderer.DrawCall(OverlayPipelineKey, renderer.DrawCommand{
			VertexCount: 6,
			BindGroups:  []bind_group_provider.BindGroupProvider{c.overlayTexture.Provider},
		}); err != nil {
			return fmt.Errorf("main pass: %w", err)
		}
	}
	c.renderer.EndPass()
	return nil
}

func (c *compositor) SetTime(seconds float32) {
	c.material.SetTime(seconds)
}

func (c *compositor) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if width == c.targetWidth && height == c.targetHeight {
		return nil
	}
	if !c.features.BackdropComposite {
		c.targetWidth, c.targetHeight = width, height
		return nil
	}

	// the old target stays bound until its replacement is complete
	target, err := c.newRenderTarget(width, height)
	if err != nil {
		return err
	}
	c.renderTarget.Release()
	c.renderTarget = target
	c.logger.Debug("render target recreated", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (c *compositor) RenderTarget() RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renderTarget == nil {
		return RenderTarget{}
	}
	return RenderTarget{Width: c.targetWidth, Height: c.targetHeight, Provider: c.renderTarget}
}

func (c *compositor) Material() material.Material {
	return c.material
}

func (c *compositor) Features() Features {
	return c.features
}

func (c *compositor) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return
	}
	c.released = true

	for _, p := range []bind_group_provider.BindGroupProvider{c.renderTarget, c.backdropPlane, c.spriteFrame, c.spriteLayers} {
		if p != nil {
			p.Release()
		}
	}
	if c.backdropCamera != nil {
		c.backdropCamera.BindGroupProvider().Release()
	}
	if p := c.material.BindGroupProvider(); p != nil {
		p.Release()
	}
	if c.overlayTexture != nil && c.ownsOverlay {
		c.overlayTexture.Provider.Release()
	}
}
