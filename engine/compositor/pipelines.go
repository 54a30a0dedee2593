package compositor

import (
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Pipeline keys registered by the compositor.
const (
	BackdropPipelineKey = "backdrop"
	BlitPipelineKey     = "blit"
	SpritesPipelineKey  = "sprites"
	OverlayPipelineKey  = "overlay"
)

// Binding indices shared by the texture + sampler groups (render target, sprite layers, overlay).
const (
	textureBinding = 0
	samplerBinding = 1
)

// Binding indices of the sprite frame group.
const (
	frameUniformBinding   = 0
	framePositionsBinding = 1
	frameOrderBinding     = 2
)

// The same descriptor is used for the pipeline layout and for the provider's bind group so the
// two are layout compatible.
var (
	paramsLayout = wgpu.BindGroupLayoutDescriptor{
		Label: "Backdrop Params",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 48},
		}},
	}

	cameraLayout = wgpu.BindGroupLayoutDescriptor{
		Label: "Backdrop Camera",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 80},
		}},
	}

	spriteFrameLayout = wgpu.BindGroupLayoutDescriptor{
		Label: "Sprite Frame",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    frameUniformBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 144},
			},
			{
				Binding:    framePositionsBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    frameOrderBinding,
				Visibility: wgpu.ShaderStageVertex,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage},
			},
		},
	}

	renderTargetLayout = sampledTextureLayout("Render Target", wgpu.TextureViewDimension2D)
	spriteLayersLayout = sampledTextureLayout("Sprite Layers", wgpu.TextureViewDimension2DArray)
	overlayLayout      = sampledTextureLayout("Overlay", wgpu.TextureViewDimension2D)
)

// sampledTextureLayout describes a fragment-visible filterable texture at textureBinding with its
// sampler at samplerBinding.
func sampledTextureLayout(label string, dimension wgpu.TextureViewDimension) wgpu.BindGroupLayoutDescriptor {
	return wgpu.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    textureBinding,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: dimension,
				},
			},
			{
				Binding:    samplerBinding,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
		},
	}
}

// newStagePipeline builds a pipeline whose vertex and fragment stages share one WGSL module.
// The layouts are declared on the vertex stage; the renderer merges them with the (empty)
// fragment declarations.
func newStagePipeline(key, source string, layouts []wgpu.BindGroupLayoutDescriptor, opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	return newMeshStagePipeline(key, source, layouts, nil, opts...)
}

// newMeshStagePipeline is newStagePipeline for vertex shaders that read vertex buffers.
func newMeshStagePipeline(key, source string, layouts []wgpu.BindGroupLayoutDescriptor, vertexLayouts []wgpu.VertexBufferLayout, opts ...pipeline.PipelineBuilderOption) pipeline.Pipeline {
	vsOpts := make([]shader.ShaderBuilderOption, 0, len(layouts)+1)
	for g, l := range layouts {
		vsOpts = append(vsOpts, shader.WithBindGroupLayout(g, l))
	}
	if len(vertexLayouts) > 0 {
		vsOpts = append(vsOpts, shader.WithVertexLayouts(vertexLayouts...))
	}
	opts = append(opts,
		pipeline.WithVertexShader(shader.NewShader(key+"_vs", shader.ShaderTypeVertex, source, vsOpts...)),
		pipeline.WithFragmentShader(shader.NewShader(key+"_fs", shader.ShaderTypeFragment, source)),
	)
	return pipeline.NewPipeline(key, opts...)
}

func newBackdropPipeline() pipeline.Pipeline {
	return newMeshStagePipeline(BackdropPipelineKey, backdropSource,
		[]wgpu.BindGroupLayoutDescriptor{paramsLayout, cameraLayout},
		[]wgpu.VertexBufferLayout{planeVertexLayout},
		pipeline.WithTarget(pipeline.TargetOffscreen),
		pipeline.WithCullMode(wgpu.CullModeBack),
	)
}

func newBlitPipeline() pipeline.Pipeline {
	return newStagePipeline(BlitPipelineKey, blitSource,
		[]wgpu.BindGroupLayoutDescriptor{renderTargetLayout},
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	)
}

// newSpritesPipeline blends straight alpha over the backdrop. Sprites test depth but never write
// it, so ordering between them comes from the draw order alone.
func newSpritesPipeline() pipeline.Pipeline {
	return newStagePipeline(SpritesPipelineKey, spritesSource,
		[]wgpu.BindGroupLayoutDescriptor{paramsLayout, spriteFrameLayout, spriteLayersLayout},
		pipeline.WithBlendEnabled(true),
		pipeline.WithBlendState(pipeline.AlphaBlend()),
		pipeline.WithDepthWriteEnabled(false),
	)
}

func newOverlayPipeline() pipeline.Pipeline {
	return newStagePipeline(OverlayPipelineKey, overlaySource,
		[]wgpu.BindGroupLayoutDescriptor{overlayLayout},
		pipeline.WithBlendEnabled(true),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithDepthWriteEnabled(false),
	)
}
