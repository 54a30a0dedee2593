package pipeline

import (
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage. Its declared bind group layouts become the pipeline layout.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage.
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithTarget selects the color attachment kind. Off-screen targets carry no depth attachment,
// so choosing TargetOffscreen also turns depth testing and writing off.
//
// Parameters:
//   - target: TargetSurface or TargetOffscreen
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithTarget(target TargetKind) PipelineBuilderOption {
	return func(p *pipeline) {
		p.target = target
		if target == TargetOffscreen {
			p.depthTestEnabled = false
			p.depthWriteEnabled = false
		}
	}
}

// WithDepthTestEnabled toggles the depth comparison against the surface depth buffer.
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled toggles depth writes. Translucent sprites draw with writes off so
// back-to-front order alone decides the blend.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithBlendEnabled toggles color blending. Without a WithBlendState the backend blends with
// its default state.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState sets the blend equation applied when blending is on.
//
// Parameters:
//   - blendState: the color and alpha blend components
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// WithCullMode sets which triangle faces are discarded. Defaults to none.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}
