package shader

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType identifies which pipeline stage a shader feeds.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// shader is the implementation of the Shader interface.
// It holds all of the persistent shader data required for pipeline creation.
type shader struct {
	key                        string
	source                     string
	shaderType                 ShaderType
	entryPoint                 string
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	vertexLayouts              []wgpu.VertexBufferLayout
	bindings                   map[int][]uint32
}

// Shader defines the interface for a WGSL shader stage. Bind group layouts and vertex buffer
// layouts are declared by the owner of the shader through builder options; the WGSL source is
// only scanned for its entry point and the @group/@binding pairs it declares so the renderer can
// verify the declared layouts cover them.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// EntryPoint returns the entry point name for this shader.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// BindGroupLayoutDescriptors retrieves the declared bind group layout descriptors keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexLayouts retrieves the vertex buffer layouts for a vertex shader, in slot order.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the layouts, empty for shaders that pull their vertices from storage
	VertexLayouts() []wgpu.VertexBufferLayout

	// Bindings returns the binding indices declared in the WGSL source, keyed by group index.
	//
	// Returns:
	//   - map[int][]uint32: sorted binding indices per group
	Bindings() map[int][]uint32
}

var _ Shader = &shader{}

// NewShader creates a new Shader from WGSL source. The entry point is taken from the first
// function annotated with the stage attribute unless WithEntryPoint overrides it.
// Panics when the source is empty or no entry point can be resolved, since a shader without
// either can never produce a pipeline.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels and lookups
//   - shaderType: the stage of the shader
//   - source: the WGSL source code
//   - options: builder options declaring layouts and overrides
//
// Returns:
//   - Shader: a new Shader instance with the provided configuration
func NewShader(key string, shaderType ShaderType, source string, options ...ShaderBuilderOption) Shader {
	if source == "" {
		panic(fmt.Sprintf("shader: %s must have WGSL source", key))
	}
	s := &shader{
		key:                        key,
		source:                     source,
		shaderType:                 shaderType,
		bindGroupLayoutDescriptors: make(map[int]wgpu.BindGroupLayoutDescriptor),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.entryPoint == "" {
		s.entryPoint = parseEntryPoint(source, shaderType)
	}
	if s.entryPoint == "" {
		panic(fmt.Sprintf("shader: %s has no entry point for its stage", key))
	}
	s.bindings = parseBindings(source)
	return s
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) VertexLayouts() []wgpu.VertexBufferLayout {
	return s.vertexLayouts
}

func (s *shader) Bindings() map[int][]uint32 {
	return s.bindings
}

// Visibility maps a shader stage to the wgpu stage flag used in layout entries.
//
// Parameters:
//   - shaderType: the shader stage
//
// Returns:
//   - wgpu.ShaderStage: the matching visibility flag
func Visibility(shaderType ShaderType) wgpu.ShaderStage {
	switch shaderType {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageNone
	}
}
