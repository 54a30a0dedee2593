package material

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
)

// material is the implementation of the Material interface.
type material struct {
	mu                *sync.Mutex
	name              string
	color1            common.Color
	color2            common.Color
	time              float32
	pipelineKey       string
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Material defines the procedural backdrop surface: a two-color gradient animated by a shared
// time value. The same parameters feed the sprite shader so both passes agree on the clock.
//
// Colors are set at construction. Time is mutated once per frame by the frame driver. GPU resource
// references (pipeline key, bind group provider) are set after construction by the compositor.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color1 retrieves the first gradient color.
	//
	// Returns:
	//   - common.Color: the color
	Color1() common.Color

	// Color2 retrieves the second gradient color.
	//
	// Returns:
	//   - common.Color: the color
	Color2() common.Color

	// Time retrieves the current value of the shared time uniform, in seconds.
	//
	// Returns:
	//   - float32: the time value
	Time() float32

	// SetTime stores a new value for the shared time uniform. It reaches the GPU with the next Params upload.
	//
	// Parameters:
	//   - seconds: the time value
	SetTime(seconds float32)

	// Params builds the GPU representation of the current state.
	//
	// Returns:
	//   - GPUBackdropParams: the uniform contents
	Params() GPUBackdropParams

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// BindGroupProvider retrieves the bind group provider holding the params uniform buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider, or nil if not yet initialized
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// Defaults to the magenta to orange gradient.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		mu:     &sync.Mutex{},
		name:   "backdrop",
		color1: DefaultColor1,
		color2: DefaultColor2,
		time:   1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Color1() common.Color {
	return m.color1
}

func (m *material) Color2() common.Color {
	return m.color2
}

func (m *material) Time() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.time
}

func (m *material) SetTime(seconds float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.time = seconds
}

func (m *material) Params() GPUBackdropParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GPUBackdropParams{
		Color1: m.color1.Vec4(1),
		Color2: m.color2.Vec4(1),
		Time:   m.time,
	}
}

func (m *material) PipelineKey() string {
	return m.pipelineKey
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return m.bindGroupProvider
}

func (m *material) SetPipelineKey(key string) {
	m.pipelineKey = key
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.bindGroupProvider = provider
}
