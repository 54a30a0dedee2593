package material

import (
	"github.com/Carmen-Shannon/oxy-drift/common"
)

var (
	// DefaultColor1 is the default first gradient color (#FA35DF).
	DefaultColor1 = common.ColorFromHex(0xFA35DF)
	// DefaultColor2 is the default second gradient color (#F47B20).
	DefaultColor2 = common.ColorFromHex(0xF47B20)
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColors is an option builder that sets both gradient colors.
//
// Parameters:
//   - color1: the first gradient color
//   - color2: the second gradient color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the colors to a material
func WithColors(color1, color2 common.Color) MaterialBuilderOption {
	return func(m *material) {
		m.color1 = color1
		m.color2 = color2
	}
}

// WithTime sets the initial time value.
func WithTime(seconds float32) MaterialBuilderOption {
	return func(m *material) {
		m.time = seconds
	}
}

// WithPipelineKey is an option builder that sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}
