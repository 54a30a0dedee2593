package scene

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier, used in logs and errors.
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		s.name = name
	}
}

// WithDepthSort sets whether particles are depth sorted each frame. Enabled by default.
//
// Parameters:
//   - enabled: whether to sort
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDepthSort(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.depthSort = enabled
	}
}

// WithModelMatrix sets the particle field's model transform. Defaults to the identity.
//
// Parameters:
//   - model: the model matrix
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithModelMatrix(model mgl32.Mat4) SceneBuilderOption {
	return func(s *scene) {
		s.model = model
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}
