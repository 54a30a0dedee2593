package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the target point
//
// Returns:
//   - CameraControllerOption: functional option to set the radius
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.current.radius = radius
	}
}

// WithAzimuth sets the initial horizontal orbit angle.
//
// Parameters:
//   - azimuth: angle in radians around the Y axis
//
// Returns:
//   - CameraControllerOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.current.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical orbit angle.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.current.elevation = elevation
	}
}

// WithTarget sets the initial look-at point.
//
// Parameters:
//   - x, y, z: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the target
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = mgl32.Vec3{x, y, z}
	}
}

// WithRadiusBounds sets the min and max orbit radius.
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.minRadius = min
		cc.maxRadius = max
	}
}

// WithOrbitSpeed sets the keyboard orbit speed in radians per step.
func WithOrbitSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}

// WithDamping sets the fraction of the remaining distance covered per Update.
// Values are clamped to [0, 1]; zero disables damping.
//
// Parameters:
//   - damping: the damping factor
//
// Returns:
//   - CameraControllerOption: functional option to set the damping
func WithDamping(damping float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.damping = mgl32.Clamp(damping, 0, 1)
	}
}
