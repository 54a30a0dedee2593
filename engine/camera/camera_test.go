package camera

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCamera_PerspectiveLooksAtTarget(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(100), WithDamping(0))
	c := NewCamera(WithFov(10), WithAspect(16.0/9.0), WithClipPlanes(1, 10000), WithController(ctrl))

	assert.Equal(t, ProjectionPerspective, c.Projection())
	assert.True(t, c.Position().ApproxEqual(mgl32.Vec3{0, 0, 100}))

	clip := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 0, clip.X()/clip.W(), 1e-5)
	assert.InDelta(t, 0, clip.Y()/clip.W(), 1e-5)
	assert.Equal(t, c.ProjectionMatrix().Mul4(c.ViewMatrix()), c.ViewProjectionMatrix())
}

func TestCamera_SetAspect(t *testing.T) {
	c := NewCamera(WithAspect(800.0 / 600.0))
	before := c.ProjectionMatrix()

	c.SetAspect(1920.0 / 1080.0)
	assert.InDelta(t, 1920.0/1080.0, c.Aspect(), 1e-6)
	assert.NotEqual(t, before, c.ProjectionMatrix())

	c.SetAspect(0)
	assert.InDelta(t, 1920.0/1080.0, c.Aspect(), 1e-6)
}

func TestCamera_Orthographic(t *testing.T) {
	c := NewCamera(WithOrthographic(-8, 8, -5, 5), WithClipPlanes(-1, 1))

	assert.Equal(t, ProjectionOrthographic, c.Projection())
	corner := c.ViewProjectionMatrix().Mul4x1(mgl32.Vec4{8, 5, 0, 1})
	assert.InDelta(t, 1, corner.X(), 1e-6)
	assert.InDelta(t, 1, corner.Y(), 1e-6)

	u := c.Uniform()
	assert.Equal(t, [16]float32(c.ViewProjectionMatrix()), u.ViewProj)
	assert.Len(t, u.Marshal(), 80)
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
}

func TestOrbitController_DampingEasesToGoal(t *testing.T) {
	ctrl := NewOrbitController(WithRadius(100), WithDamping(0.5))
	c := NewCamera(WithController(ctrl))

	ctrl.Zoom(4) // goal radius 100 - 4*5 = 80
	assert.Equal(t, float32(100), ctrl.Radius(), "input only moves the goal")

	c.Update()
	assert.InDelta(t, 90, ctrl.Radius(), 1e-4)
	c.Update()
	assert.InDelta(t, 85, ctrl.Radius(), 1e-4)

	for range 64 {
		c.Update()
	}
	assert.Equal(t, float32(80), ctrl.Radius())
	assert.InDelta(t, 80, c.Position().Len(), 1e-3)
}

func TestOrbitController_NoDampingAppliesImmediately(t *testing.T) {
	ctrl := NewOrbitController(WithDamping(0), WithOrbitSpeed(0.5))

	ctrl.OrbitRight()
	assert.Equal(t, float32(0.5), ctrl.Azimuth())

	for range 10 {
		ctrl.OrbitUp()
	}
	assert.Less(t, ctrl.Elevation(), float32(1.5708))
}

func TestOrbitController_RadiusBounds(t *testing.T) {
	ctrl := NewOrbitController(WithDamping(0), WithRadius(50), WithRadiusBounds(10, 60), WithZoomSpeed(1))

	ctrl.Zoom(-100)
	assert.Equal(t, float32(60), ctrl.Radius())
	ctrl.Zoom(100)
	assert.Equal(t, float32(10), ctrl.Radius())

	ctrl.SetTarget(mgl32.Vec3{1, 2, 3})
	require.True(t, ctrl.Target().ApproxEqual(mgl32.Vec3{1, 2, 3}))
	assert.InDelta(t, 10, ctrl.Position().Sub(ctrl.Target()).Len(), 1e-4)
}
