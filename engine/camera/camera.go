package camera

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/go-gl/mathgl/mgl32"
)

// clipCorrection remaps OpenGL clip depth [-w, w] onto the WebGPU range [0, w].
var clipCorrection = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// cameraCount is an atomic counter used to generate unique bind group provider names for each camera instance.
var cameraCount atomic.Uint64

// ProjectionKind selects how the camera projects view space onto clip space.
type ProjectionKind int

const (
	// ProjectionPerspective uses fov, aspect, near and far.
	ProjectionPerspective ProjectionKind = iota
	// ProjectionOrthographic uses the ortho bounds, near and far. Aspect is ignored.
	ProjectionOrthographic
)

type cameraImpl struct {
	mu *sync.Mutex

	projection ProjectionKind
	up         mgl32.Vec3
	fov        float32
	aspect     float32
	near       float32
	far        float32
	ortho      [4]float32 // left, right, bottom, top

	position             mgl32.Vec3
	viewMatrix           mgl32.Mat4
	projectionMatrix     mgl32.Mat4
	viewProjectionMatrix mgl32.Mat4

	controller        CameraController
	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Camera defines the interface for the camera system.
// The camera holds projection settings and computes view/projection matrices
// from an attached CameraController each frame via Update(). Without a controller
// the view matrix is the identity.
type Camera interface {
	// Projection returns the projection kind.
	Projection() ProjectionKind

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Position returns the world-space camera position from the last matrix update.
	Position() mgl32.Vec3

	// ViewMatrix returns the cached view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: world to view transform
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the cached projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: view to clip transform
	ProjectionMatrix() mgl32.Mat4

	// ViewProjectionMatrix returns projection * view.
	//
	// Returns:
	//   - mgl32.Mat4: world to clip transform
	ViewProjectionMatrix() mgl32.Mat4

	// SetAspect updates the aspect ratio and recomputes the projection. Non-positive values are ignored.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetOrtho updates the orthographic bounds.
	//
	// Parameters:
	//   - left, right, bottom, top: view-space bounds
	SetOrtho(left, right, bottom, top float32)

	// Update advances the controller's damping by one step and recomputes the matrices.
	Update()

	// Controller returns the attached controller, or nil.
	Controller() CameraController

	// SetController attaches a controller.
	//
	// Parameters:
	//   - ctrl: the controller
	SetController(ctrl CameraController)

	// Uniform builds the GPU camera uniform from the cached matrices.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform contents
	Uniform() GPUCameraUniform

	// BindGroupProvider returns the provider that holds the camera uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with the given options applied.
// Defaults to a 45 degree perspective with a 1:1 aspect.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     mgl32.Vec3{0, 1, 0},
		fov:    mgl32.DegToRad(45),
		aspect: 1,
		near:   0.1,
		far:    100,
		ortho:  [4]float32{-1, 1, -1, 1},
		bindGroupProvider: bind_group_provider.NewBindGroupProvider(
			"camera_" + strconv.FormatUint(cameraCount.Add(1)-1, 10),
		),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Projection() ProjectionKind {
	return c.projection
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetOrtho(left, right, bottom, top float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ortho = [4]float32{left, right, bottom, top}
	c.updateMatrices()
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller != nil {
		c.controller.Update()
	}
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{
		ViewProj:       c.viewProjectionMatrix,
		CameraPosition: c.position,
	}
}

func (c *cameraImpl) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.bindGroupProvider
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = mgl32.Ident4()
	c.position = mgl32.Vec3{}
	if c.controller != nil {
		c.position = c.controller.Position()
		c.viewMatrix = mgl32.LookAtV(c.position, c.controller.Target(), c.up)
	}

	switch c.projection {
	case ProjectionOrthographic:
		c.projectionMatrix = clipCorrection.Mul4(mgl32.Ortho(c.ortho[0], c.ortho[1], c.ortho[2], c.ortho[3], c.near, c.far))
	default:
		c.projectionMatrix = clipCorrection.Mul4(mgl32.Perspective(c.fov, c.aspect, c.near, c.far))
	}
	c.viewProjectionMatrix = c.projectionMatrix.Mul4(c.viewMatrix)
}
