package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraController orbits a camera around a target using spherical coordinates
// (radius, azimuth, elevation). Input methods move goal values; Update eases the
// current values toward the goals by the damping factor each frame, the way
// damped orbit controls glide to a stop after input ends.
type CameraController interface {
	// Position returns the camera's world-space position.
	Position() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget sets the look-at point and recomputes the position.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target mgl32.Vec3)

	// Rotate applies a mouse drag, scaled by the mouse sensitivity.
	//
	// Parameters:
	//   - dx: horizontal drag in pixels, positive orbits right
	//   - dy: vertical drag in pixels, positive orbits up
	Rotate(dx, dy float32)

	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Zoom adjusts the goal radius. Positive delta zooms in.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// Radius returns the current orbit radius.
	Radius() float32

	// Azimuth returns the current horizontal angle in radians.
	Azimuth() float32

	// Elevation returns the current vertical angle in radians.
	Elevation() float32

	// Damping returns the fraction of the remaining distance to the goal covered per Update.
	// Zero means input applies immediately.
	Damping() float32

	// Update eases the current orbit toward the goal by one damping step.
	Update()
}

type orbit struct {
	radius, azimuth, elevation float32
}

// cameraControllerImpl is the orbit implementation of CameraController.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	target   mgl32.Vec3

	current orbit
	goal    orbit

	minRadius, maxRadius       float32
	minElevation, maxElevation float32

	orbitSpeed       float32
	mouseSensitivity float32
	zoomSpeed        float32
	damping          float32
}

var _ CameraController = &cameraControllerImpl{}

// NewOrbitController creates a new orbit controller. Defaults place the camera 100 units
// in front of the origin on +Z with a damping of 0.05.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewOrbitController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		current:          orbit{radius: 100},
		minRadius:        1,
		maxRadius:        5000,
		minElevation:     float32(-math.Pi/2 + 0.01),
		maxElevation:     float32(math.Pi/2 - 0.01),
		orbitSpeed:       0.03,
		mouseSensitivity: 0.005,
		zoomSpeed:        5,
		damping:          0.05,
	}
	for _, option := range options {
		option(cc)
	}
	cc.current = cc.clamp(cc.current)
	cc.goal = cc.current
	cc.updatePosition()
	return cc
}

func (cc *cameraControllerImpl) clamp(o orbit) orbit {
	o.radius = mgl32.Clamp(o.radius, cc.minRadius, cc.maxRadius)
	o.elevation = mgl32.Clamp(o.elevation, cc.minElevation, cc.maxElevation)
	return o
}

// updatePosition recomputes the camera position from the current spherical coordinates.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updatePosition() {
	cosElev := float32(math.Cos(float64(cc.current.elevation)))
	sinElev := float32(math.Sin(float64(cc.current.elevation)))
	cosAzim := float32(math.Cos(float64(cc.current.azimuth)))
	sinAzim := float32(math.Sin(float64(cc.current.azimuth)))

	r := cc.current.radius
	cc.position = cc.target.Add(mgl32.Vec3{r * cosElev * sinAzim, r * sinElev, r * cosElev * cosAzim})
}

// move applies fn to the goal and, without damping, snaps the current orbit to it.
func (cc *cameraControllerImpl) move(fn func(o *orbit)) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	fn(&cc.goal)
	cc.goal = cc.clamp(cc.goal)
	if cc.damping <= 0 {
		cc.current = cc.goal
		cc.updatePosition()
	}
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.target
}

func (cc *cameraControllerImpl) SetTarget(target mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.target = target
	cc.updatePosition()
}

func (cc *cameraControllerImpl) Rotate(dx, dy float32) {
	cc.move(func(o *orbit) {
		o.azimuth -= dx * cc.mouseSensitivity
		o.elevation += dy * cc.mouseSensitivity
	})
}

func (cc *cameraControllerImpl) OrbitLeft() {
	cc.move(func(o *orbit) { o.azimuth -= cc.orbitSpeed })
}

func (cc *cameraControllerImpl) OrbitRight() {
	cc.move(func(o *orbit) { o.azimuth += cc.orbitSpeed })
}

func (cc *cameraControllerImpl) OrbitUp() {
	cc.move(func(o *orbit) { o.elevation += cc.orbitSpeed })
}

func (cc *cameraControllerImpl) OrbitDown() {
	cc.move(func(o *orbit) { o.elevation -= cc.orbitSpeed })
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.move(func(o *orbit) { o.radius -= delta * cc.zoomSpeed })
}

func (cc *cameraControllerImpl) Radius() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.radius
}

func (cc *cameraControllerImpl) Azimuth() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.azimuth
}

func (cc *cameraControllerImpl) Elevation() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.current.elevation
}

func (cc *cameraControllerImpl) Damping() float32 {
	return cc.damping
}

func (cc *cameraControllerImpl) Update() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.damping <= 0 || cc.current == cc.goal {
		return
	}
	ease := func(cur, goal float32) float32 {
		next := cur + (goal-cur)*cc.damping
		if mgl32.FloatEqualThreshold(next, goal, 1e-5) {
			return goal
		}
		return next
	}
	cc.current.radius = ease(cc.current.radius, cc.goal.radius)
	cc.current.azimuth = ease(cc.current.azimuth, cc.goal.azimuth)
	cc.current.elevation = ease(cc.current.elevation, cc.goal.elevation)
	cc.updatePosition()
}
