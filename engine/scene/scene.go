package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/compositor"
	"github.com/Carmen-Shannon/oxy-drift/engine/depth_sorter"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Scene drives one frame of the particle drift: camera damping, particle integration, depth
// sort and the two-pass composite, always in that order.
//
// Frame and Resize are serialized, so a resize signal from the window thread is applied either
// fully before or fully after a frame.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Frame runs one display refresh.
	//
	// Parameters:
	//   - nowMs: milliseconds since the display loop started
	//
	// Returns:
	//   - error: an error if the compositor failed to render the frame
	Frame(nowMs float64) error

	// Resize updates the camera aspect and recreates the compositor's render target.
	// Zero sizes are ignored.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	//
	// Returns:
	//   - error: an error if the render target could not be recreated
	Resize(width, height int) error

	// DepthSort reports whether particles are sorted by depth each frame.
	DepthSort() bool

	// SetDepthSort enables or disables the per-frame depth sort. When disabled particles draw in
	// index order.
	SetDepthSort(enabled bool)

	// FrameCount returns the number of frames rendered successfully.
	FrameCount() uint64

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Field returns the particle field.
	Field() *particle.Field

	// Compositor returns the compositor the scene renders through.
	Compositor() compositor.Compositor
}

type scene struct {
	mu     *sync.Mutex
	logger *zap.Logger
	name   string

	camera     camera.Camera
	field      *particle.Field
	sorter     *depth_sorter.Sorter
	compositor compositor.Compositor

	model     mgl32.Mat4
	depthSort bool
	frames    uint64
}

var _ Scene = &scene{}

// NewScene creates a Scene over its collaborators.
//
// Parameters:
//   - cam: the scene camera
//   - field: the particle field
//   - comp: the compositor frames are rendered through
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(cam camera.Camera, field *particle.Field, comp compositor.Compositor, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:         &sync.Mutex{},
		logger:     zap.NewNop(),
		name:       "drift",
		camera:     cam,
		field:      field,
		sorter:     depth_sorter.NewSorter(),
		compositor: comp,
		model:      mgl32.Ident4(),
		depthSort:  true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Frame(nowMs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.camera.Update()

	wraps := s.field.Tick(nowMs)
	if wraps > 0 {
		if ce := s.logger.Check(zap.DebugLevel, "particles wrapped"); ce != nil {
			ce.Write(zap.Int("count", wraps), zap.Uint64("frame", s.frames))
		}
	}

	positions := s.field.Positions()
	view := s.camera.ViewMatrix().Mul4(s.model)
	var order []uint32
	if s.depthSort {
		order = s.sorter.Sort(s.camera.ProjectionMatrix().Mul4(view), positions)
	} else {
		order = s.sorter.Identity(s.field.Count())
	}

	if err := s.compositor.Render(compositor.FrameInput{
		View:       view,
		Projection: s.camera.ProjectionMatrix(),
		Positions:  positions,
		Order:      order,
	}); err != nil {
		return fmt.Errorf("scene %s: frame %d: %w", s.name, s.frames, err)
	}

	s.compositor.SetTime(float32(nowMs / 1000))
	s.frames++
	return nil
}

func (s *scene) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.camera.SetAspect(float32(width) / float32(height))
	if err := s.compositor.Resize(width, height); err != nil {
		return fmt.Errorf("scene %s: resize %dx%d: %w", s.name, width, height, err)
	}
	s.logger.Debug("scene resized", zap.Int("width", width), zap.Int("height", height))
	return nil
}

func (s *scene) DepthSort() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depthSort
}

func (s *scene) SetDepthSort(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depthSort = enabled
}

func (s *scene) FrameCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Field() *particle.Field {
	return s.field
}

func (s *scene) Compositor() compositor.Compositor {
	return s.compositor
}
