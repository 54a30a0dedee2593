package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/compositor"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/scene"
	"github.com/Carmen-Shannon/oxy-drift/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeWindow runs a message loop that only waits for RequestClose.
type fakeWindow struct {
	closed    chan struct{}
	closeOnce sync.Once

	onResize  func(width, height int)
	onScroll  func(delta float32)
	onKeyDown func(keyCode uint32)
	onDrag    func(dx, dy float32)
}

var _ window.Window = &fakeWindow{}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{closed: make(chan struct{})}
}

func (w *fakeWindow) SetUpdateCallback(func()) {}
func (w *fakeWindow) SetResizeCallback(cb func(width, height int)) { w.onResize = cb }
func (w *fakeWindow) SetScrollCallback(cb func(delta float32)) { w.onScroll = cb }
func (w *fakeWindow) SetKeyDownCallback(cb func(keyCode uint32)) { w.onKeyDown = cb }
func (w *fakeWindow) SetDragCallback(cb func(dx, dy float32)) { w.onDrag = cb }
func (w *fakeWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor { return nil }
func (w *fakeWindow) Close() error { return nil }
func (w *fakeWindow) Width() int { return 800 }
func (w *fakeWindow) Height() int { return 600 }
func (w *fakeWindow) ProcessMessages() { <-w.closed }
func (w *fakeWindow) RequestClose() { w.closeOnce.Do(func() { close(w.closed) }) }
func (w *fakeWindow) IsRunning() bool {
	select {
	case <-w.closed:
		return false
	default:
		return true
	}
}

type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func newTestScene(t *testing.T, count int) (scene.Scene, renderer.Renderer) {
	t.Helper()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithSurfaceSize(800, 600))
	comp, err := compositor.NewCompositor(r)
	require.NoError(t, err)
	t.Cleanup(comp.Release)

	field, err := particle.NewField(particle.WithCount(count), particle.WithSeed(1))
	require.NoError(t, err)

	cam := camera.NewCamera(
		camera.WithAspect(800.0/600.0),
		camera.WithClipPlanes(1, 1000),
		camera.WithController(camera.NewOrbitController(camera.WithDamping(0), camera.WithOrbitSpeed(0.5))),
	)
	return scene.NewScene(cam, field, comp), r
}

func TestRun_HeadlessStopsAtFrameBudget(t *testing.T) {
	s, r := newTestScene(t, 10)
	clock := &stepClock{t: time.Unix(0, 0), step: 16 * time.Millisecond}

	e := NewEngine(r, s, WithMaxFrames(3), withClock(clock.now))
	require.NoError(t, e.Run())

	assert.Equal(t, uint64(3), s.FrameCount())
	assert.InDelta(t, 0.048, s.Compositor().Material().Time(), 1e-6)
	assert.Nil(t, e.Window())
}

func TestRun_WindowClosesWhenBudgetSpent(t *testing.T) {
	s, r := newTestScene(t, 10)
	w := newFakeWindow()

	e := NewEngine(r, s, WithWindow(w), WithMaxFrames(2))
	require.NoError(t, e.Run())

	assert.False(t, w.IsRunning())
	assert.Equal(t, uint64(2), s.FrameCount())
}

func TestQuit_StopsHeadlessRun(t *testing.T) {
	s, r := newTestScene(t, 10)
	e := NewEngine(r, s, WithRenderFrameLimit(1000))

	done := make(chan error, 1)
	go func() { done <- e.Run() }()

	require.Eventually(t, func() bool { return s.FrameCount() > 0 }, time.Second, time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
}

func TestRun_FrameErrorStopsEngine(t *testing.T) {
	// more particles than the compositor has room for
	s, r := newTestScene(t, compositor.DefaultParticleCapacity+1)
	core, logs := observer.New(zap.ErrorLevel)

	e := NewEngine(r, s, WithLogger(zap.New(core)))
	err := e.Run()

	require.ErrorIs(t, err, compositor.ErrTooManyParticles)
	assert.Equal(t, 1, logs.FilterMessage("frame failed").Len())
}

func TestWindowSignals(t *testing.T) {
	s, r := newTestScene(t, 10)
	w := newFakeWindow()
	NewEngine(r, s, WithWindow(w))

	w.onResize(1920, 1080)
	width, height := r.Size()
	assert.Equal(t, 1920, width)
	assert.Equal(t, 1080, height)
	assert.Equal(t, 1920, s.Compositor().RenderTarget().Width)
	assert.InDelta(t, 1920.0/1080.0, s.Camera().Aspect(), 1e-6)

	w.onResize(0, 0)
	width, _ = r.Size()
	assert.Equal(t, 1920, width)

	ctrl := s.Camera().Controller()
	w.onKeyDown(common.KeyRight)
	assert.InDelta(t, 0.5, ctrl.Azimuth(), 1e-6)
	w.onKeyDown(common.KeyLeft)
	assert.InDelta(t, 0, ctrl.Azimuth(), 1e-6)

	radius := ctrl.Radius()
	w.onScroll(1)
	assert.Less(t, ctrl.Radius(), radius)

	w.onDrag(0, 100)
	assert.Greater(t, ctrl.Elevation(), float32(0))

	require.True(t, s.DepthSort())
	w.onKeyDown(common.KeySpace)
	assert.False(t, s.DepthSort())
}
