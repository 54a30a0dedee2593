package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/profiler"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/scene"
	"github.com/Carmen-Shannon/oxy-drift/engine/window"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// Coordinates the render goroutine with the window's message loop.
type engine struct {
	mu     *sync.Mutex
	logger *zap.Logger

	renderer renderer.Renderer
	scene    scene.Scene
	window   window.Window

	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // 0 = run until quit

	now func() time.Time
	err error
}

// Engine is the display loop. It calls Scene.Frame once per refresh with the milliseconds
// elapsed since Run started, forwards window resize and input signals, and ticks the profiler.
type Engine interface {
	// Window returns the underlying window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Scene returns the scene driven each frame.
	Scene() scene.Scene

	// Renderer returns the renderer the scene presents through.
	Renderer() renderer.Renderer

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default). Call before Run.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the render goroutine and blocks until the window closes, Quit is called,
	// the frame budget is spent or a frame fails. With a window, Run must be called from
	// the main thread.
	//
	// Returns:
	//   - error: the first frame error or recovered panic, nil on a clean shutdown
	Run() error

	// Quit signals the render goroutine to stop and asks the window to close.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine around a renderer and the scene it draws.
// When a window is supplied its resize callback is wired to the renderer surface and the
// scene, and its drag, scroll and key callbacks to the camera controller.
//
// Parameters:
//   - r: the renderer the scene draws with
//   - s: the scene to drive
//   - options: functional options for engine configuration (window, profiling, frame limit, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, s scene.Scene, options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:          &sync.Mutex{},
		logger:      zap.NewNop(),
		renderer:    r,
		scene:       s,
		quitChannel: make(chan struct{}),
		now:         time.Now,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if e.window != nil {
		e.wireWindow()
	}

	return e
}

// wireWindow connects the window's signals. The callbacks run on the window thread.
func (e *engine) wireWindow() {
	e.window.SetResizeCallback(e.resize)

	e.window.SetDragCallback(func(dx, dy float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Rotate(dx, dy)
		}
	})

	e.window.SetScrollCallback(func(delta float32) {
		if ctrl := e.scene.Camera().Controller(); ctrl != nil {
			ctrl.Zoom(delta)
		}
	})

	e.window.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == common.KeySpace {
			e.scene.SetDepthSort(!e.scene.DepthSort())
			e.logger.Info("depth sort toggled", zap.Bool("enabled", e.scene.DepthSort()))
			return
		}
		ctrl := e.scene.Camera().Controller()
		if ctrl == nil {
			return
		}
		switch keyCode {
		case common.KeyLeft:
			ctrl.OrbitLeft()
		case common.KeyRight:
			ctrl.OrbitRight()
		case common.KeyUp:
			ctrl.OrbitUp()
		case common.KeyDown:
			ctrl.OrbitDown()
		}
	})
}

// resize reconfigures the surface, then recreates the scene's render target before the next frame.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	if err := e.scene.Resize(width, height); err != nil {
		e.logger.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		e.fail(err)
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	e.wg.Add(1)
	go e.handleRender(e.now())

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel and asks the window loop to return.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// fail records the first error and quits.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.signalQuit()
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender(start time.Time) {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("render goroutine recovered from panic", zap.Any("panic", r))
			e.fail(fmt.Errorf("render panic: %v", r))
		}
	}()

	var frames uint64
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		frameStart := e.now()
		if err := e.scene.Frame(float64(frameStart.Sub(start).Microseconds()) / 1000); err != nil {
			if errors.Is(err, renderer.ErrSurfaceUnavailable) {
				e.logger.Warn("frame skipped", zap.Error(err))
			} else {
				e.logger.Error("frame failed", zap.Error(err))
				e.fail(err)
				return
			}
		}
		frames++

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		if e.maxFrames > 0 && frames >= e.maxFrames {
			e.logger.Info("frame budget reached", zap.Uint64("frames", frames))
			e.signalQuit()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
