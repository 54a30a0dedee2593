// Command oxy-drift renders a field of drifting point sprites over an animated backdrop.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/Carmen-Shannon/oxy-drift/config"
	"github.com/Carmen-Shannon/oxy-drift/engine"
	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/compositor"
	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"github.com/Carmen-Shannon/oxy-drift/engine/profiler"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-drift/engine/scene"
	"github.com/Carmen-Shannon/oxy-drift/engine/window"
	"go.uber.org/zap"
)

func init() {
	// GLFW must be driven from the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	headless := flag.Bool("headless", false, "render through the headless backend without a window")
	frames := flag.Uint64("frames", 0, "stop after this many frames (0 runs until closed)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *headless, *frames, logger); err != nil {
		logger.Error("oxy-drift stopped", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

// headlessHistory is how many frames the headless recorder keeps when running without a frame budget.
const headlessHistory = 120

func run(cfg config.Config, headless bool, frames uint64, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var win window.Window
	var r renderer.Renderer
	if headless {
		r = renderer.NewRenderer(renderer.BackendTypeHeadless, nil,
			renderer.WithSurfaceSize(cfg.Window.Width, cfg.Window.Height),
			renderer.WithRecorder(renderer.NewRingRecorder(headlessHistory)),
			renderer.WithLogger(logger),
		)
	} else {
		win = window.NewWindow(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
			window.WithResizable(cfg.Window.Resizable),
		)
		defer win.Close()

		presentMode := renderer.PresentModeUncapped
		if cfg.Window.VSync {
			presentMode = renderer.PresentModeVSync
		}
		r = renderer.NewRenderer(renderer.BackendTypeWGPU, win,
			renderer.WithPresentMode(presentMode),
			renderer.WithForceSoftwareRenderer(cfg.Window.SoftwareRenderer),
			renderer.WithLogger(logger),
		)
	}

	registry := loader.NewRegistry(
		loader.WithUploader(loader.NewRendererUploader(r)),
		loader.WithLogger(logger),
	)
	defer registry.Close()

	// Nothing touches the renderer until every asset has resolved.
	var s scene.Scene
	var buildErr error
	if err := registry.Load(ctx, cfg.Assets, func(reg loader.Registry) {
		s, buildErr = buildScene(cfg, r, reg, logger)
	}); err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	if buildErr != nil {
		return buildErr
	}
	defer s.Compositor().Release()

	options := []engine.EngineBuilderOption{
		engine.WithLogger(logger),
		engine.WithProfiling(cfg.Profiling),
		engine.WithProfiler(profiler.NewProfiler(profiler.WithLogger(logger))),
		engine.WithRenderFrameLimit(cfg.FrameLimit),
		engine.WithMaxFrames(frames),
	}
	if win != nil {
		options = append(options, engine.WithWindow(win))
	}
	eng := engine.NewEngine(r, s, options...)

	go func() {
		<-ctx.Done()
		eng.Quit()
	}()

	logger.Info("oxy-drift running",
		zap.Bool("headless", headless),
		zap.Int("particles", s.Field().Count()),
		zap.Int("assets", len(cfg.Assets)),
	)
	return eng.Run()
}

// buildScene assembles the particle field, camera and compositor from the loaded assets.
func buildScene(cfg config.Config, r renderer.Renderer, reg loader.Registry, logger *zap.Logger) (scene.Scene, error) {
	field, err := particle.NewField(cfg.FieldOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build particle field: %w", err)
	}

	sprites := make([]image.Image, 0, len(cfg.Sprites))
	for _, name := range cfg.Sprites {
		if img := reg.Image(name); img != nil {
			sprites = append(sprites, img)
		}
	}

	compOptions := []compositor.CompositorBuilderOption{
		compositor.WithFeatures(cfg.CompositorFeatures()),
		compositor.WithMaterial(material.NewMaterial(
			material.WithName("backdrop"),
			material.WithColors(cfg.Backdrop.Color1, cfg.Backdrop.Color2),
		)),
		compositor.WithParticleCapacity(cfg.ParticleCapacity()),
		compositor.WithSpriteSize(cfg.Particles.SpriteSize),
		compositor.WithSpriteImages(sprites...),
		compositor.WithRenderTargetSize(cfg.RenderTarget.Width, cfg.RenderTarget.Height),
		compositor.WithLogger(logger),
	}
	if cfg.Overlay != "" {
		compOptions = append(compOptions, compositor.WithOverlayTexture(reg.Texture(cfg.Overlay)))
	}
	comp, err := compositor.NewCompositor(r, compOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to build compositor: %w", err)
	}

	width, height := r.Size()
	cam := camera.NewCamera(
		camera.WithFov(cfg.Camera.Fov),
		camera.WithAspect(float32(width)/float32(max(height, 1))),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithController(camera.NewOrbitController(
			camera.WithRadius(cfg.Camera.Radius),
			camera.WithAzimuth(cfg.Camera.Azimuth),
			camera.WithElevation(cfg.Camera.Elevation),
			camera.WithRadiusBounds(cfg.Camera.Near, cfg.Camera.Far/2),
			camera.WithDamping(cfg.Camera.Damping),
		)),
	)

	return scene.NewScene(cam, field, comp,
		scene.WithDepthSort(cfg.Features.DepthSort),
		scene.WithLogger(logger),
	), nil
}
