// Package config holds the YAML configuration of the oxy-drift binary. Defaults are applied
// before the document is decoded, so a partial file only overrides what it names.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/compositor"
	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the root of the configuration document.
type Config struct {
	Particles    ParticlesConfig `yaml:"particles"`
	Backdrop     BackdropConfig  `yaml:"backdrop"`
	RenderTarget SizeConfig      `yaml:"render_target"`
	Features     FeaturesConfig  `yaml:"features"`
	Window       WindowConfig    `yaml:"window"`
	Camera       CameraConfig    `yaml:"camera"`

	// Assets are loaded before any rendering state is built.
	Assets loader.Manifest `yaml:"assets"`
	// Sprites names the assets used as sprite texture layers, in layer order.
	Sprites []string `yaml:"sprites"`
	// Overlay names a texture asset drawn over the scene. Empty uses the procedural vignette.
	Overlay string `yaml:"overlay"`

	Log        LogConfig `yaml:"log"`
	Profiling  bool      `yaml:"profiling"`
	FrameLimit float64   `yaml:"frame_limit"`
}

type ParticlesConfig struct {
	Count              int          `yaml:"count"`
	Range              float32      `yaml:"range"`
	Speed              common.Range `yaml:"speed"`
	VelocityStep       common.Range `yaml:"velocity_step"`
	PhaseOffset        common.Range `yaml:"phase_offset"`
	OscillationPeriod  float64      `yaml:"oscillation_period"`
	OscillationDamping float64      `yaml:"oscillation_damping"`
	// Seed makes the field reproducible. Zero seeds from the runtime.
	Seed       uint64  `yaml:"seed"`
	SpriteSize float32 `yaml:"sprite_size"`
	// Capacity bounds the particle GPU buffers. Zero sizes them to Count.
	Capacity int `yaml:"capacity"`
}

type BackdropConfig struct {
	Color1 common.Color `yaml:"color1"`
	Color2 common.Color `yaml:"color2"`
}

// SizeConfig is a pixel size. Zero dimensions follow the window.
type SizeConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type FeaturesConfig struct {
	DepthSort            bool `yaml:"depth_sort"`
	BackdropComposite    bool `yaml:"backdrop_composite"`
	ParticleTextureCount int  `yaml:"particle_texture_count"`
	Overlay              bool `yaml:"overlay"`
}

type WindowConfig struct {
	Title     string `yaml:"title"`
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Resizable bool   `yaml:"resizable"`
	VSync     bool   `yaml:"vsync"`
	// SoftwareRenderer selects a CPU adapter (lavapipe, SwiftShader) when one is installed.
	SoftwareRenderer bool `yaml:"software_renderer"`
}

type CameraConfig struct {
	Fov     float32 `yaml:"fov"`
	Near    float32 `yaml:"near"`
	Far     float32 `yaml:"far"`
	Radius  float32 `yaml:"radius"`
	Damping float32 `yaml:"damping"`
	// Azimuth and Elevation are the starting orbit angles in radians.
	Azimuth   float32 `yaml:"azimuth"`
	Elevation float32 `yaml:"elevation"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Particles: ParticlesConfig{
			Count:              particle.DefaultCount,
			Range:              particle.DefaultRange,
			Speed:              common.Range{Min: 0.05, Max: 0.15},
			VelocityStep:       common.Range{Min: 0.0005, Max: 0.002},
			PhaseOffset:        common.Range{Min: 0, Max: 6.2831855},
			OscillationPeriod:  particle.DefaultOscillationPeriod,
			OscillationDamping: particle.DefaultOscillationDamping,
			SpriteSize:         compositor.DefaultSpriteSize,
		},
		Backdrop: BackdropConfig{
			Color1: common.ColorFromHex(0xFA35DF),
			Color2: common.ColorFromHex(0xF47B20),
		},
		Features: FeaturesConfig{
			DepthSort:            true,
			BackdropComposite:    true,
			ParticleTextureCount: 1,
			Overlay:              true,
		},
		Window: WindowConfig{
			Title:     "oxy-drift",
			Width:     1280,
			Height:    720,
			Resizable: true,
			VSync:     true,
		},
		Camera: CameraConfig{
			Fov:     10,
			Near:    1,
			Far:     10000,
			Radius:  100,
			Damping: 0.05,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads and parses the file at path.
//
// Parameters:
//   - path: the YAML file
//
// Returns:
//   - Config: the defaults overridden by the file
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document over the defaults and validates the result.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and that sprite and overlay names refer to declared assets.
func (c Config) Validate() error {
	p := c.Particles
	switch {
	case p.Count < 0:
		return fmt.Errorf("%w: particles.count %d", ErrInvalid, p.Count)
	case p.Range <= 0:
		return fmt.Errorf("%w: particles.range %v", ErrInvalid, p.Range)
	case !p.Speed.Valid(), !p.VelocityStep.Valid(), !p.PhaseOffset.Valid():
		return fmt.Errorf("%w: particle intervals need min <= max", ErrInvalid)
	case p.OscillationPeriod == 0 || p.OscillationDamping == 0:
		return fmt.Errorf("%w: particles.oscillation_period and oscillation_damping must be non-zero", ErrInvalid)
	case p.SpriteSize <= 0:
		return fmt.Errorf("%w: particles.sprite_size %v", ErrInvalid, p.SpriteSize)
	case p.Capacity < 0 || (p.Capacity > 0 && p.Capacity < p.Count):
		return fmt.Errorf("%w: particles.capacity %d for %d particles", ErrInvalid, p.Capacity, p.Count)
	case c.RenderTarget.Width < 0 || c.RenderTarget.Height < 0:
		return fmt.Errorf("%w: render_target %dx%d", ErrInvalid, c.RenderTarget.Width, c.RenderTarget.Height)
	case c.Features.ParticleTextureCount < 1:
		return fmt.Errorf("%w: features.particle_texture_count %d", ErrInvalid, c.Features.ParticleTextureCount)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near || c.Camera.Fov <= 0 || c.Camera.Fov >= 180:
		return fmt.Errorf("%w: camera fov %v near %v far %v", ErrInvalid, c.Camera.Fov, c.Camera.Near, c.Camera.Far)
	case c.FrameLimit < 0:
		return fmt.Errorf("%w: frame_limit %v", ErrInvalid, c.FrameLimit)
	}

	if err := c.Assets.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	kinds := make(map[string]loader.Kind, len(c.Assets))
	for _, a := range c.Assets {
		kinds[a.Name] = a.Kind
	}
	for _, name := range c.Sprites {
		if _, ok := kinds[name]; !ok {
			return fmt.Errorf("%w: sprite %q is not a declared asset", ErrInvalid, name)
		}
	}
	if c.Overlay != "" && kinds[c.Overlay] != loader.KindTexture {
		return fmt.Errorf("%w: overlay %q must be a declared texture asset", ErrInvalid, c.Overlay)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

// FieldOptions maps the particle section onto particle field options.
func (c Config) FieldOptions() []particle.FieldBuilderOption {
	p := c.Particles
	opts := []particle.FieldBuilderOption{
		particle.WithCount(p.Count),
		particle.WithRange(p.Range),
		particle.WithSpeed(p.Speed),
		particle.WithVelocityStep(p.VelocityStep),
		particle.WithPhaseOffset(p.PhaseOffset),
		particle.WithOscillation(p.OscillationPeriod, p.OscillationDamping),
	}
	if p.Seed != 0 {
		opts = append(opts, particle.WithSeed(p.Seed))
	}
	return opts
}

// CompositorFeatures maps the feature flags onto the compositor's features.
func (c Config) CompositorFeatures() compositor.Features {
	return compositor.Features{
		BackdropComposite:    c.Features.BackdropComposite,
		Overlay:              c.Features.Overlay,
		ParticleTextureCount: c.Features.ParticleTextureCount,
	}
}

// ParticleCapacity is the configured capacity, or the particle count when unset.
func (c Config) ParticleCapacity() int {
	return max(c.Particles.Capacity, c.Particles.Count, 1)
}

// NewLogger builds a production or development zap logger at the configured level.
//
// Returns:
//   - *zap.Logger: the logger
//   - error: an error if the level is unknown or the logger cannot be built
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
