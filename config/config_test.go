package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, particle.DefaultCount, cfg.Particles.Count)
	assert.Equal(t, "#FA35DF", cfg.Backdrop.Color1.String())
	assert.Equal(t, "#F47B20", cfg.Backdrop.Color2.String())
	assert.True(t, cfg.Features.DepthSort)
	assert.True(t, cfg.Features.BackdropComposite)
	assert.Equal(t, particle.DefaultCount, cfg.ParticleCapacity())
}

func TestParse_OverridesOnlyNamedFields(t *testing.T) {
	cfg, err := Parse([]byte(`
particles:
  count: 4
  range: 10
  speed: {min: 1, max: 1}
  velocity_step: {min: 0, max: 0}
  seed: 42
backdrop:
  color1: "#102030"
render_target:
  width: 1920
  height: 1080
features:
  depth_sort: false
  particle_texture_count: 3
log:
  level: debug
  development: true
`))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Particles.Count)
	assert.Equal(t, float32(10), cfg.Particles.Range)
	assert.Equal(t, common.Range{Min: 1, Max: 1}, cfg.Particles.Speed)
	assert.Equal(t, uint64(42), cfg.Particles.Seed)
	assert.Equal(t, "#102030", cfg.Backdrop.Color1.String())
	assert.Equal(t, "#F47B20", cfg.Backdrop.Color2.String(), "color2 keeps its default")
	assert.Equal(t, 1920, cfg.RenderTarget.Width)
	assert.False(t, cfg.Features.DepthSort)
	assert.True(t, cfg.Features.Overlay, "overlay keeps its default")
	assert.Equal(t, particle.DefaultOscillationPeriod, cfg.Particles.OscillationPeriod)

	features := cfg.CompositorFeatures()
	assert.Equal(t, 3, features.ParticleTextureCount)
	assert.True(t, features.BackdropComposite)

	logger, err := cfg.Log.NewLogger()
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestFieldOptions_BuildsConfiguredField(t *testing.T) {
	cfg, err := Parse([]byte(`
particles:
  count: 4
  range: 10
  speed: {min: 1, max: 1}
  velocity_step: {min: 0, max: 0}
  seed: 7
`))
	require.NoError(t, err)

	f, err := particle.NewField(cfg.FieldOptions()...)
	require.NoError(t, err)
	assert.Equal(t, 4, f.Count())
	assert.Equal(t, float32(10), f.Range())
	for _, p := range f.Particles() {
		assert.Equal(t, float32(1), p.Speed)
		assert.Equal(t, float32(0), p.VelocityStep)
		assert.LessOrEqual(t, p.Y, float32(10))
		assert.GreaterOrEqual(t, p.Y, float32(-10))
	}
}

func TestParse_Assets(t *testing.T) {
	cfg, err := Parse([]byte(`
assets:
  - {name: spark, kind: image, url: assets/spark.png}
  - {name: vignette, kind: texture, url: assets/vignette.png}
sprites: [spark]
overlay: vignette
`))
	require.NoError(t, err)
	require.Len(t, cfg.Assets, 2)
	assert.Equal(t, loader.KindTexture, cfg.Assets[1].Kind)
	assert.Equal(t, []string{"spark"}, cfg.Sprites)
}

func TestParse_Invalid(t *testing.T) {
	tests := map[string]string{
		"negative count":      "particles: {count: -1}",
		"zero range":          "particles: {range: 0}",
		"inverted speed":      "particles: {speed: {min: 2, max: 1}}",
		"zero damping":        "particles: {oscillation_damping: 0}",
		"capacity below":      "particles: {count: 10, capacity: 5}",
		"no texture layers":   "features: {particle_texture_count: 0}",
		"bad camera planes":   "camera: {near: 10, far: 1}",
		"unknown log level":   "log: {level: loud}",
		"sprite not declared": "sprites: [missing]",
		"overlay is an image": "assets: [{name: v, kind: image, url: v.png}]\noverlay: v",
		"duplicate asset":     "assets: [{name: a, kind: image, url: a.png}, {name: a, kind: image, url: b.png}]",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte("backdrop: {color1: nothex}"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy-drift.yaml")
	require.NoError(t, os.WriteFile(path, []byte("profiling: true\nframe_limit: 60\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Profiling)
	assert.Equal(t, 60.0, cfg.FrameLimit)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
