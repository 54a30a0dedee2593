package compositor

import (
	"image"

	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/material"
	"go.uber.org/zap"
)

const (
	// DefaultParticleCapacity sizes the position and order storage buffers.
	DefaultParticleCapacity = 2000
	// DefaultSpriteSize is the billboard half size in world units.
	DefaultSpriteSize float32 = 0.5
	// DefaultSpriteResolution is the edge length of each sprite texture layer in pixels.
	DefaultSpriteResolution = 64
)

// CompositorBuilderOption is a functional option for configuring a Compositor.
type CompositorBuilderOption func(*compositor)

// WithFeatures selects the enabled stages.
//
// Parameters:
//   - features: the feature set
//
// Returns:
//   - CompositorBuilderOption: functional option to set the features
func WithFeatures(features Features) CompositorBuilderOption {
	return func(c *compositor) {
		c.features = features
	}
}

// WithSpriteImages supplies decoded images for the sprite texture layers. Layer i uses
// images[i % len(images)]; every image is rescaled to the sprite resolution.
//
// Parameters:
//   - images: the decoded sprite images
//
// Returns:
//   - CompositorBuilderOption: functional option to set the sprite images
func WithSpriteImages(images ...image.Image) CompositorBuilderOption {
	return func(c *compositor) {
		c.spriteImages = append(c.spriteImages, images...)
	}
}

// WithOverlayTexture uses an uploaded texture for the overlay instead of the procedural vignette.
// The compositor binds it but does not release it.
//
// Parameters:
//   - tex: the texture, typically a loader texture asset
//
// Returns:
//   - CompositorBuilderOption: functional option to set the overlay texture
func WithOverlayTexture(tex *loader.Texture) CompositorBuilderOption {
	return func(c *compositor) {
		c.overlayTexture = tex
	}
}

// WithMaterial sets the backdrop material. Defaults to material.NewMaterial().
func WithMaterial(m material.Material) CompositorBuilderOption {
	return func(c *compositor) {
		c.material = m
	}
}

// WithParticleCapacity sets the largest particle count Render accepts.
//
// Parameters:
//   - count: the capacity
//
// Returns:
//   - CompositorBuilderOption: functional option to set the capacity
func WithParticleCapacity(count int) CompositorBuilderOption {
	return func(c *compositor) {
		if count >= 0 {
			c.particleCapacity = count
		}
	}
}

// WithSpriteSize sets the billboard half size in world units.
func WithSpriteSize(size float32) CompositorBuilderOption {
	return func(c *compositor) {
		if size > 0 {
			c.spriteSize = size
		}
	}
}

// WithSpriteResolution sets the edge length of each sprite layer in pixels.
func WithSpriteResolution(resolution int) CompositorBuilderOption {
	return func(c *compositor) {
		if resolution > 0 {
			c.spriteResolution = resolution
		}
	}
}

// WithRenderTargetSize sets the initial render target size. Defaults to the renderer's surface size.
//
// Parameters:
//   - width: the width in pixels
//   - height: the height in pixels
//
// Returns:
//   - CompositorBuilderOption: functional option to set the size
func WithRenderTargetSize(width, height int) CompositorBuilderOption {
	return func(c *compositor) {
		if width > 0 && height > 0 {
			c.targetWidth, c.targetHeight = width, height
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) CompositorBuilderOption {
	return func(c *compositor) {
		if logger != nil {
			c.logger = logger
		}
	}
}
