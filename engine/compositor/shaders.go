package compositor

import (
	_ "embed"
	"strings"

	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/material"
)

var (
	//go:embed shaders/common.wgsl
	commonSource string

	//go:embed shaders/backdrop.wgsl
	backdropBody string

	//go:embed shaders/blit.wgsl
	blitBody string

	//go:embed shaders/sprites.wgsl
	spritesBody string

	//go:embed shaders/overlay.wgsl
	overlayBody string
)

// Each pipeline compiles one module, so the shared struct definitions and helpers are prepended
// to the stage bodies here instead of being included by the WGSL itself.
var (
	backdropSource = composeSource(material.GPUBackdropParamsSource, camera.GPUCameraUniformSource, backdropBody)
	blitSource     = composeSource(commonSource, blitBody)
	spritesSource  = composeSource(material.GPUBackdropParamsSource, commonSource, spritesBody)
	overlaySource  = composeSource(commonSource, overlayBody)
)

func composeSource(parts ...string) string {
	return strings.Join(parts, "\n")
}
