// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
	"gopkg.in/yaml.v3"
)

// TextureStagingData holds RGBA pixel data for a texture binding pending GPU upload.
// This is primarily used in the BindGroupProvider to stage texture data before creating the GPU texture and bind group.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It should be in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// StagingFromImage converts any decoded image into tightly packed RGBA staging data.
//
// Parameters:
//   - img: the decoded image
//
// Returns:
//   - TextureStagingData: RGBA pixels with the image dimensions
func StagingFromImage(img image.Image) TextureStagingData {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || bounds.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
// This is primarily used in the BindGroupProvider to stage sampler data before creating the GPU sampler and bind group.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering.
	MaxAnisotropy uint16
}

// Color is a linear RGB color with components in [0, 1].
// In YAML it is written as a hex string ("#FA35DF" or "0xFA35DF").
type Color struct {
	R, G, B float32
}

// ColorFromHex builds a Color from a 24-bit 0xRRGGBB value.
//
// Parameters:
//   - hex: the packed color
//
// Returns:
//   - Color: the unpacked color
func ColorFromHex(hex uint32) Color {
	return Color{
		R: float32((hex>>16)&0xFF) / 255.0,
		G: float32((hex>>8)&0xFF) / 255.0,
		B: float32(hex&0xFF) / 255.0,
	}
}

// ParseColor parses "#RRGGBB", "0xRRGGBB" or "RRGGBB".
//
// Parameters:
//   - s: the textual color
//
// Returns:
//   - Color: the parsed color
//   - error: error if s is not a 6 digit hex color
func ParseColor(s string) (Color, error) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(trimmed) != 6 {
		return Color{}, fmt.Errorf("invalid color %q: expected 6 hex digits", s)
	}
	v, err := strconv.ParseUint(trimmed, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return ColorFromHex(uint32(v)), nil
}

// Vec4 returns the color as an RGBA vector with the given alpha.
func (c Color) Vec4(alpha float32) [4]float32 {
	return [4]float32{c.R, c.G, c.B, alpha}
}

// Hex packs the color back into 0xRRGGBB.
func (c Color) Hex() uint32 {
	to8 := func(v float32) uint32 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 0xFF
		}
		return uint32(v*255.0 + 0.5)
	}
	return to8(c.R)<<16 | to8(c.G)<<8 | to8(c.B)
}

func (c Color) String() string {
	return fmt.Sprintf("#%06X", c.Hex())
}

// UnmarshalYAML implements yaml.Unmarshaler for hex color strings.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (any, error) {
	return c.String(), nil
}
