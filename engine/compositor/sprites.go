package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"golang.org/x/image/draw"
)

// spriteLayers builds count equally sized RGBA layers for the sprite texture array. Layer i comes
// from images[i % len(images)] rescaled to resolution x resolution; without images every layer is
// the procedural soft disc.
//
// Parameters:
//   - images: decoded sprite images, may be empty
//   - count: number of layers, at least 1
//   - resolution: edge length of each layer in pixels
//
// Returns:
//   - []common.TextureStagingData: the layers in order
func spriteLayers(images []image.Image, count, resolution int) []common.TextureStagingData {
	if len(images) == 0 {
		images = []image.Image{softDisc(resolution)}
	}
	scaled := make([]common.TextureStagingData, len(images))
	for i, img := range images {
		dst := image.NewRGBA(image.Rect(0, 0, resolution, resolution))
		if img.Bounds().Dx() == resolution && img.Bounds().Dy() == resolution {
			draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
		} else {
			draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		}
		scaled[i] = common.StagingFromImage(dst)
	}

	layers := make([]common.TextureStagingData, count)
	for i := range layers {
		layers[i] = scaled[i%len(scaled)]
	}
	return layers
}

// softDisc draws a white disc whose alpha falls off smoothly towards the edge.
func softDisc(resolution int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, resolution, resolution))
	center := float64(resolution) / 2
	for y := range resolution {
		for x := range resolution {
			dx := (float64(x) + 0.5 - center) / center
			dy := (float64(y) + 0.5 - center) / center
			d := math.Sqrt(dx*dx + dy*dy)
			a := 1 - smoothstep(0.2, 1, d)
			img.SetNRGBA(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: uint8(math.Round(a * 255))})
		}
	}
	return img
}

// vignette is the fallback overlay: transparent in the middle, darkening towards the corners.
func vignette(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			u := (float64(x)+0.5)/float64(width)*2 - 1
			v := (float64(y)+0.5)/float64(height)*2 - 1
			d := math.Sqrt(u*u+v*v) / math.Sqrt2
			a := smoothstep(0.45, 1, d) * 0.85
			img.SetNRGBA(x, y, color.NRGBA{A: uint8(math.Round(a * 255))})
		}
	}
	return img
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := math.Max(0, math.Min(1, (x-edge0)/(edge1-edge0)))
	return t * t * (3 - 2*t)
}
