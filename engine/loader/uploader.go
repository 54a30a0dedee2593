package loader

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// TextureBinding is the binding index of the texture view on an uploaded texture's provider.
	TextureBinding = 0
	// SamplerBinding is the binding index of the sampler on an uploaded texture's provider.
	SamplerBinding = 1
)

// Texture is a decoded image resident on the GPU. The provider holds the texture view at
// TextureBinding and a linear clamp sampler at SamplerBinding; the consumer creates the bind
// group with its own layout.
type Texture struct {
	Provider bind_group_provider.BindGroupProvider
	Width    int
	Height   int
}

// TextureUploader moves decoded images to the GPU for texture kind assets.
type TextureUploader interface {
	// UploadTexture creates a GPU texture from the image.
	//
	// Parameters:
	//   - name: the asset name, used as the provider label
	//   - img: the decoded image
	//
	// Returns:
	//   - *Texture: the uploaded texture
	//   - error: error if the upload fails
	UploadTexture(name string, img image.Image) (*Texture, error)
}

type rendererUploader struct {
	r renderer.Renderer
}

var _ TextureUploader = &rendererUploader{}

// NewRendererUploader returns a TextureUploader backed by the renderer.
//
// Parameters:
//   - r: the renderer that owns the GPU device
//
// Returns:
//   - TextureUploader: the uploader
func NewRendererUploader(r renderer.Renderer) TextureUploader {
	return &rendererUploader{r: r}
}

func (u *rendererUploader) UploadTexture(name string, img image.Image) (*Texture, error) {
	staging := common.StagingFromImage(img)
	provider := bind_group_provider.NewBindGroupProvider(name)

	if err := u.r.InitTextureView(provider, TextureBinding, wgpu.TextureViewDimension2D, staging); err != nil {
		return nil, fmt.Errorf("failed to init texture view for %q: %w", name, err)
	}
	if err := u.r.InitSampler(provider, SamplerBinding, common.SamplerStagingData{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}); err != nil {
		provider.Release()
		return nil, fmt.Errorf("failed to init sampler for %q: %w", name, err)
	}
	return &Texture{Provider: provider, Width: int(staging.Width), Height: int(staging.Height)}, nil
}
