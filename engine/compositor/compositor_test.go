package compositor

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-drift/engine/loader"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadless(t *testing.T, options ...CompositorBuilderOption) (Compositor, renderer.Renderer, *renderer.Recorder) {
	t.Helper()
	rec := renderer.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless, nil,
		renderer.WithRecorder(rec),
		renderer.WithSurfaceSize(800, 600),
	)
	c, err := NewCompositor(r, options...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	rec.Reset()
	return c, r, rec
}

func frameInput(n int) FrameInput {
	positions := make([]float32, n*3)
	order := make([]uint32, n)
	for i := range n {
		positions[i*3] = float32(i)
		order[i] = uint32(n - 1 - i)
	}
	return FrameInput{
		View:       mgl32.Ident4(),
		Projection: mgl32.Ident4(),
		Positions:  positions,
		Order:      order,
	}
}

func kinds(events []renderer.Event) []renderer.EventKind {
	out := make([]renderer.EventKind, len(events))
	for i, e := range events {
		out[i] = e.Kind
	}
	return out
}

func drawLabels(events []renderer.Event) []string {
	var out []string
	for _, e := range events {
		if e.Kind == renderer.EventDraw {
			out = append(out, e.Label)
		}
	}
	return out
}

func paramsTime(t *testing.T, frame []renderer.Event) float32 {
	t.Helper()
	var writes []renderer.Event
	for _, e := range frame {
		if e.Kind == renderer.EventWriteBuffer && e.Label == "Backdrop Params" {
			writes = append(writes, e)
		}
	}
	require.Len(t, writes, 1, "params are uploaded once per frame")
	return math.Float32frombits(binary.LittleEndian.Uint32(writes[0].Data[32:36]))
}

func TestRender_PassOrder(t *testing.T) {
	c, _, rec := newHeadless(t)

	require.NoError(t, c.Render(frameInput(3)))

	frames := rec.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, []renderer.EventKind{
		renderer.EventWriteBuffer, renderer.EventWriteBuffer, renderer.EventWriteBuffer, renderer.EventWriteBuffer,
		renderer.EventBeginFrame,
		renderer.EventBeginPass, renderer.EventDraw, renderer.EventEndPass,
		renderer.EventBeginPass, renderer.EventDraw, renderer.EventDraw, renderer.EventDraw, renderer.EventEndPass,
		renderer.EventEndFrame, renderer.EventPresent,
	}, kinds(frames[0]))
	assert.Equal(t, []string{BackdropPipelineKey, BlitPipelineKey, SpritesPipelineKey, OverlayPipelineKey}, drawLabels(frames[0]))

	passes := rec.Filter(renderer.EventBeginPass)
	require.Len(t, passes, 2)
	assert.Equal(t, "Render Target", passes[0].Label)
	assert.Equal(t, "", passes[1].Label, "main pass renders to the surface")

	draws := rec.Filter(renderer.EventDraw)
	sprites := draws[2]
	assert.Equal(t, uint32(3), sprites.InstanceCount)
	assert.Equal(t, uint32(6), sprites.VertexCount)
	assert.Equal(t, []string{"Backdrop Params", "Sprite Frame", "Sprite Layers"}, sprites.BindGroups)
	assert.Equal(t, []string{"Render Target"}, draws[1].BindGroups)
}

func TestRender_UploadsOrderAndPositions(t *testing.T) {
	c, _, rec := newHeadless(t)
	in := frameInput(4)

	require.NoError(t, c.Render(in))

	var order, positions []byte
	for _, e := range rec.Filter(renderer.EventWriteBuffer) {
		if e.Label != "Sprite Frame" {
			continue
		}
		switch e.Binding {
		case frameOrderBinding:
			order = e.Data
		case framePositionsBinding:
			positions = e.Data
		}
	}
	require.Len(t, order, 16)
	require.Len(t, positions, 48)
	for i, want := range in.Order {
		assert.Equal(t, want, binary.LittleEndian.Uint32(order[i*4:]))
	}
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(positions[36:])))
}

func TestResize_RecreatesTargetBeforeNextPass(t *testing.T) {
	c, _, rec := newHeadless(t)
	require.Equal(t, 800, c.RenderTarget().Width)
	require.Equal(t, 600, c.RenderTarget().Height)

	require.NoError(t, c.Resize(1920, 1080))

	rt := c.RenderTarget()
	assert.Equal(t, 1920, rt.Width)
	assert.Equal(t, 1080, rt.Height)
	require.NotNil(t, rt.Provider.Target())
	assert.Equal(t, 1920, rt.Provider.Target().Width)

	inits := rec.Filter(renderer.EventInitRenderTarget)
	require.Len(t, inits, 1)
	assert.Equal(t, 1080, inits[0].Height)
	assert.Len(t, rec.Filter(renderer.EventInitBindGroup), 1, "blit bind group is rebuilt")

	require.NoError(t, c.Render(frameInput(1)))
	passes := rec.Filter(renderer.EventBeginPass)
	require.NotEmpty(t, passes)
	assert.Equal(t, "Render Target", passes[0].Label)
	assert.Equal(t, 1920, passes[0].Width)
	assert.Equal(t, 1080, passes[0].Height)
}

// failingTargetRenderer fails render target bind groups once failTargets is set.
type failingTargetRenderer struct {
	renderer.Renderer
	failTargets bool
}

func (r *failingTargetRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	if r.failTargets && provider.Label() == "Render Target" {
		return errors.New("out of device memory")
	}
	return r.Renderer.InitBindGroup(provider, descriptor)
}

func TestResize_FailedRecreateKeepsPreviousTarget(t *testing.T) {
	rec := renderer.NewRecorder()
	r := &failingTargetRenderer{Renderer: renderer.NewRenderer(renderer.BackendTypeHeadless, nil,
		renderer.WithRecorder(rec),
		renderer.WithSurfaceSize(800, 600),
	)}
	c, err := NewCompositor(r)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	before := c.RenderTarget()

	r.failTargets = true
	err = c.Resize(1920, 1080)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of device memory")

	rt := c.RenderTarget()
	assert.Equal(t, 800, rt.Width)
	assert.Equal(t, 600, rt.Height)
	assert.Same(t, before.Provider, rt.Provider)
	require.NotNil(t, rt.Provider.Target(), "previous target is not released")

	rec.Reset()
	require.NoError(t, c.Render(frameInput(1)))
	passes := rec.Filter(renderer.EventBeginPass)
	require.NotEmpty(t, passes)
	assert.Equal(t, 800, passes[0].Width)

	r.failTargets = false
	require.NoError(t, c.Resize(1920, 1080))
	assert.Equal(t, 1920, c.RenderTarget().Width)
	assert.NotSame(t, before.Provider, c.RenderTarget().Provider)
	assert.Nil(t, before.Provider.Target(), "replaced target is released")
}

func TestResize_IgnoresZeroAndSameSize(t *testing.T) {
	c, _, rec := newHeadless(t)

	require.NoError(t, c.Resize(0, 0))
	require.NoError(t, c.Resize(800, 600))

	assert.Empty(t, rec.Filter(renderer.EventInitRenderTarget))
	assert.Equal(t, 800, c.RenderTarget().Width)
}

func TestSetTime_SameValueInBothPasses(t *testing.T) {
	c, _, rec := newHeadless(t)

	c.SetTime(2.5)
	require.NoError(t, c.Render(frameInput(2)))
	c.SetTime(3)
	require.NoError(t, c.Render(frameInput(2)))

	frames := rec.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, float32(2.5), paramsTime(t, frames[0]))
	assert.Equal(t, float32(3), paramsTime(t, frames[1]))

	// the one upload lands before either pass begins
	for _, frame := range frames {
		assert.Equal(t, renderer.EventWriteBuffer, frame[0].Kind)
		assert.Equal(t, "Backdrop Params", frame[0].Label)
	}
	assert.Equal(t, float32(3), c.Material().Time())
}

func TestRender_ZeroParticlesSkipsSprites(t *testing.T) {
	c, _, rec := newHeadless(t)

	require.NoError(t, c.Render(frameInput(0)))

	assert.Equal(t, []string{BackdropPipelineKey, BlitPipelineKey, OverlayPipelineKey}, drawLabels(rec.Events()))
	assert.Len(t, rec.Filter(renderer.EventWriteBuffer), 2)
}

func TestRender_CapacityExceeded(t *testing.T) {
	c, _, rec := newHeadless(t, WithParticleCapacity(2))

	err := c.Render(frameInput(3))
	require.ErrorIs(t, err, ErrTooManyParticles)
	assert.Empty(t, rec.Filter(renderer.EventBeginFrame))

	in := frameInput(2)
	in.Positions = in.Positions[:3]
	assert.Error(t, c.Render(in))
}

func TestFeatures_BackdropCompositeOff(t *testing.T) {
	c, _, rec := newHeadless(t, WithFeatures(Features{ParticleTextureCount: 1}))

	require.NoError(t, c.Render(frameInput(2)))

	assert.Equal(t, RenderTarget{}, c.RenderTarget())
	passes := rec.Filter(renderer.EventBeginPass)
	require.Len(t, passes, 1)
	assert.Equal(t, "", passes[0].Label)
	assert.Equal(t, []string{SpritesPipelineKey}, drawLabels(rec.Events()))

	require.NoError(t, c.Resize(1024, 768))
	assert.Empty(t, rec.Filter(renderer.EventInitRenderTarget))
}

func TestFeatures_SpriteLayers(t *testing.T) {
	rec := renderer.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithRecorder(rec))
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))

	c, err := NewCompositor(r,
		WithFeatures(Features{ParticleTextureCount: 3}),
		WithSpriteImages(img),
		WithSpriteResolution(16),
	)
	require.NoError(t, err)
	defer c.Release()

	var layers []renderer.Event
	for _, e := range rec.Filter(renderer.EventInitTexture) {
		if e.Label == "Sprite Layers" {
			layers = append(layers, e)
		}
	}
	require.Len(t, layers, 1)
	assert.Equal(t, 3, layers[0].Layers)
	assert.Equal(t, 16, layers[0].Width)
	assert.Equal(t, 16, layers[0].Height)
}

func TestWithOverlayTexture_UsesLoaderTexture(t *testing.T) {
	rec := renderer.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless, nil, renderer.WithRecorder(rec))
	tex, err := loader.NewRendererUploader(r).UploadTexture("vignette", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)

	c, err := NewCompositor(r, WithOverlayTexture(tex))
	require.NoError(t, err)
	defer c.Release()
	rec.Reset()

	require.NoError(t, c.Render(frameInput(1)))
	draws := rec.Filter(renderer.EventDraw)
	require.NotEmpty(t, draws)
	overlay := draws[len(draws)-1]
	assert.Equal(t, OverlayPipelineKey, overlay.Label)
	assert.Equal(t, []string{"vignette"}, overlay.BindGroups)
}

func TestSpriteLayers_CyclesImages(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 8, 8))
	blue := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := range 32 {
		for x := range 32 {
			if x < 8 && y < 8 {
				red.Set(x, y, color.RGBA{R: 255, A: 255})
			}
			blue.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}

	layers := spriteLayers([]image.Image{red, blue}, 3, 8)
	require.Len(t, layers, 3)
	for _, l := range layers {
		assert.Equal(t, uint32(8), l.Width)
		assert.Len(t, l.Pixels, 8*8*4)
	}
	assert.Equal(t, byte(255), layers[0].Pixels[0])
	assert.InDelta(t, 255, int(layers[1].Pixels[2]), 1)
	assert.Equal(t, layers[0].Pixels, layers[2].Pixels)
}

func TestSoftDisc_FadesToEdge(t *testing.T) {
	disc := spriteLayers(nil, 1, 32)[0]

	alpha := func(x, y int) byte { return disc.Pixels[(y*32+x)*4+3] }
	assert.Equal(t, byte(255), alpha(16, 16))
	assert.Equal(t, byte(0), alpha(0, 0))
}

func TestGPUSpriteFrame_Marshal(t *testing.T) {
	f := GPUSpriteFrame{View: mgl32.Ident4(), Projection: mgl32.Ident4(), SpriteSize: 0.25, LayerCount: 3}

	buf := f.Marshal()
	require.Len(t, buf, 144)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[64:])))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(buf[128:])))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[132:]))
}

func TestPlaneMesh_FramesBackdropCamera(t *testing.T) {
	vertices, indices := planeMesh(16, 10, backdropSegments, 1)
	require.Len(t, vertices, (backdropSegments+1)*2)
	require.Len(t, indices, backdropSegments*6)

	assert.Equal(t, [3]float32{-8, 5, 0}, vertices[0].Position)
	assert.Equal(t, [2]float32{0, 1}, vertices[0].UV)
	last := vertices[len(vertices)-1]
	assert.Equal(t, [3]float32{8, -5, 0}, last.Position)
	assert.Equal(t, [2]float32{1, 0}, last.UV)

	// first triangle winds counter-clockwise seen from +z
	a, b, d := vertices[indices[0]].Position, vertices[indices[1]].Position, vertices[indices[2]].Position
	cross := (b[0]-a[0])*(d[1]-a[1]) - (b[1]-a[1])*(d[0]-a[0])
	assert.Greater(t, cross, float32(0))
}

func TestRender_BackdropDrawsPlaneMesh(t *testing.T) {
	c, _, rec := newHeadless(t)
	require.NoError(t, c.Render(frameInput(1)))

	draws := rec.Filter(renderer.EventDraw)
	require.NotEmpty(t, draws)
	assert.Equal(t, BackdropPipelineKey, draws[0].Label)
	assert.Equal(t, uint32(backdropSegments*6), draws[0].VertexCount)
}
