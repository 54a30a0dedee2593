package scene

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-drift/engine/camera"
	"github.com/Carmen-Shannon/oxy-drift/engine/compositor"
	"github.com/Carmen-Shannon/oxy-drift/engine/particle"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	scene    Scene
	recorder *renderer.Recorder
}

func newFixture(t *testing.T, field *particle.Field, options ...SceneBuilderOption) fixture {
	t.Helper()
	rec := renderer.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeHeadless, nil,
		renderer.WithRecorder(rec),
		renderer.WithSurfaceSize(800, 600),
	)
	comp, err := compositor.NewCompositor(r)
	require.NoError(t, err)
	t.Cleanup(comp.Release)

	cam := camera.NewCamera(
		camera.WithFov(45),
		camera.WithAspect(800.0/600.0),
		camera.WithClipPlanes(1, 1000),
		camera.WithController(camera.NewOrbitController(camera.WithRadius(40), camera.WithDamping(0))),
	)
	rec.Reset()
	return fixture{scene: NewScene(cam, field, comp, options...), recorder: rec}
}

func writesTo(frame []renderer.Event, label string, binding int) []renderer.Event {
	var out []renderer.Event
	for _, e := range frame {
		if e.Kind == renderer.EventWriteBuffer && e.Label == label && e.Binding == binding {
			out = append(out, e)
		}
	}
	return out
}

func uploadedTime(t *testing.T, frame []renderer.Event) float32 {
	t.Helper()
	writes := writesTo(frame, "Backdrop Params", 0)
	require.Len(t, writes, 1)
	return math.Float32frombits(binary.LittleEndian.Uint32(writes[0].Data[32:36]))
}

func uploadedOrder(t *testing.T, frame []renderer.Event) []uint32 {
	t.Helper()
	writes := writesTo(frame, "Sprite Frame", 2)
	require.Len(t, writes, 1)
	out := make([]uint32, len(writes[0].Data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(writes[0].Data[i*4:])
	}
	return out
}

func fourParticles(t *testing.T) *particle.Field {
	t.Helper()
	start := make([]particle.Particle, 4)
	for i := range start {
		start[i] = particle.Particle{X: float32(i) - 2, Z: float32(i), Speed: 1}
	}
	f, err := particle.NewField(particle.WithRange(10), particle.WithParticles(start...))
	require.NoError(t, err)
	return f
}

func TestFrame_TimeReachesNextFrame(t *testing.T) {
	fx := newFixture(t, fourParticles(t))

	require.NoError(t, fx.scene.Frame(0))
	require.NoError(t, fx.scene.Frame(16))
	require.NoError(t, fx.scene.Frame(2500))

	frames := fx.recorder.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, float32(1), uploadedTime(t, frames[0]), "initial time")
	assert.Equal(t, float32(0), uploadedTime(t, frames[1]))
	assert.Equal(t, float32(0.016), uploadedTime(t, frames[2]))
	assert.Equal(t, float32(2.5), fx.scene.Compositor().Material().Time())
	assert.Equal(t, uint64(3), fx.scene.FrameCount())
}

func TestFrame_FourParticlesFallAndWrap(t *testing.T) {
	field := fourParticles(t)
	fx := newFixture(t, field)

	require.NoError(t, fx.scene.Frame(0))
	for _, p := range field.Particles() {
		assert.Equal(t, float32(-1), p.Y)
	}

	for range 10 {
		require.NoError(t, fx.scene.Frame(0))
	}
	positions := field.Positions()
	for i, p := range field.Particles() {
		assert.Equal(t, float32(10), p.Y, "wrapped on the eleventh frame")
		assert.Equal(t, p.Y, positions[i*3+1], "buffer mirrors the particle")
	}

	draws := fx.recorder.Filter(renderer.EventDraw)
	var sprites []renderer.Event
	for _, d := range draws {
		if d.Label == compositor.SpritesPipelineKey {
			sprites = append(sprites, d)
		}
	}
	require.Len(t, sprites, 11)
	assert.Equal(t, uint32(4), sprites[0].InstanceCount)
}

func orbitHalfTurn(t *testing.T, s Scene) {
	t.Helper()
	ctrl := s.Camera().Controller()
	for range 100 {
		ctrl.OrbitRight()
	}
	require.InDelta(t, math.Pi, ctrl.Azimuth(), 0.2)
}

func TestFrame_DepthSortOrdersFarthestFirst(t *testing.T) {
	fx := newFixture(t, fourParticles(t))
	require.True(t, fx.scene.DepthSort())

	// the camera sits on +Z, so the particle with the smallest z is farthest away
	require.NoError(t, fx.scene.Frame(0))
	assert.Equal(t, []uint32{0, 1, 2, 3}, uploadedOrder(t, fx.recorder.Frames()[0]))

	// half a turn puts the camera on -Z and reverses the order
	fx.recorder.Reset()
	orbitHalfTurn(t, fx.scene)
	require.NoError(t, fx.scene.Frame(0))
	assert.Equal(t, []uint32{3, 2, 1, 0}, uploadedOrder(t, fx.recorder.Frames()[0]))
}

func TestFrame_DepthSortDisabledDrawsIndexOrder(t *testing.T) {
	fx := newFixture(t, fourParticles(t), WithDepthSort(false))
	assert.False(t, fx.scene.DepthSort())

	orbitHalfTurn(t, fx.scene)
	require.NoError(t, fx.scene.Frame(0))
	assert.Equal(t, []uint32{0, 1, 2, 3}, uploadedOrder(t, fx.recorder.Frames()[0]))

	fx.recorder.Reset()
	fx.scene.SetDepthSort(true)
	require.NoError(t, fx.scene.Frame(0))
	assert.Equal(t, []uint32{3, 2, 1, 0}, uploadedOrder(t, fx.recorder.Frames()[0]))
}

func uploadedPositions(t *testing.T, frame []renderer.Event) []float32 {
	t.Helper()
	writes := writesTo(frame, "Sprite Frame", 1)
	require.Len(t, writes, 1)
	out := make([]float32, len(writes[0].Data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(writes[0].Data[i*4:]))
	}
	return out
}

func TestFrame_SortsAndDrawsAfterTick(t *testing.T) {
	// particle 1 starts above particle 0 and falls below it within one tick
	field, err := particle.NewField(particle.WithRange(10), particle.WithParticles(
		particle.Particle{},
		particle.Particle{Y: 1, Speed: 3},
	))
	require.NoError(t, err)
	fx := newFixture(t, field)

	// looking down from above, lower particles are farther away
	fx.scene.Camera().SetController(camera.NewOrbitController(
		camera.WithRadius(40), camera.WithElevation(1.2), camera.WithDamping(0),
	))

	require.NoError(t, fx.scene.Frame(0))
	frame := fx.recorder.Frames()[0]
	assert.Equal(t, []uint32{1, 0}, uploadedOrder(t, frame), "sorted on the fallen positions")
	assert.Equal(t, []float32{0, 0, 0, 0, -2, 0}, uploadedPositions(t, frame))

	fx.recorder.Reset()
	require.NoError(t, fx.scene.Frame(16))
	frame = fx.recorder.Frames()[0]
	assert.Equal(t, float32(-5), field.Positions()[4])
	assert.Equal(t, field.Positions(), uploadedPositions(t, frame))
	assert.Equal(t, []uint32{1, 0}, uploadedOrder(t, frame))
}

func TestResize_UpdatesAspectAndTarget(t *testing.T) {
	fx := newFixture(t, fourParticles(t))

	require.NoError(t, fx.scene.Resize(1920, 1080))
	assert.InDelta(t, 1920.0/1080.0, fx.scene.Camera().Aspect(), 1e-6)
	rt := fx.scene.Compositor().RenderTarget()
	assert.Equal(t, 1920, rt.Width)
	assert.Equal(t, 1080, rt.Height)

	require.NoError(t, fx.scene.Resize(0, 0))
	assert.InDelta(t, 1920.0/1080.0, fx.scene.Camera().Aspect(), 1e-6)

	require.NoError(t, fx.scene.Frame(0))
	passes := fx.recorder.Filter(renderer.EventBeginPass)
	require.NotEmpty(t, passes)
	assert.Equal(t, 1920, passes[0].Width)
}

func TestFrame_CapacityErrorIsWrapped(t *testing.T) {
	field, err := particle.NewField(particle.WithCount(compositor.DefaultParticleCapacity+1), particle.WithSeed(7))
	require.NoError(t, err)
	fx := newFixture(t, field, WithName("overfull"))

	err = fx.scene.Frame(0)
	require.ErrorIs(t, err, compositor.ErrTooManyParticles)
	assert.Contains(t, err.Error(), "overfull")
	assert.Equal(t, uint64(0), fx.scene.FrameCount())
}
