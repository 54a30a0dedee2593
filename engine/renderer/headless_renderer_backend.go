package renderer

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-drift/common"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-drift/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// headlessRendererBackendImpl performs no GPU work. It validates resource wiring the same way the
// WGPU backend does and records every operation into a Recorder.
type headlessRendererBackendImpl struct {
	mu       *sync.Mutex
	recorder *Recorder

	// views and samplers track which bindings were initialized per provider, standing in for the
	// GPU objects the WGPU backend would store on the provider.
	views    map[bind_group_provider.BindGroupProvider]map[int]bool
	samplers map[bind_group_provider.BindGroupProvider]map[int]bool
}

var _ RendererBackend = &headlessRendererBackendImpl{}

func newHeadlessRendererBackend(recorder *Recorder) RendererBackend {
	return &headlessRendererBackendImpl{
		mu:       &sync.Mutex{},
		recorder: recorder,
		views:    make(map[bind_group_provider.BindGroupProvider]map[int]bool),
		samplers: make(map[bind_group_provider.BindGroupProvider]map[int]bool),
	}
}

func (b *headlessRendererBackendImpl) ConfigureSurface(width, height int) {
	b.recorder.record(Event{Kind: EventConfigure, Width: width, Height: height})
}

func (b *headlessRendererBackendImpl) SetPresentMode(PresentMode) {}

func (b *headlessRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline, layouts map[int]wgpu.BindGroupLayoutDescriptor) error {
	for g := range len(layouts) {
		if _, ok := layouts[g]; !ok {
			return fmt.Errorf("bind group %d is missing, groups must be contiguous from 0", g)
		}
	}
	b.recorder.record(Event{Kind: EventRegisterPipeline, Label: p.PipelineKey()})
	return nil
}

func (b *headlessRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, _, _ []byte, indexCount int) error {
	provider.SetIndexCount(indexCount)
	return nil
}

func (b *headlessRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			if !b.views[provider][binding] {
				return fmt.Errorf("%s: texture binding %d has no texture view, call InitTextureView or InitRenderTarget first", provider.Label(), binding)
			}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if !b.samplers[provider][binding] {
				return fmt.Errorf("%s: sampler binding %d has no sampler, call InitSampler first", provider.Label(), binding)
			}
		}
	}
	b.recorder.record(Event{Kind: EventInitBindGroup, Label: provider.Label()})
	return nil
}

func (b *headlessRendererBackendImpl) InitTextureView(provider bind_group_provider.BindGroupProvider, binding int, _ wgpu.TextureViewDimension, layers []common.TextureStagingData) error {
	b.markView(provider, binding)
	b.recorder.record(Event{
		Kind:    EventInitTexture,
		Label:   provider.Label(),
		Binding: binding,
		Layers:  len(layers),
		Width:   int(layers[0].Width),
		Height:  int(layers[0].Height),
	})
	return nil
}

func (b *headlessRendererBackendImpl) InitSampler(provider bind_group_provider.BindGroupProvider, binding int, _ common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.samplers[provider] == nil {
		b.samplers[provider] = make(map[int]bool)
	}
	b.samplers[provider][binding] = true
	return nil
}

func (b *headlessRendererBackendImpl) InitRenderTarget(provider bind_group_provider.BindGroupProvider, binding, width, height int) error {
	b.markView(provider, binding)
	b.recorder.record(Event{
		Kind:    EventInitRenderTarget,
		Label:   provider.Label(),
		Binding: binding,
		Width:   width,
		Height:  height,
	})
	return nil
}

func (b *headlessRendererBackendImpl) markView(provider bind_group_provider.BindGroupProvider, binding int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.views[provider] == nil {
		b.views[provider] = make(map[int]bool)
	}
	b.views[provider][binding] = true
}

func (b *headlessRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		b.recorder.record(Event{
			Kind:    EventWriteBuffer,
			Label:   w.Provider.Label(),
			Binding: w.Binding,
			Data:    slices.Clone(w.Data),
		})
	}
}

func (b *headlessRendererBackendImpl) BeginFrame() error {
	b.recorder.record(Event{Kind: EventBeginFrame})
	return nil
}

func (b *headlessRendererBackendImpl) BeginPass(target bind_group_provider.BindGroupProvider, _ common.Color) error {
	e := Event{Kind: EventBeginPass}
	if target != nil {
		info := target.Target()
		e.Label = target.Label()
		e.Width, e.Height = info.Width, info.Height
	}
	b.recorder.record(e)
	return nil
}

func (b *headlessRendererBackendImpl) DrawCall(p pipeline.Pipeline, cmd DrawCommand) {
	groups := make([]string, len(cmd.BindGroups))
	for i, bg := range cmd.BindGroups {
		groups[i] = bg.Label()
	}
	vertexCount := cmd.VertexCount
	if cmd.Mesh != nil && cmd.Mesh.IndexCount() > 0 {
		vertexCount = uint32(cmd.Mesh.IndexCount())
	}
	b.recorder.record(Event{
		Kind:          EventDraw,
		Label:         p.PipelineKey(),
		InstanceCount: cmd.InstanceCount,
		VertexCount:   vertexCount,
		BindGroups:    groups,
	})
}

func (b *headlessRendererBackendImpl) EndPass() {
	b.recorder.record(Event{Kind: EventEndPass})
}

func (b *headlessRendererBackendImpl) EndFrame() {
	b.recorder.record(Event{Kind: EventEndFrame})
}

func (b *headlessRendererBackendImpl) Present() {
	b.recorder.record(Event{Kind: EventPresent})
}
