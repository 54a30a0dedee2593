package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider_Options(t *testing.T) {
	p := NewBindGroupProvider("Sprites", WithBufferSize(1, 4096), WithBufferSize(2, 64))

	assert.Equal(t, "Sprites", p.Label())
	assert.Equal(t, uint64(4096), p.BufferSize(1))
	assert.Equal(t, uint64(64), p.BufferSize(2))
	assert.Zero(t, p.BufferSize(0))
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Target())
}

func TestBindGroupProvider_ReleaseClearsTarget(t *testing.T) {
	p := NewBindGroupProvider("Render Target")
	p.SetTarget(&TargetInfo{Binding: 0, Width: 800, Height: 600})
	p.SetIndexCount(6)

	p.Release()

	assert.Nil(t, p.Target())
	assert.Zero(t, p.IndexCount())
	assert.Nil(t, p.TextureView(0))
}
