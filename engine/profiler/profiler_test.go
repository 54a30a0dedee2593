package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTick_ReportsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	now := time.Unix(0, 0)
	p := NewProfiler(WithLogger(zap.New(core)), withClock(func() time.Time { return now }))

	for range 49 {
		now = now.Add(20 * time.Millisecond)
		_, reported := p.Tick()
		require.False(t, reported)
	}
	now = now.Add(20 * time.Millisecond)
	stats, reported := p.Tick()

	require.True(t, reported)
	assert.InDelta(t, 50, stats.FPS, 0.01)
	assert.Greater(t, stats.HeapMB, 0.0)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "frame stats", entry.Message)
	assert.Contains(t, entry.ContextMap(), "fps")

	now = now.Add(time.Millisecond)
	_, reported = p.Tick()
	assert.False(t, reported, "interval restarts after a report")
}

func TestWithInterval(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithInterval(10*time.Millisecond), withClock(func() time.Time { return now }))

	now = now.Add(10 * time.Millisecond)
	stats, reported := p.Tick()
	require.True(t, reported)
	assert.InDelta(t, 100, stats.FPS, 0.01)
}
