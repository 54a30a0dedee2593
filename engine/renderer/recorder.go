package renderer

import (
	"slices"
	"sync"
)

// EventKind identifies a recorded renderer operation.
type EventKind int

const (
	EventConfigure EventKind = iota
	EventRegisterPipeline
	EventInitBindGroup
	EventInitTexture
	EventInitRenderTarget
	EventWriteBuffer
	EventBeginFrame
	EventBeginPass
	EventDraw
	EventEndPass
	EventEndFrame
	EventPresent
)

func (k EventKind) String() string {
	switch k {
	case EventConfigure:
		return "configure"
	case EventRegisterPipeline:
		return "register_pipeline"
	case EventInitBindGroup:
		return "init_bind_group"
	case EventInitTexture:
		return "init_texture"
	case EventInitRenderTarget:
		return "init_render_target"
	case EventWriteBuffer:
		return "write_buffer"
	case EventBeginFrame:
		return "begin_frame"
	case EventBeginPass:
		return "begin_pass"
	case EventDraw:
		return "draw"
	case EventEndPass:
		return "end_pass"
	case EventEndFrame:
		return "end_frame"
	case EventPresent:
		return "present"
	default:
		return "unknown"
	}
}

// Event is one recorded operation. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind
	// Label is the provider label (passes, writes, inits) or the pipeline key (draws, registrations).
	// Empty for the surface pass.
	Label string
	// Width and Height are the surface size (configure) or the target size (begin_pass, init_render_target).
	Width, Height int
	// Binding is the buffer or texture binding index.
	Binding int
	// Layers is the number of texture layers uploaded.
	Layers int
	// Data is a copy of the bytes written by a buffer write.
	Data []byte
	// InstanceCount and VertexCount describe a draw.
	InstanceCount, VertexCount uint32
	// BindGroups lists the labels of the providers bound for a draw, in group order.
	BindGroups []string
}

// Recorder collects the events emitted by the headless backend. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event

	// keepFrames bounds the history to the most recent presented frames; 0 keeps everything.
	keepFrames int
	presents   int
}

// NewRecorder creates an empty Recorder that keeps every event.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// NewRingRecorder creates a Recorder that only keeps the events of the last frames presented
// frames, plus whatever has been recorded since. Long headless runs use it to bound memory.
//
// Parameters:
//   - frames: the number of presented frames to keep
//
// Returns:
//   - *Recorder: the recorder
func NewRingRecorder(frames int) *Recorder {
	return &Recorder{keepFrames: max(frames, 1)}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if e.Kind != EventPresent || r.keepFrames == 0 {
		return
	}
	r.presents++
	if r.presents <= r.keepFrames {
		return
	}
	// drop everything up to and including the oldest kept present
	for i, old := range r.events {
		if old.Kind == EventPresent {
			r.events = slices.Clone(r.events[i+1:])
			break
		}
	}
	r.presents--
}

// Events returns a copy of every recorded event in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Filter returns the recorded events of the given kinds, in order.
//
// Parameters:
//   - kinds: the kinds to keep
//
// Returns:
//   - []Event: the matching events
func (r *Recorder) Filter(kinds ...EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if slices.Contains(kinds, e.Kind) {
			out = append(out, e)
		}
	}
	return out
}

// Frames splits the recorded events into frames. A frame holds every event after the previous
// present up to and including its own present, so per-frame buffer writes issued before
// begin_frame belong to the frame they feed. Trailing events without a present are dropped.
//
// Returns:
//   - [][]Event: one slice of events per presented frame
func (r *Recorder) Frames() [][]Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var frames [][]Event
	var current []Event
	for _, e := range r.events {
		current = append(current, e)
		if e.Kind == EventPresent {
			frames = append(frames, current)
			current = nil
		}
	}
	return frames
}

// Reset discards every recorded event.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.presents = 0
}
