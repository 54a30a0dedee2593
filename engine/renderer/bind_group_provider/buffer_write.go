package bind_group_provider

// BufferWrite is one queued upload into the buffer at Binding on Provider, starting Offset
// bytes into it. The renderer flushes a frame's writes as a single batch.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}
