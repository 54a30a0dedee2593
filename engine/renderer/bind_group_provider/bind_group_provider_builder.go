package bind_group_provider

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithBufferSize requests a specific byte size for a buffer binding.
// Without it the Renderer falls back to the layout entry's MinBindingSize.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - size: the buffer size in bytes
//
// Returns:
//   - BindGroupProviderOption: a function that records the buffer size for the specified binding
func WithBufferSize(binding int, size uint64) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.bufferSizes[binding] = size
	}
}
