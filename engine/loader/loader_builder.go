package loader

import (
	"strings"

	"go.uber.org/zap"
)

// DefaultWorkers is the number of concurrent fetches when WithWorkers is not set.
const DefaultWorkers = 4

// RegistryBuilderOption is a functional option for configuring a Registry via NewRegistry.
type RegistryBuilderOption func(*registry)

// WithUploader is an option builder that sets the TextureUploader used for texture kind assets.
//
// Parameters:
//   - u: the uploader, usually NewRendererUploader
//
// Returns:
//   - RegistryBuilderOption: a function that applies the uploader option to a registry
func WithUploader(u TextureUploader) RegistryBuilderOption {
	return func(r *registry) {
		r.uploader = u
	}
}

// WithFetcher is an option builder that registers a fetcher for a url scheme, replacing the
// built-in one if present. Bare paths use the "file" scheme.
//
// Parameters:
//   - scheme: the url scheme, e.g. "https" or "mem"
//   - f: the fetcher
//
// Returns:
//   - RegistryBuilderOption: a function that applies the fetcher option to a registry
func WithFetcher(scheme string, f Fetcher) RegistryBuilderOption {
	return func(r *registry) {
		r.fetchers[strings.ToLower(scheme)] = f
	}
}

// WithWorkers sets the number of concurrent fetches.
func WithWorkers(n int) RegistryBuilderOption {
	return func(r *registry) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) RegistryBuilderOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}
