// Package loader implements the asset registry: a manifest of named images and textures fetched
// in parallel and joined by a barrier before any render state that depends on them is built.
package loader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrLoadInProgress is returned when Load is called while another load on the same registry is running.
	ErrLoadInProgress = errors.New("a load is already in progress")
	// ErrNoUploader is returned when a manifest contains texture assets but no TextureUploader is configured.
	ErrNoUploader = errors.New("texture assets require a TextureUploader")
)

// Entry is one registered asset. It is created empty when its manifest is registered, gets its
// Image as soon as its own fetch resolves and its Texture once the batch's uploads run.
type Entry struct {
	Name    string
	Kind    Kind
	URL     string
	Format  string
	Image   image.Image
	Texture *Texture
}

// registry is the implementation of the Registry interface.
type registry struct {
	mu     *sync.Mutex
	logger *zap.Logger

	pool     worker.DynamicWorkerPool
	workers  int
	fetchers map[string]Fetcher
	uploader TextureUploader

	entries map[string]*Entry
	order   []string
	loading bool
	ready   bool
}

// Registry defines the asset registry. Entries are keyed by name; each Load registers a manifest,
// fetches every entry concurrently and calls the continuation once after all fetches succeed.
type Registry interface {
	// Load registers the manifest, fetches every entry in parallel and blocks until all fetches resolve.
	// onComplete is called exactly once, after the last fetch resolved, and only if every fetch succeeded.
	// On failure every fetch error is joined into the returned error, the manifest's entries are removed
	// and onComplete is not called. There is no partial success and no retry.
	//
	// Parameters:
	//   - ctx: cancels in-flight fetches
	//   - manifest: the assets to load
	//   - onComplete: the continuation, may be nil
	//
	// Returns:
	//   - error: a validation error, ErrLoadInProgress, or the joined fetch failures
	Load(ctx context.Context, manifest Manifest, onComplete func(Registry)) error

	// LoadAsync runs Load on a new goroutine.
	//
	// Parameters:
	//   - ctx: cancels in-flight fetches
	//   - manifest: the assets to load
	//   - onComplete: the continuation, may be nil
	//
	// Returns:
	//   - <-chan error: receives the result of Load once, then is closed
	LoadAsync(ctx context.Context, manifest Manifest, onComplete func(Registry)) <-chan error

	// Entry retrieves a copy of the named entry.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - Entry: the entry
	//   - bool: false if no asset with that name is registered
	Entry(name string) (Entry, bool)

	// Image retrieves the decoded image of the named asset, or nil if it is missing or not yet loaded.
	Image(name string) image.Image

	// Texture retrieves the GPU texture of the named asset, or nil if it is missing, not yet loaded or not a texture.
	Texture(name string) *Texture

	// Entries returns copies of every registered entry in registration order.
	Entries() []Entry

	// Ready reports whether the most recent load completed successfully.
	Ready() bool

	// Close stops the worker pool. The registry must not be loaded from afterwards.
	Close()
}

var _ Registry = &registry{}

// NewRegistry creates a new Registry with the file and HTTP fetchers registered.
//
// Parameters:
//   - options: a variadic list of RegistryBuilderOption functions to configure the registry
//
// Returns:
//   - Registry: a new registry
func NewRegistry(options ...RegistryBuilderOption) Registry {
	r := &registry{
		mu:      &sync.Mutex{},
		logger:  zap.NewNop(),
		workers: DefaultWorkers,
		fetchers: map[string]Fetcher{
			"file":  fileFetcher{},
			"http":  httpFetcher{client: &http.Client{Timeout: 30 * time.Second}},
			"https": httpFetcher{client: &http.Client{Timeout: 30 * time.Second}},
		},
		entries: make(map[string]*Entry),
	}
	for _, opt := range options {
		opt(r)
	}
	r.pool = worker.NewDynamicWorkerPool(r.workers, 256, 1*time.Second)
	return r
}

func (r *registry) Load(ctx context.Context, manifest Manifest, onComplete func(Registry)) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	if manifest.hasTextures() && r.uploader == nil {
		return ErrNoUploader
	}

	slots, err := r.register(manifest)
	if err != nil {
		return err
	}

	batch := uuid.NewString()
	log := r.logger.With(zap.String("batch", batch))
	log.Info("loading assets", zap.Int("count", len(manifest)))
	start := time.Now()

	// Each task writes only its own result index, and publishes its entry under the lock as it resolves.
	results := make([]fetchResult, len(slots))
	var wg sync.WaitGroup
	for i, slot := range slots {
		wg.Add(1)
		r.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				results[i] = r.fetch(ctx, slot)
				if results[i].err != nil {
					log.Warn("asset failed", zap.String("name", slot.Name), zap.Error(results[i].err))
				} else {
					r.mu.Lock()
					slot.Image = results[i].img
					slot.Format = results[i].format
					r.mu.Unlock()
					log.Debug("asset fetched", zap.String("name", slot.Name), zap.String("format", results[i].format))
				}
				return results[i].img, results[i].err
			},
		})
	}
	wg.Wait()

	errs := make([]error, len(results))
	for i, res := range results {
		errs[i] = res.err
	}
	if err := errors.Join(errs...); err != nil {
		r.abort(manifest)
		log.Error("asset load failed", zap.Error(err))
		return fmt.Errorf("load batch %s: %w", batch, err)
	}

	// GPU uploads run on the calling goroutine after the barrier.
	textures := make([]*Texture, len(slots))
	for i, slot := range slots {
		if slot.Kind != KindTexture {
			continue
		}
		tex, err := r.uploader.UploadTexture(slot.Name, results[i].img)
		if err != nil {
			for _, t := range textures {
				if t != nil {
					t.Provider.Release()
				}
			}
			r.abort(manifest)
			log.Error("texture upload failed", zap.String("name", slot.Name), zap.Error(err))
			return fmt.Errorf("load batch %s: %w", batch, err)
		}
		textures[i] = tex
		r.mu.Lock()
		slot.Texture = tex
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.loading = false
	r.ready = true
	r.mu.Unlock()
	log.Info("assets loaded", zap.Duration("elapsed", time.Since(start)))

	if onComplete != nil {
		onComplete(r)
	}
	return nil
}

func (r *registry) LoadAsync(ctx context.Context, manifest Manifest, onComplete func(Registry)) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- r.Load(ctx, manifest, onComplete)
	}()
	return done
}

// register claims the registry for a load and creates one empty entry per manifest item.
func (r *registry) register(manifest Manifest) ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loading {
		return nil, ErrLoadInProgress
	}
	for _, m := range manifest {
		if _, ok := r.entries[m.Name]; ok {
			return nil, fmt.Errorf("%w: %q is already registered", ErrDuplicateName, m.Name)
		}
	}

	slots := make([]*Entry, len(manifest))
	for i, m := range manifest {
		slots[i] = &Entry{Name: m.Name, Kind: m.Kind, URL: m.URL}
		r.entries[m.Name] = slots[i]
		r.order = append(r.order, m.Name)
	}
	r.loading = true
	r.ready = false
	return slots, nil
}

// abort removes the manifest's entries and releases the registry for the next load.
func (r *registry) abort(manifest Manifest) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range manifest {
		delete(r.entries, m.Name)
	}
	kept := r.order[:0]
	for _, name := range r.order {
		if _, ok := r.entries[name]; ok {
			kept = append(kept, name)
		}
	}
	r.order = kept
	r.loading = false
}

type fetchResult struct {
	img    image.Image
	format string
	err    error
}

func (r *registry) fetch(ctx context.Context, slot *Entry) fetchResult {
	f, err := r.resolveFetcher(slot.URL)
	if err != nil {
		return fetchResult{err: fmt.Errorf("%s: %w", slot.Name, err)}
	}
	data, err := f.Fetch(ctx, slot.URL)
	if err != nil {
		return fetchResult{err: fmt.Errorf("%s: failed to fetch %s: %w", slot.Name, slot.URL, err)}
	}
	img, format, err := decodeImage(data)
	if err != nil {
		return fetchResult{err: fmt.Errorf("%s: %w", slot.Name, err)}
	}
	return fetchResult{img: img, format: format}
}

func (r *registry) Entry(name string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (r *registry) Image(name string) image.Image {
	e, ok := r.Entry(name)
	if !ok {
		return nil
	}
	return e.Image
}

func (r *registry) Texture(name string) *Texture {
	e, ok := r.Entry(name)
	if !ok {
		return nil
	}
	return e.Texture
}

func (r *registry) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.entries[name])
	}
	return out
}

func (r *registry) Ready() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *registry) Close() {
	r.pool.Stop()
}
