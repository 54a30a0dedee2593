package loader

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Fetcher retrieves the raw bytes of an asset. Implementations must be safe for concurrent use;
// one Fetch runs per asset on the loader's worker pool.
type Fetcher interface {
	// Fetch reads the asset at the given location.
	//
	// Parameters:
	//   - ctx: cancels the fetch
	//   - location: the asset url as written in the manifest
	//
	// Returns:
	//   - []byte: the asset bytes
	//   - error: error if the asset could not be read
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, location string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, location string) ([]byte, error) {
	return f(ctx, location)
}

// fileFetcher reads local files. Accepts bare paths and file:// urls.
type fileFetcher struct{}

func (fileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := location
	if u, err := url.Parse(location); err == nil && u.Scheme == "file" {
		path = u.Path
		if u.Host != "" {
			path = u.Host + u.Path
		}
	}
	return os.ReadFile(path)
}

// httpFetcher reads assets over HTTP(S). Any non-2xx status is a failure.
type httpFetcher struct {
	client *http.Client
}

func (f httpFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: unexpected status %s", location, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// schemeOf returns the lower-case url scheme, or "file" for bare paths.
func schemeOf(location string) string {
	if i := strings.Index(location, "://"); i > 0 {
		return strings.ToLower(location[:i])
	}
	return "file"
}

// resolveFetcher selects the fetcher registered for the location's scheme.
func (r *registry) resolveFetcher(location string) (Fetcher, error) {
	scheme := schemeOf(location)
	f, ok := r.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("no fetcher registered for scheme %q", scheme)
	}
	return f, nil
}

// decodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func decodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}
