package loader

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies what a manifest entry is decoded into.
type Kind string

const (
	// KindImage entries are decoded into an image.Image only.
	KindImage Kind = "image"
	// KindTexture entries are decoded and uploaded to the GPU through the TextureUploader.
	KindTexture Kind = "texture"
)

var (
	ErrEmptyName     = errors.New("asset name must not be empty")
	ErrDuplicateName = errors.New("duplicate asset name")
	ErrUnknownKind   = errors.New("unknown asset kind")
	ErrEmptyURL      = errors.New("asset url must not be empty")
)

// ManifestEntry describes one asset to load.
type ManifestEntry struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
	URL  string `yaml:"url"`
}

// Manifest is the ordered list of assets loaded by one Registry.Load call.
type Manifest []ManifestEntry

// ParseManifest decodes a YAML document with a top-level assets list and validates it.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - Manifest: the decoded manifest
//   - error: a decode or validation error
func ParseManifest(data []byte) (Manifest, error) {
	var doc struct {
		Assets Manifest `yaml:"assets"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if err := doc.Assets.Validate(); err != nil {
		return nil, err
	}
	return doc.Assets, nil
}

// Validate checks that names are non-empty and unique, kinds are known and urls are set.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for i, e := range m {
		if e.Name == "" {
			return fmt.Errorf("asset %d: %w", i, ErrEmptyName)
		}
		if _, ok := seen[e.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		seen[e.Name] = struct{}{}
		switch e.Kind {
		case KindImage, KindTexture:
		default:
			return fmt.Errorf("%w: %q for asset %q", ErrUnknownKind, e.Kind, e.Name)
		}
		if e.URL == "" {
			return fmt.Errorf("asset %q: %w", e.Name, ErrEmptyURL)
		}
	}
	return nil
}

func (m Manifest) hasTextures() bool {
	for _, e := range m {
		if e.Kind == KindTexture {
			return true
		}
	}
	return false
}
