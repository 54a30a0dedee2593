package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(`
assets:
  - name: vignette
    kind: texture
    url: img/assets-scene/images/vignettage.png
  - name: sprite0
    kind: image
    url: https://example.com/sprite0.webp
`))
	require.NoError(t, err)
	require.Len(t, m, 2)
	assert.Equal(t, ManifestEntry{Name: "vignette", Kind: KindTexture, URL: "img/assets-scene/images/vignettage.png"}, m[0])
	assert.Equal(t, KindImage, m[1].Kind)
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		err      error
	}{
		{"empty name", Manifest{{Kind: KindImage, URL: "x"}}, ErrEmptyName},
		{"duplicate", Manifest{{Name: "a", Kind: KindImage, URL: "x"}, {Name: "a", Kind: KindImage, URL: "y"}}, ErrDuplicateName},
		{"unknown kind", Manifest{{Name: "a", Kind: "model", URL: "x"}}, ErrUnknownKind},
		{"empty url", Manifest{{Name: "a", Kind: KindTexture}}, ErrEmptyURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.manifest.Validate(), tt.err)
		})
	}

	_, err := ParseManifest([]byte("assets: [{name: a, kind: video, url: x}]"))
	assert.ErrorIs(t, err, ErrUnknownKind)
	_, err = ParseManifest([]byte("assets: {"))
	assert.Error(t, err)
}
