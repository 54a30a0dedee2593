package common

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseColor(t *testing.T) {
	for _, in := range []string{"#FA35DF", "0xFA35DF", "fa35df", "  #fa35df "} {
		c, err := ParseColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, uint32(0xFA35DF), c.Hex(), in)
	}

	_, err := ParseColor("#FFF")
	assert.Error(t, err)
	_, err = ParseColor("#GGGGGG")
	assert.Error(t, err)
}

func TestColor_YAMLRoundTrip(t *testing.T) {
	var doc struct {
		Color Color `yaml:"color"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(`color: "#f47b20"`), &doc))
	assert.Equal(t, "#F47B20", doc.Color.String())

	out, err := yaml.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), "#F47B20")
}

func TestRange_Sample(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	r := Range{Min: -3, Max: 5}
	for range 1000 {
		v := r.Sample(rng)
		assert.GreaterOrEqual(t, v, float32(-3))
		assert.LessOrEqual(t, v, float32(5))
	}

	assert.Equal(t, float32(2), Range{Min: 2, Max: 2}.Sample(rng))
	assert.False(t, Range{Min: 1, Max: 0}.Valid())
}

func TestStagingFromImage_Converts(t *testing.T) {
	img := image.NewNRGBA(image.Rect(2, 3, 5, 5))
	img.Set(2, 3, color.NRGBA{R: 255, A: 255})

	staged := StagingFromImage(img)
	assert.Equal(t, uint32(3), staged.Width)
	assert.Equal(t, uint32(2), staged.Height)
	require.Len(t, staged.Pixels, 3*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, staged.Pixels[:4])
}
