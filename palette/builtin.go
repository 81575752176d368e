package palette

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	mandel "github.com/marben/fractalthingi"
)

// Basic16 returns the 16 VGA colors.
func Basic16() *mandel.Palette {
	return must(mandel.NewPalette([]mandel.Color{
		{R: 0, G: 0, B: 0},
		{R: 128, G: 0, B: 0},
		{R: 0, G: 128, B: 0},
		{R: 128, G: 128, B: 0},
		{R: 0, G: 0, B: 128},
		{R: 128, G: 0, B: 128},
		{R: 0, G: 128, B: 128},
		{R: 192, G: 192, B: 192},
		{R: 128, G: 128, B: 128},
		{R: 255, G: 0, B: 0},
		{R: 0, G: 255, B: 0},
		{R: 255, G: 255, B: 0},
		{R: 0, G: 0, B: 255},
		{R: 255, G: 0, B: 255},
		{R: 0, G: 255, B: 255},
		{R: 255, G: 255, B: 255},
	}))
}

// spectral are the stops of the default gradient.
var spectral = []string{
	"#9e0142", "#d53e4f", "#f46d43", "#fdae61", "#fee090", "#ffffbf",
	"#e6f598", "#abdda4", "#66c2a5", "#3288bd", "#5e4fa2",
}

// Default returns the 256 entry table used when no palette files are configured.
func Default() *mandel.Palette {
	return must(Gradient(256, spectral...))
}

// Gradient returns n colors blended in HCL space through evenly spaced stops,
// given as hex strings.
func Gradient(n int, stops ...string) (*mandel.Palette, error) {
	if n < 1 || len(stops) == 0 {
		return nil, fmt.Errorf("%w: gradient of %d colors over %d stops", mandel.ErrEmptyPalette, n, len(stops))
	}
	keys := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("stop %d: %w", i, err)
		}
		keys[i] = c
	}

	colors := make([]mandel.Color, n)
	for i := range colors {
		colors[i] = fromColorful(blend(keys, position(i, n)))
	}
	return mandel.NewPalette(colors)
}

func position(i, n int) float64 {
	if n == 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// blend interpolates the evenly spaced keys at t in [0, 1].
func blend(keys []colorful.Color, t float64) colorful.Color {
	if len(keys) == 1 {
		return keys[0]
	}
	pos := t * float64(len(keys)-1)
	i := int(math.Floor(pos))
	switch {
	case i >= len(keys)-1:
		return keys[len(keys)-1]
	case pos == float64(i):
		return keys[i]
	}
	return keys[i].BlendHcl(keys[i+1], pos-float64(i)).Clamped()
}

// Wheel returns n fully saturated colors around the hue circle.
func Wheel(n int) (*mandel.Palette, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: wheel of %d colors", mandel.ErrEmptyPalette, n)
	}
	colors := make([]mandel.Color, n)
	for i := range colors {
		colors[i] = fromColorful(colorful.Hsv(360*float64(i)/float64(n), 1, 1))
	}
	return mandel.NewPalette(colors)
}

func must(p *mandel.Palette, err error) *mandel.Palette {
	if err != nil {
		panic(err)
	}
	return p
}
