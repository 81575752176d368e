package mandel

import (
	"fmt"
	"image/color"
)

// Color is an opaque RGB triple.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Black colors points considered part of the set.
var Black = Color{}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}.RGBA()
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Palette is an ordered, non-empty and immutable color table.
type Palette struct {
	colors []Color
}

// NewPalette copies colors into a Palette.
func NewPalette(colors []Color) (*Palette, error) {
	if len(colors) == 0 {
		return nil, ErrEmptyPalette
	}
	return &Palette{colors: append([]Color(nil), colors...)}, nil
}

// Len returns the number of colors, zero for a nil palette.
func (p *Palette) Len() int {
	if p == nil {
		return 0
	}
	return len(p.colors)
}

// Colors returns a copy of the table.
func (p *Palette) Colors() []Color {
	return append([]Color(nil), p.colors...)
}

// ColorFor maps an iteration count to its color. Counts that reached
// maxIterations belong to the set and are black.
func (p *Palette) ColorFor(iterations, maxIterations int) Color {
	if iterations >= maxIterations {
		return Black
	}
	return p.colors[iterations%len(p.colors)]
}
