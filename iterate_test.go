package mandel

import (
	"image"
	"testing"
)

func TestComplexArithmetic(t *testing.T) {
	z := Complex{A: 1, B: 2}
	if got, want := z.LengthSquared(), 5.0; got != want {
		t.Errorf("LengthSquared: got %g, want %g", got, want)
	}
	if got, want := z.Pow2(), (Complex{A: -3, B: 4}); got != want {
		t.Errorf("Pow2: got %v, want %v", got, want)
	}
	if got, want := z.Add(Complex{A: -1, B: 0.5}), (Complex{A: 0, B: 2.5}); got != want {
		t.Errorf("Add: got %v, want %v", got, want)
	}
}

func TestIterate(t *testing.T) {
	tests := []struct {
		name string
		c    Complex
		max  int
		want int
	}{
		{"origin stays", Complex{}, 100, 100},
		{"main cardioid", Complex{A: -0.5}, 50, 50},
		{"period two bulb", Complex{A: -1}, 1000, 1000},
		{"far outside", Complex{A: 3}, 100, 1},
		{"boundary tip escapes", Complex{A: -2}, 100, 1},
		{"just outside", Complex{A: 0.26}, 1000, 30},
		{"zero budget", Complex{A: 3}, 0, 0},
		{"negative budget", Complex{}, -5, 0},
	}
	for _, tt := range tests {
		if got := Iterate(tt.c, tt.max); got != tt.want {
			t.Errorf("%s: Iterate(%v, %d) = %d, want %d", tt.name, tt.c, tt.max, got, tt.want)
		}
	}
}

func TestIterateMonotoneAndBounded(t *testing.T) {
	p, err := MapViewport(Complex{A: -0.5}, 3, 1, 40, 30, 0)
	if err != nil {
		t.Fatal(err)
	}
	for y := range p.Height {
		for x := range p.Width {
			c := p.Point(x, y)
			prev := 0
			for _, budget := range []int{0, 1, 2, 5, 10, 50, 200} {
				n := Iterate(c, budget)
				if n < 0 || n > budget {
					t.Fatalf("Iterate(%v, %d) = %d, outside [0, %d]", c, budget, n, budget)
				}
				if n < prev {
					t.Fatalf("Iterate(%v, %d) = %d, less than %d for a smaller budget", c, budget, n, prev)
				}
				prev = n
			}
		}
	}
}

func TestRenderRect(t *testing.T) {
	p, err := MapViewport(Complex{A: -0.5}, 3, 1, 100, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	pal, err := NewPalette([]Color{{R: 255}, {G: 255}, {B: 255}})
	if err != nil {
		t.Fatal(err)
	}

	r := image.Rect(0, 49, 100, 52)
	dst := make([]Color, r.Dx()*r.Dy())
	RenderRect(p, pal, r, dst)

	// (50,50) is the center of the viewport, inside the main cardioid
	if got := dst[1*100+50]; got != Black {
		t.Errorf("pixel (50,50): got %v, want black", got)
	}
	n := Iterate(p.Point(0, 50), 50)
	if got, want := dst[1*100], pal.ColorFor(n, 50); got != want {
		t.Errorf("pixel (0,50): got %v, want %v", got, want)
	}
}
