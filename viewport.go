package mandel

import (
	"fmt"
	"math"
)

// Viewport is the rectangle of the complex plane mapped onto the pixel grid.
type Viewport struct {
	Center       Complex
	ComplexWidth float64
	Zoom         float64
	Width        int
	Height       int
}

// MaxPixels is the largest image, in pixels, a viewport may describe.
const MaxPixels = 1 << 30

// IterationParams is the affine pixel to complex mapping of one render.
// It is computed once per request and shared read-only by all workers.
//
// Pixel (0,0) is the top-left image pixel and maps to (ReMin, ImgMin).
// Increasing y increases the imaginary part: the image is not flipped.
type IterationParams struct {
	ReMin, ReMax   float64
	ImgMin, ImgMax float64
	XDelta, YDelta float64

	Width, Height int
	MaxIterations int
}

// Point returns the complex coordinate of pixel (x, y).
func (p IterationParams) Point(x, y int) Complex {
	return Complex{
		A: p.ReMin + float64(x)*p.XDelta,
		B: p.ImgMin + float64(y)*p.YDelta,
	}
}

// Validate reports ErrInvalidViewport for params that were not produced by
// MapViewport or were modified afterwards.
func (p IterationParams) Validate() error {
	switch {
	case p.Width <= 0 || p.Height <= 0 || p.Width > MaxPixels/p.Height:
		return fmt.Errorf("%w: pixel size %dx%d", ErrInvalidViewport, p.Width, p.Height)
	case !(p.XDelta > 0) || !(p.YDelta > 0) || math.IsInf(p.XDelta, 0) || math.IsInf(p.YDelta, 0):
		return fmt.Errorf("%w: deltas %g, %g", ErrInvalidViewport, p.XDelta, p.YDelta)
	case p.MaxIterations < 0:
		return fmt.Errorf("%w: max iterations %d", ErrInvalidViewport, p.MaxIterations)
	}
	return nil
}

func (p IterationParams) String() string {
	return fmt.Sprintf("re [%g, %g] img [%g, %g] delta %g/%g size %dx%d max_iterations %d",
		p.ReMin, p.ReMax, p.ImgMin, p.ImgMax, p.XDelta, p.YDelta, p.Width, p.Height, p.MaxIterations)
}

// Params maps v to its IterationParams.
func (v Viewport) Params(maxIterations int) (IterationParams, error) {
	return MapViewport(v.Center, v.ComplexWidth, v.Zoom, v.Width, v.Height, maxIterations)
}

// MapViewport derives the pixel deltas for an image of width x height pixels
// centered on center. complexWidth is divided by zoom; the complex height
// follows from the pixel aspect ratio.
func MapViewport(center Complex, complexWidth, zoom float64, width, height, maxIterations int) (IterationParams, error) {
	switch {
	case width <= 0 || height <= 0 || width > MaxPixels/height:
		return IterationParams{}, fmt.Errorf("%w: pixel size %dx%d", ErrInvalidViewport, width, height)
	case !(zoom > 0) || math.IsInf(zoom, 0):
		return IterationParams{}, fmt.Errorf("%w: zoom %g", ErrInvalidViewport, zoom)
	case !(complexWidth > 0) || math.IsInf(complexWidth, 0):
		return IterationParams{}, fmt.Errorf("%w: complex width %g", ErrInvalidViewport, complexWidth)
	case maxIterations < 0:
		return IterationParams{}, fmt.Errorf("%w: max iterations %d", ErrInvalidViewport, maxIterations)
	}

	effectiveWidth := complexWidth / zoom
	ratio := float64(width) / float64(height)
	complexHeight := effectiveWidth / ratio

	p := IterationParams{
		ReMin:         center.A - effectiveWidth/2,
		ReMax:         center.A + effectiveWidth/2,
		ImgMin:        center.B - complexHeight/2,
		ImgMax:        center.B + complexHeight/2,
		Width:         width,
		Height:        height,
		MaxIterations: maxIterations,
	}
	p.XDelta = (p.ReMax - p.ReMin) / float64(width)
	p.YDelta = (p.ImgMax - p.ImgMin) / float64(height)

	// a zoom deep enough to underflow the deltas is as unusable as a zero width
	if err := p.Validate(); err != nil {
		return IterationParams{}, err
	}
	return p, nil
}

// CornersHeight returns the pixel height that keeps the aspect ratio of the
// rectangle spanned by the opposite corners z1 and z2 at the given width.
func CornersHeight(z1, z2 Complex, width int) (int, error) {
	cw := math.Abs(z2.A - z1.A)
	ch := math.Abs(z2.B - z1.B)
	if width <= 0 || width > MaxPixels {
		return 0, fmt.Errorf("%w: pixel width %d", ErrInvalidViewport, width)
	}
	if !(cw > 0) || !(ch > 0) || math.IsInf(cw, 0) || math.IsInf(ch, 0) {
		return 0, fmt.Errorf("%w: corners %s and %s do not span a rectangle", ErrInvalidViewport, z1, z2)
	}
	h := math.Round(float64(width) * ch / cw)
	if h > float64(MaxPixels/width) {
		return 0, fmt.Errorf("%w: corners %s and %s give more than %d pixels at width %d", ErrInvalidViewport, z1, z2, MaxPixels, width)
	}
	return max(1, int(h)), nil
}

// MapCorners maps the rectangle spanned by two opposite corners onto an image
// of the given width. The height is derived to preserve the aspect ratio.
func MapCorners(z1, z2 Complex, width, maxIterations int) (IterationParams, error) {
	height, err := CornersHeight(z1, z2, width)
	if err != nil {
		return IterationParams{}, err
	}
	center := Complex{A: (z1.A + z2.A) / 2, B: (z1.B + z2.B) / 2}
	return MapViewport(center, math.Abs(z2.A-z1.A), 1, width, height, maxIterations)
}
