package mandel

import (
	"fmt"
	"image"
	"image/color"
	"sync"
)

// ImageBuffer is the pixel store of one render: Width*Height colors in
// row-major order, index y*Width+x, black until written.
//
// Workers copy finished rows or tiles in through WriteRow and WriteRect.
// Reading Pix is only safe once every writer has returned.
type ImageBuffer struct {
	Width, Height int
	Pix           []Color

	mu sync.Mutex
}

var _ image.Image = (*ImageBuffer)(nil)

func NewImageBuffer(width, height int) *ImageBuffer {
	return &ImageBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]Color, width*height),
	}
}

// ImageBufferFromRGB builds a buffer from packed RGB bytes as produced by Bytes.
func ImageBufferFromRGB(width, height int, rgb []byte) (*ImageBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: pixel size %dx%d", ErrInvalidViewport, width, height)
	}
	if len(rgb) != 3*width*height {
		return nil, fmt.Errorf("rgb payload has %d bytes, want %d", len(rgb), 3*width*height)
	}
	img := NewImageBuffer(width, height)
	for i := range img.Pix {
		img.Pix[i] = Color{R: rgb[3*i], G: rgb[3*i+1], B: rgb[3*i+2]}
	}
	return img, nil
}

// WriteRow copies row into line y.
func (b *ImageBuffer) WriteRow(y int, row []Color) {
	if len(row) != b.Width {
		panic(fmt.Sprintf("row of %d pixels written into image of width %d", len(row), b.Width))
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(b.Pix[y*b.Width:(y+1)*b.Width], row)
}

// WriteRect copies src, row-major with stride r.Dx(), into the rectangle r.
func (b *ImageBuffer) WriteRect(r image.Rectangle, src []Color) {
	if !r.In(b.Bounds()) {
		panic(fmt.Sprintf("rectangle %s outside image %s", r, b.Bounds()))
	}
	w := r.Dx()
	b.mu.Lock()
	defer b.mu.Unlock()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := y*b.Width + r.Min.X
		copy(b.Pix[off:off+w], src[(y-r.Min.Y)*w:])
	}
}

// Row returns line y. The slice aliases the buffer.
func (b *ImageBuffer) Row(y int) []Color {
	return b.Pix[y*b.Width : (y+1)*b.Width]
}

func (b *ImageBuffer) ColorAt(x, y int) Color {
	return b.Pix[y*b.Width+x]
}

// Bytes returns the pixels packed as RGB triples.
func (b *ImageBuffer) Bytes() []byte {
	out := make([]byte, 0, 3*len(b.Pix))
	for _, c := range b.Pix {
		out = append(out, c.R, c.G, c.B)
	}
	return out
}

// RGBA converts the buffer into an *image.RGBA.
func (b *ImageBuffer) RGBA() *image.RGBA {
	img := image.NewRGBA(b.Bounds())
	for i, c := range b.Pix {
		img.Pix[4*i] = c.R
		img.Pix[4*i+1] = c.G
		img.Pix[4*i+2] = c.B
		img.Pix[4*i+3] = 0xff
	}
	return img
}

func (b *ImageBuffer) ColorModel() color.Model { return color.RGBAModel }

func (b *ImageBuffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

func (b *ImageBuffer) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}).In(b.Bounds()) {
		return color.RGBA{}
	}
	return b.ColorAt(x, y)
}
