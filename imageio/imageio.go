// Package imageio writes rendered images to files and packs them for the wire.
package imageio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/nfnt/resize"
	"golang.org/x/image/tiff"

	mandel "github.com/marben/fractalthingi"
)

type Format string

const (
	PNG  Format = "png"
	TIFF Format = "tiff"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		return PNG, nil
	case ".tif", ".tiff":
		return TIFF, nil
	default:
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("unsupported image format %q", f)
	}
}

// WriteFile encodes img into path, choosing the format by extension.
func WriteFile(path string, img image.Image) (err error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := Encode(out, img, f); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// PNGBytes encodes img as PNG in memory.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CompressRGB packs img as RGB triples and compresses them with zstd.
func CompressRGB(img *mandel.ImageBuffer) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(img.Bytes(), nil), nil
}

// DecompressRGB reverses CompressRGB.
func DecompressRGB(b []byte, width, height int) (*mandel.ImageBuffer, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return mandel.ImageBufferFromRGB(width, height, raw)
}

// Downsample scales img to width x height with a Lanczos filter. It turns a
// supersampled render into an antialiased image.
func Downsample(img image.Image, width, height int) image.Image {
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3)
}

// SnapshotName builds a descriptive file name for a render. name is reduced
// to letters, digits, '-' and '_', so the result never leaves its directory.
func SnapshotName(name string, req mandel.Request, p mandel.IterationParams, at time.Time, f Format) string {
	name = slug(name)
	if name == "" {
		name = "fractal"
	}
	center := mandel.Complex{A: (p.ReMin + p.ReMax) / 2, B: (p.ImgMin + p.ImgMax) / 2}
	zoom := req.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return fmt.Sprintf("%s_fractal_%d___%dx%d_center_a_%g_b_%g_zoom_%g_max_iter_%d.%s",
		name, at.UnixMilli(), p.Width, p.Height, center.A, center.B, zoom, p.MaxIterations, f)
}

func slug(name string) string {
	name = filepath.Base(filepath.ToSlash(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return -1
		}
	}, name)
}
