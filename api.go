package mandel

import (
	"context"
	"time"
)

// Request is a parsed render request. The viewport is given either by
// Center, ComplexWidth and Zoom with an explicit Height, or by the two
// opposite corners Z1 and Z2 with the height derived from Width.
type Request struct {
	Center       Complex  `json:"center"`
	Z1           *Complex `json:"z1,omitempty"`
	Z2           *Complex `json:"z2,omitempty"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	ComplexWidth float64  `json:"complex_width"`
	Zoom         float64  `json:"zoom"`

	MaxIterations int `json:"max_iterations"`
	// Colors selects the palette by size, see palette.Set.ForColors.
	Colors int `json:"colors"`
	// Palette selects a palette by name and takes precedence over Colors.
	Palette string `json:"palette,omitempty"`

	XTiles   int    `json:"x_tiles,omitempty"`
	YTiles   int    `json:"y_tiles,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Params maps the request's viewport.
func (r Request) Params() (IterationParams, error) {
	if r.Z1 != nil && r.Z2 != nil {
		return MapCorners(*r.Z1, *r.Z2, r.Width, r.MaxIterations)
	}
	return MapViewport(r.Center, r.ComplexWidth, r.Zoom, r.Width, r.Height, r.MaxIterations)
}

// Result is a finished render. Duration covers the computation only.
type Result struct {
	Image    *ImageBuffer
	Params   IterationParams
	Duration time.Duration
	Workers  int
	Strategy string
}

// Renderer computes complete images.
type Renderer interface {
	Render(ctx context.Context, req Request) (Result, error)
}

// FractalImage is the JSON form of a rendered image.
type FractalImage struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pixels []Color `json:"pixels"`
}

// Response is the JSON reply of the REST endpoints.
type Response struct {
	DurationCalculation string       `json:"duration_calculation"`
	DurationMs          int64        `json:"duration_ms"`
	Fractal             FractalImage `json:"fractal"`
}

// Command is a websocket request kind.
type Command string

const (
	// CommandGetHeight asks for the pixel height a corner request resolves to.
	CommandGetHeight Command = "GETHEIGHT"
	// CommandRender asks for a complete image.
	CommandRender Command = "RENDERFRACTAL"
)

// WebSocketRequest is one text message sent by a websocket client.
type WebSocketRequest struct {
	Command Command `json:"command"`
	Request Request `json:"request"`
}

// WebSocketResponse answers one WebSocketRequest. Pixels holds the image as
// zstd-compressed packed RGB.
type WebSocketResponse struct {
	Height     int    `json:"height,omitempty"`
	Width      int    `json:"width,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Pixels     []byte `json:"pixels,omitempty"`
	Error      string `json:"error,omitempty"`
}
