// Package render computes fractal images on a pool of workers.
//
// All strategies share one contract: a worker claims a piece of the image
// under a short critical section, computes it into a private buffer without
// holding any lock, and copies the result into the shared image buffer under
// the buffer's own lock. Pieces never overlap, so the image is identical for
// every strategy, worker count and scheduling order.
//
// A fault in any worker aborts the whole render: remaining workers stop
// claiming work and Compute returns the error without an image.
package render

import (
	"context"
	"fmt"
	"image"
	"log"
	"runtime"
	"strings"
	"time"

	mandel "github.com/marben/fractalthingi"
)

// Strategy selects how the image is split among workers.
type Strategy string

const (
	// Single computes all rows on the calling goroutine.
	Single Strategy = "single"
	// Rows hands out one row at a time from a shared cursor.
	Rows Strategy = "rows"
	// Tiles hands out rectangular tiles from a shared queue.
	Tiles Strategy = "tiles"
	// Quadrants recursively splits the image until pieces are small enough.
	Quadrants Strategy = "quadrants"
)

// Strategies lists every known strategy.
var Strategies = []Strategy{Single, Rows, Tiles, Quadrants}

// ParseStrategy parses a strategy name. The empty string selects Rows.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return Rows, nil
	case Single, Rows, Tiles, Quadrants:
		return st, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

const (
	defaultTileSize  = 64
	defaultThreshold = 64 * 64
)

type options struct {
	strategy  Strategy
	workers   int
	xTiles    int
	yTiles    int
	threshold int
	logger    *log.Logger
	kernel    kernel
}

type Option func(*options)

// WithStrategy selects the work distribution. The default is Rows.
func WithStrategy(s Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkers sets the pool size. Values below 1 select runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithTiles splits the image into x by y tiles for the Tiles strategy.
func WithTiles(x, y int) Option {
	return func(o *options) { o.xTiles, o.yTiles = x, y }
}

// WithThreshold sets the pixel area below which the Quadrants strategy stops splitting.
func WithThreshold(pixels int) Option {
	return func(o *options) { o.threshold = pixels }
}

// WithLogger replaces the standard logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// kernel fills dst with the colors of r, row-major with stride r.Dx().
type kernel func(p mandel.IterationParams, pal *mandel.Palette, r image.Rectangle, dst []mandel.Color)

func newOptions(opts []Option) options {
	o := options{
		strategy:  Rows,
		threshold: defaultThreshold,
		logger:    log.Default(),
		kernel:    mandel.RenderRect,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = runtime.GOMAXPROCS(0)
	}
	if o.strategy == Single {
		o.workers = 1
	}
	if o.threshold < 1 {
		o.threshold = 1
	}
	return o
}

// Compute renders the image described by p with colors from pal.
// Invalid params and empty palettes are rejected before any worker starts.
// The returned duration covers the computation only.
func Compute(ctx context.Context, p mandel.IterationParams, pal *mandel.Palette, opts ...Option) (*mandel.ImageBuffer, time.Duration, error) {
	if err := p.Validate(); err != nil {
		return nil, 0, err
	}
	if pal.Len() == 0 {
		return nil, 0, mandel.ErrEmptyPalette
	}

	o := newOptions(opts)
	j := &job{
		params: p,
		pal:    pal,
		img:    mandel.NewImageBuffer(p.Width, p.Height),
		opts:   o,
	}

	start := time.Now()
	var err error
	switch o.strategy {
	case Single:
		err = computeSingle(ctx, j)
	case Rows:
		err = computeRows(ctx, j)
	case Tiles:
		err = computeTiles(ctx, j)
	case Quadrants:
		err = computeQuadrants(ctx, j)
	default:
		err = fmt.Errorf("unknown strategy %q", o.strategy)
	}
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("render %s: %w", o.strategy, err)
	}
	return j.img, elapsed, nil
}

// PaletteSource resolves the palette of a request.
type PaletteSource interface {
	ByName(name string) (*mandel.Palette, error)
	ForColors(n int) (*mandel.Palette, error)
}

// Engine implements mandel.Renderer on top of Compute.
type Engine struct {
	Palettes PaletteSource
	// Workers is used when a request does not ask for a worker count.
	Workers int
	// Strategy is used when a request does not name one.
	Strategy Strategy
	Logger   *log.Logger
}

var _ mandel.Renderer = (*Engine)(nil)

// Render resolves the request's viewport and palette and computes the image.
func (e *Engine) Render(ctx context.Context, req mandel.Request) (mandel.Result, error) {
	p, err := req.Params()
	if err != nil {
		return mandel.Result{}, err
	}
	pal, err := e.palette(req)
	if err != nil {
		return mandel.Result{}, err
	}

	strategy := e.Strategy
	if req.Strategy != "" {
		if strategy, err = ParseStrategy(req.Strategy); err != nil {
			return mandel.Result{}, err
		}
	}
	if strategy == "" {
		strategy = Rows
	}
	workers := req.Workers
	if workers < 1 {
		workers = e.Workers
	}

	opts := []Option{WithStrategy(strategy), WithWorkers(workers), WithTiles(req.XTiles, req.YTiles)}
	if e.Logger != nil {
		opts = append(opts, WithLogger(e.Logger))
	}
	o := newOptions(opts)

	img, elapsed, err := Compute(ctx, p, pal, opts...)
	if err != nil {
		return mandel.Result{}, err
	}
	return mandel.Result{
		Image:    img,
		Params:   p,
		Duration: elapsed,
		Workers:  o.workers,
		Strategy: string(strategy),
	}, nil
}

func (e *Engine) palette(req mandel.Request) (*mandel.Palette, error) {
	if e.Palettes == nil {
		return nil, fmt.Errorf("%w: no palette source", mandel.ErrEmptyPalette)
	}
	if req.Palette != "" {
		return e.Palettes.ByName(req.Palette)
	}
	return e.Palettes.ForColors(req.Colors)
}
