// cliclient renders a Mandelbrot image, either locally on all cores or
// remotely on a fractal server, and saves it as PNG or TIFF.
package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/pkg/profile"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/imageio"
	"github.com/marben/fractalthingi/palette"
	"github.com/marben/fractalthingi/render"
)

type args struct {
	Size          string  `arg:"-s,--size" default:"1920x1080" help:"image size WIDTHxHEIGHT"`
	Re            float64 `arg:"--re" default:"-0.5" help:"real part of the center"`
	Im            float64 `arg:"--im" help:"imaginary part of the center"`
	ComplexWidth  float64 `arg:"--complex-width" default:"3" help:"width of the viewport at zoom 1"`
	Zoom          float64 `arg:"-z,--zoom" default:"1"`
	Region        string  `arg:"-r,--region" help:"named landmark, overrides center and zoom"`
	MaxIterations int     `arg:"-i,--max-iterations" default:"1000"`
	Colors        int     `arg:"--colors" default:"256" help:"palette size, 16 or 256"`
	Palette       string  `arg:"-p,--palette" help:"palette name"`
	PaletteDir    string  `arg:"--palette-dir" help:"directory with .map and .json palettes"`
	Workers       int     `arg:"-w,--workers" help:"worker count, 0 uses every core"`
	Strategy      string  `arg:"--strategy" default:"rows" help:"single, rows, tiles or quadrants"`
	XTiles        int     `arg:"--x-tiles"`
	YTiles        int     `arg:"--y-tiles"`
	Antialias     int     `arg:"--aa" default:"1" help:"supersampling factor"`
	Server        string  `arg:"--server" help:"render on this server, e.g. ws://localhost:8080/ws"`
	Out           string  `arg:"-o,--out" default:"mandel.png" help:"output file, .png or .tiff"`
	Profile       string  `arg:"--profile" help:"write a cpu or mem profile into the current directory"`
}

func (args) Description() string {
	return "renders the Mandelbrot set into an image file"
}

// main is the entry point for the CLI client.
func main() {
	var a args
	p := arg.MustParse(&a)
	if a.Antialias < 1 {
		p.Fail("--aa must be at least 1")
	}

	switch a.Profile {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		p.Fail(fmt.Sprintf("unknown profile %q", a.Profile))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, a); err != nil {
		log.Printf("FATAL: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, a args) error {
	req, err := a.request()
	if err != nil {
		return err
	}

	start := time.Now()
	var img image.Image
	if a.Server != "" {
		log.Printf("rendering on %s", a.Server)
		img, err = renderRemote(ctx, a.Server, req)
	} else {
		img, err = renderLocal(ctx, a, req)
	}
	if err != nil {
		return err
	}

	if a.Antialias > 1 {
		b := img.Bounds()
		img = imageio.Downsample(img, b.Dx()/a.Antialias, b.Dy()/a.Antialias)
	}

	if err := imageio.WriteFile(a.Out, img); err != nil {
		return err
	}
	log.Printf("image saved to %q after %s", a.Out, time.Since(start))
	return nil
}

// request builds the render request, scaled up by the supersampling factor.
func (a args) request() (mandel.Request, error) {
	var w, h int
	if _, err := fmt.Sscanf(a.Size, "%dx%d", &w, &h); err != nil {
		return mandel.Request{}, fmt.Errorf("parse size %q: %w", a.Size, err)
	}

	req := mandel.Request{
		Center:        mandel.Complex{A: a.Re, B: a.Im},
		Width:         w * a.Antialias,
		Height:        h * a.Antialias,
		ComplexWidth:  a.ComplexWidth,
		Zoom:          a.Zoom,
		MaxIterations: a.MaxIterations,
		Colors:        a.Colors,
		Palette:       a.Palette,
		Workers:       a.Workers,
		Strategy:      a.Strategy,
		XTiles:        a.XTiles,
		YTiles:        a.YTiles,
	}
	if a.Region != "" {
		r, err := mandel.LookupRegion(a.Region)
		if err != nil {
			return mandel.Request{}, err
		}
		z1 := mandel.Complex{A: r.Xmin, B: r.Ymin}
		z2 := mandel.Complex{A: r.Xmax, B: r.Ymax}
		req.Z1, req.Z2 = &z1, &z2
		req.Name = a.Region
	}
	return req, nil
}

func renderLocal(ctx context.Context, a args, req mandel.Request) (image.Image, error) {
	palettes := palette.NewSet()
	if a.PaletteDir != "" {
		var err error
		if palettes, err = palette.LoadDir(a.PaletteDir); err != nil {
			return nil, err
		}
	}

	engine := &render.Engine{Palettes: palettes}
	res, err := engine.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Printf("rendered %s with %d workers (%s) in %s", res.Params, res.Workers, res.Strategy, res.Duration)
	return res.Image, nil
}
