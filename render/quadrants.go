package render

import (
	"context"
	"image"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/fractalthingi"
)

// computeQuadrants splits the image in four until a piece covers at most
// threshold pixels, then computes the piece directly. A split hands each
// quadrant to an idle worker when one is free and otherwise recurses on the
// current goroutine, so no goroutine ever waits for its children.
func computeQuadrants(ctx context.Context, j *job) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(j.opts.workers)
	var handedOff atomic.Int32

	var split func(worker int, r image.Rectangle) error
	split = func(worker int, r image.Rectangle) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.Dx()*r.Dy() <= j.opts.threshold || (r.Dx() == 1 && r.Dy() == 1) {
			buf := make([]mandel.Color, r.Dx()*r.Dy())
			if err := j.compute(worker, r, buf); err != nil {
				return err
			}
			j.img.WriteRect(r, buf)
			return nil
		}
		for _, q := range quarter(r) {
			if g.TryGo(func() error { return split(int(handedOff.Add(1)), q) }) {
				continue
			}
			if err := split(worker, q); err != nil {
				return err
			}
		}
		return nil
	}

	g.Go(func() error { return split(0, j.img.Bounds()) })
	err := g.Wait()
	j.opts.logger.Printf("quadrants: %d pieces handed to other workers, threshold %d pixels", handedOff.Load(), j.opts.threshold)
	return err
}

// quarter halves r along both axes. Halves of zero extent are dropped, so a
// one pixel wide rectangle yields two pieces.
func quarter(r image.Rectangle) []image.Rectangle {
	mx := r.Min.X + r.Dx()/2
	my := r.Min.Y + r.Dy()/2

	xs := [][2]int{{r.Min.X, mx}, {mx, r.Max.X}}
	ys := [][2]int{{r.Min.Y, my}, {my, r.Max.Y}}

	out := make([]image.Rectangle, 0, 4)
	for _, y := range ys {
		for _, x := range xs {
			q := image.Rect(x[0], y[0], x[1], y[1])
			if !q.Empty() {
				out = append(out, q)
			}
		}
	}
	return out
}
