package render

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/fractalthingi"
)

// rowCursor is the next row to claim. It belongs to a single Compute call.
type rowCursor struct {
	mu     sync.Mutex
	next   int
	height int
}

// claim returns the next unclaimed row. Rows are handed out in increasing
// order, each exactly once.
func (c *rowCursor) claim() (y int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next >= c.height {
		return 0, false
	}
	y = c.next
	c.next++
	return y, true
}

// computeRows lets every worker pull single rows until the cursor is
// exhausted. Row cost varies a lot across the image, so claiming one row at
// a time keeps the workers busy until the end.
func computeRows(ctx context.Context, j *job) error {
	cursor := &rowCursor{height: j.params.Height}

	g, ctx := errgroup.WithContext(ctx)
	for w := range min(j.opts.workers, j.params.Height) {
		g.Go(func() error {
			stats := newWorkerStats(w)
			defer j.report(stats, "rows")

			row := make([]mandel.Color, j.params.Width)
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				y, ok := cursor.claim()
				if !ok {
					return nil
				}

				r := image.Rect(0, y, j.params.Width, y+1)
				if err := j.compute(w, r, row); err != nil {
					return err
				}
				j.img.WriteRow(y, row)
				stats.add(r)
			}
		})
	}
	return g.Wait()
}
