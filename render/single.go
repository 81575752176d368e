package render

import (
	"context"
	"image"

	mandel "github.com/marben/fractalthingi"
)

// computeSingle is the sequential path. It uses the same kernel, copy-in and
// failure policy as the pooled strategies.
func computeSingle(ctx context.Context, j *job) error {
	stats := newWorkerStats(0)
	defer j.report(stats, "rows")

	row := make([]mandel.Color, j.params.Width)
	for y := range j.params.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := image.Rect(0, y, j.params.Width, y+1)
		if err := j.compute(0, r, row); err != nil {
			return err
		}
		j.img.WriteRow(y, row)
		stats.add(r)
	}
	return nil
}
