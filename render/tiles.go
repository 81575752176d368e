package render

import (
	"context"
	"image"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/fractalthingi"
)

// progressSteps is how many progress lines a tiled render logs.
const progressSteps = 10

// tileQueue hands out the tiles of one image and logs progress as they finish.
type tileQueue struct {
	m      sync.Mutex
	logger *log.Logger

	unstarted      []image.Rectangle
	totalPixels    int
	finishedPixels int
}

func newTileQueue(bounds image.Rectangle, tileW, tileH int, logger *log.Logger) *tileQueue {
	return &tileQueue{
		logger:      logger,
		unstarted:   splitRectNoClip(bounds, tileW, tileH),
		totalPixels: bounds.Dx() * bounds.Dy(),
	}
}

func (q *tileQueue) popTile() (tile image.Rectangle, found bool) {
	q.m.Lock()
	defer q.m.Unlock()

	if len(q.unstarted) == 0 {
		return image.Rectangle{}, false
	}
	tile = q.unstarted[0]
	q.unstarted = q.unstarted[1:]
	return tile, true
}

// tileFinished accounts for tile and logs each time another tenth of the
// image is done.
func (q *tileQueue) tileFinished(tile image.Rectangle) {
	q.m.Lock()
	defer q.m.Unlock()

	before := q.finishedPixels * progressSteps / q.totalPixels
	q.finishedPixels += tile.Dx() * tile.Dy()
	if after := q.finishedPixels * progressSteps / q.totalPixels; after > before {
		q.logger.Printf("tiles finished: %.2f", float64(q.finishedPixels)/float64(q.totalPixels))
	}
}

// tileSize divides an extent into n tiles, matching the row/column counts of
// the request. Zero selects the default tile size.
func tileSize(extent, n int) int {
	if n < 1 {
		return min(extent, defaultTileSize)
	}
	return max(1, extent/n)
}

func computeTiles(ctx context.Context, j *job) error {
	bounds := j.img.Bounds()
	q := newTileQueue(bounds,
		tileSize(bounds.Dx(), j.opts.xTiles),
		tileSize(bounds.Dy(), j.opts.yTiles),
		j.opts.logger)

	g, ctx := errgroup.WithContext(ctx)
	for w := range min(j.opts.workers, len(q.unstarted)) {
		g.Go(func() error {
			stats := newWorkerStats(w)
			defer j.report(stats, "tiles")

			var buf []mandel.Color
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				tile, found := q.popTile()
				if !found {
					return nil
				}

				n := tile.Dx() * tile.Dy()
				if cap(buf) < n {
					buf = make([]mandel.Color, n)
				}
				if err := j.compute(w, tile, buf[:n]); err != nil {
					return err
				}
				j.img.WriteRect(tile, buf[:n])
				stats.add(tile)
				q.tileFinished(tile)
			}
		})
	}
	return g.Wait()
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}

	return tiles
}
