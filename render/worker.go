package render

import (
	"image"
	"time"

	mandel "github.com/marben/fractalthingi"
)

// job is the state of one Compute call. Everything but img is read-only
// while workers run.
type job struct {
	params mandel.IterationParams
	pal    *mandel.Palette
	img    *mandel.ImageBuffer
	opts   options
}

// compute runs the kernel for r into dst and turns a panic into a *mandel.WorkerError.
func (j *job) compute(worker int, r image.Rectangle, dst []mandel.Color) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &mandel.WorkerError{Worker: worker, Rect: r, Cause: v}
			j.opts.logger.Printf("render of %s failed: %v", r, err)
		}
	}()
	j.opts.kernel(j.params, j.pal, r, dst)
	return nil
}

// workerStats is what a worker reports once it has joined.
type workerStats struct {
	id     int
	start  time.Time
	pieces int
	pixels int
}

func newWorkerStats(id int) *workerStats {
	return &workerStats{id: id, start: time.Now()}
}

func (s *workerStats) add(r image.Rectangle) {
	s.pieces++
	s.pixels += r.Dx() * r.Dy()
}

func (j *job) report(s *workerStats, unit string) {
	j.opts.logger.Printf("worker %d spent %s on %d %s (%d pixels)",
		s.id, time.Since(s.start).Round(time.Microsecond), s.pieces, unit, s.pixels)
}
