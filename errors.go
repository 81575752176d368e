package mandel

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrInvalidViewport reports a non-positive width, height, zoom or complex width.
	ErrInvalidViewport = errors.New("invalid viewport")
	// ErrEmptyPalette reports a palette without colors.
	ErrEmptyPalette = errors.New("empty palette")
	// ErrWorkerFailure reports a fault inside a render worker.
	ErrWorkerFailure = errors.New("worker failure")
)

// WorkerError describes the fault of one worker while computing Rect.
type WorkerError struct {
	Worker int
	Rect   image.Rectangle
	Cause  any
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d failed on %s: %v", e.Worker, e.Rect, e.Cause)
}

func (e *WorkerError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return errors.Join(ErrWorkerFailure, err)
	}
	return ErrWorkerFailure
}
