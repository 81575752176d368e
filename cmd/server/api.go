package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/imageio"
	"github.com/marben/fractalthingi/palette"
	"github.com/marben/fractalthingi/render"
)

const maxRequestBody = 1 << 20

// fractalServer answers render requests from both the REST endpoints and
// websocket sessions.
type fractalServer struct {
	config   *configStore
	palettes *palette.Set
	logger   *log.Logger
}

func newFractalServer(config *configStore, palettes *palette.Set) *fractalServer {
	return &fractalServer{config: config, palettes: palettes, logger: log.Default()}
}

func (s *fractalServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/singlethreaded", s.handleRender(render.Single))
	mux.HandleFunc("POST /api/multithreaded", s.handleRender(render.Rows))
	mux.HandleFunc("POST /api/tiles", s.handleRender(render.Tiles))
	mux.HandleFunc("POST /api/quadrants", s.handleRender(render.Quadrants))
	mux.HandleFunc("POST /api/png", s.handlePNG)
	mux.HandleFunc("GET /api/palettes", s.handlePalettes)
	mux.HandleFunc("GET /api/regions", s.handleRegions)
}

// admit validates req against the live limits and resolves its palette.
func (s *fractalServer) admit(req mandel.Request) (mandel.IterationParams, error) {
	p, err := s.config.get().admit(req)
	if err != nil {
		return mandel.IterationParams{}, err
	}
	if req.Palette != "" {
		_, err = s.palettes.ByName(req.Palette)
	} else {
		_, err = s.palettes.ForColors(req.Colors)
	}
	if err != nil {
		return mandel.IterationParams{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return p, nil
}

// render admits and computes req with the live configuration.
func (s *fractalServer) render(ctx context.Context, req mandel.Request) (mandel.Result, error) {
	if _, err := s.admit(req); err != nil {
		return mandel.Result{}, err
	}
	cfg := s.config.get()
	strategy, err := render.ParseStrategy(cfg.Strategy)
	if err != nil {
		return mandel.Result{}, err
	}
	engine := &render.Engine{
		Palettes: s.palettes,
		Workers:  cfg.Workers,
		Strategy: strategy,
		Logger:   s.logger,
	}
	res, err := engine.Render(ctx, req)
	if err != nil {
		return mandel.Result{}, err
	}
	s.logger.Printf("rendered %s with %d workers (%s) in %s", res.Params, res.Workers, res.Strategy, res.Duration)

	if cfg.SnapshotDir != "" {
		name := imageio.SnapshotName(req.Name, req, res.Params, time.Now(), imageio.PNG)
		if err := imageio.WriteFile(filepath.Join(cfg.SnapshotDir, name), res.Image); err != nil {
			s.logger.Printf("snapshot: %v", err)
		}
	}
	return res, nil
}

func (s *fractalServer) handleRender(strategy render.Strategy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeRequest(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		req.Strategy = string(strategy)

		res, err := s.render(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mandel.Response{
			DurationCalculation: res.Duration.String(),
			DurationMs:          res.Duration.Milliseconds(),
			Fractal: mandel.FractalImage{
				Width:  res.Image.Width,
				Height: res.Image.Height,
				Pixels: res.Image.Pix,
			},
		})
	}
}

func (s *fractalServer) handlePNG(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := s.render(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	b, err := imageio.PNGBytes(res.Image)
	if err != nil {
		writeError(w, fmt.Errorf("encode png: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Duration-Ms", fmt.Sprint(res.Duration.Milliseconds()))
	if _, err := w.Write(b); err != nil {
		s.logger.Printf("write png: %v", err)
	}
}

func (s *fractalServer) handlePalettes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.palettes.Names())
}

func (s *fractalServer) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, mandel.RegionNames())
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (mandel.Request, error) {
	var req mandel.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return mandel.Request{}, fmt.Errorf("%w: decode request: %w", errBadRequest, err)
	}
	return req, nil
}

// statusOf maps an error to its HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, mandel.ErrInvalidViewport),
		errors.Is(err, mandel.ErrEmptyPalette):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
