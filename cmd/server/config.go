package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync/atomic"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/render"
)

// Config is the server configuration file.
type Config struct {
	Listen         string   `json:"listen"`
	OriginPatterns []string `json:"origin_patterns"`
	PaletteDir     string   `json:"palette_dir"`
	StaticDir      string   `json:"static_dir"`
	// SnapshotDir receives a PNG of every finished render when set.
	SnapshotDir string `json:"snapshot_dir"`

	Workers  int    `json:"workers"`
	Strategy string `json:"strategy"`
	// MaxWorkers caps the worker count a request may ask for.
	MaxWorkers    int `json:"max_workers"`
	MaxPixels     int `json:"max_pixels"`
	MaxIterations int `json:"max_iterations"`
}

func defaultConfig() Config {
	return Config{
		Listen:        ":8080",
		StaticDir:     "./static",
		Strategy:      string(render.Rows),
		MaxWorkers:    runtime.GOMAXPROCS(0),
		MaxPixels:     4096 * 4096,
		MaxIterations: 100_000,
	}
}

// LoadConfig reads path over the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if _, err := render.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if c.MaxPixels <= 0 || c.MaxIterations < 0 || c.MaxWorkers <= 0 {
		return fmt.Errorf("limits must be positive: max_pixels %d, max_iterations %d, max_workers %d",
			c.MaxPixels, c.MaxIterations, c.MaxWorkers)
	}
	if c.Workers > c.MaxWorkers {
		return fmt.Errorf("workers %d exceeds max_workers %d", c.Workers, c.MaxWorkers)
	}
	return nil
}

var errBadRequest = errors.New("bad request")

// admit checks a request against the configured limits.
func (c Config) admit(req mandel.Request) (mandel.IterationParams, error) {
	p, err := req.Params()
	if err != nil {
		return mandel.IterationParams{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if p.Width > c.MaxPixels/p.Height {
		return mandel.IterationParams{}, fmt.Errorf("%w: %dx%d exceeds %d pixels", errBadRequest, p.Width, p.Height, c.MaxPixels)
	}
	if p.MaxIterations > c.MaxIterations {
		return mandel.IterationParams{}, fmt.Errorf("%w: max_iterations %d exceeds %d", errBadRequest, p.MaxIterations, c.MaxIterations)
	}
	if req.Workers > c.MaxWorkers {
		return mandel.IterationParams{}, fmt.Errorf("%w: workers %d exceeds %d", errBadRequest, req.Workers, c.MaxWorkers)
	}
	if _, err := render.ParseStrategy(req.Strategy); err != nil {
		return mandel.IterationParams{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return p, nil
}

// configStore holds the live configuration. Requests read a snapshot, the
// watcher swaps in reloaded files.
type configStore struct {
	cur atomic.Pointer[Config]
}

func newConfigStore(c Config) *configStore {
	s := &configStore{}
	s.cur.Store(&c)
	return s
}

func (s *configStore) get() Config {
	return *s.cur.Load()
}

// update installs c. Settings bound at start-up keep their old values.
func (s *configStore) update(c Config) {
	old := s.get()
	if c.Listen != old.Listen || c.PaletteDir != old.PaletteDir || c.StaticDir != old.StaticDir {
		log.Printf("listen, palette_dir and static_dir changes need a restart, keeping %q, %q, %q",
			old.Listen, old.PaletteDir, old.StaticDir)
		c.Listen, c.PaletteDir, c.StaticDir = old.Listen, old.PaletteDir, old.StaticDir
	}
	s.cur.Store(&c)
	log.Printf("config reloaded: workers %d, strategy %q, max_workers %d, max_pixels %d, max_iterations %d",
		c.Workers, c.Strategy, c.MaxWorkers, c.MaxPixels, c.MaxIterations)
}
