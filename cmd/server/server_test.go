package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/fractalthingi"
	"github.com/marben/fractalthingi/imageio"
	"github.com/marben/fractalthingi/palette"
)

func testServer(t *testing.T, cfg Config) (*fractalServer, *httptest.Server) {
	t.Helper()
	fs := newFractalServer(newConfigStore(cfg), palette.NewSet())
	fs.logger = log.New(io.Discard, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	cfg.StaticDir = ""
	l, srv := webServer(ctx, cfg, fs)
	go fs.serveSessions(ctx, l)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		cancel()
		l.Close()
		ts.Close()
	})
	return fs, ts
}

func smallRequest() mandel.Request {
	return mandel.Request{
		Center:        mandel.Complex{A: -0.5},
		Width:         32,
		Height:        20,
		ComplexWidth:  3,
		Zoom:          1,
		MaxIterations: 50,
		Colors:        16,
	}
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRenderEndpoints(t *testing.T) {
	_, ts := testServer(t, defaultConfig())

	var first []mandel.Color
	for _, path := range []string{"/api/singlethreaded", "/api/multithreaded", "/api/tiles", "/api/quadrants"} {
		resp := postJSON(t, ts.URL+path, smallRequest())
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status %d", path, resp.StatusCode)
		}
		var r mandel.Response
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
		if r.Fractal.Width != 32 || r.Fractal.Height != 20 || len(r.Fractal.Pixels) != 32*20 {
			t.Fatalf("%s: got %dx%d with %d pixels", path, r.Fractal.Width, r.Fractal.Height, len(r.Fractal.Pixels))
		}
		if r.DurationCalculation == "" {
			t.Errorf("%s: missing duration", path)
		}
		if first == nil {
			first = r.Fractal.Pixels
			continue
		}
		for i := range first {
			if first[i] != r.Fractal.Pixels[i] {
				t.Fatalf("%s: pixel %d differs from single threaded render", path, i)
			}
		}
	}
}

func TestRenderEndpointErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxPixels = 1000
	_, ts := testServer(t, cfg)

	tooBig := smallRequest()
	tooBig.Width, tooBig.Height = 100, 100

	noWidth := smallRequest()
	noWidth.Width = 0

	badColors := smallRequest()
	badColors.Colors = 7

	badPalette := smallRequest()
	badPalette.Palette = "nope"

	for name, req := range map[string]mandel.Request{
		"too big":     tooBig,
		"zero width":  noWidth,
		"bad colors":  badColors,
		"bad palette": badPalette,
	} {
		resp := postJSON(t, ts.URL+"/api/multithreaded", req)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, resp.StatusCode)
		}
		var e errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			t.Errorf("%s: error body %+v, %v", name, e, err)
		}
	}

	resp, err := http.Post(ts.URL+"/api/tiles", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: status %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/tiles")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET: status %d, want 405", resp.StatusCode)
	}
}

func TestPNGEndpoint(t *testing.T) {
	_, ts := testServer(t, defaultConfig())

	req := smallRequest()
	req.Z1 = &mandel.Complex{A: -2, B: -1}
	req.Z2 = &mandel.Complex{A: 1, B: 1}
	req.Width = 60
	resp := postJSON(t, ts.URL+"/api/png", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 60 || b.Dy() != 40 {
		t.Errorf("bounds %v, want 60x40", b)
	}
}

func TestListings(t *testing.T) {
	_, ts := testServer(t, defaultConfig())

	for path, want := range map[string]string{
		"/api/palettes": "basic16",
		"/api/regions":  "seahorse-valley",
	} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		err = json.NewDecoder(resp.Body).Decode(&names)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("%s: %v does not list %q", path, names, want)
		}
	}
}

func TestSnapshotDir(t *testing.T) {
	cfg := defaultConfig()
	cfg.SnapshotDir = t.TempDir()
	fs, _ := testServer(t, cfg)

	req := smallRequest()
	req.Name = "snap"
	if _, err := fs.render(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	matches, err := filepath.Glob(filepath.Join(cfg.SnapshotDir, "snap_fractal_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("snapshots: %v", matches)
	}
}

func TestSnapshotNameCannotEscape(t *testing.T) {
	root := t.TempDir()
	cfg := defaultConfig()
	cfg.SnapshotDir = filepath.Join(root, "snaps")
	if err := os.Mkdir(cfg.SnapshotDir, 0o755); err != nil {
		t.Fatal(err)
	}
	fs, _ := testServer(t, cfg)

	req := smallRequest()
	req.Name = "../escaped"
	if _, err := fs.render(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	outside, err := filepath.Glob(filepath.Join(root, "*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(outside) != 0 {
		t.Errorf("snapshot written outside snapshot_dir: %v", outside)
	}
	inside, err := filepath.Glob(filepath.Join(cfg.SnapshotDir, "escaped_fractal_*.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(inside) != 1 {
		t.Errorf("snapshots in snapshot_dir: %v", inside)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: x", errBadRequest), http.StatusBadRequest},
		{fmt.Errorf("render: %w", mandel.ErrInvalidViewport), http.StatusBadRequest},
		{mandel.ErrEmptyPalette, http.StatusBadRequest},
		{fmt.Errorf("render rows: %w", context.Canceled), http.StatusServiceUnavailable},
		{fmt.Errorf("render rows: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{&mandel.WorkerError{Worker: 1, Cause: "boom"}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusOf(tt.err); got != tt.want {
			t.Errorf("statusOf(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestWebsocketSession(t *testing.T) {
	_, ts := testServer(t, defaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("websocket.Dial: %v", err)
	}
	defer c.CloseNow()
	c.SetReadLimit(1 << 24)

	req := smallRequest()
	req.Z1 = &mandel.Complex{A: -2, B: -1}
	req.Z2 = &mandel.Complex{A: 1, B: 1}
	req.Width = 30

	var resp mandel.WebSocketResponse
	if err := wsjson.Write(ctx, c, mandel.WebSocketRequest{Command: mandel.CommandGetHeight, Request: req}); err != nil {
		t.Fatal(err)
	}
	if err := wsjson.Read(ctx, c, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "" || resp.Height != 20 {
		t.Fatalf("GETHEIGHT: %+v", resp)
	}

	if err := wsjson.Write(ctx, c, mandel.WebSocketRequest{Command: mandel.CommandRender, Request: req}); err != nil {
		t.Fatal(err)
	}
	resp = mandel.WebSocketResponse{}
	if err := wsjson.Read(ctx, c, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "" {
		t.Fatalf("RENDERFRACTAL: %s", resp.Error)
	}
	img, err := imageio.DecompressRGB(resp.Pixels, resp.Width, resp.Height)
	if err != nil {
		t.Fatalf("DecompressRGB: %v", err)
	}
	if img.Width != 30 || img.Height != 20 {
		t.Errorf("image %dx%d, want 30x20", img.Width, img.Height)
	}

	if err := wsjson.Write(ctx, c, mandel.WebSocketRequest{Command: "FLY"}); err != nil {
		t.Fatal(err)
	}
	resp = mandel.WebSocketResponse{}
	if err := wsjson.Read(ctx, c, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error == "" {
		t.Error("unknown command: want error")
	}

	c.Close(websocket.StatusNormalClosure, "")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil || cfg.Listen != ":8080" {
		t.Fatalf("defaults: %+v, %v", cfg, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"workers": 3, "max_workers": 8, "strategy": "tiles"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 3 || cfg.Strategy != "tiles" || cfg.MaxPixels != defaultConfig().MaxPixels {
		t.Errorf("loaded %+v", cfg)
	}

	if err := os.WriteFile(path, []byte(`{"strategy": "spiral"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("unknown strategy: want error")
	}
	if err := os.WriteFile(path, []byte(`{"workers": 9, "max_workers": 8}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("workers above max_workers: want error")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing file: want error")
	}
}

func TestAdmit(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxIterations = 10

	req := smallRequest()
	if _, err := cfg.admit(req); !errors.Is(err, errBadRequest) {
		t.Errorf("over iteration limit: %v", err)
	}
	req.MaxIterations = 10
	p, err := cfg.admit(req)
	if err != nil {
		t.Fatal(err)
	}
	if p.Width != 32 || p.Height != 20 {
		t.Errorf("params %v", p)
	}
	req.Strategy = "diagonal"
	if _, err := cfg.admit(req); !errors.Is(err, errBadRequest) {
		t.Errorf("bad strategy: %v", err)
	}
	req.Strategy = ""

	huge := req
	huge.Width, huge.Height = 2, 1<<62
	if _, err := cfg.admit(huge); !errors.Is(err, errBadRequest) {
		t.Errorf("overflowing size: %v", err)
	}
	cfg.MaxPixels = 1 << 40
	huge.Width, huge.Height = 1<<20, 1<<20
	if _, err := cfg.admit(huge); !errors.Is(err, errBadRequest) {
		t.Errorf("size above the library limit: %v", err)
	}

	cfg.MaxWorkers = 4
	req.Workers = 1 << 30
	if _, err := cfg.admit(req); !errors.Is(err, errBadRequest) {
		t.Errorf("too many workers: %v", err)
	}
	req.Workers = 4
	if _, err := cfg.admit(req); err != nil {
		t.Errorf("workers at the limit: %v", err)
	}
}

func TestOversizedSessionRequest(t *testing.T) {
	fs := newFractalServer(newConfigStore(defaultConfig()), palette.NewSet())
	fs.logger = log.New(io.Discard, "", 0)

	req := smallRequest()
	req.Width, req.Height = 2, 1<<62
	resp := fs.answer(context.Background(), mandel.WebSocketRequest{Command: mandel.CommandRender, Request: req})
	if resp.Error == "" || resp.Pixels != nil {
		t.Errorf("oversized render: %+v", resp)
	}
}

func TestConfigStoreKeepsStartupSettings(t *testing.T) {
	s := newConfigStore(defaultConfig())
	next := defaultConfig()
	next.Listen = ":9999"
	next.Workers = 5
	s.update(next)

	got := s.get()
	if got.Listen != ":8080" || got.Workers != 5 {
		t.Errorf("after update: %+v", got)
	}
}

func TestConfigWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"workers": 1, "max_workers": 8}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	store := newConfigStore(cfg)

	w, err := newConfigWatcher(path, store)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.run(ctx)

	if err := os.WriteFile(path, []byte(`{"workers": 7, "max_workers": 8}`), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for store.get().Workers != 7 {
		if time.Now().After(deadline) {
			t.Fatalf("config not reloaded, workers %d", store.get().Workers)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
