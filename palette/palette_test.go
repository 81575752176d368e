package palette

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mandel "github.com/marben/fractalthingi"
)

const wildMap = `  0   0   0  black
255 128 300 clamped
; comment line
12  34  56
`

func TestParseMap(t *testing.T) {
	pal, err := ParseMap(strings.NewReader(wildMap))
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	want := []mandel.Color{{}, {R: 255, G: 128, B: 255}, {R: 12, G: 34, B: 56}}
	got := pal.Colors()
	if len(got) != len(want) {
		t.Fatalf("got %d colors, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("color %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseMapErrors(t *testing.T) {
	if _, err := ParseMap(strings.NewReader("; nothing here\n")); !errors.Is(err, mandel.ErrEmptyPalette) {
		t.Errorf("empty map: err = %v, want ErrEmptyPalette", err)
	}
	if _, err := ParseMap(strings.NewReader("1 2\n")); err == nil {
		t.Error("short line: want error")
	}
}

func TestParseJSON(t *testing.T) {
	const table = `[
		{"colorId": 0, "hexString": "#000000", "rgb": {"r": 0, "g": 0, "b": 0}, "name": "Black"},
		{"colorId": 1, "hexString": "#800000", "name": "Maroon"},
		{"colorId": 2, "hexString": "#ffffff", "rgb": {"r": 300, "g": -1, "b": 7}, "name": "Odd"}
	]`
	pal, err := ParseJSON(strings.NewReader(table))
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	want := []mandel.Color{{}, {R: 128}, {R: 255, G: 0, B: 7}}
	for i, c := range pal.Colors() {
		if c != want[i] {
			t.Errorf("color %d: got %v, want %v", i, c, want[i])
		}
	}

	if _, err := ParseJSON(strings.NewReader(`[{"hexString": "nope"}]`)); err == nil {
		t.Error("bad hex: want error")
	}
	if _, err := ParseJSON(strings.NewReader(`[]`)); !errors.Is(err, mandel.ErrEmptyPalette) {
		t.Errorf("empty table: err = %v, want ErrEmptyPalette", err)
	}
}

func TestBuiltins(t *testing.T) {
	if n := Basic16().Len(); n != 16 {
		t.Errorf("Basic16: %d colors", n)
	}
	def := Default()
	if n := def.Len(); n != 256 {
		t.Errorf("Default: %d colors", n)
	}
	colors := def.Colors()
	if got, want := colors[0].String(), "#9e0142"; got != want {
		t.Errorf("Default first color: got %s, want %s", got, want)
	}
	if got, want := colors[255].String(), "#5e4fa2"; got != want {
		t.Errorf("Default last color: got %s, want %s", got, want)
	}

	w, err := Wheel(6)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := w.Colors()[0], (mandel.Color{R: 255}); got != want {
		t.Errorf("Wheel first color: got %v, want %v", got, want)
	}

	if _, err := Gradient(0, "#000000"); !errors.Is(err, mandel.ErrEmptyPalette) {
		t.Errorf("Gradient(0): err = %v", err)
	}
	one, err := Gradient(1, "#102030", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if got := one.Colors()[0].String(); got != "#102030" {
		t.Errorf("Gradient(1): got %s", got)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"Wild.MAP":   "1 2 3\n4 5 6\n",
		"neon.json":  `[{"hexString": "#00ff00"}]`,
		"readme.txt": "not a palette",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	p16, err := s.ForColors(16)
	if err != nil {
		t.Fatalf("ForColors(16): %v", err)
	}
	if p16.Len() != 2 {
		t.Errorf("ForColors(16) picked a palette of %d colors, want wild.map", p16.Len())
	}
	p256, err := s.ForColors(256)
	if err != nil {
		t.Fatalf("ForColors(256): %v", err)
	}
	if got := p256.Colors()[0]; got != (mandel.Color{G: 255}) {
		t.Errorf("ForColors(256) picked %v, want neon.json", got)
	}
	if _, err := s.ForColors(42); err == nil {
		t.Error("ForColors(42): want error")
	}
	if _, err := s.ByName("readme.txt"); err == nil {
		t.Error("ByName(readme.txt): want error")
	}
	if _, err := s.ByName("WILD.map"); err != nil {
		t.Errorf("ByName(WILD.map): %v", err)
	}
}

func TestBuiltinSetFallbacks(t *testing.T) {
	s := NewSet()
	p16, err := s.ForColors(16)
	if err != nil || p16.Len() != 16 {
		t.Errorf("ForColors(16) = %v, %v; want basic16", p16.Len(), err)
	}
	p, err := s.ForColors(0)
	if err != nil || p.Len() != 256 {
		t.Errorf("ForColors(0) = %v, %v; want default", p.Len(), err)
	}
}
