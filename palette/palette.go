// Package palette loads and builds the color tables used to paint iteration
// counts.
//
// Two file formats are understood: Fractint style .map files, one "r g b"
// triple per line, and JSON color tables as published for the xterm 256
// color set.
package palette

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/lucasb-eyer/go-colorful"

	mandel "github.com/marben/fractalthingi"
)

// ParseMap reads a .map color table. Lines whose first field is not a number
// are skipped, components above 255 are clamped.
func ParseMap(r io.Reader) (*mandel.Palette, error) {
	var colors []mandel.Color

	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		red, ok := component(fields[0])
		if !ok {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: want 3 components, got %d", line, len(fields))
		}
		green, okG := component(fields[1])
		blue, okB := component(fields[2])
		if !okG || !okB {
			return nil, fmt.Errorf("line %d: malformed color %q", line, sc.Text())
		}
		colors = append(colors, mandel.Color{R: red, G: green, B: blue})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return mandel.NewPalette(colors)
}

// component parses the leading digits of s, at most three of them.
func component(s string) (uint8, bool) {
	end := 0
	for end < len(s) && end < 3 && unicode.IsDigit(rune(s[end])) {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return uint8(min(v, 255)), true
}

type fileColor struct {
	ColorID   int    `json:"colorId"`
	HexString string `json:"hexString"`
	RGB       *struct {
		R int `json:"r"`
		G int `json:"g"`
		B int `json:"b"`
	} `json:"rgb"`
	Name string `json:"name"`
}

// ParseJSON reads a JSON list of colors. Each entry carries either an "rgb"
// object or a "hexString".
func ParseJSON(r io.Reader) (*mandel.Palette, error) {
	var entries []fileColor
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode color table: %w", err)
	}

	colors := make([]mandel.Color, 0, len(entries))
	for i, e := range entries {
		if e.RGB != nil {
			colors = append(colors, mandel.Color{
				R: clamp(e.RGB.R),
				G: clamp(e.RGB.G),
				B: clamp(e.RGB.B),
			})
			continue
		}
		c, err := colorful.Hex(e.HexString)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): %w", i, e.Name, err)
		}
		colors = append(colors, fromColorful(c))
	}
	return mandel.NewPalette(colors)
}

func clamp(v int) uint8 {
	return uint8(max(0, min(v, 255)))
}

func fromColorful(c colorful.Color) mandel.Color {
	r, g, b := c.Clamped().RGB255()
	return mandel.Color{R: r, G: g, B: b}
}

// LoadFile reads a palette, choosing the format by extension.
func LoadFile(path string) (*mandel.Palette, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var pal *mandel.Palette
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".map":
		pal, err = ParseMap(f)
	case ".json":
		pal, err = ParseJSON(f)
	default:
		return nil, fmt.Errorf("%s: unsupported palette format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pal, nil
}
