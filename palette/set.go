package palette

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	mandel "github.com/marben/fractalthingi"
)

// Set is a named collection of palettes. It is filled once at start-up and
// read concurrently afterwards.
type Set struct {
	palettes map[string]*mandel.Palette
}

// NewSet returns a set holding the built-in palettes "basic16", "default"
// and "wheel".
func NewSet() *Set {
	s := &Set{palettes: make(map[string]*mandel.Palette)}
	s.Add("basic16", Basic16())
	s.Add("default", Default())
	s.Add("wheel", must(Wheel(1530)))
	return s
}

// LoadDir adds every .map and .json file in dir to the built-in set, keyed
// by lower-case file name.
func LoadDir(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read palette dir: %w", err)
	}

	s := NewSet()
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".map" && ext != ".json") {
			continue
		}
		pal, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		s.Add(e.Name(), pal)
	}
	log.Printf("loaded palettes from %s: %s", dir, strings.Join(s.Names(), ", "))
	return s, nil
}

func (s *Set) Add(name string, p *mandel.Palette) {
	s.palettes[strings.ToLower(name)] = p
}

// ByName finds a palette by its case-insensitive name.
func (s *Set) ByName(name string) (*mandel.Palette, error) {
	p, ok := s.palettes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: no palette %q", mandel.ErrEmptyPalette, name)
	}
	return p, nil
}

// ForColors picks a palette by size: 16 selects the "wild" table or basic16,
// 256 selects the "neon" table or default. Zero is treated as 256.
func (s *Set) ForColors(n int) (*mandel.Palette, error) {
	var names []string
	switch n {
	case 16:
		names = []string{"wild.map", "wild.json", "basic16"}
	case 0, 256:
		names = []string{"neon.map", "neon.json", "default"}
	default:
		return nil, fmt.Errorf("number of colors not supported: %d", n)
	}
	for _, name := range names {
		if p, ok := s.palettes[name]; ok {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: none of %v loaded", mandel.ErrEmptyPalette, names)
}

func (s *Set) Names() []string {
	names := make([]string, 0, len(s.palettes))
	for n := range s.palettes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
