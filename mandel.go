// Package mandel holds the escape-time fractal domain shared by the renderer,
// the server and the clients: complex coordinates, viewport mapping, the
// iteration kernel, palettes and the image buffer.
package mandel

import (
	"fmt"
	"sort"
	"strings"
)

// Region within the Mandelbrot set, given by two opposite corners
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Params maps the region onto an image of the given width. The height
// follows from the region's aspect ratio.
func (r Region) Params(width, maxIterations int) (IterationParams, error) {
	return MapCorners(Complex{A: r.Xmin, B: r.Ymin}, Complex{A: r.Xmax, B: r.Ymax}, width, maxIterations)
}

// Center returns the midpoint of the region.
func (r Region) Center() Complex {
	return Complex{A: (r.Xmin + r.Xmax) / 2, B: (r.Ymin + r.Ymax) / 2}
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Full set with some margin
	FullSet = Region{
		Xmin: -2.0,
		Xmax: 1.0,
		Ymin: -1.2,
		Ymax: 1.2,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

var regions = map[string]Region{
	"full":                    FullSet,
	"seahorse-valley":         SeahorseValley,
	"elephant-valley":         ElephantValley,
	"spiral-minibrot":         SpiralMinibrot,
	"triple-spiral":           TripleSpiral,
	"valley-of-the-dragon":    ValleyOfTheDragon,
	"minibrot-in-mini-spiral": MinibrotInMiniSpiral,
}

// LookupRegion finds a landmark by its kebab-case name.
func LookupRegion(name string) (Region, error) {
	r, ok := regions[strings.ToLower(name)]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q, known: %s", name, strings.Join(RegionNames(), ", "))
	}
	return r, nil
}

func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for n := range regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
