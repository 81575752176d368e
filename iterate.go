package mandel

import "image"

// escapeThreshold is |z|² at which a point is considered escaped (|z| >= 2).
const escapeThreshold = 4.0

// Iterate counts the iterations of z = z² + c, starting at z = 0, until |z|² >= 4
// or maxIterations is reached. A result equal to maxIterations means c is
// treated as a member of the set.
func Iterate(c Complex, maxIterations int) int {
	var z Complex
	n := 0
	for n < maxIterations && z.LengthSquared() < escapeThreshold {
		z = z.Pow2().Add(c)
		n++
	}
	return n
}

// RenderRect computes the colors of every pixel in r into dst, row-major with
// a stride of r.Dx(). dst must hold at least r.Dx()*r.Dy() entries.
func RenderRect(p IterationParams, pal *Palette, r image.Rectangle, dst []Color) {
	i := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			n := Iterate(p.Point(x, y), p.MaxIterations)
			dst[i] = pal.ColorFor(n, p.MaxIterations)
			i++
		}
	}
}
