package mandel

import "fmt"

// Complex is a point in the complex plane, A + Bi.
type Complex struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// LengthSquared returns |z|², avoiding the square root of the modulus.
func (z Complex) LengthSquared() float64 {
	return z.A*z.A + z.B*z.B
}

// Pow2 returns z².
func (z Complex) Pow2() Complex {
	return Complex{
		A: z.A*z.A - z.B*z.B,
		B: 2 * z.A * z.B,
	}
}

func (z Complex) Add(w Complex) Complex {
	return Complex{A: z.A + w.A, B: z.B + w.B}
}

func (z Complex) String() string {
	return fmt.Sprintf("(%g%+gi)", z.A, z.B)
}
