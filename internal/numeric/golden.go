package numeric

import "math"

// invPhi is 1/phi, the golden-section interval reduction ratio.
const invPhi = 0.6180339887498949

// MaximizeGolden locates the maximum of a unimodal f on [a, b] by
// golden-section search and returns the abscissa and the value there. On a
// non-unimodal objective it still converges, to one of the local maxima.
func MaximizeGolden(f func(float64) float64, a, b, tol float64, maxIters int) (float64, float64) {
	if a > b {
		a, b = b, a
	}
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc, fd := f(c), f(d)
	for i := 0; i < maxIters && b-a > tol; i++ {
		if fc >= fd || math.IsNaN(fd) {
			b = d
			d, fd = c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a = c
			c, fc = d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	x := 0.5 * (a + b)
	return x, f(x)
}
