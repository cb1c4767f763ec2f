// Package numeric provides the scalar root-finding and maximization
// primitives the estimators are built on. Everything operates on plain
// func(float64) float64 objectives so callers stay free of solver state.
package numeric

import (
	"fmt"
	"math"

	"golifetime/domain/core"
)

// Default solver budgets. Callers pass them explicitly so test code can
// tighten or loosen without package-level state.
const (
	DefaultTolerance  = 1e-10
	DefaultMaxIters   = 200
	DefaultMaxExpand  = 60
	DefaultGrowFactor = 1.6
)

const machEps = 2.220446049250313e-16

// Root finds a zero of f inside [a, b] with the Brent-Dekker method. The
// interval must bracket a sign change; callers that only have a guess should
// run BracketRoot first.
func Root(f func(float64) float64, a, b, tol float64, maxIters int) (float64, error) {
	fa, fb := f(a), f(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return 0, fmt.Errorf("%w: objective is NaN at bracket endpoint", core.ErrConvergence)
	}
	if (fa > 0 && fb > 0) || (fa < 0 && fb < 0) {
		return 0, fmt.Errorf("%w: no sign change on [%g, %g]", core.ErrNoBracket, a, b)
	}

	c, fc := b, fb
	var d, e float64
	for iter := 0; iter < maxIters; iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol1 := 2*machEps*math.Abs(b) + 0.5*tol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol1 || fb == 0 {
			return b, nil
		}
		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			// Inverse quadratic interpolation, secant when only two
			// points are distinct.
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol1*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else {
			b += math.Copysign(tol1, xm)
		}
		fb = f(b)
		if math.IsNaN(fb) {
			return 0, fmt.Errorf("%w: objective became NaN near %g", core.ErrConvergence, b)
		}
	}
	return 0, fmt.Errorf("%w: root not located within %d iterations", core.ErrMaxIteration, maxIters)
}

// BracketRoot grows an initial interval outward until f changes sign across
// it. The endpoint with the smaller magnitude stays put; the other walks out
// by the grow factor each round.
func BracketRoot(f func(float64) float64, a, b, grow float64, maxExpand int) (float64, float64, error) {
	if a == b {
		return 0, 0, fmt.Errorf("%w: degenerate initial interval at %g", core.ErrInvalidInput, a)
	}
	fa, fb := f(a), f(b)
	for i := 0; i < maxExpand; i++ {
		if math.IsNaN(fa) || math.IsNaN(fb) {
			return 0, 0, fmt.Errorf("%w: objective is NaN while expanding bracket", core.ErrConvergence)
		}
		if (fa < 0) != (fb < 0) {
			return a, b, nil
		}
		if math.Abs(fa) < math.Abs(fb) {
			a += grow * (a - b)
			fa = f(a)
		} else {
			b += grow * (b - a)
			fb = f(b)
		}
	}
	if (fa < 0) != (fb < 0) {
		return a, b, nil
	}
	return 0, 0, fmt.Errorf("%w: no sign change after %d expansions", core.ErrNoBracket, maxExpand)
}
