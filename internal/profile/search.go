// Package profile implements the 1-D threshold search shared by the rank
// regression and maximum-likelihood estimators. Both profile the same way: an
// objective over the threshold gamma, defined for gamma strictly below the
// smallest characteristic, maximized by a grid scan with golden-section
// refinement around the best cell.
package profile

import (
	"fmt"
	"math"

	"golifetime/domain/core"
	"golifetime/domain/fit"
	"golifetime/internal/numeric"
)

const (
	// DefaultGridPoints balances curve resolution against objective cost;
	// every grid point is a full two-parameter fit.
	DefaultGridPoints = 50
	// DefaultExpansions bounds how often the window may grow downward when
	// the maximum sits on the lower grid edge.
	DefaultExpansions = 6
	// upperMarginFactor keeps the search strictly below the smallest
	// characteristic so log(t - gamma) stays finite for every observation.
	upperMarginFactor = 1e-6
)

// Search configures a threshold profile run. The zero value is not usable;
// construct with NewSearch.
type Search struct {
	GridPoints int
	Expansions int
	Tolerance  float64
}

// NewSearch returns a Search with the documented defaults.
func NewSearch() Search {
	return Search{
		GridPoints: DefaultGridPoints,
		Expansions: DefaultExpansions,
		Tolerance:  1e-9,
	}
}

// Maximize profiles obj over gamma in (minT - span - ..., minT) and returns
// the curve of feasible evaluations plus the refined optimum. obj reports an
// infeasible candidate with NaN. The search fails when nothing is feasible or
// when the maximum keeps running off the expanding lower edge, which means
// the objective has no interior optimum to report.
func (s Search) Maximize(parameter string, obj func(gamma float64) float64, minT, span float64) (fit.ProfileCurve, float64, error) {
	if s.GridPoints < 3 {
		return fit.ProfileCurve{}, 0, fmt.Errorf("%w: profile grid needs at least 3 points", core.ErrInvalidInput)
	}
	if span <= 0 || math.IsNaN(span) {
		// Degenerate spread; fall back to the magnitude of the data itself.
		span = math.Abs(minT)
	}
	if span <= 0 {
		return fit.ProfileCurve{}, 0, fmt.Errorf("%w: cannot size threshold window around %g", core.ErrInvalidInput, minT)
	}

	upper := minT - upperMarginFactor*span
	width := span

	var grid []float64
	var values []float64
	best := -1
	for round := 0; ; round++ {
		lower := minT - width
		grid, values = s.scan(obj, lower, upper)
		best = argmax(values)
		if best < 0 {
			return fit.ProfileCurve{}, 0, fmt.Errorf("%w: no feasible threshold candidate in (%g, %g)",
				core.ErrConvergence, lower, upper)
		}
		if best > 0 {
			break
		}
		if round >= s.Expansions {
			return fit.ProfileCurve{}, 0, fmt.Errorf("%w: objective still rising at gamma = %g",
				core.ErrProfileEdge, grid[0])
		}
		width *= 2
	}

	// Refine inside the bracket around the best cell. A maximum in the last
	// cell is legitimate: the threshold may sit just below the first failure.
	lo := grid[best-1]
	hi := upper
	if best < len(grid)-1 {
		hi = grid[best+1]
	}
	gamma, objective := numeric.MaximizeGolden(obj, lo, hi, s.Tolerance*span, numeric.DefaultMaxIters)
	if math.IsNaN(objective) {
		gamma, objective = grid[best], values[best]
	}

	curve := fit.ProfileCurve{Parameter: parameter, Optimum: gamma}
	for i, g := range grid {
		if !math.IsNaN(values[i]) {
			curve.Points = append(curve.Points, fit.ProfilePoint{Value: g, Objective: values[i]})
		}
	}
	return curve, objective, nil
}

// scan evaluates obj on an even grid over [lower, upper], returning abscissas
// and values (NaN where infeasible) in ascending order.
func (s Search) scan(obj func(float64) float64, lower, upper float64) ([]float64, []float64) {
	grid := make([]float64, s.GridPoints)
	values := make([]float64, s.GridPoints)
	step := (upper - lower) / float64(s.GridPoints-1)
	for i := range grid {
		grid[i] = lower + float64(i)*step
		values[i] = obj(grid[i])
	}
	return grid, values
}

// argmax returns the index of the largest finite value, -1 when none is
// finite. Ties keep the lowest index for determinism.
func argmax(values []float64) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}
