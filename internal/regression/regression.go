// Package regression fits location-scale lines to plotting positions by
// ordinary least squares. Following the engineering convention the
// characteristic is regressed on the transformed probability ("x on y"): the
// plotting position is the controlled axis, so residuals are measured in the
// lifetime direction.
package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/profile"
)

// LineFit is the raw outcome of one two-parameter least-squares pass. The
// mixture separator scores breakpoint candidates with it directly.
type LineFit struct {
	Mu       float64
	Sigma    float64
	RSquared float64
	SSR      float64 // sum of squared x-direction residuals
	Points   int     // usable pairs after dropping non-finite transforms
}

// Fitter performs rank regression for a distribution spec.
type Fitter struct {
	search profile.Search
}

// NewFitter creates a Fitter with the default threshold search.
func NewFitter() Fitter {
	return Fitter{search: profile.NewSearch()}
}

// Fit estimates coefficients from ranked plotting positions. Threshold specs
// run an outer search over gamma maximizing R-squared; the search trace is
// attached to the result.
func (f Fitter) Fit(ranked lifedata.RankedSet, spec distribution.Spec) (fit.FitResult, error) {
	if err := spec.Validate(); err != nil {
		return fit.FitResult{}, err
	}
	chars, probs := ranked.FailurePoints()
	if len(chars) < 2 {
		return fit.FitResult{}, fmt.Errorf("%w: rank regression needs at least 2 plotting positions, got %d",
			core.ErrInsufficientData, len(chars))
	}

	if !spec.Threshold {
		line, err := f.FitLine(chars, probs, spec, 0)
		if err != nil {
			return fit.FitResult{}, err
		}
		return f.assemble(spec, line, ranked, nil)
	}

	minT, maxT := rangeOf(ranked)
	objective := func(gamma float64) float64 {
		line, err := f.FitLine(chars, probs, spec, gamma)
		if err != nil {
			return math.NaN()
		}
		return line.RSquared
	}
	curve, _, err := f.search.Maximize("gamma", objective, minT, maxT-minT)
	if err != nil {
		return fit.FitResult{}, err
	}
	line, err := f.FitLine(chars, probs, spec, curve.Optimum)
	if err != nil {
		return fit.FitResult{}, err
	}
	return f.assemble(spec, line, ranked, &curve)
}

// FitLine runs the two-parameter x-on-y fit at a fixed threshold. Pairs whose
// transform is not finite (probability 1, characteristic at the threshold)
// are dropped before fitting.
func (f Fitter) FitLine(chars, probs []float64, spec distribution.Spec, gamma float64) (LineFit, error) {
	xs := make([]float64, 0, len(chars))
	ys := make([]float64, 0, len(chars))
	for i := range chars {
		x := spec.TransformX(chars[i], gamma)
		y := spec.Family.Quantile(probs[i])
		if math.IsInf(x, 0) || math.IsNaN(x) || math.IsInf(y, 0) || math.IsNaN(y) {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return LineFit{}, fmt.Errorf("%w: %d usable plotting positions after transform",
			core.ErrInsufficientData, len(xs))
	}
	if degenerate(xs) || degenerate(ys) {
		return LineFit{}, fmt.Errorf("%w: zero spread on a regression axis", core.ErrSingularFit)
	}

	alpha, beta := stat.LinearRegression(ys, xs, nil, false)
	if !(beta > 0) || math.IsNaN(alpha) {
		return LineFit{}, fmt.Errorf("%w: non-positive slope %v", core.ErrSingularFit, beta)
	}

	ssr := 0.0
	for i := range xs {
		r := xs[i] - (alpha + beta*ys[i])
		ssr += r * r
	}
	return LineFit{
		Mu:       alpha,
		Sigma:    beta,
		RSquared: stat.RSquared(ys, xs, nil, alpha, beta),
		SSR:      ssr,
		Points:   len(xs),
	}, nil
}

func (f Fitter) assemble(spec distribution.Spec, line LineFit, ranked lifedata.RankedSet, curve *fit.ProfileCurve) (fit.FitResult, error) {
	coeffs := distribution.Coefficients{Mu: line.Mu, Sigma: line.Sigma}
	if spec.Threshold {
		coeffs.Threshold = curve.Optimum
		coeffs.HasThreshold = true
	}
	result, err := fit.NewFitResult(spec, fit.MethodRankRegression, coeffs)
	if err != nil {
		return fit.FitResult{}, err
	}
	result.Regression = &fit.RegressionStats{
		RSquared:   line.RSquared,
		RankMethod: string(ranked.Method),
	}
	result.Profile = curve
	result.SampleSize = ranked.N
	result.FailureCount = ranked.ProbabilityCount()
	return result, nil
}

func rangeOf(ranked lifedata.RankedSet) (minT, maxT float64) {
	minT = math.Inf(1)
	maxT = math.Inf(-1)
	for _, item := range ranked.Items {
		if item.Characteristic < minT {
			minT = item.Characteristic
		}
		if item.Characteristic > maxT {
			maxT = item.Characteristic
		}
	}
	return minT, maxT
}

func degenerate(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
