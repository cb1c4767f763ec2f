package ports

import (
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
)

// RankOptions tunes probability estimation. Zero values select the defaults
// (Benard approximation, tied failures share the highest rank).
type RankOptions struct {
	Variant string `json:"variant"` // "benard" or "invbeta"
	Ties    string `json:"ties"`    // "max" or "average"
}

// LifetimeEngine is the computational surface of the library. Every method is
// a pure synchronous function of its inputs: no I/O, no shared state, and
// identical inputs always produce identical outputs. Failed computations
// return a typed error and never a partially filled result.
type LifetimeEngine interface {
	// EstimateProbabilities assigns failure-probability plotting positions
	// under the chosen estimator.
	EstimateProbabilities(sample lifedata.Sample, method lifedata.RankMethod, options RankOptions) (lifedata.RankedSet, error)

	// ConfidenceBounds computes two-sided beta-binomial bounds around ranked
	// plotting positions. Defined for rank-based estimators only.
	ConfidenceBounds(ranked lifedata.RankedSet, level float64) ([]lifedata.ProbabilityBound, error)

	// FitRankRegression fits a family to plotting positions by least squares.
	FitRankRegression(ranked lifedata.RankedSet, spec distribution.Spec) (fit.FitResult, error)

	// FitML fits a family to the raw sample by censored maximum likelihood.
	FitML(sample lifedata.Sample, spec distribution.Spec) (fit.FitResult, error)

	// PredictCDF evaluates the fitted failure probability at the given
	// lifetime values.
	PredictCDF(spec distribution.Spec, coeffs distribution.Coefficients, characteristics []float64) ([]float64, error)

	// PredictQuantile inverts the fitted model: the lifetime reached by the
	// given fractions of the population (B-lives).
	PredictQuantile(spec distribution.Spec, coeffs distribution.Coefficients, probabilities []float64) ([]float64, error)

	// SeparateMixture splits the sample into subpopulations.
	SeparateMixture(sample lifedata.Sample, spec distribution.Spec, strategy fit.SeparationStrategy, params fit.MixtureParams) (fit.MixtureResult, error)
}
