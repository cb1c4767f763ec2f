// Package engine assembles the estimators behind the single computational
// facade the outer layers program against. Every operation is synchronous and
// pure: freshly allocated outputs, no retained state, no I/O.
package engine

import (
	"fmt"
	"math"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/mixture"
	"golifetime/internal/mle"
	"golifetime/internal/rank"
	"golifetime/internal/regression"
	"golifetime/ports"
)

// Engine implements ports.LifetimeEngine.
type Engine struct {
	regression regression.Fitter
	ml         mle.Estimator
	separator  mixture.Separator
}

var _ ports.LifetimeEngine = (*Engine)(nil)

// New builds an engine on the default estimator settings.
func New() (*Engine, error) {
	ml, err := mle.NewEstimator(mle.Options{})
	if err != nil {
		return nil, err
	}
	separator, err := mixture.NewSeparator()
	if err != nil {
		return nil, err
	}
	return &Engine{
		regression: regression.NewFitter(),
		ml:         ml,
		separator:  separator,
	}, nil
}

// EstimateProbabilities assigns plotting positions under the chosen method.
func (e *Engine) EstimateProbabilities(sample lifedata.Sample, method lifedata.RankMethod, options ports.RankOptions) (lifedata.RankedSet, error) {
	estimator, err := rank.NewEstimator(rank.Options{
		Variant: rank.Variant(options.Variant),
		Ties:    rank.TieMode(options.Ties),
	})
	if err != nil {
		return lifedata.RankedSet{}, err
	}
	return estimator.Estimate(sample, method)
}

// ConfidenceBounds computes beta-binomial bounds around ranked positions.
func (e *Engine) ConfidenceBounds(ranked lifedata.RankedSet, level float64) ([]lifedata.ProbabilityBound, error) {
	return rank.ConfidenceBounds(ranked, level)
}

// FitRankRegression fits by least squares on plotting positions.
func (e *Engine) FitRankRegression(ranked lifedata.RankedSet, spec distribution.Spec) (fit.FitResult, error) {
	return e.regression.Fit(ranked, spec)
}

// FitML fits by censored maximum likelihood.
func (e *Engine) FitML(sample lifedata.Sample, spec distribution.Spec) (fit.FitResult, error) {
	return e.ml.Fit(sample, spec)
}

// PredictCDF evaluates the fitted failure probability at each lifetime.
// Lifetimes at or below a threshold (or at or below zero for log-located
// families) have failure probability zero.
func (e *Engine) PredictCDF(spec distribution.Spec, coeffs distribution.Coefficients, characteristics []float64) ([]float64, error) {
	if err := validateModel(spec, coeffs); err != nil {
		return nil, err
	}
	out := make([]float64, len(characteristics))
	for i, t := range characteristics {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("%w: characteristic %v at position %d", core.ErrInvalidInput, t, i)
		}
		z := (spec.TransformX(t, coeffs.Gamma()) - coeffs.Mu) / coeffs.Sigma
		out[i] = spec.Family.CDF(z)
	}
	return out, nil
}

// PredictQuantile inverts the fitted model at each probability. Probabilities
// must lie strictly inside (0, 1) so every returned lifetime is finite.
func (e *Engine) PredictQuantile(spec distribution.Spec, coeffs distribution.Coefficients, probabilities []float64) ([]float64, error) {
	if err := validateModel(spec, coeffs); err != nil {
		return nil, err
	}
	out := make([]float64, len(probabilities))
	for i, p := range probabilities {
		if !(p > 0 && p < 1) {
			return nil, fmt.Errorf("%w: probability %v at position %d outside (0, 1)", core.ErrInvalidInput, p, i)
		}
		x := coeffs.Mu + coeffs.Sigma*spec.Family.Quantile(p)
		out[i] = spec.InverseX(x, coeffs.Gamma())
	}
	return out, nil
}

// SeparateMixture splits the sample into subpopulations.
func (e *Engine) SeparateMixture(sample lifedata.Sample, spec distribution.Spec, strategy fit.SeparationStrategy, params fit.MixtureParams) (fit.MixtureResult, error) {
	return e.separator.Separate(sample, spec, strategy, params)
}

func validateModel(spec distribution.Spec, coeffs distribution.Coefficients) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	if err := coeffs.Validate(); err != nil {
		return err
	}
	if spec.Threshold != coeffs.HasThreshold {
		return fmt.Errorf("%w: spec threshold=%v but coefficients threshold=%v",
			core.ErrInvalidInput, spec.Threshold, coeffs.HasThreshold)
	}
	return nil
}
