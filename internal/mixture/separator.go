// Package mixture splits a lifetime sample into subpopulations when a single
// location-scale model cannot describe all failures. Two strategies are
// offered: a deterministic breakpoint search over the probability plot
// (segmented) and a censoring-aware expectation-maximization loop (em). Both
// terminate on success or failure; neither exposes partial results on error.
package mixture

import (
	"fmt"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/mle"
	"golifetime/internal/rank"
	"golifetime/internal/regression"
)

// Separator runs mixture separation with shared estimator configuration.
type Separator struct {
	ranker     rank.Estimator
	regression regression.Fitter
	ml         mle.Estimator
}

// NewSeparator builds a Separator on the default estimator settings.
func NewSeparator() (Separator, error) {
	ranker, err := rank.NewEstimator(rank.Options{})
	if err != nil {
		return Separator{}, err
	}
	ml, err := mle.NewEstimator(mle.Options{})
	if err != nil {
		return Separator{}, err
	}
	return Separator{
		ranker:     ranker,
		regression: regression.NewFitter(),
		ml:         ml,
	}, nil
}

// Separate splits the sample into subpopulations under the given strategy.
// Identical inputs always produce identical results.
func (s Separator) Separate(sample lifedata.Sample, spec distribution.Spec, strategy fit.SeparationStrategy, params fit.MixtureParams) (fit.MixtureResult, error) {
	if err := spec.Validate(); err != nil {
		return fit.MixtureResult{}, err
	}
	if err := params.Validate(strategy); err != nil {
		return fit.MixtureResult{}, err
	}

	switch strategy {
	case fit.StrategySegmented:
		return s.segmented(sample, spec, params)
	case fit.StrategyEM:
		return s.expectationMaximization(sample, spec, params)
	}
	return fit.MixtureResult{}, fmt.Errorf("%w: unknown separation strategy %q", core.ErrInvalidInput, strategy)
}
