package fit

import (
	"fmt"
	"math"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
)

// ============================================================================
// FIT ARTIFACTS (canonical estimation outputs)
// ============================================================================

// Method identifies the estimation procedure that produced a FitResult.
type Method string

const (
	MethodRankRegression    Method = "rr"  // x-on-y least squares on plotting positions
	MethodMaximumLikelihood Method = "mle" // censored maximum likelihood
)

// Valid reports whether the method is a member of the closed set.
func (m Method) Valid() bool {
	return m == MethodRankRegression || m == MethodMaximumLikelihood
}

// Status describes how an iterative estimation terminated.
type Status string

const (
	StatusConverged          Status = "converged"
	StatusPartialConvergence Status = "partial_convergence" // iteration cap hit, output still usable
)

// ConfidenceInterval is a two-sided interval for a single parameter.
// INVARIANTS:
// - Level in (0, 1)
// - Lower <= Upper
type ConfidenceInterval struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether v lies inside the interval.
func (ci ConfidenceInterval) Contains(v float64) bool {
	return v >= ci.Lower && v <= ci.Upper
}

// RegressionStats carries the goodness-of-fit block of a rank regression.
type RegressionStats struct {
	RSquared   float64 `json:"r_squared"`   // coefficient of determination of the x-on-y fit
	RankMethod string  `json:"rank_method"` // probability estimator the positions came from
}

// LikelihoodStats carries the goodness-of-fit block of an ML fit.
type LikelihoodStats struct {
	LogLikelihood float64 `json:"log_likelihood"`
	AIC           float64 `json:"aic"`
	BIC           float64 `json:"bic"`
}

// ProfilePoint is one evaluation of a profiled objective.
type ProfilePoint struct {
	Value     float64 `json:"value"`     // candidate parameter value (threshold gamma)
	Objective float64 `json:"objective"` // R-squared or profiled log-likelihood at Value
}

// ProfileCurve records a 1-D profile search trace, ordered by Value ascending.
// Read-only output for downstream plotting surfaces.
type ProfileCurve struct {
	Parameter string         `json:"parameter"`
	Points    []ProfilePoint `json:"points"`
	Optimum   float64        `json:"optimum"` // parameter value the search settled on
}

// FitResult is the complete outcome of fitting one distribution model to one
// sample. It is a pure value: identical inputs produce identical results, so
// identity and timestamps belong to the surrounding analysis report, not here.
type FitResult struct {
	Spec         distribution.Spec         `json:"distribution"`
	Method       Method                    `json:"method"`
	Coefficients distribution.Coefficients `json:"coefficients"`

	// Parameters is the natural-parameter view of Coefficients (eta/beta for
	// the Weibull, mu/sigma otherwise, plus gamma for threshold models).
	Parameters map[string]float64 `json:"parameters"`

	// StdErrors and Intervals are populated by the ML estimator only.
	StdErrors map[string]float64            `json:"std_errors,omitempty"`
	Intervals map[string]ConfidenceInterval `json:"confidence_intervals,omitempty"`

	Regression *RegressionStats `json:"regression,omitempty"`
	Likelihood *LikelihoodStats `json:"likelihood,omitempty"`

	// Profile holds the threshold search trace for three-parameter fits.
	Profile *ProfileCurve `json:"profile,omitempty"`

	SampleSize   int    `json:"sample_size"`
	FailureCount int    `json:"failure_count"`
	Status       Status `json:"status"`
}

// NewFitResult assembles a result and checks the cross-field invariants every
// estimator must uphold.
func NewFitResult(spec distribution.Spec, method Method, coeffs distribution.Coefficients) (FitResult, error) {
	if !method.Valid() {
		return FitResult{}, fmt.Errorf("%w: unknown fit method %q", core.ErrInvalidInput, method)
	}
	if err := coeffs.Validate(); err != nil {
		return FitResult{}, err
	}
	if spec.Threshold != coeffs.HasThreshold {
		return FitResult{}, fmt.Errorf("%w: coefficient threshold flag does not match distribution %s",
			core.ErrInvalidInput, spec)
	}
	return FitResult{
		Spec:         spec,
		Method:       method,
		Coefficients: coeffs,
		Parameters:   distribution.Natural(spec, coeffs),
		Status:       StatusConverged,
	}, nil
}

// MeanLife returns the expected lifetime implied by the fitted model.
func (r FitResult) MeanLife() float64 {
	return distribution.MeanLife(r.Spec, r.Coefficients)
}

// ParameterNames lists the natural parameters in reporting order.
func (r FitResult) ParameterNames() []string {
	return distribution.ParameterNames(r.Spec)
}

// Converged reports whether the estimator terminated inside its budgets.
func (r FitResult) Converged() bool {
	return r.Status == StatusConverged
}

// HasFiniteParameters guards report rendering against degenerate output.
func (r FitResult) HasFiniteParameters() bool {
	for _, v := range r.Parameters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
