package mle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/numeric"
	"golifetime/internal/profile"
)

// DefaultConfidenceLevel is the two-sided level of the Wald intervals.
const DefaultConfidenceLevel = 0.95

// cbrtEps scales central-difference steps for the observed information.
const cbrtEps = 6.055454452393343e-06

// Options tunes the estimator. The zero value selects the defaults.
type Options struct {
	ConfidenceLevel float64
}

// Estimator fits distribution specs by censored maximum likelihood.
type Estimator struct {
	level  float64
	search profile.Search
}

// NewEstimator validates options and builds an estimator.
func NewEstimator(opts Options) (Estimator, error) {
	level := opts.ConfidenceLevel
	if level == 0 {
		level = DefaultConfidenceLevel
	}
	if !(level > 0 && level < 1) {
		return Estimator{}, fmt.Errorf("%w: confidence level must lie in (0, 1), got %v", core.ErrInvalidInput, level)
	}
	return Estimator{level: level, search: profile.NewSearch()}, nil
}

// Fit estimates the model from the raw sample. Threshold specs run a profile
// likelihood search over gamma around the two-parameter solve.
func (e Estimator) Fit(sample lifedata.Sample, spec distribution.Spec) (fit.FitResult, error) {
	return e.fit(sample, spec, nil)
}

// FitWeighted is Fit with a per-observation weight entering each likelihood
// contribution multiplicatively. Weights follow the sample's input order;
// the mixture separator drives its M-step through this.
func (e Estimator) FitWeighted(sample lifedata.Sample, spec distribution.Spec, weights []float64) (fit.FitResult, error) {
	if weights == nil {
		return fit.FitResult{}, fmt.Errorf("%w: nil weight vector", core.ErrInvalidInput)
	}
	return e.fit(sample, spec, weights)
}

func (e Estimator) fit(sample lifedata.Sample, spec distribution.Spec, weights []float64) (fit.FitResult, error) {
	if err := spec.Validate(); err != nil {
		return fit.FitResult{}, err
	}
	if weights == nil && sample.FailureCount() < 2 {
		return fit.FitResult{}, fmt.Errorf("%w: maximum likelihood needs at least 2 failures, got %d",
			core.ErrInsufficientData, sample.FailureCount())
	}

	if !spec.Threshold {
		lk, err := newLikelihood(sample, spec, 0, weights)
		if err != nil {
			return fit.FitResult{}, err
		}
		mu, sigma, err := solve(lk)
		if err != nil {
			return fit.FitResult{}, err
		}
		coeffs := distribution.Coefficients{Mu: mu, Sigma: sigma}
		return e.assemble(sample, spec, lk, coeffs, nil)
	}

	minT := sample.MinCharacteristic()
	span := sample.MaxCharacteristic() - minT
	objective := func(gamma float64) float64 {
		lk, err := newLikelihood(sample, spec, gamma, weights)
		if err != nil {
			return math.NaN()
		}
		mu, sigma, err := solve(lk)
		if err != nil {
			return math.NaN()
		}
		return lk.value(mu, sigma)
	}
	curve, _, err := e.search.Maximize("gamma", objective, minT, span)
	if err != nil {
		return fit.FitResult{}, err
	}

	lk, err := newLikelihood(sample, spec, curve.Optimum, weights)
	if err != nil {
		return fit.FitResult{}, err
	}
	mu, sigma, err := solve(lk)
	if err != nil {
		return fit.FitResult{}, err
	}
	coeffs := distribution.Coefficients{Mu: mu, Sigma: sigma, Threshold: curve.Optimum, HasThreshold: true}
	return e.assemble(sample, spec, lk, coeffs, &curve)
}

// solve zeroes both score equations. The location score is strictly
// decreasing in mu, so for every candidate sigma the inner solve pins mu
// down; the outer solve then runs on the profiled scale score over log sigma,
// where bracket expansion is safe on both sides.
func solve(lk *likelihood) (float64, float64, error) {
	mean, sd := lk.moments()

	profiled := func(s float64) float64 {
		sigma := math.Exp(s)
		mu, err := solveLocation(lk, sigma, mean, sd)
		if err != nil {
			return math.NaN()
		}
		return lk.scoreSigma(mu, sigma)
	}

	s0 := math.Log(sd)
	a, b, err := numeric.BracketRoot(profiled, s0-0.5, s0+0.5, numeric.DefaultGrowFactor, numeric.DefaultMaxExpand)
	if err != nil {
		return 0, 0, core.NewConvergenceError("scale score bracketing", err)
	}
	sHat, err := numeric.Root(profiled, a, b, 1e-12, numeric.DefaultMaxIters)
	if err != nil {
		return 0, 0, core.NewConvergenceError("scale score solve", err)
	}
	sigma := math.Exp(sHat)
	mu, err := solveLocation(lk, sigma, mean, sd)
	if err != nil {
		return 0, 0, core.NewConvergenceError("location solve at fitted scale", err)
	}
	return mu, sigma, nil
}

func solveLocation(lk *likelihood, sigma, mean, sd float64) (float64, error) {
	score := func(mu float64) float64 { return lk.scoreMu(mu, sigma) }
	a, b, err := numeric.BracketRoot(score, mean-sd-sigma, mean+sd+sigma, numeric.DefaultGrowFactor, numeric.DefaultMaxExpand)
	if err != nil {
		return 0, err
	}
	return numeric.Root(score, a, b, numeric.DefaultTolerance, numeric.DefaultMaxIters)
}

func (e Estimator) assemble(sample lifedata.Sample, spec distribution.Spec, lk *likelihood, coeffs distribution.Coefficients, curve *fit.ProfileCurve) (fit.FitResult, error) {
	result, err := fit.NewFitResult(spec, fit.MethodMaximumLikelihood, coeffs)
	if err != nil {
		return fit.FitResult{}, err
	}

	logLik := lk.value(coeffs.Mu, coeffs.Sigma)
	k := float64(spec.ParameterCount())
	mass := 0.0
	for _, w := range lk.weights {
		mass += w
	}
	result.Likelihood = &fit.LikelihoodStats{
		LogLikelihood: logLik,
		AIC:           -2*logLik + 2*k,
		BIC:           -2*logLik + k*math.Log(mass),
	}

	seMu, seSigma, err := observedInformation(lk, coeffs.Mu, coeffs.Sigma)
	if err != nil {
		return fit.FitResult{}, err
	}
	result.StdErrors, result.Intervals = e.waldIntervals(spec, coeffs, seMu, seSigma)
	result.Profile = curve
	result.SampleSize = sample.Size()
	result.FailureCount = sample.FailureCount()
	return result, nil
}

// observedInformation differentiates the analytic scores centrally to get the
// Hessian, negates it and inverts it for the asymptotic covariance.
func observedInformation(lk *likelihood, mu, sigma float64) (seMu, seSigma float64, err error) {
	hMu := cbrtEps * math.Max(1, math.Abs(mu))
	hSg := math.Min(cbrtEps*math.Max(1, sigma), sigma/2)

	d2Mu := (lk.scoreMu(mu+hMu, sigma) - lk.scoreMu(mu-hMu, sigma)) / (2 * hMu)
	d2Sg := (lk.scoreSigma(mu, sigma+hSg) - lk.scoreSigma(mu, sigma-hSg)) / (2 * hSg)
	crossA := (lk.scoreMu(mu, sigma+hSg) - lk.scoreMu(mu, sigma-hSg)) / (2 * hSg)
	crossB := (lk.scoreSigma(mu+hMu, sigma) - lk.scoreSigma(mu-hMu, sigma)) / (2 * hMu)
	cross := (crossA + crossB) / 2

	info := mat.NewDense(2, 2, []float64{-d2Mu, -cross, -cross, -d2Sg})
	var cov mat.Dense
	if err := cov.Inverse(info); err != nil {
		return 0, 0, core.NewConvergenceError("information matrix inversion", err)
	}
	vMu, vSg := cov.At(0, 0), cov.At(1, 1)
	if !(vMu > 0) || !(vSg > 0) {
		return 0, 0, core.NewConvergenceError("information matrix curvature", nil)
	}
	return math.Sqrt(vMu), math.Sqrt(vSg), nil
}

// waldIntervals builds standard errors and two-sided intervals. The scale
// parameter is treated on the log scale so its interval stays positive; the
// Weibull's natural parameters are carried over by the same transformations.
func (e Estimator) waldIntervals(spec distribution.Spec, coeffs distribution.Coefficients, seMu, seSigma float64) (map[string]float64, map[string]fit.ConfidenceInterval) {
	z := distuv.UnitNormal.Quantile(1 - (1-e.level)/2)

	muLo, muHi := coeffs.Mu-z*seMu, coeffs.Mu+z*seMu
	half := z * seSigma / coeffs.Sigma
	sgLo, sgHi := coeffs.Sigma*math.Exp(-half), coeffs.Sigma*math.Exp(half)

	se := map[string]float64{}
	ci := map[string]fit.ConfidenceInterval{}
	if spec.Family == distribution.Weibull {
		eta := math.Exp(coeffs.Mu)
		beta := 1 / coeffs.Sigma
		se["eta"] = eta * seMu
		se["beta"] = beta * seSigma / coeffs.Sigma
		ci["eta"] = fit.ConfidenceInterval{Level: e.level, Lower: math.Exp(muLo), Upper: math.Exp(muHi)}
		ci["beta"] = fit.ConfidenceInterval{Level: e.level, Lower: 1 / sgHi, Upper: 1 / sgLo}
	} else {
		se["mu"] = seMu
		se["sigma"] = seSigma
		ci["mu"] = fit.ConfidenceInterval{Level: e.level, Lower: muLo, Upper: muHi}
		ci["sigma"] = fit.ConfidenceInterval{Level: e.level, Lower: sgLo, Upper: sgHi}
	}
	// The threshold is profiled out rather than jointly estimated, so no
	// Wald interval is attached to it.
	return se, ci
}
