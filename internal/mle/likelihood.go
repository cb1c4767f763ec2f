// Package mle fits location-scale lifetime models by censored maximum
// likelihood. The score equations use the closed-form derivatives of each
// family's log density and log survival; parameters are found by bounded
// root-finding on those scores, never by unchecked descent.
package mle

import (
	"fmt"
	"math"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/lifedata"
)

// likelihood is a censored, optionally weighted log-likelihood over data
// already transformed onto the location-scale axis. All values are on the
// observed t scale: for log-located families the Jacobian of the log
// transform is part of every failure contribution, so likelihoods stay
// comparable across thresholds and across families.
type likelihood struct {
	family   distribution.Family
	xs       []float64
	failures []bool
	weights  []float64
	jacobian float64 // sum of w*x over failures for log-located families
	failMass float64 // sum of weights over failures
}

// newLikelihood transforms the sample at a fixed threshold. Uniform weights
// apply when weights is nil; otherwise weights follow the sample input order.
func newLikelihood(sample lifedata.Sample, spec distribution.Spec, gamma float64, weights []float64) (*likelihood, error) {
	observations := sample.Observations()
	if weights != nil && len(weights) != len(observations) {
		return nil, fmt.Errorf("%w: %d weights for %d observations", core.ErrInvalidInput, len(weights), len(observations))
	}

	lk := &likelihood{
		family:   spec.Family,
		xs:       make([]float64, len(observations)),
		failures: make([]bool, len(observations)),
		weights:  make([]float64, len(observations)),
	}
	for i, obs := range observations {
		w := 1.0
		if weights != nil {
			w = weights[i]
			if w < 0 || math.IsNaN(w) {
				return nil, fmt.Errorf("%w: weight %v at observation %d", core.ErrInvalidInput, w, i)
			}
		}
		x := spec.TransformX(obs.Characteristic, gamma)
		if math.IsInf(x, -1) {
			return nil, fmt.Errorf("%w: characteristic %v not above threshold %v",
				core.ErrInvalidInput, obs.Characteristic, gamma)
		}
		lk.xs[i] = x
		lk.failures[i] = obs.Failure
		lk.weights[i] = w
		if obs.Failure {
			lk.failMass += w
			if spec.Family.LogLocated() {
				lk.jacobian += w * x
			}
		}
	}
	if lk.failMass <= 0 {
		return nil, core.ErrNoFailures
	}
	return lk, nil
}

// value evaluates the weighted log-likelihood at (mu, sigma).
func (lk *likelihood) value(mu, sigma float64) float64 {
	total := -lk.jacobian
	logSigma := math.Log(sigma)
	for i, x := range lk.xs {
		z := (x - mu) / sigma
		if lk.failures[i] {
			total += lk.weights[i] * (lk.family.LogPDF(z) - logSigma)
		} else {
			total += lk.weights[i] * lk.family.LogSurvival(z)
		}
	}
	return total
}

// scoreMu is the partial derivative of the log-likelihood with respect to mu.
// It is strictly decreasing in mu for every supported family, which the
// location solve relies on.
func (lk *likelihood) scoreMu(mu, sigma float64) float64 {
	sum := 0.0
	for i, x := range lk.xs {
		z := (x - mu) / sigma
		if lk.failures[i] {
			sum += lk.weights[i] * lk.family.DLogPDF(z)
		} else {
			sum += lk.weights[i] * lk.family.DLogSurvival(z)
		}
	}
	return -sum / sigma
}

// scoreSigma is the partial derivative with respect to sigma.
func (lk *likelihood) scoreSigma(mu, sigma float64) float64 {
	sum := 0.0
	for i, x := range lk.xs {
		z := (x - mu) / sigma
		if lk.failures[i] {
			sum += lk.weights[i] * (1 + z*lk.family.DLogPDF(z))
		} else {
			sum += lk.weights[i] * z * lk.family.DLogSurvival(z)
		}
	}
	return -sum / sigma
}

// moments returns weighted mean and standard deviation of the failure
// positions, the starting point for both solves. The spread falls back to
// the full-sample range when the failures alone carry none.
func (lk *likelihood) moments() (mean, sd float64) {
	for i, x := range lk.xs {
		if lk.failures[i] {
			mean += lk.weights[i] * x
		}
	}
	mean /= lk.failMass

	ss := 0.0
	for i, x := range lk.xs {
		if lk.failures[i] {
			d := x - mean
			ss += lk.weights[i] * d * d
		}
	}
	sd = math.Sqrt(ss / lk.failMass)
	if !(sd > 0) || math.IsNaN(sd) {
		lo, hi := lk.xs[0], lk.xs[0]
		for _, x := range lk.xs {
			lo = math.Min(lo, x)
			hi = math.Max(hi, x)
		}
		sd = (hi - lo) / 4
		if !(sd > 0) {
			sd = 1
		}
	}
	return mean, sd
}

// ObservationLogLikelihood returns one observation's contribution to the
// log-likelihood under the given model: log density at the characteristic for
// a failure, log survival for a censored unit. The mixture E-step scores
// component membership with it.
func ObservationLogLikelihood(spec distribution.Spec, c distribution.Coefficients, obs lifedata.Observation) float64 {
	x := spec.TransformX(obs.Characteristic, c.Gamma())
	if math.IsInf(x, -1) {
		// Below the threshold: impossible under this component.
		return math.Inf(-1)
	}
	z := (x - c.Mu) / c.Sigma
	if !obs.Failure {
		return spec.Family.LogSurvival(z)
	}
	ll := spec.Family.LogPDF(z) - math.Log(c.Sigma)
	if spec.Family.LogLocated() {
		ll -= x
	}
	return ll
}
