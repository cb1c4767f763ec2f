package mixture

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/mle"
)

// expectationMaximization alternates posterior membership (E) and weighted
// maximum-likelihood re-estimation (M) until the observed-data log-likelihood
// stops improving. Every iteration is recorded in the trace before the next
// M-step runs, so the caller can follow the whole path. Hitting the iteration
// cap is not an error; the result is flagged partially converged.
func (s Separator) expectationMaximization(sample lifedata.Sample, spec distribution.Spec, params fit.MixtureParams) (fit.MixtureResult, error) {
	k := params.Components
	fits, err := s.seedComponents(sample, spec, k)
	if err != nil {
		return fit.MixtureResult{}, err
	}

	observations := sample.Observations()
	coefficients := make([]distribution.Coefficients, k)
	mixing := make([]float64, k)
	for j := range fits {
		coefficients[j] = fits[j].Coefficients
		mixing[j] = 1 / float64(k)
	}

	var (
		trace     []fit.EMIteration
		posterior [][]float64
	)
	status := fit.StatusPartialConvergence
	previous := math.Inf(-1)
	for iteration := 0; iteration < params.MaxIterations; iteration++ {
		logL, post, err := eStep(spec, coefficients, mixing, observations)
		if err != nil {
			return fit.MixtureResult{}, err
		}
		posterior = post
		trace = append(trace, fit.EMIteration{
			Index:         iteration,
			LogLikelihood: logL,
			Mixing:        append([]float64(nil), mixing...),
		})

		if iteration > 0 && math.Abs(logL-previous) < params.Tolerance {
			status = fit.StatusConverged
			break
		}
		previous = logL
		if iteration == params.MaxIterations-1 {
			break
		}

		for j := 0; j < k; j++ {
			weights := column(post, j)
			if mass := failureMass(observations, weights); mass < 1 {
				return fit.MixtureResult{}, core.NewConvergenceError(
					fmt.Sprintf("component %d collapsed to failure mass %.3g", j, mass), nil)
			}
			refit, err := s.ml.FitWeighted(sample, spec, weights)
			if err != nil {
				return fit.MixtureResult{}, fmt.Errorf("re-estimating component %d: %w", j, err)
			}
			fits[j] = refit
			coefficients[j] = refit.Coefficients
			mixing[j] = floats.Sum(weights) / float64(len(weights))
		}
	}

	return assembleEM(observations, fits, posterior, trace, status), nil
}

// seedComponents initializes one component per contiguous slice of the sorted
// sample, each fitted by unweighted maximum likelihood.
func (s Separator) seedComponents(sample lifedata.Sample, spec distribution.Spec, k int) ([]fit.FitResult, error) {
	sorted := sample.SortedByCharacteristic()
	n := len(sorted)
	if k > n {
		return nil, fmt.Errorf("%w: %d components requested for %d observations", core.ErrInsufficientData, k, n)
	}

	fits := make([]fit.FitResult, k)
	for j := 0; j < k; j++ {
		lo := j * n / k
		hi := (j + 1) * n / k
		chunk, err := lifedata.NewSample(sorted[lo:hi])
		if err != nil {
			return nil, fmt.Errorf("seeding component %d: %w", j, err)
		}
		seed, err := s.ml.Fit(chunk, spec)
		if err != nil {
			return nil, fmt.Errorf("seeding component %d: %w", j, err)
		}
		fits[j] = seed
	}
	return fits, nil
}

// eStep computes posterior membership probabilities in log space and the
// observed-data log-likelihood under the current parameters.
func eStep(spec distribution.Spec, coefficients []distribution.Coefficients, mixing []float64, observations []lifedata.Observation) (float64, [][]float64, error) {
	k := len(coefficients)
	posterior := make([][]float64, len(observations))
	scratch := make([]float64, k)
	logL := 0.0
	for i, obs := range observations {
		for j := 0; j < k; j++ {
			scratch[j] = math.Log(mixing[j]) + mle.ObservationLogLikelihood(spec, coefficients[j], obs)
		}
		norm := floats.LogSumExp(scratch)
		if math.IsInf(norm, -1) || math.IsNaN(norm) {
			return 0, nil, core.NewConvergenceError(
				fmt.Sprintf("observation %d has no support under any component", i), nil)
		}
		row := make([]float64, k)
		for j := 0; j < k; j++ {
			row[j] = math.Exp(scratch[j] - norm)
		}
		posterior[i] = row
		logL += norm
	}
	return logL, posterior, nil
}

// assembleEM assigns each observation to its most probable component (lowest
// index on ties) and reports shares as the mean posterior mass per component.
func assembleEM(observations []lifedata.Observation, fits []fit.FitResult, posterior [][]float64, trace []fit.EMIteration, status fit.Status) fit.MixtureResult {
	k := len(fits)
	members := make([][]lifedata.Observation, k)
	for i, obs := range observations {
		best := 0
		for j := 1; j < k; j++ {
			if posterior[i][j] > posterior[i][best] {
				best = j
			}
		}
		members[best] = append(members[best], obs)
	}

	subgroups := make([]fit.Subgroup, k)
	total := float64(len(observations))
	for j := 0; j < k; j++ {
		sort.SliceStable(members[j], func(a, b int) bool {
			return members[j][a].Characteristic < members[j][b].Characteristic
		})
		subgroups[j] = fit.Subgroup{
			Index:        j,
			Observations: members[j],
			Share:        floats.Sum(column(posterior, j)) / total,
			Fit:          fits[j],
		}
	}
	return fit.MixtureResult{
		Strategy:   fit.StrategyEM,
		Subgroups:  subgroups,
		Posterior:  posterior,
		Iterations: trace,
		Status:     status,
	}
}

func column(matrix [][]float64, j int) []float64 {
	out := make([]float64, len(matrix))
	for i := range matrix {
		out[i] = matrix[i][j]
	}
	return out
}

func failureMass(observations []lifedata.Observation, weights []float64) float64 {
	mass := 0.0
	for i, obs := range observations {
		if obs.Failure {
			mass += weights[i]
		}
	}
	return mass
}
