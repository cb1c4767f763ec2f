package mle

import (
	"math"
	"reflect"
	"testing"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/lifedata"
	"golifetime/internal/testkit"
)

func mustEstimator(t *testing.T) Estimator {
	t.Helper()
	e, err := NewEstimator(Options{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}
	return e
}

func mustSpec(t *testing.T, family distribution.Family, threshold bool) distribution.Spec {
	t.Helper()
	spec, err := distribution.NewSpec(family, threshold)
	if err != nil {
		t.Fatalf("NewSpec() error = %v", err)
	}
	return spec
}

func TestFitRecoversWeibullUnderCensoring(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, false)
	truth := distribution.Coefficients{Mu: math.Log(1000), Sigma: 0.5} // eta=1000, beta=2
	gen := testkit.NewGenerator(7)
	sample, err := gen.CensoredSample(spec, truth, 500, 1300)
	if err != nil {
		t.Fatalf("CensoredSample() error = %v", err)
	}
	if sample.CensoredCount() == 0 {
		t.Fatal("generator produced no censored units; cutoff too high")
	}

	result, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(result.Parameters["eta"]-1000) > 100 {
		t.Errorf("eta = %v, want 1000 +- 100", result.Parameters["eta"])
	}
	if math.Abs(result.Parameters["beta"]-2) > 0.3 {
		t.Errorf("beta = %v, want 2 +- 0.3", result.Parameters["beta"])
	}
	if result.Likelihood == nil {
		t.Fatal("missing likelihood stats")
	}
	if !result.Converged() {
		t.Errorf("status = %v", result.Status)
	}
}

func TestFitRecoveryAcrossFamilies(t *testing.T) {
	tests := []struct {
		family distribution.Family
		truth  distribution.Coefficients
		cutoff float64
		tolMu  float64
		tolSg  float64
	}{
		{distribution.Lognormal, distribution.Coefficients{Mu: 6, Sigma: 0.8}, 900, 0.2, 0.15},
		{distribution.Loglogistic, distribution.Coefficients{Mu: 5, Sigma: 0.4}, 400, 0.15, 0.1},
		{distribution.Normal, distribution.Coefficients{Mu: 5000, Sigma: 400}, 5500, 100, 80},
		{distribution.Logistic, distribution.Coefficients{Mu: 3000, Sigma: 250}, 3600, 80, 60},
		{distribution.SEV, distribution.Coefficients{Mu: 5000, Sigma: 300}, 5400, 80, 60},
	}
	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			spec := mustSpec(t, tt.family, false)
			gen := testkit.NewGenerator(11)
			sample, err := gen.CensoredSample(spec, tt.truth, 400, tt.cutoff)
			if err != nil {
				t.Fatalf("CensoredSample() error = %v", err)
			}
			result, err := mustEstimator(t).Fit(sample, spec)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if math.Abs(result.Coefficients.Mu-tt.truth.Mu) > tt.tolMu {
				t.Errorf("mu = %v, want %v +- %v", result.Coefficients.Mu, tt.truth.Mu, tt.tolMu)
			}
			if math.Abs(result.Coefficients.Sigma-tt.truth.Sigma) > tt.tolSg {
				t.Errorf("sigma = %v, want %v +- %v", result.Coefficients.Sigma, tt.truth.Sigma, tt.tolSg)
			}
		})
	}
}

func TestFitIsLocalOptimum(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, false)
	truth := distribution.Coefficients{Mu: 6.2, Sigma: 0.7}
	gen := testkit.NewGenerator(23)
	sample, err := gen.CensoredSample(spec, truth, 120, 700)
	if err != nil {
		t.Fatalf("CensoredSample() error = %v", err)
	}
	result, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	lk, err := newLikelihood(sample, spec, 0, nil)
	if err != nil {
		t.Fatalf("newLikelihood() error = %v", err)
	}
	best := lk.value(result.Coefficients.Mu, result.Coefficients.Sigma)
	if math.Abs(best-result.Likelihood.LogLikelihood) > 1e-9 {
		t.Fatalf("reported log-likelihood %v != recomputed %v", result.Likelihood.LogLikelihood, best)
	}
	for _, dMu := range []float64{-0.05, 0, 0.05} {
		for _, fSg := range []float64{0.95, 1, 1.05} {
			if dMu == 0 && fSg == 1 {
				continue
			}
			perturbed := lk.value(result.Coefficients.Mu+dMu*result.Coefficients.Sigma, result.Coefficients.Sigma*fSg)
			if perturbed > best+1e-9 {
				t.Errorf("perturbation (%v, x%v) beats the optimum: %v > %v", dMu, fSg, perturbed, best)
			}
		}
	}
}

func TestFitInformationCriteria(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, false)
	truth := distribution.Coefficients{Mu: 6.9, Sigma: 0.5}
	gen := testkit.NewGenerator(3)
	sample, err := gen.Sample(spec, truth, 60)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	result, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	L := result.Likelihood.LogLikelihood
	if math.Abs(result.Likelihood.AIC-(-2*L+4)) > 1e-9 {
		t.Errorf("AIC = %v, want %v", result.Likelihood.AIC, -2*L+4)
	}
	wantBIC := -2*L + 2*math.Log(60)
	if math.Abs(result.Likelihood.BIC-wantBIC) > 1e-9 {
		t.Errorf("BIC = %v, want %v", result.Likelihood.BIC, wantBIC)
	}
}

func TestFitWaldIntervalsBracketEstimates(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, false)
	truth := distribution.Coefficients{Mu: math.Log(2000), Sigma: 0.4}
	gen := testkit.NewGenerator(17)
	sample, err := gen.CensoredSample(spec, truth, 300, 2600)
	if err != nil {
		t.Fatalf("CensoredSample() error = %v", err)
	}
	result, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	for _, name := range []string{"eta", "beta"} {
		ci, ok := result.Intervals[name]
		if !ok {
			t.Fatalf("missing interval for %s", name)
		}
		if ci.Level != DefaultConfidenceLevel {
			t.Errorf("%s level = %v", name, ci.Level)
		}
		if !ci.Contains(result.Parameters[name]) {
			t.Errorf("%s interval [%v, %v] misses estimate %v", name, ci.Lower, ci.Upper, result.Parameters[name])
		}
		if se := result.StdErrors[name]; !(se > 0) {
			t.Errorf("%s standard error = %v", name, se)
		}
	}
	if ci := result.Intervals["beta"]; ci.Lower <= 0 {
		t.Errorf("beta interval lower bound %v not positive", ci.Lower)
	}
}

func TestFitThresholdProfileRecoversGamma(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, true)
	truth := distribution.Coefficients{Mu: math.Log(1000), Sigma: 1.0 / 1.5, Threshold: 300, HasThreshold: true}
	gen := testkit.NewGenerator(41)
	sample, err := gen.Sample(spec, truth, 400)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	result, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if math.Abs(result.Coefficients.Threshold-300) > 80 {
		t.Errorf("threshold = %v, want 300 +- 80", result.Coefficients.Threshold)
	}
	if result.Coefficients.Threshold >= sample.MinCharacteristic() {
		t.Errorf("threshold %v not below smallest characteristic %v", result.Coefficients.Threshold, sample.MinCharacteristic())
	}
	if result.Profile == nil || len(result.Profile.Points) == 0 {
		t.Fatal("threshold fit carries no profile curve")
	}

	// The two-parameter model is nested at gamma = 0, so the profiled
	// optimum cannot be worse.
	twoParam, err := mustEstimator(t).Fit(sample, mustSpec(t, distribution.Weibull, false))
	if err != nil {
		t.Fatalf("two-parameter Fit() error = %v", err)
	}
	if result.Likelihood.LogLikelihood < twoParam.Likelihood.LogLikelihood-1e-6 {
		t.Errorf("profiled log-likelihood %v below nested two-parameter %v",
			result.Likelihood.LogLikelihood, twoParam.Likelihood.LogLikelihood)
	}
}

func TestFitInsufficientFailures(t *testing.T) {
	sample, err := lifedata.NewSampleFromValues(
		[]float64{500, 800, 900, 1000},
		[]bool{true, false, false, false},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	_, err = mustEstimator(t).Fit(sample, mustSpec(t, distribution.Weibull, false))
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestFitDegenerateSampleFailsToConverge(t *testing.T) {
	// Two identical failures above all censored units: the likelihood grows
	// without bound as sigma shrinks, so no score root exists.
	sample, err := lifedata.NewSampleFromValues(
		[]float64{100, 100, 50, 60},
		[]bool{true, true, false, false},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	_, err = mustEstimator(t).Fit(sample, mustSpec(t, distribution.Weibull, false))
	if !core.IsConvergenceError(err) {
		t.Fatalf("expected convergence error, got %v", err)
	}
}

func TestFitWeightedMatchesUniformWeights(t *testing.T) {
	spec := mustSpec(t, distribution.Weibull, false)
	truth := distribution.Coefficients{Mu: 6.5, Sigma: 0.6}
	gen := testkit.NewGenerator(29)
	sample, err := gen.CensoredSample(spec, truth, 80, 900)
	if err != nil {
		t.Fatalf("CensoredSample() error = %v", err)
	}

	plain, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	weights := make([]float64, sample.Size())
	for i := range weights {
		weights[i] = 1
	}
	weighted, err := mustEstimator(t).FitWeighted(sample, spec, weights)
	if err != nil {
		t.Fatalf("FitWeighted() error = %v", err)
	}
	if math.Abs(plain.Coefficients.Mu-weighted.Coefficients.Mu) > 1e-9 {
		t.Errorf("mu differs: %v vs %v", plain.Coefficients.Mu, weighted.Coefficients.Mu)
	}
	if math.Abs(plain.Coefficients.Sigma-weighted.Coefficients.Sigma) > 1e-9 {
		t.Errorf("sigma differs: %v vs %v", plain.Coefficients.Sigma, weighted.Coefficients.Sigma)
	}

	// Scaling every weight by the same factor moves the likelihood but not
	// its maximizer.
	for i := range weights {
		weights[i] = 0.5
	}
	scaled, err := mustEstimator(t).FitWeighted(sample, spec, weights)
	if err != nil {
		t.Fatalf("FitWeighted(scaled) error = %v", err)
	}
	if math.Abs(scaled.Coefficients.Mu-plain.Coefficients.Mu) > 1e-8 {
		t.Errorf("scaled weights shifted mu: %v vs %v", scaled.Coefficients.Mu, plain.Coefficients.Mu)
	}
}

func TestFitDeterministic(t *testing.T) {
	spec := mustSpec(t, distribution.Lognormal, false)
	truth := distribution.Coefficients{Mu: 6, Sigma: 0.7}
	gen := testkit.NewGenerator(5)
	sample, err := gen.CensoredSample(spec, truth, 150, 1200)
	if err != nil {
		t.Fatalf("CensoredSample() error = %v", err)
	}

	first, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	second, err := mustEstimator(t).Fit(sample, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different fits")
	}
}
