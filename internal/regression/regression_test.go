package regression

import (
	"math"
	"reflect"
	"testing"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/lifedata"
	"golifetime/internal/rank"
)

// exactSample generates n characteristics lying exactly on the model line at
// the Benard plotting positions, so a complete-sample rank regression must
// reproduce the generating parameters.
func exactSample(t *testing.T, spec distribution.Spec, mu, sigma, gamma float64, n int) lifedata.Sample {
	t.Helper()
	chars := make([]float64, n)
	events := make([]bool, n)
	for i := 0; i < n; i++ {
		p := (float64(i+1) - 0.3) / (float64(n) + 0.4)
		x := mu + sigma*spec.Family.Quantile(p)
		chars[i] = spec.InverseX(x, gamma)
		events[i] = true
	}
	sample, err := lifedata.NewSampleFromValues(chars, events)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	return sample
}

func rankSample(t *testing.T, sample lifedata.Sample) lifedata.RankedSet {
	t.Helper()
	e, err := rank.NewEstimator(rank.Options{})
	if err != nil {
		t.Fatalf("NewEstimator() error = %v", err)
	}
	ranked, err := e.Estimate(sample, lifedata.MethodJohnson)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}
	return ranked
}

func TestFitRecoversExactParameters(t *testing.T) {
	tests := []struct {
		family distribution.Family
		mu     float64
		sigma  float64
	}{
		{distribution.Weibull, math.Log(1000), 1.0 / 1.5},
		{distribution.Lognormal, 5.0, 0.5},
		{distribution.Loglogistic, 4.0, 0.3},
		{distribution.Normal, 100, 10},
		{distribution.Logistic, 80, 6},
		{distribution.SEV, 100, 5},
	}
	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			spec, err := distribution.NewSpec(tt.family, false)
			if err != nil {
				t.Fatalf("NewSpec() error = %v", err)
			}
			sample := exactSample(t, spec, tt.mu, tt.sigma, 0, 30)
			result, err := NewFitter().Fit(rankSample(t, sample), spec)
			if err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			if math.Abs(result.Coefficients.Mu-tt.mu) > 1e-6 {
				t.Errorf("mu = %v, want %v", result.Coefficients.Mu, tt.mu)
			}
			if math.Abs(result.Coefficients.Sigma-tt.sigma) > 1e-6 {
				t.Errorf("sigma = %v, want %v", result.Coefficients.Sigma, tt.sigma)
			}
			if result.Regression == nil || math.Abs(result.Regression.RSquared-1) > 1e-9 {
				t.Errorf("RSquared = %+v, want 1", result.Regression)
			}
		})
	}
}

func TestFitReportsNaturalWeibullParameters(t *testing.T) {
	spec, _ := distribution.NewSpec(distribution.Weibull, false)
	sample := exactSample(t, spec, math.Log(2000), 0.5, 0, 25)
	result, err := NewFitter().Fit(rankSample(t, sample), spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(result.Parameters["eta"]-2000) > 1e-3 {
		t.Errorf("eta = %v, want 2000", result.Parameters["eta"])
	}
	if math.Abs(result.Parameters["beta"]-2) > 1e-6 {
		t.Errorf("beta = %v, want 2", result.Parameters["beta"])
	}
}

func TestFitThresholdRecoversGamma(t *testing.T) {
	spec, err := distribution.NewSpec(distribution.Weibull, true)
	if err != nil {
		t.Fatalf("NewSpec() error = %v", err)
	}
	const gamma0 = 500.0
	sample := exactSample(t, spec, math.Log(1000), 1.0/1.5, gamma0, 50)
	result, err := NewFitter().Fit(rankSample(t, sample), spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if math.Abs(result.Coefficients.Threshold-gamma0) > 1.0 {
		t.Errorf("threshold = %v, want %v", result.Coefficients.Threshold, gamma0)
	}
	if math.Abs(result.Parameters["gamma"]-result.Coefficients.Threshold) > 1e-12 {
		t.Errorf("natural gamma %v != coefficient %v", result.Parameters["gamma"], result.Coefficients.Threshold)
	}
	if result.Profile == nil || len(result.Profile.Points) == 0 {
		t.Error("threshold fit carries no profile curve")
	}
	if result.Regression.RSquared < 0.999999 {
		t.Errorf("RSquared at recovered threshold = %v", result.Regression.RSquared)
	}
}

func TestFitInsufficientData(t *testing.T) {
	sample, err := lifedata.NewSampleFromValues(
		[]float64{100, 200, 300},
		[]bool{true, false, false},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	spec, _ := distribution.NewSpec(distribution.Weibull, false)
	_, err = NewFitter().Fit(rankSample(t, sample), spec)
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}
}

func TestFitLineSingularGeometry(t *testing.T) {
	spec, _ := distribution.NewSpec(distribution.Weibull, false)

	// All characteristics equal: zero spread on the x axis.
	_, err := NewFitter().FitLine(
		[]float64{500, 500, 500},
		[]float64{0.2, 0.5, 0.8},
		spec, 0,
	)
	if !core.IsSingularFitError(err) {
		t.Fatalf("expected singular fit error for equal characteristics, got %v", err)
	}

	// Decreasing characteristic against increasing probability: negative slope.
	_, err = NewFitter().FitLine(
		[]float64{900, 500, 100},
		[]float64{0.2, 0.5, 0.8},
		spec, 0,
	)
	if !core.IsSingularFitError(err) {
		t.Fatalf("expected singular fit error for negative slope, got %v", err)
	}
}

func TestFitRSquaredWithinUnitInterval(t *testing.T) {
	// Mildly non-linear data: still a legal fit, R-squared strictly inside [0, 1].
	chars := []float64{120, 250, 330, 520, 610, 780, 950, 1210, 1500, 2100}
	events := make([]bool, len(chars))
	for i := range events {
		events[i] = true
	}
	sample, err := lifedata.NewSampleFromValues(chars, events)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	spec, _ := distribution.NewSpec(distribution.Weibull, false)
	result, err := NewFitter().Fit(rankSample(t, sample), spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if result.Regression.RSquared < 0 || result.Regression.RSquared > 1 {
		t.Errorf("RSquared = %v outside [0, 1]", result.Regression.RSquared)
	}
	if result.Regression.RSquared < 0.9 {
		t.Errorf("RSquared = %v suspiciously low for near-weibull data", result.Regression.RSquared)
	}
}

func TestFitDeterministic(t *testing.T) {
	spec, _ := distribution.NewSpec(distribution.Weibull, true)
	sample := exactSample(t, spec, math.Log(800), 0.4, 200, 40)
	ranked := rankSample(t, sample)

	first, err := NewFitter().Fit(ranked, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	second, err := NewFitter().Fit(ranked, spec)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different fits")
	}
}
