package mixture

import (
	"math"
	"reflect"
	"testing"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/testkit"
)

// separatedMixture draws a censored two-component Weibull mixture with modes
// far enough apart that cluster membership is essentially unambiguous.
func separatedMixture(t *testing.T, seed int64, n int) (lifedata.Sample, []int) {
	t.Helper()
	spec := mustSpec(t, distribution.Weibull, false)
	components := []distribution.Coefficients{
		{Mu: math.Log(200), Sigma: 0.25},
		{Mu: math.Log(5000), Sigma: 0.25},
	}
	sample, labels, err := testkit.NewGenerator(seed).MixtureSample(spec, components, []float64{0.5, 0.5}, n, 6000)
	if err != nil {
		t.Fatalf("MixtureSample() error = %v", err)
	}
	return sample, labels
}

func TestEMSeparatesTwoModes(t *testing.T) {
	sample, labels := separatedMixture(t, 19, 120)
	spec := mustSpec(t, distribution.Weibull, false)
	sep := mustSeparator(t)

	result, err := sep.Separate(sample, spec, fit.StrategyEM, fit.DefaultMixtureParams())
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	if result.Components() != 2 {
		t.Fatalf("components = %d, want 2", result.Components())
	}
	if result.Status != fit.StatusConverged {
		t.Errorf("status = %v, want converged", result.Status)
	}

	// Components seed from the sorted sample, so group 0 may be either
	// generating mode; score both label mappings and keep the better one.
	assignment := result.Assignment()
	observations := sample.Observations()
	direct, swapped := 0, 0
	for i, obs := range observations {
		got := assignment[obs.ID]
		if got == labels[i] {
			direct++
		}
		if got == 1-labels[i] {
			swapped++
		}
	}
	accuracy := float64(direct) / float64(len(observations))
	if swappedAccuracy := float64(swapped) / float64(len(observations)); swappedAccuracy > accuracy {
		accuracy = swappedAccuracy
	}
	if accuracy < 0.9 {
		t.Errorf("cluster accuracy = %v, want >= 0.9", accuracy)
	}

	if len(result.Posterior) != sample.Size() {
		t.Fatalf("posterior rows = %d, want %d", len(result.Posterior), sample.Size())
	}
	for i, row := range result.Posterior {
		sum := 0.0
		for _, p := range row {
			if p < 0 || p > 1 {
				t.Fatalf("posterior[%d] entry %v outside [0,1]", i, p)
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Fatalf("posterior[%d] sums to %v", i, sum)
		}
	}

	shareSum := 0.0
	for _, group := range result.Subgroups {
		if math.Abs(group.Share-0.5) > 0.15 {
			t.Errorf("subgroup %d share = %v, want near 0.5", group.Index, group.Share)
		}
		shareSum += group.Share
	}
	if math.Abs(shareSum-1) > 1e-9 {
		t.Errorf("shares sum to %v", shareSum)
	}
}

func TestEMRecoversComponentScales(t *testing.T) {
	sample, _ := separatedMixture(t, 47, 160)
	spec := mustSpec(t, distribution.Weibull, false)

	result, err := mustSeparator(t).Separate(sample, spec, fit.StrategyEM, fit.DefaultMixtureParams())
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}

	etas := []float64{
		result.Subgroups[0].Fit.Parameters["eta"],
		result.Subgroups[1].Fit.Parameters["eta"],
	}
	if etas[0] > etas[1] {
		etas[0], etas[1] = etas[1], etas[0]
	}
	if etas[0] < 150 || etas[0] > 270 {
		t.Errorf("early mode eta = %v, want near 200", etas[0])
	}
	if etas[1] < 3800 || etas[1] > 6500 {
		t.Errorf("late mode eta = %v, want near 5000", etas[1])
	}
}

func TestEMTraceIsMonotoneAndBounded(t *testing.T) {
	sample, _ := separatedMixture(t, 61, 100)
	spec := mustSpec(t, distribution.Weibull, false)

	result, err := mustSeparator(t).Separate(sample, spec, fit.StrategyEM, fit.DefaultMixtureParams())
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	if len(result.Iterations) == 0 {
		t.Fatal("empty iteration trace")
	}
	if len(result.Iterations) > fit.DefaultEMMaxIterations {
		t.Fatalf("trace length %d exceeds budget", len(result.Iterations))
	}

	first := result.Iterations[0]
	last := result.Iterations[len(result.Iterations)-1]
	if last.LogLikelihood < first.LogLikelihood-1e-6 {
		t.Errorf("log-likelihood fell from %v to %v", first.LogLikelihood, last.LogLikelihood)
	}
	for i, iter := range result.Iterations {
		if iter.Index != i {
			t.Fatalf("iteration %d carries index %d", i, iter.Index)
		}
		mixSum := 0.0
		for _, m := range iter.Mixing {
			mixSum += m
		}
		if math.Abs(mixSum-1) > 1e-9 {
			t.Errorf("iteration %d mixing sums to %v", i, mixSum)
		}
	}
}

func TestEMHitsIterationCap(t *testing.T) {
	sample, _ := separatedMixture(t, 7, 80)
	spec := mustSpec(t, distribution.Weibull, false)

	params := fit.DefaultMixtureParams()
	params.MaxIterations = 2
	params.Tolerance = 1e-15

	result, err := mustSeparator(t).Separate(sample, spec, fit.StrategyEM, params)
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	if result.Status != fit.StatusPartialConvergence {
		t.Errorf("status = %v, want partial convergence", result.Status)
	}
	if len(result.Iterations) != 2 {
		t.Errorf("trace length = %d, want 2", len(result.Iterations))
	}
	if result.Components() != 2 {
		t.Errorf("components = %d, want 2", result.Components())
	}
}

func TestEMSeedingRequiresFailuresPerComponent(t *testing.T) {
	// The upper half of the sorted sample holds a single failure, so its
	// component seed cannot be fitted.
	sample, err := lifedata.NewSampleFromValues(
		[]float64{100, 120, 140, 160, 400, 420, 440, 460},
		[]bool{true, true, true, true, true, false, false, false},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}
	_, err = mustSeparator(t).Separate(sample, mustSpec(t, distribution.Weibull, false), fit.StrategyEM, fit.DefaultMixtureParams())
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient data error, got %v", err)
	}

	_, err = mustSeparator(t).Separate(sample, mustSpec(t, distribution.Weibull, false), fit.StrategyEM, fit.MixtureParams{
		Components:    9,
		MaxIterations: 10,
		Tolerance:     1e-6,
	})
	if !core.IsInsufficientDataError(err) {
		t.Fatalf("expected insufficient data for 9 components, got %v", err)
	}
}

func TestEMDeterministic(t *testing.T) {
	sample, _ := separatedMixture(t, 29, 90)
	spec := mustSpec(t, distribution.Weibull, false)
	sep := mustSeparator(t)

	first, err := sep.Separate(sample, spec, fit.StrategyEM, fit.DefaultMixtureParams())
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	second, err := sep.Separate(sample, spec, fit.StrategyEM, fit.DefaultMixtureParams())
	if err != nil {
		t.Fatalf("Separate() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different mixtures")
	}
}
