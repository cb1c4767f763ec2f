package summary

import (
	"math"
	"testing"

	"golifetime/domain/lifedata"
)

func TestDescribeCompleteSample(t *testing.T) {
	sample, err := lifedata.NewSampleFromValues(
		[]float64{10, 20, 30, 40, 50},
		[]bool{true, true, true, true, true},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}

	got := NewComputer().Describe(sample)
	if got.Count != 5 || got.Failures != 5 || got.Censored != 0 {
		t.Fatalf("counts = %d/%d/%d", got.Count, got.Failures, got.Censored)
	}
	if got.CensoredShare != 0 {
		t.Errorf("censored share = %v", got.CensoredShare)
	}
	if got.Mean != 30 {
		t.Errorf("mean = %v, want 30", got.Mean)
	}
	if math.Abs(got.StdDev-math.Sqrt(200)) > 1e-9 {
		t.Errorf("std dev = %v, want %v", got.StdDev, math.Sqrt(200))
	}
	if got.Min != 10 || got.Max != 50 {
		t.Errorf("range = [%v, %v]", got.Min, got.Max)
	}
	if got.Median != 30 {
		t.Errorf("median = %v, want 30", got.Median)
	}
	if !(got.Q25 >= 10 && got.Q25 < got.Median && got.Q75 > got.Median && got.Q75 <= 50) {
		t.Errorf("quartiles (%v, %v) do not bracket the median", got.Q25, got.Q75)
	}
	if got.FailureMean != got.Mean || got.FailureMedian != got.Median {
		t.Errorf("failure stats diverge on a complete sample: %v/%v", got.FailureMean, got.FailureMedian)
	}
}

func TestDescribeSeparatesFailureStats(t *testing.T) {
	// Censored units survive past every failure, so they lift the overall
	// mean but leave the failure-only block untouched.
	sample, err := lifedata.NewSampleFromValues(
		[]float64{100, 200, 300, 1000, 1000},
		[]bool{true, true, true, false, false},
	)
	if err != nil {
		t.Fatalf("NewSampleFromValues() error = %v", err)
	}

	got := NewComputer().Describe(sample)
	if got.Failures != 3 || got.Censored != 2 {
		t.Fatalf("counts = %d failures, %d censored", got.Failures, got.Censored)
	}
	if math.Abs(got.CensoredShare-0.4) > 1e-12 {
		t.Errorf("censored share = %v, want 0.4", got.CensoredShare)
	}
	if got.FailureMean != 200 {
		t.Errorf("failure mean = %v, want 200", got.FailureMean)
	}
	if got.FailureMedian != 200 {
		t.Errorf("failure median = %v, want 200", got.FailureMedian)
	}
	if got.Mean <= got.FailureMean {
		t.Errorf("overall mean %v should exceed failure mean %v", got.Mean, got.FailureMean)
	}
	if got.Max != 1000 {
		t.Errorf("max = %v, want 1000", got.Max)
	}
}

func TestDescribeObservationsSubgroup(t *testing.T) {
	group := []lifedata.Observation{
		lifedata.NewObservation(120, true),
		lifedata.NewObservation(80, true),
		lifedata.NewObservation(200, false),
	}

	got := NewComputer().DescribeObservations(group)
	if got.Count != 3 || got.Failures != 2 || got.Censored != 1 {
		t.Fatalf("counts = %d/%d/%d", got.Count, got.Failures, got.Censored)
	}
	if got.FailureMean != 100 {
		t.Errorf("failure mean = %v, want 100", got.FailureMean)
	}
	if got.Min != 80 || got.Max != 200 {
		t.Errorf("range = [%v, %v]", got.Min, got.Max)
	}
}

func TestDescribeObservationsDegenerateGroups(t *testing.T) {
	// Mixture assignment can hand a component nothing, or only survivors.
	// Both must come back as zero-valued summaries, not NaN.
	empty := NewComputer().DescribeObservations(nil)
	if empty.Count != 0 || empty.CensoredShare != 0 {
		t.Errorf("empty group: count = %d, share = %v", empty.Count, empty.CensoredShare)
	}
	if empty.Mean != 0 || empty.Median != 0 {
		t.Errorf("empty group stats = %v/%v, want zeros", empty.Mean, empty.Median)
	}

	censored := NewComputer().DescribeObservations([]lifedata.Observation{
		lifedata.NewObservation(500, false),
		lifedata.NewObservation(700, false),
	})
	if censored.CensoredShare != 1 {
		t.Errorf("censored share = %v, want 1", censored.CensoredShare)
	}
	if censored.Mean != 600 {
		t.Errorf("mean = %v, want 600", censored.Mean)
	}
	if censored.FailureMean != 0 || censored.FailureMedian != 0 {
		t.Errorf("failure stats = %v/%v, want zeros", censored.FailureMean, censored.FailureMedian)
	}
}
