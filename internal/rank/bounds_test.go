package rank

import (
	"testing"

	"golifetime/domain/core"
	"golifetime/domain/lifedata"
)

func TestConfidenceBoundsBracketEstimates(t *testing.T) {
	chars := []float64{10000, 20000, 30000, 40000, 50000, 60000, 70000, 80000, 90000, 100000}
	events := []bool{false, true, true, false, false, false, true, false, true, false}
	sample := mustSample(t, chars, events)

	e := mustEstimator(t, Options{})
	ranked, err := e.Estimate(sample, lifedata.MethodJohnson)
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	bounds, err := ConfidenceBounds(ranked, 0.9)
	if err != nil {
		t.Fatalf("ConfidenceBounds() error = %v", err)
	}
	if len(bounds) != 4 {
		t.Fatalf("got %d bounds, want 4", len(bounds))
	}
	for _, b := range bounds {
		if !(b.Lower < b.Probability && b.Probability < b.Upper) {
			t.Errorf("bounds [%v, %v] do not bracket %v at t=%v", b.Lower, b.Upper, b.Probability, b.Characteristic)
		}
		if b.Lower <= 0 || b.Upper >= 1 {
			t.Errorf("bounds [%v, %v] outside (0,1) at t=%v", b.Lower, b.Upper, b.Characteristic)
		}
	}
}

func TestConfidenceBoundsWidenWithLevel(t *testing.T) {
	sample := completeSample(t, 10)
	e := mustEstimator(t, Options{})
	ranked, _ := e.Estimate(sample, lifedata.MethodMedianRank)

	narrow, err := ConfidenceBounds(ranked, 0.8)
	if err != nil {
		t.Fatalf("ConfidenceBounds(0.8) error = %v", err)
	}
	wide, err := ConfidenceBounds(ranked, 0.99)
	if err != nil {
		t.Fatalf("ConfidenceBounds(0.99) error = %v", err)
	}
	for i := range narrow {
		if !(wide[i].Upper-wide[i].Lower > narrow[i].Upper-narrow[i].Lower) {
			t.Errorf("interval %d did not widen: %v vs %v", i, wide[i], narrow[i])
		}
	}
}

func TestConfidenceBoundsUnsupportedMethods(t *testing.T) {
	sample := completeSample(t, 5)
	e := mustEstimator(t, Options{})

	for _, method := range []lifedata.RankMethod{lifedata.MethodKaplanMeier, lifedata.MethodNelsonAalen} {
		ranked, err := e.Estimate(sample, method)
		if err != nil {
			t.Fatalf("%s Estimate() error = %v", method, err)
		}
		_, err = ConfidenceBounds(ranked, 0.9)
		if !core.IsUnsupportedOperationError(err) {
			t.Errorf("%s: expected unsupported operation, got %v", method, err)
		}
	}
}

func TestConfidenceBoundsRejectsBadLevel(t *testing.T) {
	sample := completeSample(t, 5)
	e := mustEstimator(t, Options{})
	ranked, _ := e.Estimate(sample, lifedata.MethodMedianRank)

	for _, level := range []float64{0, 1, -0.2, 1.7} {
		if _, err := ConfidenceBounds(ranked, level); !core.IsInvalidInputError(err) {
			t.Errorf("level %v: expected invalid input, got %v", level, err)
		}
	}
}
