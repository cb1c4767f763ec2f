package profile

import (
	"errors"
	"math"
	"testing"

	"golifetime/domain/core"
)

func TestMaximizeFindsInteriorOptimum(t *testing.T) {
	// Concave objective peaking at gamma = 4, data minimum at 10.
	obj := func(g float64) float64 { return -(g - 4) * (g - 4) }
	curve, best, err := NewSearch().Maximize("gamma", obj, 10, 20)
	if err != nil {
		t.Fatalf("Maximize() error = %v", err)
	}
	if math.Abs(curve.Optimum-4) > 1e-4 {
		t.Fatalf("optimum = %g, want 4", curve.Optimum)
	}
	if best < -1e-6 {
		t.Fatalf("objective at optimum = %g, want about 0", best)
	}
	if len(curve.Points) == 0 {
		t.Fatal("profile curve has no points")
	}
	for i := 1; i < len(curve.Points); i++ {
		if curve.Points[i].Value <= curve.Points[i-1].Value {
			t.Fatalf("curve not ascending at %d", i)
		}
	}
}

func TestMaximizeExpandsWindowDownward(t *testing.T) {
	// Peak far below the initial window: minT=100, span=10 puts the first
	// window at [90, 100); the peak at -50 needs several doublings.
	obj := func(g float64) float64 { return -(g + 50) * (g + 50) }
	curve, _, err := NewSearch().Maximize("gamma", obj, 100, 10)
	if err != nil {
		t.Fatalf("Maximize() error = %v", err)
	}
	if math.Abs(curve.Optimum+50) > 1e-3 {
		t.Fatalf("optimum = %g, want -50", curve.Optimum)
	}
}

func TestMaximizeReportsEdgeFailure(t *testing.T) {
	// Strictly decreasing objective: the maximum always sits on the lower
	// edge no matter how far the window grows.
	obj := func(g float64) float64 { return -g }
	_, _, err := NewSearch().Maximize("gamma", obj, 10, 5)
	if !errors.Is(err, core.ErrProfileEdge) {
		t.Fatalf("expected profile edge error, got %v", err)
	}
	if !core.IsConvergenceError(err) {
		t.Fatalf("edge failure should be a convergence error, got %v", err)
	}
}

func TestMaximizeRejectsInfeasibleObjective(t *testing.T) {
	obj := func(g float64) float64 { return math.NaN() }
	_, _, err := NewSearch().Maximize("gamma", obj, 10, 5)
	if !core.IsConvergenceError(err) {
		t.Fatalf("expected convergence error, got %v", err)
	}
}

func TestMaximizeToleratesPartiallyFeasibleGrid(t *testing.T) {
	// Feasible only above zero, peak at 6.
	obj := func(g float64) float64 {
		if g < 0 {
			return math.NaN()
		}
		return -(g - 6) * (g - 6)
	}
	curve, _, err := NewSearch().Maximize("gamma", obj, 10, 40)
	if err != nil {
		t.Fatalf("Maximize() error = %v", err)
	}
	if math.Abs(curve.Optimum-6) > 1e-3 {
		t.Fatalf("optimum = %g, want 6", curve.Optimum)
	}
	for _, p := range curve.Points {
		if math.IsNaN(p.Objective) {
			t.Fatalf("NaN objective leaked into curve at %g", p.Value)
		}
	}
}
