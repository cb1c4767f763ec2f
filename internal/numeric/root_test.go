package numeric

import (
	"errors"
	"math"
	"testing"

	"golifetime/domain/core"
)

func TestRootFindsKnownZeros(t *testing.T) {
	tests := []struct {
		name string
		f    func(float64) float64
		a, b float64
		want float64
	}{
		{"cosine", math.Cos, 0, 2, math.Pi / 2},
		{"cubic", func(x float64) float64 { return x*x*x - 2*x - 5 }, 1, 3, 2.0945514815423265},
		{"offset exponential", func(x float64) float64 { return math.Exp(x) - 2 }, -1, 3, math.Ln2},
		{"linear", func(x float64) float64 { return 3*x - 9 }, -10, 10, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Root(tt.f, tt.a, tt.b, DefaultTolerance, DefaultMaxIters)
			if err != nil {
				t.Fatalf("Root() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-8 {
				t.Fatalf("Root() = %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

func TestRootRequiresSignChange(t *testing.T) {
	f := func(x float64) float64 { return x*x + 1 }
	_, err := Root(f, -5, 5, DefaultTolerance, DefaultMaxIters)
	if !errors.Is(err, core.ErrNoBracket) {
		t.Fatalf("expected bracket error, got %v", err)
	}
	if !core.IsConvergenceError(err) {
		t.Fatalf("bracket error should be a convergence error, got %v", err)
	}
}

func TestBracketRootExpandsToSignChange(t *testing.T) {
	// Zero at x = 40, far outside the initial interval.
	f := func(x float64) float64 { return x - 40 }
	a, b, err := BracketRoot(f, 0, 1, DefaultGrowFactor, DefaultMaxExpand)
	if err != nil {
		t.Fatalf("BracketRoot() error = %v", err)
	}
	if (f(a) < 0) == (f(b) < 0) {
		t.Fatalf("interval [%g, %g] does not bracket the root", a, b)
	}
	root, err := Root(f, a, b, DefaultTolerance, DefaultMaxIters)
	if err != nil {
		t.Fatalf("Root() after bracketing error = %v", err)
	}
	if math.Abs(root-40) > 1e-8 {
		t.Fatalf("root = %g, want 40", root)
	}
}

func TestBracketRootGivesUpOnSignlessObjective(t *testing.T) {
	f := func(x float64) float64 { return math.Exp(-x * x) }
	_, _, err := BracketRoot(f, -1, 1, DefaultGrowFactor, 20)
	if !errors.Is(err, core.ErrNoBracket) {
		t.Fatalf("expected bracket error, got %v", err)
	}
}

func TestMaximizeGolden(t *testing.T) {
	tests := []struct {
		name  string
		f     func(float64) float64
		a, b  float64
		wantX float64
	}{
		{"parabola", func(x float64) float64 { return -(x - 2) * (x - 2) }, -10, 10, 2},
		{"sine arch", math.Sin, 0, math.Pi, math.Pi / 2},
		{"log concave", func(x float64) float64 { return math.Log(x) - x }, 0.1, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, fx := MaximizeGolden(tt.f, tt.a, tt.b, 1e-10, DefaultMaxIters)
			if math.Abs(x-tt.wantX) > 1e-6 {
				t.Fatalf("MaximizeGolden() x = %.10f, want %.10f", x, tt.wantX)
			}
			if fx < tt.f(tt.wantX)-1e-9 {
				t.Fatalf("maximum value %.12f below objective at true optimum %.12f", fx, tt.f(tt.wantX))
			}
		})
	}
}
