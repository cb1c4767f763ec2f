package distribution

import (
	"math"
	"testing"
)

func TestStandardCDFKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		z      float64
		want   float64
	}{
		{"sev at location", SEV, 0, 1 - math.Exp(-1)},
		{"sev median", SEV, math.Log(math.Ln2), 0.5},
		{"normal at location", Normal, 0, 0.5},
		{"normal upper 97.5%", Normal, 1.959963984540054, 0.975},
		{"logistic at location", Logistic, 0, 0.5},
		{"logistic upper quartile", Logistic, math.Log(3), 0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.family.CDF(tt.z); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("CDF(%g) = %.12f, want %.12f", tt.z, got, tt.want)
			}
		})
	}
}

func TestLogFamiliesShareStandardForms(t *testing.T) {
	// Weibull is SEV on log(t), lognormal is normal on log(t), loglogistic is
	// logistic on log(t); the standard forms must be identical pairs.
	pairs := []struct {
		logged, direct Family
	}{
		{Weibull, SEV},
		{Lognormal, Normal},
		{Loglogistic, Logistic},
	}
	for _, pair := range pairs {
		for _, z := range []float64{-2.5, -0.5, 0, 0.7, 2} {
			if a, b := pair.logged.CDF(z), pair.direct.CDF(z); a != b {
				t.Fatalf("%s.CDF(%g) = %v, %s.CDF(%g) = %v", pair.logged, z, a, pair.direct, z, b)
			}
			if a, b := pair.logged.LogPDF(z), pair.direct.LogPDF(z); a != b {
				t.Fatalf("%s.LogPDF(%g) = %v, %s.LogPDF(%g) = %v", pair.logged, z, a, pair.direct, z, b)
			}
		}
	}
}

func TestQuantileInvertsCDF(t *testing.T) {
	probabilities := []float64{0.01, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99}
	for _, family := range Families() {
		for _, p := range probabilities {
			z := family.Quantile(p)
			if got := family.CDF(z); math.Abs(got-p) > 1e-9 {
				t.Fatalf("%s: CDF(Quantile(%g)) = %.12f", family, p, got)
			}
		}
	}
}

func TestLogSurvivalMatchesCDF(t *testing.T) {
	for _, family := range Families() {
		for _, z := range []float64{-3, -1, 0, 1, 3} {
			want := 1 - family.CDF(z)
			if got := math.Exp(family.LogSurvival(z)); math.Abs(got-want) > 1e-9 {
				t.Fatalf("%s: exp(LogSurvival(%g)) = %.12g, want %.12g", family, z, got, want)
			}
		}
	}
}

func TestNormalLogSurvivalDeepTail(t *testing.T) {
	// Far enough out that Survival underflows to 0 and the asymptotic branch
	// takes over; the result must stay finite and decreasing.
	prev := 0.0
	for _, z := range []float64{10, 20, 40} {
		got := Normal.LogSurvival(z)
		if math.IsInf(got, 0) || math.IsNaN(got) {
			t.Fatalf("LogSurvival(%g) = %v", z, got)
		}
		if got >= prev {
			t.Fatalf("LogSurvival(%g) = %g did not decrease from %g", z, got, prev)
		}
		prev = got
	}
}

func TestScoreTermsMatchNumericalDerivatives(t *testing.T) {
	const h = 1e-5
	for _, family := range Families() {
		for _, z := range []float64{-1.5, -0.2, 0.8} {
			wantPDF := (family.LogPDF(z+h) - family.LogPDF(z-h)) / (2 * h)
			if got := family.DLogPDF(z); math.Abs(got-wantPDF) > 1e-6 {
				t.Fatalf("%s: DLogPDF(%g) = %.10f, central difference %.10f", family, z, got, wantPDF)
			}
			wantSurv := (family.LogSurvival(z+h) - family.LogSurvival(z-h)) / (2 * h)
			if got := family.DLogSurvival(z); math.Abs(got-wantSurv) > 1e-6 {
				t.Fatalf("%s: DLogSurvival(%g) = %.10f, central difference %.10f", family, z, got, wantSurv)
			}
		}
	}
}

func TestTransformX(t *testing.T) {
	weibull := Spec{Family: Weibull}
	if got := weibull.TransformX(100, 0); math.Abs(got-math.Log(100)) > 1e-12 {
		t.Fatalf("TransformX(100, 0) = %v, want log(100)", got)
	}
	if got := weibull.TransformX(100, 40); math.Abs(got-math.Log(60)) > 1e-12 {
		t.Fatalf("TransformX(100, 40) = %v, want log(60)", got)
	}
	if got := weibull.TransformX(30, 40); !math.IsInf(got, -1) {
		t.Fatalf("TransformX below threshold = %v, want -Inf", got)
	}
	if got := weibull.InverseX(math.Log(60), 40); math.Abs(got-100) > 1e-9 {
		t.Fatalf("InverseX round trip = %v, want 100", got)
	}

	normal := Spec{Family: Normal}
	if got := normal.TransformX(5, 0); got != 5 {
		t.Fatalf("direct TransformX = %v, want identity", got)
	}
	if got := normal.InverseX(5, 0); got != 5 {
		t.Fatalf("direct InverseX = %v, want identity", got)
	}
}
