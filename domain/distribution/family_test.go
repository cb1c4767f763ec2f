package distribution

import (
	"errors"
	"testing"

	"golifetime/domain/core"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		family    Family
		threshold bool
	}{
		{"weibull", "weibull", Weibull, false},
		{"weibull threshold", "weibull3", Weibull, true},
		{"lognormal threshold", "lognormal3", Lognormal, true},
		{"loglogistic", "loglogistic", Loglogistic, false},
		{"sev", "sev", SEV, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := ParseSpec(tt.input)
			if err != nil {
				t.Fatalf("ParseSpec(%q) error = %v", tt.input, err)
			}
			if spec.Family != tt.family || spec.Threshold != tt.threshold {
				t.Fatalf("ParseSpec(%q) = %+v", tt.input, spec)
			}
		})
	}
}

func TestParseSpecRejectsInvalidNames(t *testing.T) {
	for _, name := range []string{"", "3", "gamma", "weibul3", "normal3", "logistic3", "sev3"} {
		if _, err := ParseSpec(name); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("ParseSpec(%q) error = %v, want invalid input", name, err)
		}
	}
}

func TestSpecStringRoundTrip(t *testing.T) {
	for _, family := range Families() {
		thresholds := []bool{false}
		if family.LogLocated() {
			thresholds = append(thresholds, true)
		}
		for _, threshold := range thresholds {
			spec, err := NewSpec(family, threshold)
			if err != nil {
				t.Fatalf("NewSpec(%s, %v) error = %v", family, threshold, err)
			}
			parsed, err := ParseSpec(spec.String())
			if err != nil {
				t.Fatalf("ParseSpec(%q) error = %v", spec.String(), err)
			}
			if parsed != spec {
				t.Fatalf("round trip %q: got %+v, want %+v", spec.String(), parsed, spec)
			}
		}
	}
}

func TestNewSpecRejectsThresholdOnDirectFamilies(t *testing.T) {
	for _, family := range []Family{Normal, Logistic, SEV} {
		if _, err := NewSpec(family, true); !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("NewSpec(%s, true) error = %v, want invalid input", family, err)
		}
	}
}

func TestParameterCount(t *testing.T) {
	if got := (Spec{Family: Weibull}).ParameterCount(); got != 2 {
		t.Errorf("two-parameter count = %d", got)
	}
	if got := (Spec{Family: Weibull, Threshold: true}).ParameterCount(); got != 3 {
		t.Errorf("three-parameter count = %d", got)
	}
}
