package distribution

import (
	"fmt"

	"golifetime/domain/core"
)

// Family identifies a (log-)location-scale lifetime distribution family.
type Family string

const (
	Weibull     Family = "weibull"
	Lognormal   Family = "lognormal"
	Loglogistic Family = "loglogistic"
	Normal      Family = "normal"
	Logistic    Family = "logistic"
	SEV         Family = "sev" // smallest extreme value (Gumbel for minima)
)

// Families lists every supported family in presentation order.
func Families() []Family {
	return []Family{Weibull, Lognormal, Loglogistic, Normal, Logistic, SEV}
}

// Valid reports whether the family is one of the closed set.
func (f Family) Valid() bool {
	switch f {
	case Weibull, Lognormal, Loglogistic, Normal, Logistic, SEV:
		return true
	}
	return false
}

// LogLocated reports whether the location-scale model applies to log(t)
// rather than t itself.
func (f Family) LogLocated() bool {
	switch f {
	case Weibull, Lognormal, Loglogistic:
		return true
	}
	return false
}

// Spec selects a family and whether a threshold (failure-free time γ) is
// estimated. A threshold is only identifiable for the log-located families:
// for direct-location families the shift is absorbed into μ, so requesting
// one there is invalid input.
type Spec struct {
	Family    Family `json:"family"`
	Threshold bool   `json:"threshold"`
}

// NewSpec validates and builds a distribution spec.
func NewSpec(family Family, threshold bool) (Spec, error) {
	if !family.Valid() {
		return Spec{}, fmt.Errorf("%w: unknown distribution family %q", core.ErrInvalidInput, family)
	}
	if threshold && !family.LogLocated() {
		return Spec{}, fmt.Errorf("%w: threshold parameter is not identifiable for family %q", core.ErrInvalidInput, family)
	}
	return Spec{Family: family, Threshold: threshold}, nil
}

// Validate re-checks a spec that arrived as a plain value instead of through
// NewSpec.
func (s Spec) Validate() error {
	_, err := NewSpec(s.Family, s.Threshold)
	return err
}

// ParseSpec resolves names like "weibull" or "weibull3" (threshold variant).
func ParseSpec(name string) (Spec, error) {
	family := Family(name)
	threshold := false
	if n := len(name); n > 1 && name[n-1] == '3' {
		family = Family(name[:n-1])
		threshold = true
	}
	return NewSpec(family, threshold)
}

// ParameterCount returns 2, or 3 when a threshold is estimated.
func (s Spec) ParameterCount() int {
	if s.Threshold {
		return 3
	}
	return 2
}

// String renders the conventional short name ("weibull", "lognormal3", ...).
func (s Spec) String() string {
	if s.Threshold {
		return string(s.Family) + "3"
	}
	return string(s.Family)
}
