package distribution

import (
	"fmt"
	"math"

	"golifetime/domain/core"
)

// eulerMascheroni is the mean of the standard smallest extreme value
// distribution (negated Euler-Mascheroni constant).
const eulerMascheroni = 0.5772156649015329

// Coefficients are the internal location-scale parameters of a fitted model:
// location mu, scale sigma and, for three-parameter variants, the failure-free
// threshold gamma.
type Coefficients struct {
	Mu           float64 `json:"mu"`
	Sigma        float64 `json:"sigma"`
	Threshold    float64 `json:"threshold,omitempty"`
	HasThreshold bool    `json:"has_threshold,omitempty"`
}

// Validate rejects coefficient sets no fitting routine should ever produce.
func (c Coefficients) Validate() error {
	if math.IsNaN(c.Mu) || math.IsInf(c.Mu, 0) {
		return fmt.Errorf("%w: location must be finite, got %v", core.ErrInvalidInput, c.Mu)
	}
	if !(c.Sigma > 0) || math.IsInf(c.Sigma, 0) {
		return fmt.Errorf("%w: scale must be positive and finite, got %v", core.ErrInvalidInput, c.Sigma)
	}
	if c.HasThreshold && (math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0)) {
		return fmt.Errorf("%w: threshold must be finite, got %v", core.ErrInvalidInput, c.Threshold)
	}
	return nil
}

// Gamma returns the threshold, zero when the model carries none.
func (c Coefficients) Gamma() float64 {
	if c.HasThreshold {
		return c.Threshold
	}
	return 0
}

// ParameterNames lists the reporting names of a family's natural parameters in
// their conventional order. The Weibull reports scale eta and shape beta; all
// other families report mu and sigma directly.
func ParameterNames(s Spec) []string {
	var names []string
	if s.Family == Weibull {
		names = []string{"eta", "beta"}
	} else {
		names = []string{"mu", "sigma"}
	}
	if s.Threshold {
		names = append(names, "gamma")
	}
	return names
}

// Natural converts internal location-scale coefficients to the family's
// conventional parameterization.
func Natural(s Spec, c Coefficients) map[string]float64 {
	out := make(map[string]float64, 3)
	if s.Family == Weibull {
		out["eta"] = math.Exp(c.Mu)
		out["beta"] = 1 / c.Sigma
	} else {
		out["mu"] = c.Mu
		out["sigma"] = c.Sigma
	}
	if s.Threshold {
		out["gamma"] = c.Threshold
	}
	return out
}

// FromNatural converts conventional parameters back to internal coefficients.
// It is the inverse of Natural and exists so stored analyses can be rehydrated.
func FromNatural(s Spec, params map[string]float64) (Coefficients, error) {
	var c Coefficients
	if s.Family == Weibull {
		eta, okE := params["eta"]
		beta, okB := params["beta"]
		if !okE || !okB {
			return c, fmt.Errorf("%w: weibull parameters require eta and beta", core.ErrInvalidInput)
		}
		if !(eta > 0) || !(beta > 0) {
			return c, fmt.Errorf("%w: eta and beta must be positive", core.ErrInvalidInput)
		}
		c.Mu = math.Log(eta)
		c.Sigma = 1 / beta
	} else {
		mu, okM := params["mu"]
		sigma, okS := params["sigma"]
		if !okM || !okS {
			return c, fmt.Errorf("%w: parameters require mu and sigma", core.ErrInvalidInput)
		}
		c.Mu = mu
		c.Sigma = sigma
	}
	if s.Threshold {
		gamma, ok := params["gamma"]
		if !ok {
			return c, fmt.Errorf("%w: threshold model requires gamma", core.ErrInvalidInput)
		}
		c.Threshold = gamma
		c.HasThreshold = true
	}
	if err := c.Validate(); err != nil {
		return Coefficients{}, err
	}
	return c, nil
}

// MeanLife computes the expected lifetime of the fitted model. The
// loglogistic mean diverges for sigma >= 1 and reports NaN there.
func MeanLife(s Spec, c Coefficients) float64 {
	gamma := c.Gamma()
	switch s.Family {
	case Weibull:
		return math.Exp(c.Mu)*math.Gamma(1+c.Sigma) + gamma
	case Lognormal:
		return math.Exp(c.Mu+c.Sigma*c.Sigma/2) + gamma
	case Loglogistic:
		if c.Sigma >= 1 {
			return math.NaN()
		}
		return math.Exp(c.Mu)*math.Pi*c.Sigma/math.Sin(math.Pi*c.Sigma) + gamma
	case Normal, Logistic:
		return c.Mu
	case SEV:
		return c.Mu - eulerMascheroni*c.Sigma
	}
	return math.NaN()
}
