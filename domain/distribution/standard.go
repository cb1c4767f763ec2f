package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Standardized distribution functions. Every family is expressed as
// P(T <= t) = F((x - mu)/sigma) with x = log(t) for the log-located families
// and x = t otherwise; the functions below are the standard (mu=0, sigma=1)
// forms F, F^-1, log f plus the derivative terms the likelihood score
// equations need.

var gumbel = distuv.GumbelRight{Mu: 0, Beta: 1}

// standardFns bundles the standard-form functions of one underlying
// location-scale distribution (SEV, normal or logistic).
type standardFns struct {
	cdf          func(z float64) float64
	quantile     func(p float64) float64
	logPDF       func(z float64) float64
	dLogPDF      func(z float64) float64
	logSurvival  func(z float64) float64
	dLogSurvival func(z float64) float64
}

// The smallest extreme value distribution is the mirror image of the Gumbel
// (largest extreme value) distribution: Z ~ SEV <=> -Z ~ Gumbel.
var sevFns = standardFns{
	cdf:      func(z float64) float64 { return 1 - gumbel.CDF(-z) },
	quantile: func(p float64) float64 { return -gumbel.Quantile(1 - p) },
	logPDF:   func(z float64) float64 { return gumbel.LogProb(-z) },
	dLogPDF:  func(z float64) float64 { return 1 - math.Exp(z) },
	// 1 - F(z) = exp(-exp(z))
	logSurvival:  func(z float64) float64 { return -math.Exp(z) },
	dLogSurvival: func(z float64) float64 { return -math.Exp(z) },
}

var normalFns = standardFns{
	cdf:      distuv.UnitNormal.CDF,
	quantile: distuv.UnitNormal.Quantile,
	logPDF:   distuv.UnitNormal.LogProb,
	dLogPDF:  func(z float64) float64 { return -z },
	logSurvival: func(z float64) float64 {
		s := distuv.UnitNormal.Survival(z)
		if s > 0 {
			return math.Log(s)
		}
		// Deep upper tail: log(1-Phi(z)) ~ log(phi(z)/z)
		return distuv.UnitNormal.LogProb(z) - math.Log(z)
	},
	dLogSurvival: func(z float64) float64 {
		s := distuv.UnitNormal.Survival(z)
		if s > 0 {
			return -math.Exp(distuv.UnitNormal.LogProb(z)) / s
		}
		// Mills ratio asymptote for the deep upper tail
		return -(z + 1/z)
	},
}

var logisticFns = standardFns{
	cdf: logisticCDF,
	quantile: func(p float64) float64 {
		return math.Log(p / (1 - p))
	},
	logPDF: func(z float64) float64 {
		// Symmetric form avoids overflow for |z| large:
		// log f(z) = -|z| - 2 log(1 + exp(-|z|))
		a := math.Abs(z)
		return -a - 2*math.Log1p(math.Exp(-a))
	},
	dLogPDF: func(z float64) float64 { return 1 - 2*logisticCDF(z) },
	logSurvival: func(z float64) float64 {
		if z > 0 {
			return -z - math.Log1p(math.Exp(-z))
		}
		return -math.Log1p(math.Exp(z))
	},
	dLogSurvival: func(z float64) float64 { return -logisticCDF(z) },
}

func logisticCDF(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// standardFor maps a family to the standard distribution of its transformed
// scale. Weibull data is SEV-distributed on log(t), lognormal is normal on
// log(t), loglogistic is logistic on log(t); the direct families map to
// themselves.
func standardFor(f Family) standardFns {
	switch f {
	case Weibull, SEV:
		return sevFns
	case Lognormal, Normal:
		return normalFns
	case Loglogistic, Logistic:
		return logisticFns
	}
	// Family validity is enforced at Spec construction.
	panic("distribution: unknown family " + string(f))
}

// CDF evaluates the family's standard cumulative distribution at z.
func (f Family) CDF(z float64) float64 { return standardFor(f).cdf(z) }

// Quantile evaluates the standard quantile (inverse CDF) at p in (0,1).
func (f Family) Quantile(p float64) float64 { return standardFor(f).quantile(p) }

// LogPDF evaluates the standard log-density at z.
func (f Family) LogPDF(z float64) float64 { return standardFor(f).logPDF(z) }

// DLogPDF is d/dz log f(z), the failure term of the likelihood score.
func (f Family) DLogPDF(z float64) float64 { return standardFor(f).dLogPDF(z) }

// LogSurvival evaluates log(1 - F(z)), the censored log-likelihood term.
func (f Family) LogSurvival(z float64) float64 { return standardFor(f).logSurvival(z) }

// DLogSurvival is d/dz log(1 - F(z)) = -f(z)/(1-F(z)), the censored score term.
func (f Family) DLogSurvival(z float64) float64 { return standardFor(f).dLogSurvival(z) }

// TransformX maps a characteristic onto the location-scale axis: log(t -
// gamma) for log-located families, t itself otherwise. Values at or below the
// threshold are outside the support and map to -Inf.
func (s Spec) TransformX(t, gamma float64) float64 {
	if s.Family.LogLocated() {
		shifted := t - gamma
		if shifted <= 0 {
			return math.Inf(-1)
		}
		return math.Log(shifted)
	}
	return t
}

// InverseX maps a location-scale value back to the characteristic axis.
func (s Spec) InverseX(x, gamma float64) float64 {
	if s.Family.LogLocated() {
		return math.Exp(x) + gamma
	}
	return x
}
