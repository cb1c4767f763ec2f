package rank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"golifetime/domain/core"
	"golifetime/domain/lifedata"
)

// ConfidenceBounds computes beta-binomial bounds at the given two-sided level
// for every ranked failure. The bounds come from median-rank theory and exist
// only for rank-based estimates: requesting them for the Kaplan-Meier or
// Nelson-Aalen methods is an unsupported operation, reported as such rather
// than silently omitted.
func ConfidenceBounds(ranked lifedata.RankedSet, level float64) ([]lifedata.ProbabilityBound, error) {
	if !(level > 0 && level < 1) {
		return nil, fmt.Errorf("%w: confidence level must lie in (0, 1), got %v", core.ErrInvalidInput, level)
	}
	switch ranked.Method {
	case lifedata.MethodMedianRank, lifedata.MethodJohnson:
	case lifedata.MethodKaplanMeier, lifedata.MethodNelsonAalen:
		return nil, core.NewUnsupportedError("beta-binomial bounds",
			fmt.Sprintf("method %q assigns no adjusted ranks", ranked.Method))
	default:
		return nil, fmt.Errorf("%w: unknown rank method %q", core.ErrInvalidInput, ranked.Method)
	}

	alpha := (1 - level) / 2
	n := float64(ranked.N)
	var bounds []lifedata.ProbabilityBound
	for _, item := range ranked.Items {
		if !item.HasProbability() || math.IsNaN(item.AdjustedRank) {
			continue
		}
		beta := distuv.Beta{Alpha: item.AdjustedRank, Beta: n - item.AdjustedRank + 1}
		bounds = append(bounds, lifedata.ProbabilityBound{
			Characteristic: item.Characteristic,
			Rank:           item.AdjustedRank,
			Probability:    item.Probability,
			Lower:          beta.Quantile(alpha),
			Upper:          beta.Quantile(1 - alpha),
		})
	}
	if len(bounds) == 0 {
		return nil, fmt.Errorf("%w: no ranked failures to bound", core.ErrInsufficientData)
	}
	return bounds, nil
}
