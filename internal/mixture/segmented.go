package mixture

import (
	"math"

	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
)

// segmented searches for the breakpoint that best splits the probability plot
// into two independently regressed segments. All candidates are scored on the
// same global Johnson plotting positions, so the search compares segments of
// one plot rather than re-ranking each side. The candidate minimizing the
// total sum of squared residuals wins; ties keep the lowest breakpoint. When
// no candidate leaves enough failures on both sides, the sample is returned
// as a single group.
func (s Separator) segmented(sample lifedata.Sample, spec distribution.Spec, params fit.MixtureParams) (fit.MixtureResult, error) {
	ranked, err := s.ranker.Estimate(sample, lifedata.MethodJohnson)
	if err != nil {
		return fit.MixtureResult{}, err
	}

	failureAt := make([]int, 0, ranked.N)
	for i, item := range ranked.Items {
		if item.HasProbability() {
			failureAt = append(failureAt, i)
		}
	}

	bestScore := math.Inf(1)
	bestSplit := -1
	for split := params.MinSegment; split <= len(failureAt)-params.MinSegment; split++ {
		score, feasible := s.scoreSplit(ranked, failureAt, split, spec.Family)
		if feasible && score < bestScore {
			bestScore = score
			bestSplit = split
		}
	}
	if bestSplit < 0 {
		return s.singleGroup(ranked, spec)
	}

	left, right := partition(ranked, failureAt, bestSplit)
	subgroups := make([]fit.Subgroup, 0, 2)
	for index, side := range [][]lifedata.RankedObservation{left, right} {
		sideRanked := lifedata.RankedSet{Method: ranked.Method, N: len(side), Items: side}
		sideFit, err := s.regression.Fit(sideRanked, spec)
		if err != nil {
			return fit.MixtureResult{}, err
		}
		subgroups = append(subgroups, fit.Subgroup{
			Index:        index,
			Observations: stripRanks(side),
			Share:        float64(len(side)) / float64(ranked.N),
			Fit:          sideFit,
		})
	}

	return fit.MixtureResult{
		Strategy:  fit.StrategySegmented,
		Subgroups: subgroups,
		Status:    fit.StatusConverged,
	}, nil
}

// scoreSplit regresses both sides of a candidate breakpoint with plain
// two-parameter lines and returns the combined residual error. Candidates
// where either side is singular or too sparse are infeasible, not errors.
func (s Separator) scoreSplit(ranked lifedata.RankedSet, failureAt []int, split int, family distribution.Family) (float64, bool) {
	base := distribution.Spec{Family: family}
	total := 0.0
	for _, bounds := range [][2]int{{0, split}, {split, len(failureAt)}} {
		chars := make([]float64, 0, bounds[1]-bounds[0])
		probs := make([]float64, 0, bounds[1]-bounds[0])
		for _, at := range failureAt[bounds[0]:bounds[1]] {
			chars = append(chars, ranked.Items[at].Characteristic)
			probs = append(probs, ranked.Items[at].Probability)
		}
		line, err := s.regression.FitLine(chars, probs, base, 0)
		if err != nil {
			return 0, false
		}
		total += line.SSR
	}
	return total, true
}

// partition assigns every observation to one side of the chosen breakpoint.
// Failures follow their position in the failure sequence; censored units fall
// on the side of the midpoint between the two failures bordering the split.
func partition(ranked lifedata.RankedSet, failureAt []int, split int) (left, right []lifedata.RankedObservation) {
	lastLeft := ranked.Items[failureAt[split-1]].Characteristic
	firstRight := ranked.Items[failureAt[split]].Characteristic
	boundary := (lastLeft + firstRight) / 2

	failuresSeen := 0
	for _, item := range ranked.Items {
		toLeft := false
		if item.HasProbability() {
			toLeft = failuresSeen < split
			failuresSeen++
		} else {
			toLeft = item.Characteristic <= boundary
		}
		if toLeft {
			left = append(left, item)
		} else {
			right = append(right, item)
		}
	}
	return left, right
}

// singleGroup reports the no-mixture outcome: one subgroup holding the whole
// sample with its ordinary rank-regression fit.
func (s Separator) singleGroup(ranked lifedata.RankedSet, spec distribution.Spec) (fit.MixtureResult, error) {
	whole, err := s.regression.Fit(ranked, spec)
	if err != nil {
		return fit.MixtureResult{}, err
	}
	return fit.MixtureResult{
		Strategy: fit.StrategySegmented,
		Subgroups: []fit.Subgroup{{
			Index:        0,
			Observations: stripRanks(ranked.Items),
			Share:        1,
			Fit:          whole,
		}},
		Status: fit.StatusConverged,
	}, nil
}

func stripRanks(items []lifedata.RankedObservation) []lifedata.Observation {
	out := make([]lifedata.Observation, len(items))
	for i, item := range items {
		out[i] = item.Observation
	}
	return out
}
