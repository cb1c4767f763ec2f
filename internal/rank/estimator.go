// Package rank computes non-parametric failure-probability estimates
// (plotting positions) from censored lifetime samples. Four estimators are
// provided: median ranks for complete data, the Johnson rank adjustment,
// Kaplan-Meier and Nelson-Aalen. Observations sharing a characteristic are
// treated as one block with a shared at-risk count.
package rank

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"golifetime/domain/core"
	"golifetime/domain/lifedata"
)

// Variant selects how median ranks become probabilities.
type Variant string

const (
	// VariantBenard approximates the median rank with (r - 0.3)/(n + 0.4).
	VariantBenard Variant = "benard"
	// VariantExact inverts the Beta(r, n-r+1) CDF at 0.5.
	VariantExact Variant = "invbeta"
)

// TieMode selects the rank assigned inside a tie block of the median-rank
// estimator. The other estimators handle ties through shared at-risk counts
// and ignore this setting.
type TieMode string

const (
	TiesMax     TieMode = "max"
	TiesAverage TieMode = "average"
)

// Options tunes the median-rank estimator. The zero value selects Benard
// probabilities with max tie ranks.
type Options struct {
	Variant Variant
	Ties    TieMode
}

func (o Options) normalized() Options {
	if o.Variant == "" {
		o.Variant = VariantBenard
	}
	if o.Ties == "" {
		o.Ties = TiesMax
	}
	return o
}

func (o Options) validate() error {
	if o.Variant != VariantBenard && o.Variant != VariantExact {
		return fmt.Errorf("%w: unknown median rank variant %q", core.ErrInvalidInput, o.Variant)
	}
	if o.Ties != TiesMax && o.Ties != TiesAverage {
		return fmt.Errorf("%w: unknown tie mode %q", core.ErrInvalidInput, o.Ties)
	}
	return nil
}

// Estimator computes plotting positions for a sample.
type Estimator struct {
	opts Options
}

// NewEstimator creates an estimator; zero Options give the defaults.
func NewEstimator(opts Options) (Estimator, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return Estimator{}, err
	}
	return Estimator{opts: opts}, nil
}

// Estimate runs the chosen method over the sample and returns the ranked
// observations in ascending characteristic order.
func (e Estimator) Estimate(sample lifedata.Sample, method lifedata.RankMethod) (lifedata.RankedSet, error) {
	if !method.Valid() {
		return lifedata.RankedSet{}, fmt.Errorf("%w: unknown rank method %q", core.ErrInvalidInput, method)
	}

	sorted := sample.SortedByCharacteristic()
	items := make([]lifedata.RankedObservation, len(sorted))
	for i, obs := range sorted {
		items[i] = lifedata.RankedObservation{
			Observation:  obs,
			AdjustedRank: math.NaN(),
			Probability:  math.NaN(),
		}
	}

	var err error
	switch method {
	case lifedata.MethodMedianRank:
		err = e.medianRanks(items)
	case lifedata.MethodJohnson:
		e.johnson(items)
	case lifedata.MethodKaplanMeier:
		e.kaplanMeier(items)
	case lifedata.MethodNelsonAalen:
		e.nelsonAalen(items)
	}
	if err != nil {
		return lifedata.RankedSet{}, err
	}

	return lifedata.RankedSet{Method: method, N: len(items), Items: items}, nil
}

// tieBlock is a run of observations sharing one characteristic value.
type tieBlock struct {
	start, end int // half-open [start, end) into the sorted slice
	failures   int
}

func tieBlocks(items []lifedata.RankedObservation) []tieBlock {
	var blocks []tieBlock
	for start := 0; start < len(items); {
		end := start + 1
		for end < len(items) && items[end].Characteristic == items[start].Characteristic {
			end++
		}
		b := tieBlock{start: start, end: end}
		for i := start; i < end; i++ {
			if items[i].Failure {
				b.failures++
			}
		}
		blocks = append(blocks, b)
		start = end
	}
	return blocks
}

// benard is the median rank approximation for rank r of n.
func benard(r float64, n int) float64 {
	return (r - 0.3) / (float64(n) + 0.4)
}

// exactMedianRank inverts the Beta(r, n-r+1) distribution at 0.5.
func exactMedianRank(r float64, n int) float64 {
	beta := distuv.Beta{Alpha: r, Beta: float64(n) - r + 1}
	return beta.Quantile(0.5)
}

func (e Estimator) probability(rank float64, n int) float64 {
	if e.opts.Variant == VariantExact {
		return exactMedianRank(rank, n)
	}
	return benard(rank, n)
}

// medianRanks assigns position-based ranks. The method is defined for
// complete samples only.
func (e Estimator) medianRanks(items []lifedata.RankedObservation) error {
	n := len(items)
	for _, item := range items {
		if item.Censored() {
			return core.ErrCensoredInput
		}
	}
	for _, b := range tieBlocks(items) {
		rank := float64(b.end) // max position of the block, 1-based
		if e.opts.Ties == TiesAverage {
			rank = (float64(b.start+1) + float64(b.end)) / 2
		}
		for i := b.start; i < b.end; i++ {
			items[i].AdjustedRank = rank
			items[i].Probability = e.probability(rank, n)
		}
	}
	return nil
}

// johnson computes censoring-adjusted ranks. Each failure advances the
// previous adjusted rank by ((n+1) - j_prev) / (1 + survivors), where
// survivors counts the observations not strictly smaller than the current
// one. Censored rows consume a position but get no rank.
func (e Estimator) johnson(items []lifedata.RankedObservation) {
	n := len(items)
	prev := 0.0
	for _, b := range tieBlocks(items) {
		// Observations inside a tie block share the strictly-smaller count.
		smaller := b.start
		for i := b.start; i < b.end; i++ {
			if items[i].Censored() {
				continue
			}
			increment := (float64(n+1) - prev) / (1 + float64(n-smaller))
			prev += increment
			items[i].AdjustedRank = prev
			items[i].Probability = e.probability(prev, n)
		}
	}
}

// kaplanMeier estimates probabilities by the product-limit method. For
// complete samples the NIST-modified form is used, which reduces to the
// Benard median ranks; with censoring present the classic estimator applies.
// All failures of a tie block report the post-block probability.
func (e Estimator) kaplanMeier(items []lifedata.RankedObservation) {
	n := len(items)
	complete := true
	for _, item := range items {
		if item.Censored() {
			complete = false
			break
		}
	}

	survival := 1.0
	for _, b := range tieBlocks(items) {
		if b.failures == 0 {
			continue
		}
		atRisk := float64(n - b.start)
		if complete {
			for k := 0; k < b.failures; k++ {
				survival *= (atRisk - 0.3) / (atRisk + 0.7)
			}
		} else {
			survival *= (atRisk - float64(b.failures)) / atRisk
		}
		p := 1 - survival
		if complete {
			p = 1 - survival*(float64(n)+0.7)/(float64(n)+0.4)
		}
		for i := b.start; i < b.end; i++ {
			if items[i].Failure {
				items[i].Probability = p
			}
		}
	}
}

// nelsonAalen accumulates the hazard d/r per tie block and converts it to a
// probability through F = 1 - exp(-H).
func (e Estimator) nelsonAalen(items []lifedata.RankedObservation) {
	n := len(items)
	hazard := 0.0
	for _, b := range tieBlocks(items) {
		if b.failures == 0 {
			continue
		}
		atRisk := float64(n - b.start)
		hazard += float64(b.failures) / atRisk
		p := 1 - math.Exp(-hazard)
		for i := b.start; i < b.end; i++ {
			if items[i].Failure {
				items[i].Probability = p
			}
		}
	}
}
