// Package summary computes descriptive statistics over lifetime samples for
// reporting alongside fitted models. Everything here is presentation support;
// no estimator consumes these numbers.
package summary

import (
	"github.com/montanaflynn/stats"

	"golifetime/domain/lifedata"
)

// SampleSummary describes a sample's lifetime values. Overall figures cover
// every observation; the failure block covers uncensored lifetimes only.
type SampleSummary struct {
	Count         int     `json:"count"`
	Failures      int     `json:"failures"`
	Censored      int     `json:"censored"`
	CensoredShare float64 `json:"censored_share"`

	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`

	FailureMean   float64 `json:"failure_mean"`
	FailureMedian float64 `json:"failure_median"`
}

// Computer produces sample summaries.
type Computer struct{}

// NewComputer creates a summary computer.
func NewComputer() *Computer {
	return &Computer{}
}

// Describe summarizes a validated sample. Sample construction guarantees a
// non-empty value set with at least one failure, so the underlying statistics
// cannot fail.
func (c *Computer) Describe(sample lifedata.Sample) SampleSummary {
	return c.DescribeObservations(sample.Observations())
}

// DescribeObservations summarizes a raw observation slice, such as a single
// mixture subgroup. Empty and all-censored groups yield zero-valued figures
// rather than errors.
func (c *Computer) DescribeObservations(observations []lifedata.Observation) SampleSummary {
	values := make([]float64, 0, len(observations))
	failures := make([]float64, 0, len(observations))
	for _, obs := range observations {
		values = append(values, obs.Characteristic)
		if obs.Failure {
			failures = append(failures, obs.Characteristic)
		}
	}

	out := SampleSummary{
		Count:    len(observations),
		Failures: len(failures),
		Censored: len(observations) - len(failures),
	}
	if out.Count > 0 {
		out.CensoredShare = float64(out.Censored) / float64(out.Count)
	}

	out.Mean, _ = stats.Mean(values)
	out.StdDev, _ = stats.StandardDeviation(values)
	out.Min, _ = stats.Min(values)
	out.Max, _ = stats.Max(values)
	out.Median, _ = stats.Median(values)
	out.Q25, _ = stats.Percentile(values, 25)
	out.Q75, _ = stats.Percentile(values, 75)
	out.FailureMean, _ = stats.Mean(failures)
	out.FailureMedian, _ = stats.Median(failures)

	return out
}
