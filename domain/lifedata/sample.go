package lifedata

import (
	"fmt"
	"sort"

	"golifetime/domain/core"
)

// Sample is a validated collection of lifetime observations. Construction
// enforces the two invariants every estimator relies on: characteristics are
// strictly positive and at least one observation is a failure.
type Sample struct {
	observations []Observation
}

// NewSample validates and wraps a set of observations.
func NewSample(observations []Observation) (Sample, error) {
	if len(observations) == 0 {
		return Sample{}, fmt.Errorf("%w: empty sample", core.ErrInvalidInput)
	}

	failures := 0
	for i, obs := range observations {
		if !(obs.Characteristic > 0) {
			return Sample{}, fmt.Errorf("%w: observation %d has non-positive characteristic %v", core.ErrInvalidInput, i, obs.Characteristic)
		}
		if obs.Failure {
			failures++
		}
	}
	if failures == 0 {
		return Sample{}, core.ErrNoFailures
	}

	copied := make([]Observation, len(observations))
	copy(copied, observations)
	return Sample{observations: copied}, nil
}

// NewSampleFromValues builds a sample from parallel characteristic/event
// slices, generating observation IDs.
func NewSampleFromValues(characteristics []float64, failures []bool) (Sample, error) {
	if len(characteristics) != len(failures) {
		return Sample{}, fmt.Errorf("%w: %d characteristics but %d event flags", core.ErrInvalidInput, len(characteristics), len(failures))
	}
	observations := make([]Observation, len(characteristics))
	for i := range characteristics {
		observations[i] = NewObservation(characteristics[i], failures[i])
	}
	return NewSample(observations)
}

// Size returns the total number of observations.
func (s Sample) Size() int {
	return len(s.observations)
}

// FailureCount returns the number of uncensored observations.
func (s Sample) FailureCount() int {
	count := 0
	for _, obs := range s.observations {
		if obs.Failure {
			count++
		}
	}
	return count
}

// CensoredCount returns the number of censored observations.
func (s Sample) CensoredCount() int {
	return s.Size() - s.FailureCount()
}

// Observations returns a defensive copy in input order.
func (s Sample) Observations() []Observation {
	out := make([]Observation, len(s.observations))
	copy(out, s.observations)
	return out
}

// SortedByCharacteristic returns a copy sorted ascending by characteristic.
// The sort is stable: observations sharing a characteristic keep input order,
// which is the tie rule the rank estimators depend on.
func (s Sample) SortedByCharacteristic() []Observation {
	out := s.Observations()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Characteristic < out[j].Characteristic
	})
	return out
}

// Characteristics returns the lifetime values in input order.
func (s Sample) Characteristics() []float64 {
	out := make([]float64, len(s.observations))
	for i, obs := range s.observations {
		out[i] = obs.Characteristic
	}
	return out
}

// MinCharacteristic returns the smallest lifetime in the sample.
func (s Sample) MinCharacteristic() float64 {
	min := s.observations[0].Characteristic
	for _, obs := range s.observations[1:] {
		if obs.Characteristic < min {
			min = obs.Characteristic
		}
	}
	return min
}

// MaxCharacteristic returns the largest lifetime in the sample.
func (s Sample) MaxCharacteristic() float64 {
	max := s.observations[0].Characteristic
	for _, obs := range s.observations[1:] {
		if obs.Characteristic > max {
			max = obs.Characteristic
		}
	}
	return max
}
