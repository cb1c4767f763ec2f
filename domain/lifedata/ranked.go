package lifedata

import (
	"encoding/json"
	"math"

	"golifetime/domain/core"
)

// RankMethod selects the non-parametric failure-probability estimator.
type RankMethod string

const (
	MethodMedianRank  RankMethod = "mr"
	MethodJohnson     RankMethod = "johnson"
	MethodKaplanMeier RankMethod = "kaplan"
	MethodNelsonAalen RankMethod = "nelson"
)

// Valid reports whether the method is one of the supported estimators.
func (m RankMethod) Valid() bool {
	switch m {
	case MethodMedianRank, MethodJohnson, MethodKaplanMeier, MethodNelsonAalen:
		return true
	}
	return false
}

// RankedObservation is an observation with its adjusted rank and failure
// probability estimate. Censored rows carry NaN in both derived fields:
// they consume a position in the sample but receive no plotting position.
type RankedObservation struct {
	Observation
	AdjustedRank float64 `json:"adjusted_rank"`
	Probability  float64 `json:"probability"`
}

// HasProbability reports whether a plotting position was assigned.
func (r RankedObservation) HasProbability() bool {
	return !math.IsNaN(r.Probability)
}

// rankedObservationJSON is the wire form: the NaN markers on censored rows
// become nulls, since JSON has no NaN.
type rankedObservationJSON struct {
	ID             core.ObservationID `json:"id"`
	Characteristic float64            `json:"characteristic"`
	Failure        bool               `json:"failure"`
	AdjustedRank   *float64           `json:"adjusted_rank"`
	Probability    *float64           `json:"probability"`
}

func (r RankedObservation) MarshalJSON() ([]byte, error) {
	wire := rankedObservationJSON{
		ID:             r.ID,
		Characteristic: r.Characteristic,
		Failure:        r.Failure,
	}
	if !math.IsNaN(r.AdjustedRank) {
		wire.AdjustedRank = &r.AdjustedRank
	}
	if !math.IsNaN(r.Probability) {
		wire.Probability = &r.Probability
	}
	return json.Marshal(wire)
}

func (r *RankedObservation) UnmarshalJSON(data []byte) error {
	var wire rankedObservationJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.ID = wire.ID
	r.Characteristic = wire.Characteristic
	r.Failure = wire.Failure
	r.AdjustedRank = math.NaN()
	r.Probability = math.NaN()
	if wire.AdjustedRank != nil {
		r.AdjustedRank = *wire.AdjustedRank
	}
	if wire.Probability != nil {
		r.Probability = *wire.Probability
	}
	return nil
}

// ProbabilityBound is a two-sided confidence interval around one plotting
// position.
type ProbabilityBound struct {
	Characteristic float64 `json:"characteristic"`
	Rank           float64 `json:"rank"`
	Probability    float64 `json:"probability"`
	Lower          float64 `json:"lower"`
	Upper          float64 `json:"upper"`
}

// RankedSet is the output of a rank estimation pass: observations sorted
// ascending by characteristic with their probability estimates. It is derived
// data; re-estimate rather than mutate when the sample changes.
type RankedSet struct {
	Method RankMethod          `json:"method"`
	N      int                 `json:"n"`
	Items  []RankedObservation `json:"items"`
}

// FailurePoints returns the (characteristic, probability) pairs of rows that
// carry a plotting position, in ascending characteristic order.
func (rs RankedSet) FailurePoints() (characteristics, probabilities []float64) {
	for _, item := range rs.Items {
		if item.HasProbability() {
			characteristics = append(characteristics, item.Characteristic)
			probabilities = append(probabilities, item.Probability)
		}
	}
	return characteristics, probabilities
}

// ProbabilityCount returns the number of rows with a plotting position.
func (rs RankedSet) ProbabilityCount() int {
	count := 0
	for _, item := range rs.Items {
		if item.HasProbability() {
			count++
		}
	}
	return count
}
