package lifedata

import (
	"golifetime/domain/core"
)

// Observation is a single lifetime record: how long a unit ran and whether
// it failed (Failure=true) or survived the observation window (censored).
type Observation struct {
	ID             core.ObservationID `json:"id"`
	Characteristic float64            `json:"characteristic"` // lifetime value (hours, cycles, km, ...), > 0
	Failure        bool               `json:"failure"`        // true = failure, false = right-censored
}

// NewObservation creates an observation with a generated identifier.
func NewObservation(characteristic float64, failure bool) Observation {
	return Observation{
		ID:             core.ObservationID(core.NewID()),
		Characteristic: characteristic,
		Failure:        failure,
	}
}

// Censored reports whether the unit survived the observation window.
func (o Observation) Censored() bool {
	return !o.Failure
}
