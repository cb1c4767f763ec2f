package fit

import (
	"fmt"

	"golifetime/domain/core"
	"golifetime/domain/lifedata"
)

// ============================================================================
// MIXTURE ARTIFACTS (separation outputs)
// ============================================================================

// SeparationStrategy selects the mixture separation algorithm.
type SeparationStrategy string

const (
	StrategySegmented SeparationStrategy = "segmented" // breakpoint search on plotting positions
	StrategyEM        SeparationStrategy = "em"        // censoring-aware expectation-maximization
)

// Valid reports whether the strategy is a member of the closed set.
func (s SeparationStrategy) Valid() bool {
	return s == StrategySegmented || s == StrategyEM
}

// Default iteration budgets for the EM strategy and the minimum number of
// failures a segmented side must keep.
const (
	DefaultEMMaxIterations = 100
	DefaultEMTolerance     = 1e-6
	DefaultMinSegment      = 3
	minSegmentFloor        = 2
)

// MixtureParams tunes a separation run. The zero value is not usable; start
// from DefaultMixtureParams and override.
type MixtureParams struct {
	Components    int     `json:"components"`     // EM only, >= 2
	MaxIterations int     `json:"max_iterations"` // EM only, > 0
	Tolerance     float64 `json:"tolerance"`      // EM only, absolute log-likelihood improvement
	MinSegment    int     `json:"min_segment"`    // segmented only, failures required per side
}

// DefaultMixtureParams returns the documented defaults.
func DefaultMixtureParams() MixtureParams {
	return MixtureParams{
		Components:    2,
		MaxIterations: DefaultEMMaxIterations,
		Tolerance:     DefaultEMTolerance,
		MinSegment:    DefaultMinSegment,
	}
}

// Validate rejects parameter sets no separation run should start from.
func (p MixtureParams) Validate(strategy SeparationStrategy) error {
	switch strategy {
	case StrategyEM:
		if p.Components < 2 {
			return fmt.Errorf("%w: EM requires at least 2 components, got %d", core.ErrInvalidInput, p.Components)
		}
		if p.MaxIterations <= 0 {
			return fmt.Errorf("%w: iteration budget must be positive, got %d", core.ErrInvalidInput, p.MaxIterations)
		}
		if !(p.Tolerance > 0) {
			return fmt.Errorf("%w: tolerance must be positive, got %v", core.ErrInvalidInput, p.Tolerance)
		}
	case StrategySegmented:
		if p.MinSegment < minSegmentFloor {
			return fmt.Errorf("%w: segment minimum must be at least %d, got %d",
				core.ErrInvalidInput, minSegmentFloor, p.MinSegment)
		}
	default:
		return fmt.Errorf("%w: unknown separation strategy %q", core.ErrInvalidInput, strategy)
	}
	return nil
}

// Subgroup is one separated failure mode. Index is the stable presentation
// order (segmented: ascending characteristic; EM: seed order).
type Subgroup struct {
	Index        int                    `json:"index"`
	Observations []lifedata.Observation `json:"observations"`
	Share        float64                `json:"share"` // mixing weight; assignment fraction for segmented
	Fit          FitResult              `json:"fit"`
}

// EMIteration is one record of the EM trace. The trace is append-only and
// returned as-is; callers must not mutate it.
type EMIteration struct {
	Index         int       `json:"index"`
	LogLikelihood float64   `json:"log_likelihood"`
	Mixing        []float64 `json:"mixing"`
}

// MixtureResult is the outcome of a mixture separation.
// INVARIANTS:
// - Subgroups ordered by Index, each observation assigned to exactly one
// - EM only: Posterior has one row per input observation, rows sum to 1
// - Shares sum to 1 up to rounding
type MixtureResult struct {
	Strategy  SeparationStrategy `json:"strategy"`
	Subgroups []Subgroup         `json:"subgroups"`

	// Posterior rows follow the input observation order; columns follow
	// subgroup indices. Empty for the segmented strategy.
	Posterior [][]float64 `json:"posterior,omitempty"`

	// Iterations is the EM trace. Empty for the segmented strategy.
	Iterations []EMIteration `json:"iterations,omitempty"`

	Status Status `json:"status"`
}

// Components returns the number of separated subgroups.
func (m MixtureResult) Components() int {
	return len(m.Subgroups)
}

// Assignment returns the subgroup index each input observation landed in,
// in input order. For EM this is the posterior argmax.
func (m MixtureResult) Assignment() map[core.ObservationID]int {
	out := make(map[core.ObservationID]int)
	for _, g := range m.Subgroups {
		for _, obs := range g.Observations {
			out[obs.ID] = g.Index
		}
	}
	return out
}

// Separated reports whether more than one failure mode was found.
func (m MixtureResult) Separated() bool {
	return len(m.Subgroups) > 1
}
