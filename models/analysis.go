// Package models holds the records that cross the service boundary: assembled
// by the application layer, persisted by adapters, served by the API.
package models

import (
	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/summary"
)

// CandidateFit is one (family, method) attempt from a distribution sweep.
// Either Result or Err is set, never both: a failed fit carries its error
// kind and no coefficients.
type CandidateFit struct {
	Family    distribution.Family `json:"family"`
	Threshold bool                `json:"threshold"`
	Method    fit.Method          `json:"method"`
	Result    *fit.FitResult      `json:"result,omitempty"`
	Err       string              `json:"error,omitempty"`
}

// Fitted reports whether the candidate produced usable coefficients.
func (c CandidateFit) Fitted() bool {
	return c.Result != nil
}

// AnalysisReport is a persisted distribution-sweep outcome: the sample
// summary, its plotting positions, and every candidate fit ranked best-first
// within each estimation method.
type AnalysisReport struct {
	ID         core.AnalysisID       `json:"id" db:"id"`
	Label      string                `json:"label" db:"label"`
	CreatedAt  core.Timestamp        `json:"created_at" db:"created_at"`
	RankMethod lifedata.RankMethod   `json:"rank_method"`
	Sample     summary.SampleSummary `json:"sample"`
	Ranked     lifedata.RankedSet    `json:"ranked"`

	// Regression candidates are ordered by R-squared descending; Likelihood
	// candidates by BIC ascending. Failed candidates sort after fitted ones.
	Regression []CandidateFit `json:"regression"`
	Likelihood []CandidateFit `json:"likelihood"`
}

// NewAnalysisReport creates an empty report with identity and creation time.
func NewAnalysisReport(label string, method lifedata.RankMethod) *AnalysisReport {
	return &AnalysisReport{
		ID:         core.AnalysisID(core.NewID()),
		Label:      label,
		CreatedAt:  core.Now(),
		RankMethod: method,
	}
}

// BestRegression returns the top fitted regression candidate, nil when every
// candidate failed.
func (r *AnalysisReport) BestRegression() *CandidateFit {
	return firstFitted(r.Regression)
}

// BestLikelihood returns the top fitted maximum-likelihood candidate, nil
// when every candidate failed.
func (r *AnalysisReport) BestLikelihood() *CandidateFit {
	return firstFitted(r.Likelihood)
}

func firstFitted(candidates []CandidateFit) *CandidateFit {
	for i := range candidates {
		if candidates[i].Fitted() {
			return &candidates[i]
		}
	}
	return nil
}
