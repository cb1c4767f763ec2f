package api

import (
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/summary"
)

// ObservationInput is one lifetime record in a request body. The failure
// flag is mandatory so a forgotten field cannot silently censor a unit.
type ObservationInput struct {
	ID             string  `json:"id,omitempty"`
	Characteristic float64 `json:"characteristic"`
	Failure        *bool   `json:"failure"`
}

// RankRequest selects the plotting-position estimator for a sample.
type RankRequest struct {
	Observations []ObservationInput `json:"observations"`
	Method       string             `json:"method,omitempty"`  // mr | johnson | kaplan | nelson
	Variant      string             `json:"variant,omitempty"` // benard | invbeta (mr only)
	Ties         string             `json:"ties,omitempty"`    // max | average (mr only)

	// When set, beta-binomial bounds at this level are attached.
	ConfidenceLevel *float64 `json:"confidence_level,omitempty"`
}

// RankResponse carries plotting positions plus optional bounds.
type RankResponse struct {
	Ranked lifedata.RankedSet          `json:"ranked"`
	Bounds []lifedata.ProbabilityBound `json:"bounds,omitempty"`
}

// FitRequest asks for a single-family fit.
type FitRequest struct {
	Observations []ObservationInput `json:"observations"`
	Family       string             `json:"family"`
	Threshold    bool               `json:"threshold,omitempty"`

	// Rank regression plots against these positions; ignored for ML.
	Method  string `json:"method,omitempty"`
	Variant string `json:"variant,omitempty"`
	Ties    string `json:"ties,omitempty"`
}

// CoefficientsInput carries fitted parameters on the location-scale scale.
type CoefficientsInput struct {
	Mu        float64 `json:"mu"`
	Sigma     float64 `json:"sigma"`
	Threshold float64 `json:"threshold,omitempty"`
}

// PredictRequest evaluates a fitted model. Exactly one of Characteristics
// (CDF direction) or Probabilities (quantile direction) is read, depending
// on the endpoint.
type PredictRequest struct {
	Family          string            `json:"family"`
	Threshold       bool              `json:"threshold,omitempty"`
	Coefficients    CoefficientsInput `json:"coefficients"`
	Characteristics []float64         `json:"characteristics,omitempty"`
	Probabilities   []float64         `json:"probabilities,omitempty"`
}

// CDFResponse is the forward prediction result.
type CDFResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// QuantileResponse is the inverse prediction result.
type QuantileResponse struct {
	Characteristics []float64 `json:"characteristics"`
}

// MixtureRequest asks for subpopulation separation.
type MixtureRequest struct {
	Observations  []ObservationInput `json:"observations"`
	Family        string             `json:"family"`
	Threshold     bool               `json:"threshold,omitempty"`
	Strategy      string             `json:"strategy"` // segmented | em
	Components    int                `json:"components,omitempty"`
	MinSegment    int                `json:"min_segment,omitempty"`
	MaxIterations int                `json:"max_iterations,omitempty"`
	Tolerance     float64            `json:"tolerance,omitempty"`
}

// MixtureResponse pairs the separation result with descriptive statistics
// for each subgroup, index-aligned with the result's subgroups.
type MixtureResponse struct {
	fit.MixtureResult
	SubgroupSummaries []summary.SampleSummary `json:"subgroup_summaries"`
}

// AnalysisRequestBody runs the full candidate sweep and persists the report.
type AnalysisRequestBody struct {
	Label        string             `json:"label,omitempty"`
	Observations []ObservationInput `json:"observations"`
	RankMethod   string             `json:"rank_method,omitempty"`
	Variant      string             `json:"variant,omitempty"`
	Ties         string             `json:"ties,omitempty"`

	// Candidate spec names like "weibull" or "lognormal3"; empty selects
	// every two-parameter family.
	Candidates []string `json:"candidates,omitempty"`
}

// ListAnalysesResponse wraps stored report summaries.
type ListAnalysesResponse struct {
	Analyses []AnalysisSummaryView `json:"analyses"`
}

// AnalysisSummaryView is one row of the stored-analysis listing.
type AnalysisSummaryView struct {
	ID        string `json:"id"`
	Label     string `json:"label,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
