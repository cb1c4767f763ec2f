package ports

import (
	"context"

	"golifetime/domain/core"
	"golifetime/models"
)

// AnalysisSummary is the lightweight listing row for stored analyses.
type AnalysisSummary struct {
	ID        core.AnalysisID `json:"id"`
	Label     string          `json:"label"`
	CreatedAt core.Timestamp  `json:"created_at"`
}

// AnalysisRepository persists analysis reports.
type AnalysisRepository interface {
	// SaveAnalysis stores a report, replacing any previous version with the
	// same ID.
	SaveAnalysis(ctx context.Context, report *models.AnalysisReport) error

	// GetAnalysis retrieves a report by ID; core.ErrAnalysisNotFound when
	// absent.
	GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisReport, error)

	// ListAnalyses returns the most recent analyses, newest first.
	ListAnalyses(ctx context.Context, limit int) ([]AnalysisSummary, error)

	// DeleteAnalysis removes a stored report; core.ErrAnalysisNotFound when
	// absent.
	DeleteAnalysis(ctx context.Context, id core.AnalysisID) error
}
