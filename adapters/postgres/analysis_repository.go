package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"golifetime/domain/core"
	"golifetime/models"
	"golifetime/ports"

	"github.com/jmoiron/sqlx"
)

// AnalysisRepositoryImpl implements AnalysisRepository for PostgreSQL
type AnalysisRepositoryImpl struct {
	db *sqlx.DB
}

// NewAnalysisRepository creates a new PostgreSQL analysis repository
func NewAnalysisRepository(db *sqlx.DB) ports.AnalysisRepository {
	return &AnalysisRepositoryImpl{db: db}
}

// SaveAnalysis upserts a complete analysis report. The report JSONB column is
// the source of truth; the scalar columns exist for listing and filtering.
func (r *AnalysisRepositoryImpl) SaveAnalysis(ctx context.Context, report *models.AnalysisReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis report: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO lifetime_analyses (
			id, label, rank_method, sample_count, failure_count, report, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			rank_method = EXCLUDED.rank_method,
			sample_count = EXCLUDED.sample_count,
			failure_count = EXCLUDED.failure_count,
			report = EXCLUDED.report`,
		report.ID.String(), report.Label, string(report.RankMethod),
		report.Sample.Count, report.Sample.Failures, reportJSON, report.CreatedAt.Time())

	return err
}

// GetAnalysis retrieves an analysis report by ID
func (r *AnalysisRepositoryImpl) GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisReport, error) {
	var reportJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT report FROM lifetime_analyses WHERE id = $1
	`, id.String()).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis report %s: %w", id, err)
	}
	return &report, nil
}

// ListAnalyses returns stored analyses, newest first, optionally limited
func (r *AnalysisRepositoryImpl) ListAnalyses(ctx context.Context, limit int) ([]ports.AnalysisSummary, error) {
	query := `
		SELECT id, label, created_at
		FROM lifetime_analyses
		ORDER BY created_at DESC
	`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []ports.AnalysisSummary
	for rows.Next() {
		var id string
		var label sql.NullString
		var createdAt time.Time

		if err := rows.Scan(&id, &label, &createdAt); err != nil {
			return nil, err
		}

		summaries = append(summaries, ports.AnalysisSummary{
			ID:        core.AnalysisID(id),
			Label:     label.String,
			CreatedAt: core.NewTimestamp(createdAt),
		})
	}

	return summaries, rows.Err()
}

// DeleteAnalysis removes a stored analysis by ID
func (r *AnalysisRepositoryImpl) DeleteAnalysis(ctx context.Context, id core.AnalysisID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM lifetime_analyses WHERE id = $1
	`, id.String())
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", core.ErrAnalysisNotFound, id)
	}
	return nil
}
