package migration

import (
	"context"
	"fmt"

	"golifetime/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create lifetime_analyses table")
	}

	if err := r.addAnalysesColumns(ctx, db); err != nil {
		return errors.Wrap(err, "failed to add lifetime_analyses columns")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lifetime_analyses (
			id UUID PRIMARY KEY,
			label VARCHAR(255),
			rank_method VARCHAR(20) NOT NULL DEFAULT 'johnson',
			sample_count INTEGER NOT NULL DEFAULT 0,
			failure_count INTEGER NOT NULL DEFAULT 0,
			report JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

// addAnalysesColumns patches schemas created before the summary columns
// existed. The report JSONB is the source of truth; these columns only serve
// listing queries.
func (r *MigrationRunner) addAnalysesColumns(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'lifetime_analyses' AND column_name = 'rank_method'
			) THEN
				ALTER TABLE lifetime_analyses ADD COLUMN rank_method VARCHAR(20) NOT NULL DEFAULT 'johnson';
			END IF;

			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'lifetime_analyses' AND column_name = 'sample_count'
			) THEN
				ALTER TABLE lifetime_analyses ADD COLUMN sample_count INTEGER NOT NULL DEFAULT 0;
			END IF;

			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'lifetime_analyses' AND column_name = 'failure_count'
			) THEN
				ALTER TABLE lifetime_analyses ADD COLUMN failure_count INTEGER NOT NULL DEFAULT 0;
			END IF;

			IF NOT EXISTS (
				SELECT 1 FROM information_schema.columns
				WHERE table_name = 'lifetime_analyses' AND column_name = 'created_at'
			) THEN
				ALTER TABLE lifetime_analyses ADD COLUMN created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW();
			END IF;
		END $$;
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON lifetime_analyses(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_label ON lifetime_analyses(label)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_rank_method ON lifetime_analyses(rank_method)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			// Log but don't fail on index creation errors
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}
