package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golifetime/adapters/postgres"
	"golifetime/domain/core"
	"golifetime/internal/migration"
	"golifetime/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <reports_dir>")
	}

	databaseURL := os.Args[1]
	reportsDir := os.Args[2]

	log.Printf("Starting import from %s to database %s", reportsDir, databaseURL)

	// Connect to database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Ensure the schema exists before importing
	if err := migration.NewRunner().Run(ctx, db); err != nil {
		log.Fatalf("Failed to run schema migrations: %v", err)
	}

	repo := postgres.NewAnalysisRepository(db)

	// Find all JSON report files
	files, err := findReportFiles(reportsDir)
	if err != nil {
		log.Fatalf("Failed to find report files: %v", err)
	}

	log.Printf("Found %d report files to import", len(files))

	imported := 0
	skipped := 0

	for _, file := range files {
		report, err := loadReportFromFile(file)
		if err != nil {
			log.Printf("Failed to load report from %s: %v", file, err)
			skipped++
			continue
		}

		// Reports exported before persistence existed may lack identity fields
		if core.ID(report.ID).IsEmpty() {
			report.ID = core.AnalysisID(core.NewID())
		}
		if report.Label == "" {
			report.Label = strings.TrimSuffix(filepath.Base(file), ".json")
		}
		if report.CreatedAt.Time().IsZero() {
			report.CreatedAt = core.Now()
		}

		if err := repo.SaveAnalysis(ctx, report); err != nil {
			log.Printf("Failed to save analysis %s: %v", report.ID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported analysis %s from %s", report.ID, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findReportFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadReportFromFile(filePath string) (*models.AnalysisReport, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, err
	}

	return &report, nil
}
