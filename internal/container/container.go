package container

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"golifetime/adapters/excel"
	"golifetime/adapters/postgres"
	"golifetime/app"
	"golifetime/internal/config"
	"golifetime/internal/engine"
	"golifetime/ports"
)

// Container holds all application dependencies and manages their lifecycle.
type Container struct {
	// Configuration
	Config *config.Config

	// Database
	DB *sqlx.DB

	// Repositories
	AnalysisRepo ports.AnalysisRepository

	// Adapters
	ObservationReader ports.ObservationReader

	// Core engine and services
	Engine          ports.LifetimeEngine
	AnalysisService *app.AnalysisService
}

// New creates a new dependency injection container.
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	return &Container{
		Config: cfg,
	}, nil
}

// InitWithDatabase initializes the container with a database connection.
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	c.DB = db

	// Verify database connection
	if err := c.DB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := c.initRepositories(); err != nil {
		return fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := c.initAnalysis(); err != nil {
		return fmt.Errorf("failed to initialize analysis components: %w", err)
	}

	log.Printf("Container initialized successfully with database connection")
	return nil
}

// InitWithoutDatabase wires the engine and services without persistence.
// Analyses run and return reports but are not stored.
func (c *Container) InitWithoutDatabase() error {
	if err := c.initAnalysis(); err != nil {
		return fmt.Errorf("failed to initialize analysis components: %w", err)
	}

	log.Printf("Container initialized without database, analyses will not be persisted")
	return nil
}

// initRepositories initializes data access repositories
func (c *Container) initRepositories() error {
	c.AnalysisRepo = postgres.NewAnalysisRepository(c.DB)
	return nil
}

// initAnalysis initializes the statistical engine and the services built on it
func (c *Container) initAnalysis() error {
	c.ObservationReader = excel.NewDataReader()

	eng, err := engine.New()
	if err != nil {
		return fmt.Errorf("failed to create lifetime engine: %w", err)
	}
	c.Engine = eng

	c.AnalysisService = app.NewAnalysisService(c.Engine, c.AnalysisRepo, c.Config.Analysis.SweepConcurrency)
	if c.AnalysisService == nil {
		return fmt.Errorf("failed to create analysis service")
	}

	return nil
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
