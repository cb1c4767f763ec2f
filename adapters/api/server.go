package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"golifetime/app"
	"golifetime/internal/config"
	"golifetime/internal/summary"
	"golifetime/ports"
)

// Server exposes the estimation engine and the analysis service over JSON.
type Server struct {
	router          *chi.Mux
	engine          ports.LifetimeEngine
	analyses        *app.AnalysisService
	summaries       *summary.Computer
	confidenceLevel float64
}

// NewServer creates the API server around an engine and an analysis service.
func NewServer(engine ports.LifetimeEngine, analyses *app.AnalysisService, defaults config.AnalysisConfig) *Server {
	level := defaults.ConfidenceLevel
	if !(level > 0 && level < 1) {
		level = 0.9
	}

	s := &Server{
		router:          chi.NewRouter(),
		engine:          engine,
		analyses:        analyses,
		summaries:       summary.NewComputer(),
		confidenceLevel: level,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/probabilities", s.handleProbabilities)
		r.Post("/fits/regression", s.handleFitRegression)
		r.Post("/fits/ml", s.handleFitML)
		r.Post("/predictions/cdf", s.handlePredictCDF)
		r.Post("/predictions/quantile", s.handlePredictQuantile)
		r.Post("/mixtures", s.handleMixtures)

		r.Post("/analyses", s.handleRunAnalysis)
		r.Get("/analyses", s.handleListAnalyses)
		r.Get("/analyses/{id}", s.handleGetAnalysis)
		r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start(cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	log.Printf("[API] Listening on %s", srv.Addr)
	return srv.ListenAndServe()
}
