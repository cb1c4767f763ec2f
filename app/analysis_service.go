package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal"
	"golifetime/internal/summary"
	"golifetime/models"
	"golifetime/ports"
)

// DefaultSweepConcurrency bounds how many candidate fits run at once.
const DefaultSweepConcurrency = 4

// AnalysisService runs the full analysis pipeline: plotting positions, a
// concurrent sweep over candidate distributions with both estimation methods,
// candidate ranking, and persistence of the assembled report. All numerical
// work happens in the engine; this layer only orchestrates.
type AnalysisService struct {
	engine     ports.LifetimeEngine
	repository ports.AnalysisRepository
	summaries  *summary.Computer
	sem        *semaphore.Weighted
	logger     *internal.Logger
}

// NewAnalysisService wires the service. A nil repository disables
// persistence; Run still returns the report. Concurrency <= 0 selects the
// default bound.
func NewAnalysisService(engine ports.LifetimeEngine, repository ports.AnalysisRepository, concurrency int64) *AnalysisService {
	if concurrency <= 0 {
		concurrency = DefaultSweepConcurrency
	}
	return &AnalysisService{
		engine:     engine,
		repository: repository,
		summaries:  summary.NewComputer(),
		sem:        semaphore.NewWeighted(concurrency),
		logger:     internal.NewDefaultLogger(),
	}
}

// AnalysisRequest describes one sweep.
type AnalysisRequest struct {
	Label       string
	Sample      lifedata.Sample
	RankMethod  lifedata.RankMethod // empty selects Johnson
	RankOptions ports.RankOptions
	Candidates  []distribution.Spec // empty selects every family, two-parameter
}

// Run executes the sweep and persists the report. Candidate failures are
// recorded in the report rather than aborting the sweep; only input
// validation, rank estimation, and persistence errors are fatal.
func (s *AnalysisService) Run(ctx context.Context, req AnalysisRequest) (*models.AnalysisReport, error) {
	startTime := time.Now()

	method := req.RankMethod
	if method == "" {
		method = lifedata.MethodJohnson
	}
	if !method.Valid() {
		return nil, fmt.Errorf("%w: unknown rank method %q", core.ErrInvalidInput, method)
	}
	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = defaultCandidates()
	}
	for _, spec := range candidates {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
	}

	ranked, err := s.engine.EstimateProbabilities(req.Sample, method, req.RankOptions)
	if err != nil {
		return nil, fmt.Errorf("estimating probabilities: %w", err)
	}

	regression := make([]models.CandidateFit, len(candidates))
	likelihood := make([]models.CandidateFit, len(candidates))
	var wg sync.WaitGroup
	for i, spec := range candidates {
		wg.Add(2)
		go func(i int, spec distribution.Spec) {
			defer wg.Done()
			regression[i] = s.fitCandidate(ctx, spec, fit.MethodRankRegression, func() (fit.FitResult, error) {
				return s.engine.FitRankRegression(ranked, spec)
			})
		}(i, spec)
		go func(i int, spec distribution.Spec) {
			defer wg.Done()
			likelihood[i] = s.fitCandidate(ctx, spec, fit.MethodMaximumLikelihood, func() (fit.FitResult, error) {
				return s.engine.FitML(req.Sample, spec)
			})
		}(i, spec)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rankRegressionOrder(regression)
	likelihoodOrder(likelihood)

	report := models.NewAnalysisReport(req.Label, method)
	report.Sample = s.summaries.Describe(req.Sample)
	report.Ranked = ranked
	report.Regression = regression
	report.Likelihood = likelihood

	if s.repository != nil {
		if err := s.repository.SaveAnalysis(ctx, report); err != nil {
			return nil, fmt.Errorf("saving analysis: %w", err)
		}
	}

	s.logger.Info("Analysis %s completed: %d/%d candidates fitted in %.2fs",
		report.ID, fittedCount(regression)+fittedCount(likelihood), len(regression)+len(likelihood),
		time.Since(startTime).Seconds())
	return report, nil
}

func fittedCount(candidates []models.CandidateFit) int {
	n := 0
	for _, c := range candidates {
		if c.Fitted() {
			n++
		}
	}
	return n
}

// GetAnalysis retrieves a stored report.
func (s *AnalysisService) GetAnalysis(ctx context.Context, id core.AnalysisID) (*models.AnalysisReport, error) {
	if s.repository == nil {
		return nil, core.ErrAnalysisNotFound
	}
	return s.repository.GetAnalysis(ctx, id)
}

// ListAnalyses lists stored reports, newest first.
func (s *AnalysisService) ListAnalyses(ctx context.Context, limit int) ([]ports.AnalysisSummary, error) {
	if s.repository == nil {
		return nil, nil
	}
	return s.repository.ListAnalyses(ctx, limit)
}

// DeleteAnalysis removes a stored report.
func (s *AnalysisService) DeleteAnalysis(ctx context.Context, id core.AnalysisID) error {
	if s.repository == nil {
		return core.ErrAnalysisNotFound
	}
	return s.repository.DeleteAnalysis(ctx, id)
}

func (s *AnalysisService) fitCandidate(ctx context.Context, spec distribution.Spec, method fit.Method, run func() (fit.FitResult, error)) models.CandidateFit {
	candidate := models.CandidateFit{
		Family:    spec.Family,
		Threshold: spec.Threshold,
		Method:    method,
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		candidate.Err = err.Error()
		return candidate
	}
	defer s.sem.Release(1)

	result, err := run()
	if err != nil {
		s.logger.Debug("Candidate %s/%s not fitted: %v", spec, method, err)
		candidate.Err = err.Error()
		return candidate
	}
	candidate.Result = &result
	return candidate
}

func defaultCandidates() []distribution.Spec {
	families := []distribution.Family{
		distribution.Weibull,
		distribution.Lognormal,
		distribution.Loglogistic,
		distribution.Normal,
		distribution.Logistic,
		distribution.SEV,
	}
	specs := make([]distribution.Spec, len(families))
	for i, f := range families {
		specs[i] = distribution.Spec{Family: f}
	}
	return specs
}

// rankRegressionOrder sorts fitted candidates by R-squared descending, then
// family name for stability; failed candidates go last.
func rankRegressionOrder(candidates []models.CandidateFit) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Fitted() != b.Fitted() {
			return a.Fitted()
		}
		if !a.Fitted() {
			return a.Family < b.Family
		}
		if a.Result.Regression.RSquared != b.Result.Regression.RSquared {
			return a.Result.Regression.RSquared > b.Result.Regression.RSquared
		}
		return a.Family < b.Family
	})
}

// likelihoodOrder sorts fitted candidates by BIC ascending, then family name;
// failed candidates go last.
func likelihoodOrder(candidates []models.CandidateFit) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Fitted() != b.Fitted() {
			return a.Fitted()
		}
		if !a.Fitted() {
			return a.Family < b.Family
		}
		if a.Result.Likelihood.BIC != b.Result.Likelihood.BIC {
			return a.Result.Likelihood.BIC < b.Result.Likelihood.BIC
		}
		return a.Family < b.Family
	})
}
