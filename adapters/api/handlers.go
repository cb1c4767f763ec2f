package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"golifetime/app"
	"golifetime/domain/core"
	"golifetime/domain/distribution"
	"golifetime/domain/fit"
	"golifetime/domain/lifedata"
	"golifetime/internal/summary"
	"golifetime/ports"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy", Service: "golifetime"})
}

func (s *Server) handleProbabilities(w http.ResponseWriter, r *http.Request) {
	var req RankRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sample, err := sampleFromInputs(req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}

	ranked, err := s.engine.EstimateProbabilities(sample, rankMethod(req.Method), ports.RankOptions{Variant: req.Variant, Ties: req.Ties})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := RankResponse{Ranked: ranked}
	if req.ConfidenceLevel != nil {
		bounds, err := s.engine.ConfidenceBounds(ranked, *req.ConfidenceLevel)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Bounds = bounds
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFitRegression(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sample, err := sampleFromInputs(req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := distribution.NewSpec(distribution.Family(req.Family), req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	ranked, err := s.engine.EstimateProbabilities(sample, rankMethod(req.Method), ports.RankOptions{Variant: req.Variant, Ties: req.Ties})
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.engine.FitRankRegression(ranked, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFitML(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sample, err := sampleFromInputs(req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := distribution.NewSpec(distribution.Family(req.Family), req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := s.engine.FitML(sample, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePredictCDF(w http.ResponseWriter, r *http.Request) {
	spec, coeffs, req, err := decodePrediction(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(req.Characteristics) == 0 {
		writeError(w, fmt.Errorf("%w: characteristics are required", core.ErrInvalidInput))
		return
	}

	probabilities, err := s.engine.PredictCDF(spec, coeffs, req.Characteristics)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CDFResponse{Probabilities: probabilities})
}

func (s *Server) handlePredictQuantile(w http.ResponseWriter, r *http.Request) {
	spec, coeffs, req, err := decodePrediction(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(req.Probabilities) == 0 {
		writeError(w, fmt.Errorf("%w: probabilities are required", core.ErrInvalidInput))
		return
	}

	characteristics, err := s.engine.PredictQuantile(spec, coeffs, req.Probabilities)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuantileResponse{Characteristics: characteristics})
}

func (s *Server) handleMixtures(w http.ResponseWriter, r *http.Request) {
	var req MixtureRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sample, err := sampleFromInputs(req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}
	spec, err := distribution.NewSpec(distribution.Family(req.Family), req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}

	params := fit.DefaultMixtureParams()
	if req.Components > 0 {
		params.Components = req.Components
	}
	if req.MinSegment > 0 {
		params.MinSegment = req.MinSegment
	}
	if req.MaxIterations > 0 {
		params.MaxIterations = req.MaxIterations
	}
	if req.Tolerance > 0 {
		params.Tolerance = req.Tolerance
	}

	result, err := s.engine.SeparateMixture(sample, spec, fit.SeparationStrategy(req.Strategy), params)
	if err != nil {
		writeError(w, err)
		return
	}

	summaries := make([]summary.SampleSummary, len(result.Subgroups))
	for i, group := range result.Subgroups {
		summaries[i] = s.summaries.DescribeObservations(group.Observations)
	}
	writeJSON(w, http.StatusOK, MixtureResponse{MixtureResult: result, SubgroupSummaries: summaries})
}

func (s *Server) handleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequestBody
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sample, err := sampleFromInputs(req.Observations)
	if err != nil {
		writeError(w, err)
		return
	}

	candidates := make([]distribution.Spec, 0, len(req.Candidates))
	for _, name := range req.Candidates {
		spec, err := distribution.ParseSpec(name)
		if err != nil {
			writeError(w, err)
			return
		}
		candidates = append(candidates, spec)
	}

	report, err := s.analyses.Run(r.Context(), app.AnalysisRequest{
		Label:       req.Label,
		Sample:      sample,
		RankMethod:  lifedata.RankMethod(req.RankMethod),
		RankOptions: ports.RankOptions{Variant: req.Variant, Ties: req.Ties},
		Candidates:  candidates,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	report, err := s.analyses.GetAnalysis(r.Context(), core.AnalysisID(id))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, fmt.Errorf("%w: limit %q must be a positive integer", core.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	summaries, err := s.analyses.ListAnalyses(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]AnalysisSummaryView, 0, len(summaries))
	for _, row := range summaries {
		views = append(views, AnalysisSummaryView{
			ID:        row.ID.String(),
			Label:     row.Label,
			CreatedAt: row.CreatedAt.Time().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, ListAnalysesResponse{Analyses: views})
}

func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.analyses.DeleteAnalysis(r.Context(), core.AnalysisID(id)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeJSON rejects malformed bodies as invalid input.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", core.ErrInvalidInput, err)
	}
	return nil
}

// decodePrediction parses the shared shape of both prediction endpoints.
func decodePrediction(r *http.Request) (distribution.Spec, distribution.Coefficients, PredictRequest, error) {
	var req PredictRequest
	if err := decodeJSON(r, &req); err != nil {
		return distribution.Spec{}, distribution.Coefficients{}, req, err
	}

	spec, err := distribution.NewSpec(distribution.Family(req.Family), req.Threshold)
	if err != nil {
		return distribution.Spec{}, distribution.Coefficients{}, req, err
	}

	coeffs := distribution.Coefficients{
		Mu:           req.Coefficients.Mu,
		Sigma:        req.Coefficients.Sigma,
		Threshold:    req.Coefficients.Threshold,
		HasThreshold: req.Threshold,
	}
	return spec, coeffs, req, nil
}

// sampleFromInputs validates and converts request observations.
func sampleFromInputs(inputs []ObservationInput) (lifedata.Sample, error) {
	if len(inputs) == 0 {
		return lifedata.Sample{}, fmt.Errorf("%w: observations are required", core.ErrInvalidInput)
	}

	observations := make([]lifedata.Observation, len(inputs))
	for i, in := range inputs {
		if in.Failure == nil {
			return lifedata.Sample{}, fmt.Errorf("%w: observation %d is missing the failure flag", core.ErrInvalidInput, i)
		}
		obs := lifedata.NewObservation(in.Characteristic, *in.Failure)
		if in.ID != "" {
			obs.ID = core.ObservationID(in.ID)
		}
		observations[i] = obs
	}
	return lifedata.NewSample(observations)
}

func rankMethod(name string) lifedata.RankMethod {
	if name == "" {
		return lifedata.MethodJohnson
	}
	return lifedata.RankMethod(name)
}
