package api

import (
	"encoding/json"
	"log"
	"net/http"

	"golifetime/domain/core"
)

// writeError maps domain errors onto HTTP statuses. Bad requests are the
// caller's fault (400), estimation failures on valid input are unprocessable
// (422) with a machine-readable kind, everything else is a 500 with the
// detail kept server-side.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsInvalidInputError(err), core.IsInsufficientDataError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case core.IsUnsupportedOperationError(err):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "unsupported_operation"})
	case core.IsSingularFitError(err):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "singular_fit"})
	case core.IsConvergenceError(err):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Kind: "no_convergence"})
	case core.IsNotFoundError(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		log.Printf("[API] internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}
