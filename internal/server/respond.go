package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"enrprod/internal/loader"
	"enrprod/internal/normalizer"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// writeDatasetError reports a failure to obtain the dataset. Load failures
// are 503 since the source may come back, a source whose columns do not
// match the schema is 422 and anything else is a 500.
func (s *Server) writeDatasetError(w http.ResponseWriter, err error) {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		s.log.Warn("Dataset unavailable", "error", err)
		s.writeError(w, http.StatusServiceUnavailable, err)

		return
	}

	if errors.Is(err, normalizer.ErrMissingColumn) || errors.Is(err, normalizer.ErrSchemaDrift) {
		s.log.Warn("Dataset does not match the schema", "error", err)
		s.writeError(w, http.StatusUnprocessableEntity, err)

		return
	}

	s.log.Error("Dataset build failed", "error", err)
	s.writeError(w, http.StatusInternalServerError, err)
}
