package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charlenopires/codegraph/pkg/cgerr"
)

func (s *Server) readJSON(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, s.config.MaxRequestSize)
	return json.NewDecoder(body).Decode(v)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error":   true,
		"message": message,
	})
}

// writeDomainError maps a cgerr sentinel to an HTTP status, falling back
// to 500 for anything unrecognised.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cgerr.ErrEntityNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cgerr.ErrMalformedStatement), errors.Is(err, cgerr.ErrInvalidTruthValue), errors.Is(err, cgerr.ErrConfigInvalid), errors.Is(err, cgerr.ErrEmbeddingDimensionMismatch):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cgerr.ErrRetrievalUnavailable), errors.Is(err, cgerr.ErrReasonerUnavailable):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, cgerr.ErrFeedbackPermanent):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}
