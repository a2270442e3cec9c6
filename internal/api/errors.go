package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mbonsma/cyclelinx/internal/history"
	"github.com/mbonsma/cyclelinx/internal/plan"
	"github.com/mbonsma/cyclelinx/pkg/scoring"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, plan.ErrStaleResponse):
		return http.StatusAccepted
	case errors.Is(err, history.ErrDuplicateName), errors.Is(err, plan.ErrNothingToSave):
		return http.StatusConflict
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, history.ErrEmptyName),
		errors.Is(err, plan.ErrUnknownSegment),
		errors.Is(err, plan.ErrUnknownMetric):
		return http.StatusBadRequest
	case errors.Is(err, scoring.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("api: unhandled error", zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
