package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/ledger-client-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// and reports false.
func decodeBody(r *http.Request, v any) (bool, error) {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// handleServiceError maps domain errors to HTTP responses. Backend
// messages pass through unchanged so the caller sees the same text the
// backend produced.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var network *domain.ErrNetwork
	var httpErr *domain.ErrHTTP
	var validation *domain.ErrValidation
	var unauthorized *domain.ErrUnauthorized
	var submitting *domain.ErrSubmitting
	var unexpected *domain.ErrUnexpectedResponse

	switch {
	case errors.As(err, &network):
		logger.Warn("backend unreachable", zap.Error(network.Err))
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &httpErr):
		status := httpErr.Status
		if status < 400 || status >= 500 {
			status = http.StatusBadGateway
		}
		logger.Debug("backend rejected request",
			zap.Int("backend_status", httpErr.Status),
			zap.String("error", err.Error()),
		)
		writeError(w, status, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &unauthorized):
		logger.Debug("no session", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &submitting):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &unexpected):
		logger.Error("unexpected backend response", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
