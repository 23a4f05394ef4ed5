package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
)

// Envelope wraps every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Envelope{
		Success: status < 400,
		Message: message,
		Data:    data,
	}); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, message, nil)
}

// writeServiceError maps shift errors to status codes. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, logger, status, "Internal server error")
		return
	}
	logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, logger, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shift.ErrShiftNotFound):
		return http.StatusNotFound
	case errors.Is(err, shift.ErrInvalidInput),
		errors.Is(err, shift.ErrUnknownGuideline):
		return http.StatusBadRequest
	case errors.Is(err, shift.ErrNoPassenger),
		errors.Is(err, shift.ErrRideInProgress),
		errors.Is(err, shift.ErrStaleAnalysis),
		errors.Is(err, shift.ErrAlreadyDecided),
		errors.Is(err, shift.ErrShiftOver),
		errors.Is(err, shift.ErrNoPassengersLeft):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
