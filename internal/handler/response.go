package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON or writeError, so every response
// has the same shape:
//
//	success: whatever the endpoint documents
//	failure: {"error": "not_found", "message": "car not found with id abc123"}
//
// The frontend can always read "message" for something to show the user.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/car-listings/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status and error code.
//
// ERROR MAPPING:
//
//	ErrValidation         → 400 validation_error
//	ErrDuplicate          → 400 duplicate           (signup with a taken email)
//	ErrInvalidCredentials → 400 invalid_credentials (login)
//	ErrUnauthorized       → 401 unauthorized
//	ErrNotFound           → 404 not_found           (including other people's cars)
//	anything else         → 500 internal_error
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrDuplicate):
		return http.StatusBadRequest, "duplicate"
	case errors.Is(err, apperror.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid_credentials"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps err to a status code and sends it.
//
// Only *apperror.AppError messages reach the client. Anything else is logged
// with the full error chain and answered with a generic 500, because a raw
// error can carry SQL, file paths or hostnames.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, code := statusFor(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{Error: code, Message: appErr.Message})
			return
		}
	}

	logger.Error("request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
