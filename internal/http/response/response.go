// Package response provides standardized HTTP response formatting for plain chi handlers.
//
// Success bodies carry their own `success: true` field; errors are written as
// {"success": false, "error": ..., "code": ..., "details": ...}.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/affectlab/affectlab-server/internal/errors"
)

// ErrorEnvelope is the failure body shared by every endpoint.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// JSON writes body as JSON with the given status code.
func JSON(w http.ResponseWriter, status int, body any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, body any, logger *slog.Logger) {
	JSON(w, http.StatusOK, body, logger)
}

// Error writes an error envelope with the given status code.
func Error(w http.ResponseWriter, status int, code errors.Code, message string, details any, logger *slog.Logger) {
	JSON(w, status, ErrorEnvelope{
		Success: false,
		Error:   message,
		Code:    string(code),
		Details: details,
	}, logger)
}

// BadRequest writes a 400 invalid input response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, errors.CodeInvalidInput, message, nil, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, errors.CodeNotFound, message, nil, logger)
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, errors.CodeInternal, message, nil, logger)
}

// HandleError writes an appropriate HTTP response based on the error type.
// Domain errors keep their code and status, unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *errors.Error
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus() >= http.StatusInternalServerError && logger != nil {
			logger.Error("Request failed", "error", err, "code", domainErr.Code)
		}
		Error(w, domainErr.HTTPStatus(), domainErr.Code, domainErr.Message, domainErr.Details, logger)
		return
	}

	if logger != nil {
		logger.Error("Unhandled error", "error", err)
	}
	InternalError(w, "internal server error", logger)
}
