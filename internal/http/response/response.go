// Package response provides standardized HTTP response formatting and error handling utilities.
//
// Every response carries a top-level "success" boolean. Success payloads are
// written flat (the handler's response struct embeds Success itself) so the
// wire shapes match the API contract exactly; error responses use the shared
// envelope {success:false, error:"..."}.
package response

import (
	"encoding/json/v2"
	"log/slog"
	"net/http"
)

// ErrorEnvelope is the JSON shape of every failed response.
type ErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSON writes a JSON response with the given status code using json/v2.
// The payload is marshaled as-is; it must carry its own success field.
func JSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, payload); err != nil {
		if logger != nil {
			logger.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, payload any, logger *slog.Logger) {
	JSON(w, http.StatusOK, payload, logger)
}

// Created writes a created response (201 Created).
func Created(w http.ResponseWriter, payload any, logger *slog.Logger) {
	JSON(w, http.StatusCreated, payload, logger)
}

// Error writes an error response with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	JSON(w, status, ErrorEnvelope{Success: false, Error: message}, logger)
}

// BadRequest writes a 400 Bad Request response.
func BadRequest(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusBadRequest, message, logger)
}

// NotFound writes a 404 Not Found response.
func NotFound(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusNotFound, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}

// InternalError writes a 500 Internal Server Error response.
// The message should be generic; internal detail belongs in logs, not responses.
func InternalError(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusInternalServerError, message, logger)
}
