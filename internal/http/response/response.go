// Package response writes the JSON and plain-text bodies used outside huma:
// edge stage rejections, the render 503, and panics.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/store"
)

// ErrorBody is the error shape shared with the API layer.
type ErrorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Text writes a plain-text body.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Error writes an ErrorBody for code with its mapped status.
func Error(w http.ResponseWriter, code apperrors.Code, message string, details any, logger *slog.Logger) {
	JSON(w, code.HTTPStatus(), ErrorBody{Error: message, Code: string(code), Details: details}, logger)
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, apperrors.CodeUnauthorized, message, nil, logger)
}

// TooManyRequests writes a 429.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, apperrors.CodeRateLimited, message, nil, logger)
}

// InternalError writes a generic 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger) {
	Error(w, apperrors.CodeInternal, apperrors.ErrInternal.Message, nil, logger)
}

// HandleError maps domain and store errors to their status. Anything else is
// logged and answered with a generic 500 so internals never leak.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeInternal {
		Error(w, appErr.Code, appErr.Message, appErr.Details, logger)
		return
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
		Error(w, apperrors.CodeForStatus(storeErr.HTTPCode()), storeErr.Message, nil, logger)
		return
	}

	if logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	InternalError(w, logger)
}
