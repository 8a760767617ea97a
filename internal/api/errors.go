package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/store"
)

// APIError is the body of every API error response. It implements
// huma.StatusError.
type APIError struct { //nolint:revive // API prefix reads better at call sites
	status  int
	Message string `json:"error" doc:"Human-readable error message"`
	Code    string `json:"code" doc:"Machine-readable error code"`
	Details any    `json:"details,omitempty" doc:"Per-field messages or other context"`
}

func (e *APIError) Error() string { return e.Message }

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int { return e.status }

// ContentType keeps errors as plain JSON rather than problem+json.
func (e *APIError) ContentType(_ string) string { return "application/json" }

func newAPIError(code domainerrors.Code, message string, details any) *APIError {
	return &APIError{status: code.HTTPStatus(), Message: message, Code: string(code), Details: details}
}

// RegisterErrorHandler replaces huma.NewError so that every error leaving an
// operation, including huma's own schema failures, uses the APIError shape.
//
//   - domain errors and store errors keep their status and message
//   - request validation failures (422) become 400 VALIDATION with details
//   - anything at or above 500 becomes a generic message and is logged
func RegisterErrorHandler(logger *slog.Logger) {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) && domainErr.Code != domainerrors.CodeInternal {
				return newAPIError(domainErr.Code, domainErr.Message, domainErr.Details)
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
				return newAPIError(domainerrors.CodeForStatus(storeErr.HTTPCode()), storeErr.Message, nil)
			}
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("request failed", "status", status, "message", message, "error", errors.Join(errs...))
			}
			if status == http.StatusServiceUnavailable {
				return newAPIError(domainerrors.CodeUnavailable, message, nil)
			}
			return newAPIError(domainerrors.CodeInternal, domainerrors.ErrInternal.Message, nil)
		}

		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			return newAPIError(domainerrors.CodeValidation, message, validationDetails(errs))
		}

		return &APIError{status: status, Message: message, Code: string(domainerrors.CodeForStatus(status))}
	}
}

// validationDetails turns huma's error details into field -> message, keyed
// like the service validator ("name", "tags[0]").
func validationDetails(errs []error) map[string]string {
	var details map[string]string
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			continue
		}
		if details == nil {
			details = make(map[string]string)
		}
		field := strings.TrimPrefix(strings.TrimPrefix(detail.Location, "body"), ".")
		if field == "" {
			field = "body"
		}
		if _, seen := details[field]; !seen {
			details[field] = detail.Message
		}
	}
	return details
}

// writeError writes err for routes outside huma (chi fallbacks).
func writeError(w http.ResponseWriter, err huma.StatusError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.GetStatus())
	_ = json.NewEncoder(w).Encode(err)
}
