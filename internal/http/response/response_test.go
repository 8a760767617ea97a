package response

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/store"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusCreated, map[string]string{"id": "ent-1"}, nil)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"ent-1"}`, w.Body.String())
}

func TestText(t *testing.T) {
	w := httptest.NewRecorder()

	Text(w, http.StatusServiceUnavailable, "Build frontend first")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "Build frontend first", w.Body.String())
}

func TestStatusHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   string
	}{
		{"unauthorized", func(w http.ResponseWriter) { Unauthorized(w, "login required", nil) }, 401, "UNAUTHORIZED"},
		{"rate limited", func(w http.ResponseWriter) { TooManyRequests(w, "slow down", nil) }, 429, "RATE_LIMITED"},
		{"internal", func(w http.ResponseWriter) { InternalError(w, nil) }, 500, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"domain unauthorized", fmt.Errorf("authenticate: %w", apperrors.Unauthorized("invalid or expired token")), 401, "invalid or expired token"},
		{"domain validation", apperrors.ValidationWithDetails("bad name", nil), 400, "bad name"},
		{"store not found", store.ErrEntryNotFound, 404, "Entry not found"},
		{"store conflict", store.ErrEmailTaken, 409, "email already in use"},
		{"store database", store.ErrDatabase.WithCause(stderrors.New("disk I/O")), 500, "internal server error"},
		{"domain internal", apperrors.ErrInternal.WithCause(stderrors.New("secret detail")), 500, "internal server error"},
		{"unknown", stderrors.New("boom"), 500, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			HandleError(w, tt.err, logger.Discard().Logger)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Error)
		})
	}
}

func TestHandleError_KeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := apperrors.ValidationWithDetails("unknown tags", map[string]string{"tags": "unknown tags: x"})

	HandleError(w, err, nil)

	assert.JSONEq(t, `{"error":"unknown tags","code":"VALIDATION","details":{"tags":"unknown tags: x"}}`, w.Body.String())
}
