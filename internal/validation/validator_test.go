package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/validation"
)

type entryRequest struct {
	Name       string   `json:"name" validate:"required,min=1"`
	Tags       []string `json:"tags" validate:"required,min=1,dive,required"`
	WebsiteURL string   `json:"websiteUrl,omitempty" validate:"omitempty,url"`
}

type tagRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok, "details should be a field map")
	return details
}

func TestValidator_Valid(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(entryRequest{Name: "Go", Tags: []string{"lang"}}))
	assert.NoError(t, v.Validate(entryRequest{Name: "Go", Tags: []string{"lang"}, WebsiteURL: "https://go.dev"}))
	assert.NoError(t, v.Validate(tagRequest{Name: "go"}))
}

func TestValidator_FieldMessages(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       any
		wantField string
		wantMsg   string
	}{
		{"missing name", entryRequest{Tags: []string{"a"}}, "name", "is required"},
		{"no tags", entryRequest{Name: "x", Tags: []string{}}, "tags", "must contain at least 1 item(s)"},
		{"nil tags", entryRequest{Name: "x"}, "tags", "is required"},
		{"blank tag", entryRequest{Name: "x", Tags: []string{""}}, "tags[0]", "is required"},
		{"bad url", entryRequest{Name: "x", Tags: []string{"a"}, WebsiteURL: "not a url"}, "websiteUrl", "must be a valid URL"},
		{"short tag", tagRequest{Name: "a"}, "name", "must be at least 2 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := fieldErrors(t, v.Validate(tt.req))
			assert.Equal(t, tt.wantMsg, details[tt.wantField], "details: %v", details)
		})
	}
}
