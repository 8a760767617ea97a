package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedStoreTags bypasses the tag name length check, for single letter tags.
func (ts *testServer) seedStoreTags(t *testing.T, names ...string) {
	t.Helper()
	for _, n := range names {
		_, _, err := ts.store.CreateOrGetTag(context.Background(), n)
		require.NoError(t, err)
	}
}

func (ts *testServer) createEntry(t *testing.T, body map[string]any) EntryResponse {
	t.Helper()
	resp := ts.api.Post("/api/entry", body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[EntryResponse](t, resp)
}

func listedIDs(t *testing.T, ts *testServer, query string) []string {
	t.Helper()
	resp := ts.api.Get("/api/entry" + query)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	out := decode[ListEntriesResponse](t, resp)
	ids := make([]string, len(out.Entries))
	for i, e := range out.Entries {
		ids[i] = e.ID
	}
	return ids
}

func TestCreateEntry_FilterRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedStoreTags(t, "a", "b", "c")

	created := ts.createEntry(t, map[string]any{"name": "Foo", "tags": []string{"a", "b"}})

	require.NotNil(t, created.Entry)
	assert.NotEmpty(t, created.Entry.ID)
	assert.Equal(t, "Foo", created.Entry.Name)
	assert.ElementsMatch(t, []string{"a", "b"}, created.Entry.TagNames())

	assert.Contains(t, listedIDs(t, ts, "?tags=a,b"), created.Entry.ID)
	assert.NotContains(t, listedIDs(t, ts, "?tags=a,c"), created.Entry.ID)
}

func TestCreateEntry_UnknownPropertiesDropped(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedStoreTags(t, "go")

	created := ts.createEntry(t, map[string]any{"name": "Foo", "tags": []string{"go"}, "stars": 5, "id": "ent-forged"})

	assert.NotEqual(t, "ent-forged", created.Entry.ID)
	assert.NotContains(t, ts.api.Get("/api/entry/"+created.Entry.ID).Body.String(), "stars")
}

func TestListEntries_EmptyCatalog(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/entry")

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"entries":[]}`, resp.Body.String())
}

func TestListEntries_NameAndTags(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go", "web")

	catalog := ts.createEntry(t, map[string]any{"name": "Catalog", "tags": []string{"go", "web"}})
	concat := ts.createEntry(t, map[string]any{"name": "concat", "tags": []string{"go"}})
	other := ts.createEntry(t, map[string]any{"name": "Other", "tags": []string{"web"}})

	assert.Equal(t, []string{catalog.Entry.ID, concat.Entry.ID, other.Entry.ID}, listedIDs(t, ts, ""))
	assert.Equal(t, []string{catalog.Entry.ID, concat.Entry.ID}, listedIDs(t, ts, "?name=CAT"))
	assert.Equal(t, []string{catalog.Entry.ID}, listedIDs(t, ts, "?name=cat&tags=web"))
	assert.Equal(t, []string{catalog.Entry.ID, other.Entry.ID}, listedIDs(t, ts, "?tags=web,,"))
	assert.Empty(t, listedIDs(t, ts, "?tags=Go"))
}

func TestCreateEntry_Validation(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go")

	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing name", map[string]any{"tags": []string{"go"}}, "body"},
		{"empty name", map[string]any{"name": "", "tags": []string{"go"}}, "name"},
		{"no tags", map[string]any{"name": "x", "tags": []string{}}, "tags"},
		{"bad website", map[string]any{"name": "x", "tags": []string{"go"}, "websiteUrl": "not a url"}, "websiteUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/entry", tt.body)

			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			body := decode[APIError](t, resp)
			assert.Equal(t, "VALIDATION", body.Code)
			assert.Contains(t, body.Details, tt.field)
		})
	}

	assert.Empty(t, listedIDs(t, ts, ""))
}

func TestCreateEntry_EmptyURLsAccepted(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go")

	created := ts.createEntry(t, map[string]any{
		"name": "x", "tags": []string{"go"}, "websiteUrl": "", "githubUrl": "https://github.com/x/x",
	})

	assert.Empty(t, created.Entry.WebsiteURL)
	assert.Equal(t, "https://github.com/x/x", created.Entry.GitHubURL)
}

func TestCreateEntry_UnknownTagsRejected(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go")

	resp := ts.api.Post("/api/entry", map[string]any{"name": "x", "tags": []string{"go", "nope", "zz"}})

	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	body := decode[APIError](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Equal(t, map[string]any{"tags": "unknown tags: nope, zz"}, body.Details)
	assert.Empty(t, listedIDs(t, ts, ""))
}

func TestGetEntry(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go")
	created := ts.createEntry(t, map[string]any{"name": "x", "tags": []string{"go"}})

	resp := ts.api.Get("/api/entry/" + created.Entry.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.Entry.ID, decode[EntryResponse](t, resp).Entry.ID)

	resp = ts.api.Get("/api/entry/ent-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[APIError](t, resp).Code)
}

func TestUpdateEntry(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go")
	created := ts.createEntry(t, map[string]any{"name": "x", "tags": []string{"go"}})

	resp := ts.api.Put("/api/entry/"+created.Entry.ID, map[string]any{
		"name": "renamed", "tags": []string{"go"}, "websiteUrl": "https://example.com",
	})

	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[EntryResponse](t, resp).Entry
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, "https://example.com", updated.WebsiteURL)
	assert.Equal(t, []string{"go"}, updated.TagNames())
	assert.False(t, updated.UpdatedAt.Before(created.Entry.UpdatedAt))
}

func TestUpdateEntry_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/entry/ent-missing", map[string]any{"name": "x", "tags": []string{"go"}})

	assert.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
}

func TestDeleteEntry(t *testing.T) {
	ts := setupTestServer(t)
	ts.seedTags(t, "go", "web")
	created := ts.createEntry(t, map[string]any{"name": "x", "tags": []string{"go", "web"}})

	resp := ts.api.Delete("/api/entry/" + created.Entry.ID)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"success":true}`, resp.Body.String())

	assert.Empty(t, listedIDs(t, ts, "?tags=go"))
	assert.Equal(t, http.StatusNotFound, ts.api.Get("/api/entry/"+created.Entry.ID).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/entry/"+created.Entry.ID).Code)
}
