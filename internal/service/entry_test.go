package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/validation"
)

func TestEntryService_Create(t *testing.T) {
	svc, _, idx := newTestEntryService(t, "go", "web")
	ctx := context.Background()

	entry, err := svc.Create(ctx, EntryRequest{
		Name:       "Foo",
		Tags:       []string{"web", "go", "web"},
		WebsiteURL: "https://foo.dev",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "Foo", entry.Name)
	assert.Equal(t, "https://foo.dev", entry.WebsiteURL)
	assert.Empty(t, entry.GitHubURL)
	assert.ElementsMatch(t, []string{"go", "web"}, entry.TagNames())
	assert.Equal(t, []string{entry.ID}, idx.indexed)
}

func TestEntryService_CreateRejectsUnknownTagsBeforeWriting(t *testing.T) {
	svc, s, idx := newTestEntryService(t, "go")
	ctx := context.Background()

	_, err := svc.Create(ctx, EntryRequest{Name: "Foo", Tags: []string{"go", "rust", "zig"}})
	require.Error(t, err)

	var appErr *domainerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domainerrors.CodeValidation, appErr.Code)
	assert.Equal(t, map[string]string{"tags": "unknown tags: rust, zig"}, appErr.Details)

	entries, err := s.ListEntries(ctx, store.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, idx.indexed)
}

func TestEntryService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   EntryRequest
		field string
	}{
		{"missing name", EntryRequest{Tags: []string{"go"}}, "name"},
		{"no tags", EntryRequest{Name: "Foo", Tags: []string{}}, "tags"},
		{"nil tags", EntryRequest{Name: "Foo"}, "tags"},
		{"empty tag", EntryRequest{Name: "Foo", Tags: []string{""}}, "tags[0]"},
		{"bad website", EntryRequest{Name: "Foo", Tags: []string{"go"}, WebsiteURL: "not a url"}, "websiteUrl"},
		{"bad github", EntryRequest{Name: "Foo", Tags: []string{"go"}, GitHubURL: "github"}, "githubUrl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestEntryService(t, "go")

			_, err := svc.Create(context.Background(), tt.req)

			var appErr *domainerrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, domainerrors.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Details, tt.field)
		})
	}
}

func TestEntryService_ListFiltersByNameAndTags(t *testing.T) {
	svc, _, _ := newTestEntryService(t, "a", "b", "c")
	ctx := context.Background()

	foo, err := svc.Create(ctx, EntryRequest{Name: "Foo", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	bar, err := svc.Create(ctx, EntryRequest{Name: "Catalog", Tags: []string{"a"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		q    ListEntriesQuery
		want []string
	}{
		{"everything", ListEntriesQuery{}, []string{foo.ID, bar.ID}},
		{"all of a,b", ListEntriesQuery{Tags: []string{"a", "b"}}, []string{foo.ID}},
		{"a,c excludes", ListEntriesQuery{Tags: []string{"a", "c"}}, []string{}},
		{"name folded", ListEntriesQuery{Name: "cat"}, []string{bar.ID}},
		{"name and tag", ListEntriesQuery{Name: "o", Tags: []string{"b"}}, []string{foo.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.List(ctx, tt.q)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestEntryService_UpdateKeepsTags(t *testing.T) {
	svc, _, idx := newTestEntryService(t, "go")
	ctx := context.Background()
	created, err := svc.Create(ctx, EntryRequest{Name: "Foo", Tags: []string{"go"}})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, EntryRequest{
		Name:      "Foo 2",
		Tags:      []string{"ignored"},
		GitHubURL: "https://github.com/acme/foo",
	})
	require.NoError(t, err)

	assert.Equal(t, "Foo 2", updated.Name)
	assert.Equal(t, "https://github.com/acme/foo", updated.GitHubURL)
	assert.Equal(t, []string{"go"}, updated.TagNames())
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, []string{created.ID, created.ID}, idx.indexed)
}

func TestEntryService_UpdateMissing(t *testing.T) {
	svc, _, _ := newTestEntryService(t)

	_, err := svc.Update(context.Background(), "ent-missing", EntryRequest{Name: "x", Tags: []string{"go"}})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntryService_Delete(t *testing.T) {
	svc, _, idx := newTestEntryService(t, "go", "web")
	ctx := context.Background()
	created, err := svc.Create(ctx, EntryRequest{Name: "Foo", Tags: []string{"go", "web"}})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []string{created.ID}, idx.removed)

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), store.ErrNotFound)
	assert.Len(t, idx.removed, 1)
}

func TestEntryService_IndexFailuresDoNotFailWrites(t *testing.T) {
	svc, _, idx := newTestEntryService(t, "go")
	idx.err = errIndexDown
	ctx := context.Background()

	created, err := svc.Create(ctx, EntryRequest{Name: "Foo", Tags: []string{"go"}})
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(ctx, created.ID))
}

func TestEntryService_NilIndexer(t *testing.T) {
	s := newTestStore(t)
	seedTags(t, s, "go")
	svc := NewEntryService(s, validation.New(), nil, logger.Discard().Logger)

	_, err := svc.Create(context.Background(), EntryRequest{Name: "Foo", Tags: []string{"go"}})
	assert.NoError(t, err)
}
