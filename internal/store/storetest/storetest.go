// Package storetest holds behavior tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/store"
)

// Factory returns a fresh, empty store. It should register its own cleanup.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateOrGetTagIsIdempotent", testCreateOrGetTagIsIdempotent},
		{"CreateOrGetTagConcurrent", testCreateOrGetTagConcurrent},
		{"ListTagsSortedAndNeverNil", testListTags},
		{"GetTagsByNameSkipsUnknown", testGetTagsByName},
		{"CreateEntryAttachesKnownTags", testCreateEntryAttachesKnownTags},
		{"CreateEntryAssignsIDAndDefaults", testCreateEntryDefaults},
		{"ListEntriesInsertionOrder", testListEntriesOrder},
		{"ListEntriesNameSubstring", testListEntriesName},
		{"GetEntryNotFound", testGetEntryNotFound},
		{"UpdateEntryKeepsTags", testUpdateEntryKeepsTags},
		{"UpdateEntryNotFound", testUpdateEntryNotFound},
		{"DeleteEntryRemovesJoinRowsThenEntry", testDeleteEntry},
		{"DeleteMissingEntryChangesNothing", testDeleteMissingEntry},
		{"AttachTags", testAttachTags},
		{"Users", testUsers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustTags(t *testing.T, s store.Store, names ...string) map[string]*domain.Tag {
	t.Helper()
	out := make(map[string]*domain.Tag, len(names))
	for _, n := range names {
		tag, _, err := s.CreateOrGetTag(context.Background(), n)
		require.NoError(t, err)
		out[n] = tag
	}
	return out
}

func mustEntry(t *testing.T, s store.Store, name string, tags ...string) *domain.EntryWithTags {
	t.Helper()
	e, err := s.CreateEntry(context.Background(), &domain.Entry{Name: name}, tags)
	require.NoError(t, err)
	return e
}

func sortedNames(e *domain.EntryWithTags) []string {
	names := e.TagNames()
	sort.Strings(names)
	return names
}

func entryIDs(entries []*domain.EntryWithTags) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func testCreateOrGetTagIsIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	first, created, err := s.CreateOrGetTag(ctx, "golang")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, first.ID)

	again, created, err := s.CreateOrGetTag(ctx, "golang")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	other, created, err := s.CreateOrGetTag(ctx, "Golang")
	require.NoError(t, err)
	assert.True(t, created, "names compare exactly")
	assert.NotEqual(t, first.ID, other.ID)

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func testCreateOrGetTagConcurrent(t *testing.T, s store.Store) {
	ctx := context.Background()
	const workers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ids     = map[string]bool{}
		creates int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, created, err := s.CreateOrGetTag(ctx, "race")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[tag.ID] = true
			if created {
				creates++
			}
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1, "every caller sees the same tag")
	assert.Equal(t, 1, creates, "exactly one caller creates it")
}

func testListTags(t *testing.T, s store.Store) {
	ctx := context.Background()

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)

	mustTags(t, s, "web", "cli", "go")
	tags, err = s.ListTags(ctx)
	require.NoError(t, err)

	var names []string
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"cli", "go", "web"}, names)
}

func testGetTagsByName(t *testing.T, s store.Store) {
	mustTags(t, s, "go", "web")

	tags, err := s.GetTagsByName(context.Background(), []string{"web", "missing", "go", "go"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	assert.Equal(t, "web", tags[1].Name)

	none, err := s.GetTagsByName(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCreateEntryAttachesKnownTags(t *testing.T, s store.Store) {
	tags := mustTags(t, s, "a", "b")

	e := mustEntry(t, s, "Foo", "a", "b", "unknown")
	assert.Equal(t, []string{"a", "b"}, sortedNames(e))

	got, err := s.GetEntry(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.Name)
	assert.Equal(t, []string{"a", "b"}, sortedNames(got))
	assert.True(t, got.HasTag("a"))
	for _, tag := range got.Tags {
		assert.Equal(t, tags[tag.Name].ID, tag.ID)
	}
}

func testCreateEntryDefaults(t *testing.T, s store.Store) {
	e := mustEntry(t, s, "bare")

	assert.NotEmpty(t, e.ID)
	assert.Empty(t, e.WebsiteURL)
	assert.Empty(t, e.GitHubURL)
	assert.False(t, e.CreatedAt.IsZero())
	assert.Equal(t, e.CreatedAt, e.UpdatedAt)
	assert.NotNil(t, e.Tags)
	assert.Empty(t, e.Tags)

	_, err := s.CreateEntry(context.Background(), &domain.Entry{ID: e.ID, Name: "dup"}, nil)
	assert.True(t, errors.Is(err, store.ErrAlreadyExists), "got %v", err)
}

func testListEntriesOrder(t *testing.T, s store.Store) {
	mustTags(t, s, "x")
	var want []string
	for i := range 5 {
		want = append(want, mustEntry(t, s, fmt.Sprintf("entry-%d", i), "x").ID)
	}

	got, err := s.ListEntries(context.Background(), store.EntryFilter{})
	require.NoError(t, err)
	assert.Equal(t, want, entryIDs(got))
	for _, e := range got {
		assert.Equal(t, []string{"x"}, e.TagNames())
	}
}

func testListEntriesName(t *testing.T, s store.Store) {
	ctx := context.Background()
	catalog := mustEntry(t, s, "Catalog")
	mustEntry(t, s, "Dogfood")
	bobcat := mustEntry(t, s, "Bobcat")

	got, err := s.ListEntries(ctx, store.EntryFilter{Name: "cat"})
	require.NoError(t, err)
	assert.Equal(t, []string{catalog.ID, bobcat.ID}, entryIDs(got))

	got, err = s.ListEntries(ctx, store.EntryFilter{Name: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func testGetEntryNotFound(t *testing.T, s store.Store) {
	_, err := s.GetEntry(context.Background(), "ent-missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testUpdateEntryKeepsTags(t *testing.T, s store.Store) {
	mustTags(t, s, "a", "b")
	e := mustEntry(t, s, "old", "a", "b")

	updated, err := s.UpdateEntry(context.Background(), e.ID, domain.EntryFields{
		Name:       "new",
		WebsiteURL: "https://example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, e.ID, updated.ID)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, "https://example.com", updated.WebsiteURL)
	assert.Empty(t, updated.GitHubURL)
	assert.True(t, e.CreatedAt.Equal(updated.CreatedAt))
	assert.False(t, updated.UpdatedAt.Before(e.UpdatedAt))
	assert.Equal(t, []string{"a", "b"}, sortedNames(updated))

	found, err := s.ListEntries(context.Background(), store.EntryFilter{Name: "NEW"})
	require.NoError(t, err)
	assert.Len(t, found, 1, "name index follows updates")
}

func testUpdateEntryNotFound(t *testing.T, s store.Store) {
	_, err := s.UpdateEntry(context.Background(), "ent-missing", domain.EntryFields{Name: "x"})
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testDeleteEntry(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustTags(t, s, "a", "b")
	e := mustEntry(t, s, "doomed", "a", "b")
	keep := mustEntry(t, s, "keeper", "a")

	removed, err := s.DeleteEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetEntry(ctx, e.ID)
	assert.True(t, errors.Is(err, store.ErrNotFound))

	still, err := s.GetEntry(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, still.TagNames())

	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2, "tags outlive their entries")
}

func testDeleteMissingEntry(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustTags(t, s, "a")
	keep := mustEntry(t, s, "keeper", "a")

	removed, err := s.DeleteEntry(ctx, "ent-missing")
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
	assert.Zero(t, removed)

	still, err := s.GetEntry(ctx, keep.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, still.TagNames())
}

func testAttachTags(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustTags(t, s, "a", "b", "c")
	e := mustEntry(t, s, "grow", "a")

	attached, err := s.AttachTags(ctx, e.ID, []string{"a", "b", "nope", "c"})
	require.NoError(t, err)
	var names []string
	for _, tag := range attached {
		names = append(names, tag.Name)
	}
	assert.Equal(t, []string{"b", "c"}, names, "existing link and unknown name are skipped")

	got, err := s.GetEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, sortedNames(got))

	_, err = s.AttachTags(ctx, "ent-missing", []string{"a"})
	assert.True(t, errors.Is(err, store.ErrNotFound), "got %v", err)
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := &domain.User{Name: "Ada", Email: " Ada@Example.com ", HashedPassword: "hash"}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)

	byID, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", byID.Name)
	assert.Equal(t, "hash", byID.HashedPassword)

	byEmail, err := s.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	err = s.CreateUser(ctx, &domain.User{Name: "Other", Email: "ada@example.com", HashedPassword: "x"})
	assert.True(t, errors.Is(err, store.ErrAlreadyExists), "got %v", err)

	_, err = s.GetUser(ctx, "usr-missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
