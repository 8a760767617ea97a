package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/search"
	"github.com/catalogapp/catalog-server/internal/validation"
)

func newTestSearchService(t *testing.T) (*SearchService, *EntryService) {
	t.Helper()
	s := newTestStore(t)
	seedTags(t, s, "go", "web")

	idx, err := search.Open(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	log := logger.Discard().Logger
	searchSvc := NewSearchService(idx, s, log)
	return searchSvc, NewEntryService(s, validation.New(), searchSvc, log)
}

func TestSearchService_TracksEntryWrites(t *testing.T) {
	searchSvc, entries := newTestSearchService(t)
	ctx := context.Background()

	created, err := entries.Create(ctx, EntryRequest{Name: "Catalog Server", Tags: []string{"go"}})
	require.NoError(t, err)

	res, err := searchSvc.Search(ctx, "catalog", 10)
	require.NoError(t, err)
	require.Len(t, res.Hits, 1)
	assert.Equal(t, created.ID, res.Hits[0].ID)

	_, err = entries.Update(ctx, created.ID, EntryRequest{Name: "Widget", Tags: []string{"go"}})
	require.NoError(t, err)
	res, err = searchSvc.Search(ctx, "catalog", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)

	require.NoError(t, entries.Delete(ctx, created.ID))
	res, err = searchSvc.Search(ctx, "widget", 10)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearchService_EnsureIndexedRebuildsEmptyIndex(t *testing.T) {
	s := newTestStore(t)
	seedTags(t, s, "go")
	entries := NewEntryService(s, validation.New(), nil, logger.Discard().Logger)
	_, err := entries.Create(context.Background(), EntryRequest{Name: "Alpha", Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = entries.Create(context.Background(), EntryRequest{Name: "Beta", Tags: []string{"go"}})
	require.NoError(t, err)

	idx, err := search.Open(search.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	svc := NewSearchService(idx, s, logger.Discard().Logger)

	require.NoError(t, svc.EnsureIndexed(context.Background()))

	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	res, err := svc.Search(context.Background(), "go", 10)
	require.NoError(t, err)
	assert.Len(t, res.Hits, 2)
}
