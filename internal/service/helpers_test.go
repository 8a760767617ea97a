package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/logger"
	"github.com/catalogapp/catalog-server/internal/store/sqlite"
	"github.com/catalogapp/catalog-server/internal/validation"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger.Discard().Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedTags(t *testing.T, s *sqlite.Store, names ...string) {
	t.Helper()
	for _, n := range names {
		_, _, err := s.CreateOrGetTag(context.Background(), n)
		require.NoError(t, err)
	}
}

// recordingIndexer captures Indexer calls.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	removed []string
	err     error
}

func (r *recordingIndexer) IndexEntry(_ context.Context, e *domain.EntryWithTags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, e.ID)
	return r.err
}

func (r *recordingIndexer) RemoveEntry(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed = append(r.removed, id)
	return r.err
}

var errIndexDown = errors.New("index down")

func newTestEntryService(t *testing.T, tags ...string) (*EntryService, *sqlite.Store, *recordingIndexer) {
	t.Helper()
	s := newTestStore(t)
	seedTags(t, s, tags...)
	idx := &recordingIndexer{}
	return NewEntryService(s, validation.New(), idx, logger.Discard().Logger), s, idx
}
