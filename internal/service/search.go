package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/search"
	"github.com/catalogapp/catalog-server/internal/store"
)

// SearchService bridges the bleve index and the store. It satisfies Indexer.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a search service.
func NewSearchService(index *search.Index, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, store: store, logger: logger}
}

// Search runs a full-text query.
func (s *SearchService) Search(ctx context.Context, q string, limit int) (*search.Result, error) {
	return s.index.Search(ctx, q, limit)
}

// IndexEntry implements Indexer.
func (s *SearchService) IndexEntry(_ context.Context, e *domain.EntryWithTags) error {
	if err := s.index.IndexEntry(search.FromEntry(e)); err != nil {
		return fmt.Errorf("index entry: %w", err)
	}
	s.logger.Debug("indexed entry", "entry_id", e.ID)
	return nil
}

// RemoveEntry implements Indexer.
func (s *SearchService) RemoveEntry(_ context.Context, id string) error {
	return s.index.DeleteEntry(id)
}

// Reindex rebuilds the index from every stored entry and returns how many
// were indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	entries, err := s.store.ListEntries(ctx, store.EntryFilter{})
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}

	docs := make([]*search.Document, len(entries))
	for i, e := range entries {
		docs[i] = search.FromEntry(e)
	}
	if err := s.index.IndexEntries(ctx, docs); err != nil {
		return 0, err
	}

	s.logger.Info("search index rebuilt", "entries", len(docs))
	return len(docs), nil
}

// EnsureIndexed reindexes when the index is empty, as after a first start or
// a mapping change.
func (s *SearchService) EnsureIndexed(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err = s.Reindex(ctx)
	return err
}

// DocumentCount reports how many entries are indexed.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}
