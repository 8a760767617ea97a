package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// mappingVersion is bumped whenever buildIndexMapping changes so existing
// on-disk indexes are rebuilt at startup.
const mappingVersion = "1"

// Index wraps a Bleve index. All methods are safe for concurrent use; Rebuild
// takes an exclusive lock.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the index.
type Options struct {
	// Path is the index directory. Empty keeps the index in memory.
	Path   string
	Logger *slog.Logger
}

// Open opens the index at opts.Path, creating it when missing. An index with
// an outdated mapping version or one that fails to open is recreated empty;
// callers should reindex when DocumentCount reports zero.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.Path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create memory index: %w", err)
		}
		return &Index{index: idx, logger: logger}, nil
	}

	versionPath := opts.Path + ".version"
	needsRebuild := false

	_, statErr := os.Stat(opts.Path)
	exists := statErr == nil
	if exists {
		existing, err := os.ReadFile(versionPath)
		if err != nil || string(existing) != mappingVersion {
			logger.Info("search index mapping changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	var idx bleve.Index
	if exists && !needsRebuild {
		var err error
		idx, err = bleve.Open(opts.Path)
		if err != nil {
			logger.Warn("failed to open search index, recreating", "path", opts.Path, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(opts.Path); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		idx = nil
	}

	if idx == nil {
		var err error
		idx, err = bleve.New(opts.Path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created search index", "path", opts.Path, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened search index", "path", opts.Path)
	}

	return &Index{index: idx, path: opts.Path, logger: logger}, nil
}

// Close releases the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexEntry adds or replaces one document.
func (s *Index) IndexEntry(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.toMap())
}

// IndexEntries indexes docs in batches of 500.
func (s *Index) IndexEntries(ctx context.Context, docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(docs); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteEntry removes a document. Deleting an unknown id is not an error.
func (s *Index) DeleteEntry(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and starts from an empty index.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}

	var (
		idx bleve.Index
		err error
	)
	if s.path == "" {
		idx, err = bleve.NewMemOnly(buildIndexMapping())
	} else {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
		idx, err = bleve.New(s.path, buildIndexMapping())
	}
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = idx
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
