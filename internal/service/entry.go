package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/catalogapp/catalog-server/internal/domain"
	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/filter"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/validation"
)

// Indexer keeps a secondary index in step with entry writes.
type Indexer interface {
	IndexEntry(ctx context.Context, e *domain.EntryWithTags) error
	RemoveEntry(ctx context.Context, id string) error
}

// EntryRequest is the body accepted by create and update.
type EntryRequest struct {
	Name       string   `json:"name" validate:"required,min=1"`
	Tags       []string `json:"tags" validate:"required,min=1,dive,required"`
	WebsiteURL string   `json:"websiteUrl" validate:"omitempty,url"`
	GitHubURL  string   `json:"githubUrl" validate:"omitempty,url"`
}

func (r EntryRequest) fields() domain.EntryFields {
	return domain.EntryFields{Name: r.Name, WebsiteURL: r.WebsiteURL, GitHubURL: r.GitHubURL}
}

// ListEntriesQuery selects entries by name substring and required tags.
type ListEntriesQuery struct {
	Name string
	Tags []string
}

// EntryService implements the entry operations behind the API.
type EntryService struct {
	store     store.Store
	validator *validation.Validator
	indexer   Indexer
	logger    *slog.Logger
}

// NewEntryService creates an entry service. indexer may be nil.
func NewEntryService(store store.Store, validator *validation.Validator, indexer Indexer, logger *slog.Logger) *EntryService {
	return &EntryService{
		store:     store,
		validator: validator,
		indexer:   indexer,
		logger:    logger,
	}
}

// Create stores a new entry with the given tags. Every tag must already
// exist; unknown names fail validation before anything is written.
func (s *EntryService) Create(ctx context.Context, req EntryRequest) (*domain.EntryWithTags, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	names := dedupe(req.Tags)
	existing, err := s.store.GetTagsByName(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("resolve tags: %w", err)
	}
	if missing := missingTags(names, existing); len(missing) > 0 {
		return nil, domainerrors.ValidationWithDetails("unknown tags", map[string]string{
			"tags": "unknown tags: " + strings.Join(missing, ", "),
		})
	}

	f := req.fields()
	entry, err := s.store.CreateEntry(ctx, &domain.Entry{
		Name:       f.Name,
		WebsiteURL: f.WebsiteURL,
		GitHubURL:  f.GitHubURL,
	}, names)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.index(ctx, entry)
	s.logger.Info("entry created", "entry_id", entry.ID, "tags", len(entry.Tags))
	return entry, nil
}

// List returns entries matching q in insertion order.
func (s *EntryService) List(ctx context.Context, q ListEntriesQuery) ([]*domain.EntryWithTags, error) {
	entries, err := s.store.ListEntries(ctx, store.EntryFilter{Name: q.Name})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return filter.Entries(entries, filter.Query{Name: q.Name, Tags: q.Tags}), nil
}

// Get returns one entry with its tags.
func (s *EntryService) Get(ctx context.Context, id string) (*domain.EntryWithTags, error) {
	return s.store.GetEntry(ctx, id)
}

// Update overwrites the entry's name and links. Tag associations are kept;
// req.Tags is validated for shape only.
func (s *EntryService) Update(ctx context.Context, id string, req EntryRequest) (*domain.EntryWithTags, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	entry, err := s.store.UpdateEntry(ctx, id, req.fields())
	if err != nil {
		return nil, err
	}

	s.index(ctx, entry)
	s.logger.Info("entry updated", "entry_id", id)
	return entry, nil
}

// Delete removes the entry and its tag links.
func (s *EntryService) Delete(ctx context.Context, id string) error {
	removed, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}

	if s.indexer != nil {
		if err := s.indexer.RemoveEntry(ctx, id); err != nil {
			s.logger.Warn("failed to remove entry from search index", "entry_id", id, "error", err)
		}
	}
	s.logger.Info("entry deleted", "entry_id", id, "tag_links", removed)
	return nil
}

// index failures are logged, never returned: the store is the source of
// truth and a reindex repairs the search side.
func (s *EntryService) index(ctx context.Context, e *domain.EntryWithTags) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexEntry(ctx, e); err != nil {
		s.logger.Warn("failed to index entry", "entry_id", e.ID, "error", err)
	}
}

func dedupe(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func missingTags(names []string, found []*domain.Tag) []string {
	have := make(map[string]struct{}, len(found))
	for _, t := range found {
		have[t.Name] = struct{}{}
	}
	var missing []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
