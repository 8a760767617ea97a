package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/store"
	"github.com/catalogapp/catalog-server/internal/validation"
)

// TagRequest is the body accepted by tag creation.
type TagRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// TagService manages the global tag list.
type TagService struct {
	store     store.Store
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a tag service.
func NewTagService(store store.Store, validator *validation.Validator, logger *slog.Logger) *TagService {
	return &TagService{store: store, validator: validator, logger: logger}
}

// CreateOrGet returns the tag named req.Name, creating it on first use.
// created reports whether this call inserted it.
func (s *TagService) CreateOrGet(ctx context.Context, req TagRequest) (tag *domain.Tag, created bool, err error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}

	tag, created, err = s.store.CreateOrGetTag(ctx, req.Name)
	if err != nil {
		return nil, false, fmt.Errorf("create tag: %w", err)
	}
	if created {
		s.logger.Info("tag created", "tag_id", tag.ID, "name", tag.Name)
	}
	return tag, created, nil
}

// List returns all tags ordered by name.
func (s *TagService) List(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}
