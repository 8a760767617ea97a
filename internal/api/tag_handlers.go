package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        Prefix + "/tag",
		Summary:     "List tags",
		Description: "Returns every tag ordered by name",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          Prefix + "/tag",
		Summary:       "Create or get tag",
		Description:   "Returns the tag with this name, creating it first if needed",
		Tags:          []string{"Tags"},
		DefaultStatus: http.StatusOK,
	}, s.handleCreateTag)
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Name string `json:"name" minLength:"2" doc:"Tag name, unique across the catalog"`
}

// CreateTagInput wraps the create tag request for Huma.
type CreateTagInput struct {
	Body CreateTagRequest
}

// TagResponse wraps one tag.
type TagResponse struct {
	Tag *domain.Tag `json:"tag"`
}

// TagOutput wraps the tag response for Huma.
type TagOutput struct {
	Body TagResponse
}

// ListTagsResponse contains every tag.
type ListTagsResponse struct {
	Tags []*domain.Tag `json:"tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags, err := s.services.Tag.List(ctx)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: tags}}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	tag, _, err := s.services.Tag.CreateOrGet(ctx, service.TagRequest{Name: input.Body.Name})
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: TagResponse{Tag: tag}}, nil
}
