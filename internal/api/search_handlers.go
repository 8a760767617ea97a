package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/catalogapp/catalog-server/internal/errors"
	"github.com/catalogapp/catalog-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchEntries",
		Method:      http.MethodGet,
		Path:        Prefix + "/search",
		Summary:     "Search entries",
		Description: "Full-text search over entry names, tags and links with typo tolerance",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput holds the query parameters.
type SearchInput struct {
	Q     string `query:"q" doc:"Search text"`
	Limit int    `query:"limit" minimum:"0" maximum:"100" doc:"Maximum hits, default 20"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	if s.services.Search == nil {
		return nil, domainerrors.Unavailable("search is disabled")
	}
	res, err := s.services.Search.Search(ctx, input.Q, input.Limit)
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: res}, nil
}
