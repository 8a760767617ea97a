package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/filter"
	"github.com/catalogapp/catalog-server/internal/service"
)

func (s *Server) registerEntryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createEntry",
		Method:        http.MethodPost,
		Path:          Prefix + "/entry",
		Summary:       "Create entry",
		Description:   "Creates an entry and links it to existing tags. Unknown tag names are rejected.",
		Tags:          []string{"Entries"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "listEntries",
		Method:      http.MethodGet,
		Path:        Prefix + "/entry",
		Summary:     "List entries",
		Description: "Lists entries whose name contains ?name= and that carry every tag in ?tags=.",
		Tags:        []string{"Entries"},
	}, s.handleListEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEntry",
		Method:      http.MethodGet,
		Path:        Prefix + "/entry/{id}",
		Summary:     "Get entry",
		Tags:        []string{"Entries"},
	}, s.handleGetEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateEntry",
		Method:      http.MethodPut,
		Path:        Prefix + "/entry/{id}",
		Summary:     "Update entry",
		Description: "Replaces name and links. Tag links are left as they are.",
		Tags:        []string{"Entries"},
	}, s.handleUpdateEntry)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteEntry",
		Method:      http.MethodDelete,
		Path:        Prefix + "/entry/{id}",
		Summary:     "Delete entry",
		Tags:        []string{"Entries"},
	}, s.handleDeleteEntry)
}

// === DTOs ===

// EntryBody is the request body for create and update. Unknown properties
// are accepted and dropped.
type EntryBody struct {
	_ struct{} `json:"-" additionalProperties:"true"`

	Name       string   `json:"name" minLength:"1" doc:"Entry name"`
	Tags       []string `json:"tags" minItems:"1" doc:"Names of existing tags"`
	WebsiteURL string   `json:"websiteUrl,omitempty" doc:"Project website, a URL or empty"`
	GitHubURL  string   `json:"githubUrl,omitempty" doc:"Source repository, a URL or empty"`
}

func (b EntryBody) request() service.EntryRequest {
	return service.EntryRequest{
		Name:       b.Name,
		Tags:       b.Tags,
		WebsiteURL: b.WebsiteURL,
		GitHubURL:  b.GitHubURL,
	}
}

// EntryInput wraps an entry body for Huma.
type EntryInput struct {
	Body EntryBody
}

// EntryIDInput addresses one entry.
type EntryIDInput struct {
	ID string `path:"id" doc:"Entry ID"`
}

// UpdateEntryInput addresses one entry and carries its new fields.
type UpdateEntryInput struct {
	ID   string `path:"id" doc:"Entry ID"`
	Body EntryBody
}

// ListEntriesInput holds the list filters.
type ListEntriesInput struct {
	Name string `query:"name" doc:"Case-insensitive name substring"`
	Tags string `query:"tags" doc:"Comma-separated tag names; entries must carry all of them"`
}

// EntryResponse wraps a single entry.
type EntryResponse struct {
	Entry *domain.EntryWithTags `json:"entry"`
}

// EntryOutput wraps an entry response for Huma.
type EntryOutput struct {
	Body EntryResponse
}

// ListEntriesResponse wraps the filtered entries.
type ListEntriesResponse struct {
	Entries []*domain.EntryWithTags `json:"entries"`
}

// ListEntriesOutput wraps the list response for Huma.
type ListEntriesOutput struct {
	Body ListEntriesResponse
}

// SuccessResponse acknowledges an operation with no other result.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SuccessOutput wraps SuccessResponse for Huma.
type SuccessOutput struct {
	Body SuccessResponse
}

// === Handlers ===

func (s *Server) handleCreateEntry(ctx context.Context, input *EntryInput) (*EntryOutput, error) {
	entry, err := s.services.Entry.Create(ctx, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: EntryResponse{Entry: entry}}, nil
}

func (s *Server) handleListEntries(ctx context.Context, input *ListEntriesInput) (*ListEntriesOutput, error) {
	entries, err := s.services.Entry.List(ctx, service.ListEntriesQuery{
		Name: input.Name,
		Tags: filter.ParseTags(input.Tags),
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.EntryWithTags{}
	}
	return &ListEntriesOutput{Body: ListEntriesResponse{Entries: entries}}, nil
}

func (s *Server) handleGetEntry(ctx context.Context, input *EntryIDInput) (*EntryOutput, error) {
	entry, err := s.services.Entry.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: EntryResponse{Entry: entry}}, nil
}

func (s *Server) handleUpdateEntry(ctx context.Context, input *UpdateEntryInput) (*EntryOutput, error) {
	entry, err := s.services.Entry.Update(ctx, input.ID, input.Body.request())
	if err != nil {
		return nil, err
	}
	return &EntryOutput{Body: EntryResponse{Entry: entry}}, nil
}

func (s *Server) handleDeleteEntry(ctx context.Context, input *EntryIDInput) (*SuccessOutput, error) {
	if err := s.services.Entry.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &SuccessOutput{Body: SuccessResponse{Success: true}}, nil
}
