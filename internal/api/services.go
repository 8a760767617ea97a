package api

import "github.com/catalogapp/catalog-server/internal/service"

// Services groups the business services behind the API.
type Services struct {
	Entry *service.EntryService
	Tag   *service.TagService
	Auth  *service.AuthService
	// Search is nil when full-text search is disabled.
	Search *service.SearchService
}
