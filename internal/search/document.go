// Package search keeps a Bleve full-text index over catalog entries so they
// can be found by fuzzy name, prefix and tag.
package search

import "github.com/catalogapp/catalog-server/internal/domain"

// Document is the indexed form of an entry. Field names must match the
// mapping built in mapping.go.
type Document struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Tags       []string `json:"tags,omitempty"`
	WebsiteURL string   `json:"website_url,omitempty"`
	GitHubURL  string   `json:"github_url,omitempty"`
}

// FromEntry builds the document for an entry.
func FromEntry(e *domain.EntryWithTags) *Document {
	return &Document{
		ID:         e.ID,
		Name:       e.Name,
		Tags:       e.TagNames(),
		WebsiteURL: e.WebsiteURL,
		GitHubURL:  e.GitHubURL,
	}
}

func (d *Document) toMap() map[string]any {
	m := map[string]any{
		"name": d.Name,
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.WebsiteURL != "" {
		m["website_url"] = d.WebsiteURL
	}
	if d.GitHubURL != "" {
		m["github_url"] = d.GitHubURL
	}
	return m
}
