// Package domain holds the catalog entities: entries, tags and users.
package domain

import (
	"slices"
	"time"
)

// Entry is a catalog item: a named project with optional website and
// repository links.
type Entry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	WebsiteURL string    `json:"websiteUrl"`
	GitHubURL  string    `json:"githubUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// EntryFields are the user-editable columns of an entry.
type EntryFields struct {
	Name       string
	WebsiteURL string
	GitHubURL  string
}

// Apply overwrites the editable fields and bumps UpdatedAt.
func (e *Entry) Apply(f EntryFields, now time.Time) {
	e.Name = f.Name
	e.WebsiteURL = f.WebsiteURL
	e.GitHubURL = f.GitHubURL
	e.UpdatedAt = now
}

// EntryWithTags is an entry together with the tags reachable through its
// join rows.
type EntryWithTags struct {
	Entry
	Tags []Tag `json:"tags"`
}

// TagNames returns the names of the entry's tags in their stored order.
func (e *EntryWithTags) TagNames() []string {
	names := make([]string, len(e.Tags))
	for i, t := range e.Tags {
		names[i] = t.Name
	}
	return names
}

// HasTag reports whether the entry carries a tag with exactly this name.
func (e *EntryWithTags) HasTag(name string) bool {
	return slices.ContainsFunc(e.Tags, func(t Tag) bool { return t.Name == name })
}
