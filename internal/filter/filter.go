// Package filter selects catalog entries by name substring and by tag
// intersection.
//
// Name matching is case-insensitive: both sides are Unicode case folded
// before the substring test, so "cat" matches "Catalog". Stores apply the
// same FoldName at their query boundary. Tag matching is exact: a required
// tag "Go" does not match an entry tagged "go".
package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/catalogapp/catalog-server/internal/domain"
)

// Query describes which entries to keep. The zero Query keeps everything.
type Query struct {
	// Name keeps entries whose name contains it. Empty matches all.
	Name string
	// Tags keeps entries carrying every listed tag. Empty matches all.
	Tags []string
}

// IsZero reports whether q filters nothing.
func (q Query) IsZero() bool {
	return q.Name == "" && len(q.Tags) == 0
}

// FoldName returns the case-folded form used for name comparisons.
// A cases.Caser keeps state, so each call builds its own.
func FoldName(s string) string {
	return cases.Fold().String(s)
}

// Entries returns the entries matching q, in their input order. The input
// slice is never modified; when q is zero it is returned as is.
func Entries(entries []*domain.EntryWithTags, q Query) []*domain.EntryWithTags {
	if q.IsZero() {
		return entries
	}

	var folded string
	if q.Name != "" {
		folded = FoldName(q.Name)
	}

	out := make([]*domain.EntryWithTags, 0, len(entries))
	for _, e := range entries {
		if folded != "" && !strings.Contains(FoldName(e.Name), folded) {
			continue
		}
		if !hasAllTags(e, q.Tags) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasAllTags(e *domain.EntryWithTags, required []string) bool {
	if len(required) == 0 {
		return true
	}
	if len(e.Tags) == 0 {
		return false
	}

	have := make(map[string]struct{}, len(e.Tags))
	for _, t := range e.Tags {
		have[t.Name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := have[name]; !ok {
			return false
		}
	}
	return true
}

// ParseTags splits a comma-separated tag list, dropping empty items.
// Items are not trimmed: "a, b" yields "a" and " b".
func ParseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := parts[:0]
	for _, p := range parts {
		if p != "" {
			tags = append(tags, p)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
