package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Hit is one matching entry.
type Hit struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Result is a page of hits plus the total match count.
type Result struct {
	Hits  []Hit  `json:"hits"`
	Total uint64 `json:"total"`
}

// Search runs q against entry names, tags and URLs. An empty q matches
// nothing. limit is clamped to [1, MaxLimit], with zero meaning DefaultLimit.
func (s *Index) Search(ctx context.Context, q string, limit int) (*Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return &Result{Hits: []Hit{}}, nil
	}
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, 0, false)
	req.Fields = []string{"name"}

	s.mu.RLock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	out := &Result{Hits: make([]Hit, 0, len(res.Hits)), Total: res.Total}
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if n, ok := h.Fields["name"].(string); ok {
			hit.Name = n
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func buildQuery(q string) query.Query {
	lower := strings.ToLower(q)

	nameMatch := bleve.NewMatchQuery(q)
	nameMatch.SetField("name")
	nameMatch.SetBoost(3.0)

	tagTerm := bleve.NewTermQuery(q)
	tagTerm.SetField("tags")
	tagTerm.SetBoost(2.0)

	queries := []query.Query{nameMatch, tagTerm}

	// Fuzzy and prefix queries are not analyzed, so they only make sense for
	// a single lowercased token.
	if !strings.ContainsAny(lower, " \t") {
		fuzzy := bleve.NewFuzzyQuery(lower)
		fuzzy.SetField("name")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)
		queries = append(queries, fuzzy)

		if len(lower) >= 2 {
			prefix := bleve.NewPrefixQuery(lower)
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			queries = append(queries, prefix)
		}
	}

	for _, field := range []string{"website_url", "github_url"} {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(0.3)
		queries = append(queries, m)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
