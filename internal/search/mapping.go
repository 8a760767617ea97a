package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping returns the mapping for entry documents. Names are
// tokenized without stemming so project names stay intact; tags are indexed
// whole so a tag query only hits exact tag names.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	doc := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = standard.Name
	name.Store = true
	name.IncludeTermVectors = true
	doc.AddFieldMappingsAt("name", name)

	tags := bleve.NewTextFieldMapping()
	tags.Analyzer = keyword.Name
	tags.Store = true
	tags.IncludeInAll = false
	doc.AddFieldMappingsAt("tags", tags)

	// URLs are split on punctuation so "github.com/acme/widget" is findable
	// by "widget".
	for _, field := range []string{"website_url", "github_url"} {
		url := bleve.NewTextFieldMapping()
		url.Analyzer = simple.Name
		url.Store = false
		doc.AddFieldMappingsAt(field, url)
	}

	indexMapping.DefaultMapping = doc
	return indexMapping
}
