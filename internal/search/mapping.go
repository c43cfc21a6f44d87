package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the mapping for series documents: the title is
// full-text searchable with English stemming, the external id is an exact
// keyword, and the year is numeric for range filters.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Publisher names are not stemmed
	publisherFieldMapping := bleve.NewTextFieldMapping()
	publisherFieldMapping.Analyzer = simple.Name
	publisherFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("publisher", publisherFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	descFieldMapping.Analyzer = en.AnalyzerName
	descFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("description", descFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	idFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("id", idFieldMapping)

	externalIDFieldMapping := bleve.NewTextFieldMapping()
	externalIDFieldMapping.Analyzer = keyword.Name
	externalIDFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("external_id", externalIDFieldMapping)

	yearFieldMapping := bleve.NewNumericFieldMapping()
	yearFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("year", yearFieldMapping)

	monitoredFieldMapping := bleve.NewBooleanFieldMapping()
	monitoredFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("monitored", monitoredFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
