// Package search provides fuzzy title lookup over source series using Bleve.
// The index lives in memory for the duration of one command: it backs the
// search command and the suggestions offered when a resume marker matches
// no series.
package search

import (
	"strconv"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// SeriesDocument is the indexed form of a source series.
type SeriesDocument struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_id"`
	Title       string `json:"title"`
	Publisher   string `json:"publisher,omitempty"`
	Description string `json:"description,omitempty"`
	Year        int    `json:"year,omitempty"`
	Monitored   bool   `json:"monitored"`
}

// NewSeriesDocument builds a document from a series. Series without an
// external id are keyed by title so they can still be suggested.
func NewSeriesDocument(s domain.SeriesRecord) *SeriesDocument {
	docID := s.SourceKey()
	if docID == "" {
		docID = "title:" + s.Title
	}
	return &SeriesDocument{
		ID:          docID,
		ExternalID:  s.ExternalID,
		Title:       s.Title,
		Publisher:   s.Publisher,
		Description: s.Description,
		Year:        parseYear(s.Year),
		Monitored:   s.Monitored,
	}
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *SeriesDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"external_id": d.ExternalID,
		"title":       d.Title,
		"monitored":   d.Monitored,
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Year > 0 {
		m["year"] = d.Year
	}
	return m
}

// parseYear reads a leading four-digit year, e.g. "2012" or "2012-2018".
// Anything else yields zero.
func parseYear(s string) int {
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
