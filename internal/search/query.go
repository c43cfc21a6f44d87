package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search.
type Params struct {
	Query string

	// Filters
	MinYear       int
	MaxYear       int
	MonitoredOnly bool

	Limit  int
	Offset int

	SortBy    string // "relevance" (default), "year", "title"
	Highlight bool
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		SortBy: "relevance",
	}
}

// Result holds the hits of one search.
type Result struct {
	Query  string `json:"query" yaml:"query"`
	Total  uint64 `json:"total" yaml:"total"`
	TookMs int64  `json:"took_ms" yaml:"took_ms"`
	Hits   []Hit  `json:"hits" yaml:"hits"`

	// Indexed is the number of series searched, filled in by the caller.
	Indexed uint64 `json:"indexed,omitempty" yaml:"indexed,omitempty"`
}

// Hit is a single matching series.
type Hit struct {
	ID         string            `json:"id" yaml:"id"`
	ExternalID string            `json:"external_id" yaml:"external_id"`
	Title      string            `json:"title" yaml:"title"`
	Publisher  string            `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Year       int               `json:"year,omitempty" yaml:"year,omitempty"`
	Score      float64           `json:"score" yaml:"score"`
	Highlights map[string]string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
}

// Search executes a query against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
	}

	searchRequest.Fields = []string{"id", "external_id", "title", "publisher", "year"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if v, ok := hit.Fields["external_id"].(string); ok {
			h.ExternalID = v
		}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["publisher"].(string); ok {
			h.Publisher = v
		}
		if v, ok := hit.Fields["year"].(float64); ok {
			h.Year = int(v)
		}

		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Text matching favors, in order: an exact external id, title terms, title
// terms within one edit (typos in a resume marker), and title prefixes.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		textQueries := []query.Query{}

		idMatch := bleve.NewTermQuery(q)
		idMatch.SetField("external_id")
		idMatch.SetBoost(5.0)
		textQueries = append(textQueries, idMatch)

		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		fuzzyMatch := bleve.NewMatchQuery(q)
		fuzzyMatch.SetField("title")
		fuzzyMatch.SetFuzziness(1)
		fuzzyMatch.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyMatch)

		publisherMatch := bleve.NewMatchQuery(q)
		publisherMatch.SetField("publisher")
		publisherMatch.SetBoost(0.5)
		textQueries = append(textQueries, publisherMatch)

		// Prefix query for partial titles (minimum 2 chars)
		if len(q) >= 2 && !strings.Contains(q, " ") {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.MonitoredOnly {
		monitored := bleve.NewBoolFieldQuery(true)
		monitored.SetField("monitored")
		queries = append(queries, monitored)
	}

	if params.MinYear > 0 || params.MaxYear > 0 {
		lo := float64(params.MinYear)
		hi := float64(params.MaxYear)
		if params.MaxYear == 0 {
			hi = 3000 // Far future
		}
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		rangeQuery.SetField("year")
		queries = append(queries, rangeQuery)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, params Params) {
	switch params.SortBy {
	case "year":
		req.SortBy([]string{"year", "-_score"})
	case "title":
		req.SortBy([]string{"title", "-_score"})
	default:
		req.SortBy([]string{"-_score"})
	}
}
