package search

import (
	"context"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Suggest returns up to limit titles of series resembling marker. The index
// is rebuilt from series first, so the suggestions always reflect the list
// the marker was checked against. Failures are logged and yield no
// suggestions.
func (s *Index) Suggest(series []domain.SeriesRecord, marker string, limit int) []string {
	if marker == "" || limit <= 0 || len(series) == 0 {
		return nil
	}

	if err := s.Reset(series); err != nil {
		s.logger.Warn("failed to index series for suggestions", "error", err)
		return nil
	}

	result, err := s.Search(context.Background(), Params{Query: marker, Limit: limit})
	if err != nil {
		s.logger.Warn("failed to search for suggestions", "marker", marker, "error", err)
		return nil
	}

	titles := make([]string, 0, len(result.Hits))
	seen := make(map[string]bool, len(result.Hits))
	for _, hit := range result.Hits {
		if hit.Title == "" || seen[hit.Title] {
			continue
		}
		seen[hit.Title] = true
		titles = append(titles, hit.Title)
	}
	return titles
}
