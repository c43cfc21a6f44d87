package migrate

import (
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/match"
)

// ErrMarkerNotFound is returned when a resume marker matches no source series.
var ErrMarkerNotFound = errors.Validation("resume marker matches no series")

// RunState is the process-local state of one run. It is owned by a single
// Run call and discarded when the run ends.
type RunState struct {
	series []domain.SeriesRecord // snapshot to process, after resume and limit
	cursor int                   // index of the last fully processed series, -1 before the first

	// destination is the destination series list, fetched once per run.
	// Series created during the run are appended.
	destination      []domain.SeriesRecord
	destinationIndex *match.SeriesIndex

	stats  domain.Stats
	limit  int
	dryRun bool
}

func newRunState(runID string, opts Options) *RunState {
	return &RunState{
		cursor: -1,
		limit:  opts.Limit,
		dryRun: opts.DryRun,
		stats: domain.Stats{
			RunID:  runID,
			DryRun: opts.DryRun,
		},
	}
}

// setDestination replaces the cached destination list.
func (s *RunState) setDestination(list []domain.SeriesRecord) {
	s.destination = list
	s.destinationIndex = match.NewSeriesIndex(list)
}

// addDestination appends a series created during this run.
func (s *RunState) addDestination(series domain.SeriesRecord) {
	s.destination = append(s.destination, series)
	s.destinationIndex.Add(series)
}

// Next returns the series a resumed run should start from: the first one
// not fully processed.
func (s *RunState) Next() (domain.SeriesRecord, bool) {
	i := s.cursor + 1
	if i >= len(s.series) {
		return domain.SeriesRecord{}, false
	}
	return s.series[i], true
}

// Select applies a resume marker and then a limit to the source series list.
// The marker matches a series by exact external ID or by title ignoring
// case; the result starts at the first match. A limit of zero or less means
// no limit. An unmatched marker yields ErrMarkerNotFound.
func Select(series []domain.SeriesRecord, marker string, limit int) ([]domain.SeriesRecord, error) {
	if marker != "" {
		start := -1
		for i, s := range series {
			if match.Marker(s, marker) {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, ErrMarkerNotFound
		}
		series = series[start:]
	}

	if limit > 0 && len(series) > limit {
		series = series[:limit]
	}
	return series, nil
}

// ResumeMarker returns the marker that restarts a run at s.
func ResumeMarker(s domain.SeriesRecord) string {
	if s.Title != "" {
		return s.Title
	}
	return s.ExternalID
}
