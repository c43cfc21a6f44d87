package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comicbridge/comicbridge/internal/domain"
)

func seriesList(titles ...string) []domain.SeriesRecord {
	out := make([]domain.SeriesRecord, len(titles))
	for i, title := range titles {
		out[i] = domain.SeriesRecord{ExternalID: string(rune('a' + i)), Title: title}
	}
	return out
}

func titles(series []domain.SeriesRecord) []string {
	out := make([]string, len(series))
	for i, s := range series {
		out[i] = s.Title
	}
	return out
}

func TestSelect(t *testing.T) {
	all := seriesList("Alpha", "Beta", "Gamma", "Delta")

	tests := []struct {
		name   string
		marker string
		limit  int
		want   []string
	}{
		{name: "no marker no limit", want: []string{"Alpha", "Beta", "Gamma", "Delta"}},
		{name: "limit", limit: 2, want: []string{"Alpha", "Beta"}},
		{name: "limit larger than list", limit: 10, want: []string{"Alpha", "Beta", "Gamma", "Delta"}},
		{name: "negative limit", limit: -1, want: []string{"Alpha", "Beta", "Gamma", "Delta"}},
		{name: "marker by title", marker: "Gamma", want: []string{"Gamma", "Delta"}},
		{name: "marker ignores case", marker: "gAMMA", want: []string{"Gamma", "Delta"}},
		{name: "marker by external id", marker: "b", want: []string{"Beta", "Gamma", "Delta"}},
		{name: "marker then limit", marker: "Beta", limit: 1, want: []string{"Beta"}},
		{name: "marker on last", marker: "Delta", want: []string{"Delta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Select(all, tt.marker, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestSelect_MarkerNotFound(t *testing.T) {
	_, err := Select(seriesList("Alpha"), "Omega", 0)
	assert.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestSelect_FirstMatchWins(t *testing.T) {
	all := seriesList("Saga", "Other", "saga")

	got, err := Select(all, "SAGA", 0)

	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestResumeMarker(t *testing.T) {
	assert.Equal(t, "Foo", ResumeMarker(domain.SeriesRecord{ExternalID: "42", Title: "Foo"}))
	assert.Equal(t, "42", ResumeMarker(domain.SeriesRecord{ExternalID: "42"}))
}

func TestRunState_Next(t *testing.T) {
	state := newRunState("run", Options{})
	state.series = seriesList("Alpha", "Beta")

	next, ok := state.Next()
	require.True(t, ok)
	assert.Equal(t, "Alpha", next.Title)

	state.cursor = 0
	next, ok = state.Next()
	require.True(t, ok)
	assert.Equal(t, "Beta", next.Title)

	state.cursor = 1
	_, ok = state.Next()
	assert.False(t, ok)
}
