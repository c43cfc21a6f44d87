package mylar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Issue statuses that mean Mylar holds a file for the issue.
var fileStatuses = map[string]bool{
	"downloaded":     true,
	"archived":       true,
	"post-processed": true,
}

// ListSeries returns every series in the Mylar index.
// Entries without an ID are returned with an empty ExternalID so callers
// can report them.
func (c *Client) ListSeries(ctx context.Context) ([]domain.SeriesRecord, error) {
	data, err := c.doRequest(ctx, "getIndex", nil)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapError("getIndex", "", err)
	}

	records, err := decodeRecords(data, "comics")
	if err != nil {
		return nil, wrapError("getIndex", "", fmt.Errorf("decode index: %w", err))
	}

	series := make([]domain.SeriesRecord, 0, len(records))
	for _, r := range records {
		series = append(series, parseSeries(r))
	}

	c.logger.Debug("mylar index loaded", "count", len(series))
	return series, nil
}

// Comic is a series with its issues as getComic returns them.
type Comic struct {
	Series domain.SeriesRecord
	Issues []domain.IssueRecord
}

// GetComic fetches one series and its issues. A series Mylar does not know
// yields an empty Comic and no error.
func (c *Client) GetComic(ctx context.Context, seriesRef string) (*Comic, error) {
	data, err := c.doRequest(ctx, "getComic", url.Values{"id": {seriesRef}})
	if errors.Is(err, ErrNotFound) {
		return &Comic{}, nil
	}
	if err != nil {
		return nil, wrapError("getComic", seriesRef, err)
	}

	var payload struct {
		Comic  json.RawMessage `json:"comic"`
		Issues json.RawMessage `json:"issues"`
	}
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, wrapError("getComic", seriesRef, fmt.Errorf("decode comic: %w", err))
		}
	}

	comic := &Comic{}

	series, err := decodeRecords(payload.Comic)
	if err != nil {
		return nil, wrapError("getComic", seriesRef, fmt.Errorf("decode comic: %w", err))
	}
	if len(series) > 0 {
		comic.Series = parseSeries(series[0])
	}
	if comic.Series.ExternalID == "" {
		comic.Series.ExternalID = stripProviderPrefix(seriesRef)
		if comic.Series.ExternalID != seriesRef {
			comic.Series.SourceRef = seriesRef
		}
	}

	issues, err := decodeRecords(payload.Issues)
	if err != nil {
		return nil, wrapError("getComic", seriesRef, fmt.Errorf("decode issues: %w", err))
	}
	for _, r := range issues {
		comic.Issues = append(comic.Issues, parseIssue(r, comic.Series.ExternalID))
	}

	return comic, nil
}

// ListIssues returns the issues of one series. Unknown series yield an
// empty list.
func (c *Client) ListIssues(ctx context.Context, seriesRef string) ([]domain.IssueRecord, error) {
	comic, err := c.GetComic(ctx, seriesRef)
	if err != nil {
		return nil, err
	}
	return comic.Issues, nil
}

func parseSeries(r record) domain.SeriesRecord {
	raw := r.str("ComicID", "id", "comicid")
	s := domain.SeriesRecord{
		ExternalID:  stripProviderPrefix(raw),
		Title:       r.str("name", "ComicName", "Title"),
		Monitored:   strings.EqualFold(r.str("status", "Status"), "active"),
		Publisher:   r.str("publisher", "ComicPublisher"),
		Year:        r.str("year", "ComicYear"),
		Description: r.str("description", "ComicDescription", "Description"),
	}
	if s.ExternalID != raw {
		s.SourceRef = raw
	}
	return s
}

func parseIssue(r record, seriesID string) domain.IssueRecord {
	status := strings.ToLower(r.str("status", "Status"))
	location := r.str("Location", "location")
	return domain.IssueRecord{
		SeriesExternalID: seriesID,
		IssueNumber:      r.str("number", "issue_number", "Issue_Number", "IssueNumber"),
		HasFile:          location != "" || fileStatuses[status],
		SourceFileRef:    r.str("id", "IssueID"),
		SourceFileName:   location,
	}
}
