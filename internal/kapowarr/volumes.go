package kapowarr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/id"
	"github.com/comicbridge/comicbridge/internal/util"
)

// ListSeries returns every volume in Kapowarr.
func (c *Client) ListSeries(ctx context.Context) ([]domain.SeriesRecord, error) {
	var volumes []rawVolume
	if err := c.doRequest(ctx, http.MethodGet, "volumes", nil, &volumes); err != nil {
		return nil, wrapError("listVolumes", "", err)
	}

	series := make([]domain.SeriesRecord, 0, len(volumes))
	for _, v := range volumes {
		s := v.toSeries()
		c.rememberFolder(s.DestinationID, s.Folder)
		series = append(series, s)
	}

	c.logger.Debug("kapowarr volumes loaded", "count", len(series))
	return series, nil
}

// CreateSeries adds a volume for s and returns it with DestinationID and
// Folder filled in. A volume Kapowarr already has yields a DuplicateSeries
// error. In dry-run mode nothing is sent and a synthetic ID is returned.
func (c *Client) CreateSeries(ctx context.Context, s domain.SeriesRecord) (domain.SeriesRecord, error) {
	comicvineID := comicvineVolumeID(s.ExternalID)
	if comicvineID == "" {
		return s, wrapError("addVolume", "", fmt.Errorf("%w: series %q has no external id", ErrInvalidInput, s.Title))
	}

	if c.dryRun {
		s.DestinationID = id.MustGenerate(id.DryRunPrefix)
		s.Folder = path.Join(c.containerRoot, util.SafeFilename(s.Title))
		c.rememberFolder(s.DestinationID, s.Folder)
		c.logger.Info("dry run: would add volume",
			"comicvine_id", comicvineID,
			"title", s.Title,
			"monitored", s.Monitored,
			"destination_id", s.DestinationID,
		)
		return s, nil
	}

	req := addVolumeRequest{
		ComicvineID:      comicvineID,
		RootFolderID:     c.rootFolderID,
		Monitor:          s.Monitored,
		MonitorNewIssues: s.Monitored,
	}

	var created rawVolume
	if err := c.doRequest(ctx, http.MethodPost, "volumes", req, &created); err != nil {
		return s, wrapError("addVolume", "", err)
	}
	if created.ID == "" {
		return s, wrapError("addVolume", "", errors.New("response carried no volume id"))
	}

	s.DestinationID = string(created.ID)
	if created.Folder != "" {
		s.Folder = created.Folder
	}
	c.rememberFolder(s.DestinationID, s.Folder)
	return s, nil
}

// GetSeries fetches one volume with its issues.
func (c *Client) GetSeries(ctx context.Context, destinationID string) (domain.SeriesRecord, []domain.IssueRecord, error) {
	var v rawVolume
	if err := c.doRequest(ctx, http.MethodGet, "volumes/"+destinationID, nil, &v); err != nil {
		return domain.SeriesRecord{}, nil, wrapError("getVolume", destinationID, err)
	}

	s := v.toSeries()
	if s.DestinationID == "" {
		s.DestinationID = destinationID
	}
	c.rememberFolder(s.DestinationID, s.Folder)

	issues := make([]domain.IssueRecord, 0, len(v.Issues))
	for _, raw := range v.Issues {
		issues = append(issues, domain.IssueRecord{
			SeriesExternalID:   s.ExternalID,
			IssueNumber:        string(raw.IssueNumber),
			HasFile:            len(raw.Files) > 0,
			DestinationIssueID: string(raw.ID),
		})
	}
	return s, issues, nil
}

// ListIssues returns the issues Kapowarr tracks for a volume. Synthetic
// dry-run volumes have none.
func (c *Client) ListIssues(ctx context.Context, destinationID string) ([]domain.IssueRecord, error) {
	if id.IsSynthetic(destinationID) {
		return nil, nil
	}
	_, issues, err := c.GetSeries(ctx, destinationID)
	return issues, err
}

func (v rawVolume) toSeries() domain.SeriesRecord {
	return domain.SeriesRecord{
		ExternalID:    string(v.ComicvineID),
		Title:         v.Title,
		Monitored:     v.Monitored,
		DestinationID: string(v.ID),
		Folder:        v.Folder,
		Publisher:     v.Publisher,
		Year:          string(v.Year),
	}
}

// comicvineVolumeID returns the numeric tail of an external ID, dropping
// a resource prefix such as "4050-".
func comicvineVolumeID(externalID string) string {
	externalID = strings.TrimSpace(externalID)
	if i := strings.LastIndex(externalID, "-"); i >= 0 {
		return externalID[i+1:]
	}
	return externalID
}
