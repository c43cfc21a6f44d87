package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/mylar"
	"github.com/comicbridge/comicbridge/internal/normalize"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
)

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "inspect <series-id>",
		Short:   "Show one Mylar series with its issues",
		Example: `  comicbridge inspect 4050-12345`,
		Args:    cobra.ExactArgs(1),
		RunE:    withApp(config.ScopeSource, runInspect),
	}
}

type seriesDetail struct {
	ExternalID  string               `json:"external_id" yaml:"external_id"`
	Title       string               `json:"title" yaml:"title"`
	Publisher   string               `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Year        string               `json:"year,omitempty" yaml:"year,omitempty"`
	Monitored   bool                 `json:"monitored" yaml:"monitored"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	IssueCount  int                  `json:"issue_count" yaml:"issue_count"`
	FileCount   int                  `json:"file_count" yaml:"file_count"`
	Issues      []domain.IssueRecord `json:"issues" yaml:"issues"`
}

func runInspect(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
	client, err := invoke[*mylar.Client](a)
	if err != nil {
		return err
	}
	limiter, err := invoke[*ratelimit.Limiter](a)
	if err != nil {
		return err
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	comic, err := client.GetComic(ctx, args[0])
	if err != nil {
		return err
	}
	if comic.Series.Title == "" && len(comic.Issues) == 0 {
		return errors.NotFoundf("mylar has no series %q", args[0])
	}

	detail := newSeriesDetail(comic)
	return a.out.render(detail, func(w io.Writer) { writeSeriesDetail(w, detail) })
}

func newSeriesDetail(comic *mylar.Comic) seriesDetail {
	detail := seriesDetail{
		ExternalID:  comic.Series.ExternalID,
		Title:       comic.Series.Title,
		Publisher:   comic.Series.Publisher,
		Year:        comic.Series.Year,
		Monitored:   comic.Series.Monitored,
		Description: normalize.Description(comic.Series.Description),
		IssueCount:  len(comic.Issues),
		Issues:      comic.Issues,
	}
	for _, issue := range comic.Issues {
		if issue.HasFile {
			detail.FileCount++
		}
	}
	return detail
}

func writeSeriesDetail(w io.Writer, d seriesDetail) {
	fmt.Fprintf(w, "%s\n", d.Title)
	fmt.Fprintf(w, "  External ID: %s\n", d.ExternalID)
	if d.Publisher != "" {
		fmt.Fprintf(w, "  Publisher:   %s\n", d.Publisher)
	}
	if d.Year != "" {
		fmt.Fprintf(w, "  Year:        %s\n", d.Year)
	}
	fmt.Fprintf(w, "  Monitored:   %t\n", d.Monitored)
	fmt.Fprintf(w, "  Issues:      %d (%d with files)\n", d.IssueCount, d.FileCount)

	if d.Description != "" {
		fmt.Fprintf(w, "\n%s\n", d.Description)
	}

	if len(d.Issues) > 0 {
		fmt.Fprintln(w)
		for _, issue := range d.Issues {
			file := "-"
			if issue.HasFile {
				file = issue.SourceFileName
				if file == "" {
					file = "(file)"
				}
			}
			fmt.Fprintf(w, "  #%-6s %s\n", normalize.IssueNumber(issue.IssueNumber), file)
		}
	}
}
