package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/mylar"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
)

const defaultFindLimit = 5

func newFindCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "find",
		Short: "List Mylar series that have downloaded issue files",
		Long: `Check the first N Mylar series for issues with a downloaded file.
Requests are spaced by the configured delay, so large limits take a while.`,
		Example: `  comicbridge find --limit 20`,
		Args:    cobra.NoArgs,
		RunE: withApp(config.ScopeSource, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			return runFind(ctx, a, limit)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", defaultFindLimit, "Number of series to check")
	return cmd
}

type seriesWithFiles struct {
	ExternalID string   `json:"external_id" yaml:"external_id"`
	Title      string   `json:"title" yaml:"title"`
	Files      []string `json:"files" yaml:"files"`
}

func runFind(ctx context.Context, a *app, limit int) error {
	client, err := invoke[*mylar.Client](a)
	if err != nil {
		return err
	}
	limiter, err := invoke[*ratelimit.Limiter](a)
	if err != nil {
		return err
	}

	found, err := findSeriesWithFiles(ctx, client, limiter, limit, a.log.Logger.Info)
	if err != nil {
		return err
	}

	return a.out.render(found, func(w io.Writer) {
		if len(found) == 0 {
			fmt.Fprintln(w, "No series with files found")
			return
		}
		for _, s := range found {
			fmt.Fprintf(w, "%s (%s): %d file(s)\n", s.Title, s.ExternalID, len(s.Files))
			for _, f := range s.Files {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
	})
}

type seriesLister interface {
	ListSeries(ctx context.Context) ([]domain.SeriesRecord, error)
	ListIssues(ctx context.Context, seriesRef string) ([]domain.IssueRecord, error)
}

type waiter interface {
	Wait(ctx context.Context) error
}

// findSeriesWithFiles checks up to limit series, waiting before every call.
// A limit of zero or less checks every series.
func findSeriesWithFiles(ctx context.Context, source seriesLister, limiter waiter, limit int, logf func(msg string, args ...any)) ([]seriesWithFiles, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	series, err := source.ListSeries(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(series) {
		series = series[:limit]
	}
	logf("checking series for files", "count", len(series))

	found := []seriesWithFiles{}
	for _, s := range series {
		if s.SourceKey() == "" {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		issues, err := source.ListIssues(ctx, s.SourceKey())
		if err != nil {
			return nil, err
		}

		var files []string
		for _, issue := range issues {
			if !issue.HasFile {
				continue
			}
			name := issue.SourceFileName
			if name == "" {
				name = "#" + issue.IssueNumber
			}
			files = append(files, name)
		}
		logf("series checked", "title", s.Title, "external_id", s.ExternalID, "files", len(files))
		if len(files) > 0 {
			found = append(found, seriesWithFiles{ExternalID: s.ExternalID, Title: s.Title, Files: files})
		}
	}
	return found, nil
}
