package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/migrate"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Migrate series (and optionally files) from Mylar into Kapowarr",
		Long: `Migrate every series Mylar tracks into Kapowarr.

Series already in Kapowarr are matched by ComicVine ID and left alone. With
--copy-files, issues that have a downloaded file in Mylar and none in
Kapowarr are copied into the volume's folder.

Examples:
  comicbridge migrate --root-folder-id 2 --dry-run
  comicbridge migrate --copy-files --refresh-scan --limit 10
  comicbridge migrate --copy-files --resume-from "Saga"`,
		Args: cobra.NoArgs,
		RunE: withApp(config.ScopeMigrate, runMigrate),
	}
}

func runMigrate(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
	pipeline, err := invoke[*migrate.Pipeline](a)
	if err != nil {
		return err
	}

	stats, runErr := pipeline.Run(ctx)

	if stats != nil && !errors.Is(runErr, migrate.ErrMarkerNotFound) {
		if err := a.out.render(stats, func(w io.Writer) { writeSummary(w, stats) }); err != nil {
			return err
		}
	}

	if errors.Is(runErr, migrate.ErrMarkerNotFound) {
		return markerError(runErr)
	}
	if runErr != nil && stats != nil && stats.Interrupted && stats.LastSeries != "" {
		return fmt.Errorf("%w; resume with: %s", runErr, resumeCommand(pipeline.Options(), stats))
	}
	return runErr
}

// resumeCommand returns the command line that continues an interrupted run
// with the same behavior flags. A limit shrinks by the series already done.
func resumeCommand(opts migrate.Options, stats *domain.Stats) string {
	args := []string{"comicbridge", "migrate"}
	for _, flag := range []struct {
		set  bool
		name string
	}{
		{opts.CopyFiles, "--copy-files"},
		{opts.RefreshScan, "--refresh-scan"},
		{opts.MassRename, "--mass-rename"},
		{opts.DryRun, "--dry-run"},
	} {
		if flag.set {
			args = append(args, flag.name)
		}
	}
	if opts.Limit > 0 {
		args = append(args, "--limit", strconv.Itoa(max(opts.Limit-stats.SeriesProcessed, 1)))
	}
	args = append(args, "--resume-from", strconv.Quote(stats.LastSeries))
	return strings.Join(args, " ")
}

// markerError appends the suggested titles to an unmatched resume marker.
func markerError(err error) error {
	var domainErr *errors.Error
	if !errors.As(err, &domainErr) {
		return err
	}
	details, _ := domainErr.Details.(map[string]any)
	suggestions, _ := details["suggestions"].([]string)
	if len(suggestions) == 0 {
		return err
	}
	return fmt.Errorf("%w; did you mean %q", err, suggestions)
}

// writeSummary prints the human readable run summary.
func writeSummary(w io.Writer, s *domain.Stats) {
	title := "Migration summary"
	if s.DryRun {
		title += " (dry run)"
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "  Run:                 %s\n", s.RunID)
	fmt.Fprintf(w, "  Series processed:    %d of %d\n", s.SeriesProcessed, s.SeriesTotal)
	fmt.Fprintf(w, "  Series created:      %d\n", s.SeriesCreated)
	fmt.Fprintf(w, "  Series skipped:      %d\n", s.SeriesSkipped)
	fmt.Fprintf(w, "  Series failed:       %d\n", s.SeriesFailed)
	fmt.Fprintf(w, "  Issues downloaded:   %d\n", s.IssuesDownloaded)
	fmt.Fprintf(w, "  Issues skipped:      %d\n", s.IssuesSkipped)
	fmt.Fprintf(w, "  Placeholders:        %d\n", s.IssuesSkippedPlaceholder)
	fmt.Fprintf(w, "  Issues failed:       %d\n", s.IssuesFailed)
	if s.PostProcessFailed > 0 {
		fmt.Fprintf(w, "  Post-process failed: %d\n", s.PostProcessFailed)
	}
	if s.Interrupted {
		fmt.Fprintf(w, "  Interrupted at:      %s\n", s.LastSeries)
	}
}
