package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/di/providers"
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/history"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit int
		runID string
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded migration runs",
		Long: `List the runs recorded in the history database (--history-db), or show
the outcomes of one run with --run.`,
		Example: `  comicbridge history --history-db comicbridge.db
  comicbridge history --run 0b9c... --kind issue_failed`,
		Args: cobra.NoArgs,
		RunE: withApp(config.ScopeHistory, func(ctx context.Context, a *app, _ *cobra.Command, _ []string) error {
			handle, err := invoke[*providers.HistoryHandle](a)
			if err != nil {
				return err
			}
			if runID != "" {
				return runHistoryShow(ctx, a, handle.Store, runID, domain.OutcomeKind(kind))
			}
			return runHistoryList(ctx, a, handle.Store, limit)
		}),
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 20, "Number of runs to list")
	flags.StringVar(&runID, "run", "", "Show the outcomes of this run")
	flags.StringVar(&kind, "kind", "", "With --run, only outcomes of this kind (e.g. issue_failed)")
	return cmd
}

func runHistoryList(ctx context.Context, a *app, store *history.Store, limit int) error {
	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	return a.out.render(runs, func(w io.Writer) {
		if len(runs) == 0 {
			fmt.Fprintln(w, "No runs recorded")
			return
		}
		for _, r := range runs {
			fmt.Fprintf(w, "%s  %-11s  %s%s\n", r.ID, r.Status, humanize.Time(r.StartedAt), runFlags(r))
			if r.Stats != nil {
				fmt.Fprintf(w, "    series %d/%d  created %d  issues %d  failed %d\n",
					r.Stats.SeriesProcessed, r.Stats.SeriesTotal, r.Stats.SeriesCreated,
					r.Stats.IssuesDownloaded, r.Stats.Failed())
			}
			if r.Error != "" {
				fmt.Fprintf(w, "    error: %s\n", r.Error)
			}
		}
	})
}

func runFlags(r history.Run) string {
	var s string
	if r.Options.DryRun {
		s += "  dry-run"
	}
	if r.Options.ResumeFrom != "" {
		s += fmt.Sprintf("  resumed from %q", r.Options.ResumeFrom)
	}
	return s
}

type runDetail struct {
	Run      *history.Run               `json:"run" yaml:"run"`
	Counts   map[domain.OutcomeKind]int `json:"counts" yaml:"counts"`
	Outcomes []domain.Outcome           `json:"outcomes" yaml:"outcomes"`
}

func runHistoryShow(ctx context.Context, a *app, store *history.Store, runID string, kind domain.OutcomeKind) error {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	counts, err := store.CountOutcomes(ctx, runID)
	if err != nil {
		return err
	}
	outcomes, err := store.ListOutcomes(ctx, runID, kind)
	if err != nil {
		return err
	}

	detail := runDetail{Run: run, Counts: counts, Outcomes: outcomes}
	return a.out.render(detail, func(w io.Writer) {
		fmt.Fprintf(w, "Run %s (%s)\n", run.ID, run.Status)
		fmt.Fprintf(w, "  Started:  %s\n", run.StartedAt.Format(time.RFC3339))
		if run.FinishedAt != nil {
			fmt.Fprintf(w, "  Finished: %s (%s)\n", run.FinishedAt.Format(time.RFC3339),
				run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
		}
		if run.Error != "" {
			fmt.Fprintf(w, "  Error:    %s\n", run.Error)
		}
		for _, o := range outcomes {
			line := fmt.Sprintf("  %-26s %s", o.Kind, o.Title)
			if o.IssueNumber != "" {
				line += " #" + o.IssueNumber
			}
			if o.Reason != "" {
				line += ": " + o.Reason
			}
			fmt.Fprintln(w, line)
		}
	})
}
