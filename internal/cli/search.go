package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comicbridge/comicbridge/internal/config"
	"github.com/comicbridge/comicbridge/internal/mylar"
	"github.com/comicbridge/comicbridge/internal/ratelimit"
	"github.com/comicbridge/comicbridge/internal/search"
)

func newSearchCommand() *cobra.Command {
	params := search.DefaultParams()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Mylar series by title, publisher, or ID",
		Long: `Search the series Mylar tracks. Matching tolerates small typos and
prefixes, which helps find the exact title to pass to --resume-from.`,
		Example: `  comicbridge search "paper girls"
  comicbridge search batman --min-year 2011 --sort year`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(config.ScopeSource, func(ctx context.Context, a *app, _ *cobra.Command, args []string) error {
			p := params
			p.Query = strings.Join(args, " ")
			p.Highlight = a.out.structured()
			return runSearch(ctx, a, p)
		}),
	}

	flags := cmd.Flags()
	flags.IntVar(&params.Limit, "limit", params.Limit, "Maximum number of results")
	flags.IntVar(&params.Offset, "offset", 0, "Number of results to skip")
	flags.IntVar(&params.MinYear, "min-year", 0, "Only series starting in or after this year")
	flags.IntVar(&params.MaxYear, "max-year", 0, "Only series starting in or before this year")
	flags.BoolVar(&params.MonitoredOnly, "monitored", false, "Only monitored series")
	flags.StringVar(&params.SortBy, "sort", params.SortBy, "Sort order: relevance, year, title")
	return cmd
}

func runSearch(ctx context.Context, a *app, params search.Params) error {
	client, err := invoke[*mylar.Client](a)
	if err != nil {
		return err
	}
	limiter, err := invoke[*ratelimit.Limiter](a)
	if err != nil {
		return err
	}
	index, err := invoke[*search.Index](a)
	if err != nil {
		return err
	}

	if err := limiter.Wait(ctx); err != nil {
		return err
	}
	series, err := client.ListSeries(ctx)
	if err != nil {
		return err
	}
	if err := index.IndexSeries(series); err != nil {
		return err
	}

	result, err := index.Search(ctx, params)
	if err != nil {
		return err
	}
	if result.Indexed, err = index.DocumentCount(); err != nil {
		return err
	}

	return a.out.render(result, func(w io.Writer) { writeSearchResult(w, result) })
}

func writeSearchResult(w io.Writer, r *search.Result) {
	if len(r.Hits) == 0 {
		fmt.Fprintf(w, "No series match %q among %d series\n", r.Query, r.Indexed)
		return
	}
	fmt.Fprintf(w, "%d match(es) for %q among %d series\n", r.Total, r.Query, r.Indexed)
	for _, hit := range r.Hits {
		line := fmt.Sprintf("  %-12s %s", hit.ExternalID, hit.Title)
		if hit.Year > 0 {
			line += fmt.Sprintf(" (%d)", hit.Year)
		}
		if hit.Publisher != "" {
			line += " - " + hit.Publisher
		}
		fmt.Fprintln(w, line)
	}
}
