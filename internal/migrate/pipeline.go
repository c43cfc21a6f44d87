// Package migrate reconciles a source catalog against a destination catalog
// and transfers issue files between them.
//
// A run walks the source series one at a time: each series is matched to a
// destination series by external ID or created, its issues are matched by
// number, files missing on the destination are fetched and stored, and
// optional refresh and rename tasks are triggered. Failures scoped to one
// series or issue are counted and the run continues; loss of either catalog
// ends the run.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/id"
	"github.com/comicbridge/comicbridge/internal/match"
)

const maxSuggestions = 5

// Pipeline runs migrations. It is single-threaded: one source call is
// outstanding at a time.
type Pipeline struct {
	source      Source
	destination Destination
	limiter     Limiter
	recorder    Recorder
	suggester   Suggester
	opts        Options
	logger      *slog.Logger
}

// New creates a pipeline. The recorder and suggester are optional.
func New(source Source, destination Destination, limiter Limiter, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:      source,
		destination: destination,
		limiter:     limiter,
		recorder:    noopRecorder{},
		opts:        opts,
		logger:      logger,
	}
}

// SetRecorder installs a recorder for run outcomes. Nil restores the no-op recorder.
func (p *Pipeline) SetRecorder(r Recorder) {
	if r == nil {
		r = noopRecorder{}
	}
	p.recorder = r
}

// SetSuggester installs a suggester used when a resume marker matches nothing.
func (p *Pipeline) SetSuggester(s Suggester) {
	p.suggester = s
}

// Options returns the options the pipeline runs with.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run performs one migration. It returns the run's counters even when it
// fails; entity-level failures are only counted, never returned. The error
// is non-nil for lost connectivity to either catalog, an unmatched resume
// marker, or cancellation.
func (p *Pipeline) Run(ctx context.Context) (*domain.Stats, error) {
	start := time.Now()
	runID := id.NewRunID()
	state := newRunState(runID, p.opts)

	p.logger.Info("migration starting",
		"run_id", runID,
		"copy_files", p.opts.CopyFiles,
		"refresh_scan", p.opts.RefreshScan,
		"mass_rename", p.opts.MassRename,
		"dry_run", p.opts.DryRun,
		"limit", p.opts.Limit,
		"resume_from", p.opts.ResumeFrom,
	)
	if err := p.recorder.StartRun(ctx, runID, p.opts); err != nil {
		p.logger.Warn("failed to record run start", "error", err)
	}

	err := p.run(ctx, state)
	stats := state.stats

	if recErr := p.recorder.FinishRun(context.WithoutCancel(ctx), runID, stats, err); recErr != nil {
		p.logger.Warn("failed to record run finish", "error", recErr)
	}

	if err != nil {
		return &stats, err
	}

	p.logger.Info("migration completed",
		"series_processed", stats.SeriesProcessed,
		"series_created", stats.SeriesCreated,
		"series_skipped", stats.SeriesSkipped,
		"series_failed", stats.SeriesFailed,
		"issues_downloaded", stats.IssuesDownloaded,
		"issues_skipped", stats.IssuesSkipped,
		"issues_skipped_placeholder", stats.IssuesSkippedPlaceholder,
		"issues_failed", stats.IssuesFailed,
		"duration", time.Since(start),
	)
	return &stats, nil
}

func (p *Pipeline) run(ctx context.Context, state *RunState) error {
	// EnumerateSeries
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	all, err := p.source.ListSeries(ctx)
	if err != nil {
		return p.fatal(err, "list source series")
	}
	p.logger.Info("source series loaded", "count", len(all))

	selected, err := Select(all, p.opts.ResumeFrom, state.limit)
	if errors.Is(err, ErrMarkerNotFound) {
		return p.markerNotFound(all)
	}
	if err != nil {
		return err
	}
	state.series = selected
	state.stats.SeriesTotal = len(selected)

	if p.opts.ResumeFrom != "" {
		p.logger.Info("resuming migration",
			"resume_from", p.opts.ResumeFrom,
			"remaining", countFrom(all, p.opts.ResumeFrom),
			"selected", len(selected),
		)
	}

	for i, series := range state.series {
		if err := ctx.Err(); err != nil {
			return p.interrupted(state, err)
		}

		p.logger.Info("processing series",
			"index", i+1,
			"total", len(state.series),
			"title", series.Title,
			"external_id", series.ExternalID,
		)
		state.stats.LastSeries = ResumeMarker(series)

		if err := p.processSeries(ctx, state, series); err != nil {
			if ctx.Err() != nil {
				return p.interrupted(state, ctx.Err())
			}
			return err
		}

		state.cursor = i
		state.stats.SeriesProcessed++
	}
	return nil
}

// countFrom returns how many series remain from the marker's position on.
func countFrom(series []domain.SeriesRecord, marker string) int {
	for i, s := range series {
		if match.Marker(s, marker) {
			return len(series) - i
		}
	}
	return 0
}

func (p *Pipeline) markerNotFound(all []domain.SeriesRecord) error {
	var suggestions []string
	if p.suggester != nil {
		suggestions = p.suggester.Suggest(all, p.opts.ResumeFrom, maxSuggestions)
	}
	p.logger.Error("resume marker not found",
		"resume_from", p.opts.ResumeFrom,
		"suggestions", suggestions,
	)
	return ErrMarkerNotFound.WithDetails(map[string]any{
		"resume_from": p.opts.ResumeFrom,
		"suggestions": suggestions,
	})
}

// interrupted logs what an operator needs to resume and returns err.
func (p *Pipeline) interrupted(state *RunState, err error) error {
	state.stats.Interrupted = true
	next, ok := state.Next()
	if !ok {
		p.logger.Warn("migration interrupted after the last series", "series_processed", state.stats.SeriesProcessed)
		return err
	}
	marker := ResumeMarker(next)
	state.stats.LastSeries = marker
	p.logger.Warn("migration interrupted",
		"current_series", next.Title,
		"external_id", next.ExternalID,
		"series_processed", state.stats.SeriesProcessed,
		"resume_hint", fmt.Sprintf("--resume-from %q", marker),
	)
	return err
}

// fatal wraps an error that ends the run. Errors that are not already
// classified are treated as lost connectivity to the named side.
func (p *Pipeline) fatal(err error, op string) error {
	if errors.IsFatal(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return errors.Wrap(err, errors.CodeSourceUnavailable, op)
}

// processSeries runs ReconcileSeries, EnumerateIssues, the per-issue steps,
// and PostProcess for one series. Only fatal errors are returned.
func (p *Pipeline) processSeries(ctx context.Context, state *RunState, series domain.SeriesRecord) error {
	if series.ExternalID == "" {
		p.logger.Warn("series has no external id", "title", series.Title)
		state.stats.SeriesFailed++
		p.record(ctx, state, domain.Outcome{
			Kind:   domain.OutcomeSeriesFailed,
			Title:  series.Title,
			Reason: "missing external id",
		})
		return nil
	}

	dst, err := p.reconcileSeries(ctx, state, series)
	if err != nil {
		if errors.IsFatal(err) {
			return err
		}
		p.logger.Error("failed to reconcile series",
			"title", series.Title,
			"external_id", series.ExternalID,
			"error", err,
		)
		state.stats.SeriesFailed++
		p.record(ctx, state, domain.Outcome{
			Kind:       domain.OutcomeSeriesFailed,
			ExternalID: series.ExternalID,
			Title:      series.Title,
			Reason:     err.Error(),
		})
		return nil
	}

	if p.opts.CopyFiles {
		if err := p.transferIssues(ctx, state, series, dst); err != nil {
			if errors.IsFatal(err) {
				return err
			}
			p.logger.Error("failed to enumerate issues",
				"title", series.Title,
				"external_id", series.ExternalID,
				"error", err,
			)
			state.stats.SeriesFailed++
			p.record(ctx, state, domain.Outcome{
				Kind:       domain.OutcomeSeriesFailed,
				ExternalID: series.ExternalID,
				Title:      series.Title,
				Reason:     err.Error(),
			})
			return nil
		}
	}

	p.postProcess(ctx, state, series, dst)
	return nil
}

// reconcileSeries returns the destination counterpart of series, creating
// it when the destination has none.
func (p *Pipeline) reconcileSeries(ctx context.Context, state *RunState, series domain.SeriesRecord) (domain.SeriesRecord, error) {
	if state.destinationIndex == nil {
		list, err := p.destination.ListSeries(ctx)
		if err != nil {
			return domain.SeriesRecord{}, p.destinationFatal(err, "list destination series")
		}
		state.setDestination(list)
		p.logger.Info("destination series loaded", "count", len(list))
	}

	if dst, ok := state.destinationIndex.Lookup(series); ok {
		p.matched(ctx, state, series, dst)
		return dst, nil
	}

	created, err := p.destination.CreateSeries(ctx, series)
	switch {
	case err == nil:
		state.addDestination(created)
		state.stats.SeriesCreated++
		p.logger.Info("series created",
			"title", series.Title,
			"external_id", series.ExternalID,
			"destination_id", created.DestinationID,
		)
		p.record(ctx, state, domain.Outcome{
			Kind:       domain.OutcomeSeriesCreated,
			ExternalID: series.ExternalID,
			Title:      series.Title,
		})
		return created, nil

	case errors.Is(err, errors.ErrDuplicateSeries):
		// Created elsewhere since the list was fetched; refresh once and match again.
		p.logger.Info("series already in destination, refreshing list", "external_id", series.ExternalID)
		list, listErr := p.destination.ListSeries(ctx)
		if listErr != nil {
			return domain.SeriesRecord{}, p.destinationFatal(listErr, "list destination series")
		}
		state.setDestination(list)
		if dst, ok := state.destinationIndex.Lookup(series); ok {
			p.matched(ctx, state, series, dst)
			return dst, nil
		}
		return domain.SeriesRecord{}, fmt.Errorf("destination reports series %s as added but does not list it: %w", series.ExternalID, err)

	case errors.IsFatal(err):
		return domain.SeriesRecord{}, err

	default:
		return domain.SeriesRecord{}, fmt.Errorf("create series: %w", err)
	}
}

func (p *Pipeline) matched(ctx context.Context, state *RunState, series, dst domain.SeriesRecord) {
	state.stats.SeriesSkipped++
	p.logger.Info("series already in destination",
		"title", series.Title,
		"external_id", series.ExternalID,
		"destination_id", dst.DestinationID,
	)
	p.record(ctx, state, domain.Outcome{
		Kind:       domain.OutcomeSeriesMatched,
		ExternalID: series.ExternalID,
		Title:      series.Title,
	})
}

func (p *Pipeline) destinationFatal(err error, op string) error {
	if errors.IsFatal(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return errors.Wrap(err, errors.CodeDestinationUnavailable, op)
}

// postProcess triggers the destination's refresh and rename tasks.
// Failures are warnings.
func (p *Pipeline) postProcess(ctx context.Context, state *RunState, series, dst domain.SeriesRecord) {
	tasks := []struct {
		enabled bool
		name    string
		run     func(context.Context, string) error
	}{
		{p.opts.RefreshScan, "refresh_scan", p.destination.RefreshScan},
		{p.opts.MassRename, "mass_rename", p.destination.MassRename},
	}

	for _, task := range tasks {
		if !task.enabled {
			continue
		}
		if err := task.run(ctx, dst.DestinationID); err != nil {
			state.stats.PostProcessFailed++
			p.logger.Warn("post-processing failed",
				"task", task.name,
				"title", series.Title,
				"destination_id", dst.DestinationID,
				"error", err,
			)
			p.record(ctx, state, domain.Outcome{
				Kind:       domain.OutcomePostProcessFailed,
				ExternalID: series.ExternalID,
				Title:      series.Title,
				Reason:     task.name + ": " + err.Error(),
			})
			continue
		}
		p.logger.Debug("post-processing triggered", "task", task.name, "destination_id", dst.DestinationID)
	}
}

func (p *Pipeline) record(ctx context.Context, state *RunState, outcome domain.Outcome) {
	if err := p.recorder.Record(context.WithoutCancel(ctx), state.stats.RunID, outcome); err != nil {
		p.logger.Warn("failed to record outcome", "kind", outcome.Kind, "error", err)
	}
}
