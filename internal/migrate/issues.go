package migrate

import (
	"context"
	"fmt"

	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/match"
)

// transferIssues runs EnumerateIssues and, per issue, ReconcileIssue and
// MaybeTransferFile. Per-issue failures are counted; only fatal errors and
// enumeration failures are returned.
func (p *Pipeline) transferIssues(ctx context.Context, state *RunState, series, dst domain.SeriesRecord) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	srcIssues, err := p.source.ListIssues(ctx, series.SourceKey())
	if err != nil {
		return fmt.Errorf("list source issues: %w", err)
	}

	dstIssues, err := p.destination.ListIssues(ctx, dst.DestinationID)
	if err != nil {
		return fmt.Errorf("list destination issues: %w", err)
	}
	index := match.NewIssueIndex(dstIssues)

	p.logger.Debug("issues loaded",
		"title", series.Title,
		"source_issues", len(srcIssues),
		"destination_issues", len(dstIssues),
	)

	for _, issue := range srcIssues {
		if err := p.transferIssue(ctx, state, series, dst, index, issue); err != nil {
			return err
		}
	}
	return nil
}

// transferIssue handles one source issue. Only fatal errors are returned.
func (p *Pipeline) transferIssue(
	ctx context.Context,
	state *RunState,
	series, dst domain.SeriesRecord,
	index *match.IssueIndex,
	issue domain.IssueRecord,
) error {
	outcome := domain.Outcome{
		ExternalID:  series.ExternalID,
		Title:       series.Title,
		IssueNumber: issue.IssueNumber,
	}

	// Placeholders are never transferred, whatever the destination holds.
	if !issue.HasFile {
		p.skipPlaceholder(ctx, state, outcome)
		return nil
	}

	if existing, ok := index.Lookup(issue); ok && existing.HasFile {
		state.stats.IssuesSkipped++
		p.logger.Debug("issue already has a file", "title", series.Title, "issue", issue.IssueNumber)
		outcome.Kind = domain.OutcomeIssueSkipped
		outcome.Reason = "destination has file"
		p.record(ctx, state, outcome)
		return nil
	}

	// Files stored by an earlier run are on disk before the destination lists them.
	if issue.SourceFileName != "" {
		path, exists, err := p.destination.FileExists(ctx, dst.DestinationID, issue.IssueNumber, issue.SourceFileName)
		switch {
		case errors.IsFatal(err):
			return err
		case err != nil:
			p.logger.Debug("could not check for stored file", "title", series.Title, "issue", issue.IssueNumber, "error", err)
		case exists:
			outcome.Path = path
			p.skipExisting(ctx, state, outcome)
			return nil
		}
	}

	if issue.SourceFileRef == "" {
		return p.failIssue(ctx, state, outcome, errors.New("issue has no source reference"))
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	file, err := p.source.FetchFile(ctx, issue.SourceFileRef)
	switch {
	case errors.Is(err, domain.ErrPlaceholder):
		p.skipPlaceholder(ctx, state, outcome)
		return nil
	case errors.IsFatal(err):
		return err
	case err != nil:
		return p.failIssue(ctx, state, outcome, fmt.Errorf("fetch file: %w", err))
	}

	path, err := p.destination.StoreFile(ctx, dst.DestinationID, issue.IssueNumber, file)
	outcome.Path = path
	switch {
	case errors.Is(err, errors.ErrAlreadyExists):
		p.skipExisting(ctx, state, outcome)
		return nil
	case errors.IsFatal(err):
		return err
	case err != nil:
		return p.failIssue(ctx, state, outcome, fmt.Errorf("store file: %w", err))
	}

	state.stats.IssuesDownloaded++
	p.logger.Info("issue transferred", "title", series.Title, "issue", issue.IssueNumber, "path", path)
	outcome.Kind = domain.OutcomeIssueDownloaded
	p.record(ctx, state, outcome)
	return nil
}

func (p *Pipeline) skipExisting(ctx context.Context, state *RunState, outcome domain.Outcome) {
	state.stats.IssuesSkipped++
	p.logger.Info("issue file already exists", "title", outcome.Title, "issue", outcome.IssueNumber, "path", outcome.Path)
	outcome.Kind = domain.OutcomeIssueSkipped
	outcome.Reason = "file exists"
	p.record(ctx, state, outcome)
}

func (p *Pipeline) skipPlaceholder(ctx context.Context, state *RunState, outcome domain.Outcome) {
	state.stats.IssuesSkippedPlaceholder++
	p.logger.Info("skipping placeholder issue", "title", outcome.Title, "issue", outcome.IssueNumber)
	outcome.Kind = domain.OutcomeIssuePlaceholder
	p.record(ctx, state, outcome)
}

// failIssue counts a per-issue failure and lets the run continue.
func (p *Pipeline) failIssue(ctx context.Context, state *RunState, outcome domain.Outcome, err error) error {
	state.stats.IssuesFailed++
	p.logger.Error("issue transfer failed",
		"title", outcome.Title,
		"issue", outcome.IssueNumber,
		"error", err,
	)
	outcome.Kind = domain.OutcomeIssueFailed
	outcome.Reason = err.Error()
	p.record(ctx, state, outcome)
	return nil
}
