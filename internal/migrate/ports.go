package migrate

import (
	"context"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Source is the read-only catalog series and files come from.
// Implementations do not rate limit; the pipeline waits before every call.
type Source interface {
	ListSeries(ctx context.Context) ([]domain.SeriesRecord, error)
	ListIssues(ctx context.Context, seriesRef string) ([]domain.IssueRecord, error)
	FetchFile(ctx context.Context, issueRef string) (*domain.File, error)
}

// Destination is the catalog series and files are migrated into.
// Dry-run behavior belongs to the implementation.
type Destination interface {
	ListSeries(ctx context.Context) ([]domain.SeriesRecord, error)
	CreateSeries(ctx context.Context, s domain.SeriesRecord) (domain.SeriesRecord, error)
	ListIssues(ctx context.Context, destinationID string) ([]domain.IssueRecord, error)
	// FileExists reports whether the file the source calls sourceName is
	// already stored for the issue, and at which path. It must not depend on
	// the destination having scanned the file.
	FileExists(ctx context.Context, destinationID, issueNumber, sourceName string) (string, bool, error)
	StoreFile(ctx context.Context, destinationID, issueNumber string, file *domain.File) (string, error)
	RefreshScan(ctx context.Context, destinationID string) error
	MassRename(ctx context.Context, destinationID string) error
}

// Limiter spaces out source calls.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Recorder receives run lifecycle and entity outcomes, e.g. for an audit log.
// Recorder failures are logged and never affect the run.
type Recorder interface {
	StartRun(ctx context.Context, runID string, opts Options) error
	Record(ctx context.Context, runID string, outcome domain.Outcome) error
	FinishRun(ctx context.Context, runID string, stats domain.Stats, runErr error) error
}

// Suggester proposes series titles close to a resume marker that matched nothing.
type Suggester interface {
	Suggest(series []domain.SeriesRecord, marker string, limit int) []string
}

type noopRecorder struct{}

func (noopRecorder) StartRun(context.Context, string, Options) error { return nil }
func (noopRecorder) Record(context.Context, string, domain.Outcome) error { return nil }
func (noopRecorder) FinishRun(context.Context, string, domain.Stats, error) error { return nil }
