package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/migrate"
)

// Run statuses.
const (
	StatusRunning     = "running"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
	StatusInterrupted = "interrupted"
)

var _ migrate.Recorder = (*Store)(nil)

// Run is one recorded migration run.
type Run struct {
	ID         string          `json:"id" yaml:"id"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     string          `json:"status" yaml:"status"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	Options    migrate.Options `json:"options" yaml:"options"`
	Stats      *domain.Stats   `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// StartRun records the beginning of a run.
func (s *Store) StartRun(ctx context.Context, runID string, opts migrate.Options) error {
	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, status, dry_run, resume_from, options)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID,
		formatTime(s.now()),
		StatusRunning,
		opts.DryRun,
		nullString(opts.ResumeFrom),
		string(optsJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun records the end of a run with its final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, stats domain.Stats, runErr error) error {
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	status := StatusCompleted
	var errText string
	switch {
	case stats.Interrupted:
		status = StatusInterrupted
	case runErr != nil:
		status = StatusFailed
	}
	if runErr != nil {
		errText = runErr.Error()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET
			finished_at = ?,
			status = ?,
			error = ?,
			stats = ?,
			series_processed = ?,
			issues_downloaded = ?,
			failures = ?,
			last_series = ?
		WHERE id = ?`,
		formatTime(s.now()),
		status,
		nullString(errText),
		string(statsJSON),
		stats.SeriesProcessed,
		stats.IssuesDownloaded,
		stats.Failed(),
		nullString(stats.LastSeries),
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, error, options, stats
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a run by ID or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, error, options, stats
		FROM runs
		WHERE id = ?`, runID)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return run, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		startedAt  string
		finishedAt sql.NullString
		errText    sql.NullString
		optsJSON   string
		statsJSON  sql.NullString
	)

	if err := sc.Scan(&run.ID, &startedAt, &finishedAt, &run.Status, &errText, &optsJSON, &statsJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	var err error
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if run.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	run.Error = errText.String

	if err := json.Unmarshal([]byte(optsJSON), &run.Options); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	if statsJSON.Valid && statsJSON.String != "" {
		var stats domain.Stats
		if err := json.Unmarshal([]byte(statsJSON.String), &stats); err != nil {
			return nil, fmt.Errorf("unmarshal stats: %w", err)
		}
		run.Stats = &stats
	}

	return &run, nil
}
