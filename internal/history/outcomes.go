package history

import (
	"context"
	"fmt"

	"github.com/comicbridge/comicbridge/internal/domain"
)

// Record appends an entity outcome to a run.
func (s *Store) Record(ctx context.Context, runID string, outcome domain.Outcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, kind, external_id, title, issue_number, path, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		string(outcome.Kind),
		nullString(outcome.ExternalID),
		nullString(outcome.Title),
		nullString(outcome.IssueNumber),
		nullString(outcome.Path),
		nullString(outcome.Reason),
		formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// ListOutcomes returns a run's outcomes in the order they were recorded.
// An empty kind returns all of them.
func (s *Store) ListOutcomes(ctx context.Context, runID string, kind domain.OutcomeKind) ([]domain.Outcome, error) {
	query := `
		SELECT kind, COALESCE(external_id, ''), COALESCE(title, ''), COALESCE(issue_number, ''),
			COALESCE(path, ''), COALESCE(reason, '')
		FROM outcomes
		WHERE run_id = ?`
	args := []any{runID}
	if kind != "" {
		query += " AND kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.Outcome
	for rows.Next() {
		var (
			o    domain.Outcome
			kind string
		)
		if err := rows.Scan(&kind, &o.ExternalID, &o.Title, &o.IssueNumber, &o.Path, &o.Reason); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Kind = domain.OutcomeKind(kind)
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// CountOutcomes returns the number of outcomes of each kind in a run.
func (s *Store) CountOutcomes(ctx context.Context, runID string) (map[domain.OutcomeKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM outcomes WHERE run_id = ? GROUP BY kind`, runID)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.OutcomeKind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		counts[domain.OutcomeKind(kind)] = count
	}
	return counts, rows.Err()
}
