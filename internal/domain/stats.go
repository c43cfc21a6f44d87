package domain

// Stats aggregates the outcome counts of one run.
type Stats struct {
	RunID                    string `json:"run_id" yaml:"run_id"`
	SeriesTotal              int    `json:"series_total" yaml:"series_total"`
	SeriesProcessed          int    `json:"series_processed" yaml:"series_processed"`
	SeriesCreated            int    `json:"series_created" yaml:"series_created"`
	SeriesSkipped            int    `json:"series_skipped" yaml:"series_skipped"`
	SeriesFailed             int    `json:"series_failed" yaml:"series_failed"`
	IssuesDownloaded         int    `json:"issues_downloaded" yaml:"issues_downloaded"`
	IssuesSkipped            int    `json:"issues_skipped" yaml:"issues_skipped"`
	IssuesSkippedPlaceholder int    `json:"issues_skipped_placeholder" yaml:"issues_skipped_placeholder"`
	IssuesFailed             int    `json:"issues_failed" yaml:"issues_failed"`
	PostProcessFailed        int    `json:"post_process_failed" yaml:"post_process_failed"`
	LastSeries               string `json:"last_series,omitempty" yaml:"last_series,omitempty"`
	DryRun                   bool   `json:"dry_run" yaml:"dry_run"`
	Interrupted              bool   `json:"interrupted" yaml:"interrupted"`
}

// Failed returns the number of entity-level failures.
func (s *Stats) Failed() int {
	return s.SeriesFailed + s.IssuesFailed
}
