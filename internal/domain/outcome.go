package domain

// OutcomeKind classifies what happened to one entity during a run.
type OutcomeKind string

// OutcomeKind constants, one per reported entity outcome.
const (
	OutcomeSeriesCreated     OutcomeKind = "series_created"
	OutcomeSeriesMatched     OutcomeKind = "series_matched"
	OutcomeSeriesFailed      OutcomeKind = "series_failed"
	OutcomeIssueDownloaded   OutcomeKind = "issue_downloaded"
	OutcomeIssueSkipped      OutcomeKind = "issue_skipped"
	OutcomeIssuePlaceholder  OutcomeKind = "issue_skipped_placeholder"
	OutcomeIssueFailed       OutcomeKind = "issue_failed"
	OutcomePostProcessFailed OutcomeKind = "post_process_failed"
)

// Outcome is a single entity-level result emitted by the pipeline.
type Outcome struct {
	Kind        OutcomeKind `json:"kind" yaml:"kind"`
	ExternalID  string      `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	Title       string      `json:"title,omitempty" yaml:"title,omitempty"`
	IssueNumber string      `json:"issue_number,omitempty" yaml:"issue_number,omitempty"` // Empty for series-level outcomes
	Path        string      `json:"path,omitempty" yaml:"path,omitempty"`                 // Stored or would-be path for file outcomes
	Reason      string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}
