package domain

import "io"

// IssueRecord represents one issue within a series.
// An issue with HasFile false is a placeholder and is never transferred.
type IssueRecord struct {
	SeriesExternalID   string `json:"series_external_id" yaml:"series_external_id"`
	IssueNumber        string `json:"issue_number" yaml:"issue_number"`
	HasFile            bool   `json:"has_file" yaml:"has_file"`
	SourceFileRef      string `json:"source_file_ref,omitempty" yaml:"source_file_ref,omitempty"`
	SourceFileName     string `json:"source_file_name,omitempty" yaml:"source_file_name,omitempty"`
	DestinationIssueID string `json:"destination_issue_id,omitempty" yaml:"destination_issue_id,omitempty"`
}

// File is an issue's byte stream as fetched from the source.
// The caller owns Body and must close it.
type File struct {
	Name string
	Size int64 // -1 when unknown
	Body io.ReadCloser
}
