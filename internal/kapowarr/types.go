package kapowarr

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexID decodes identifiers Kapowarr sends as either numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// RootFolder is a storage root configured in Kapowarr.
type RootFolder struct {
	ID     int            `json:"id" yaml:"id"`
	Folder string         `json:"folder" yaml:"folder"`
	Size   RootFolderSize `json:"size" yaml:"size"`
}

// RootFolderSize reports disk usage of a root folder in bytes.
type RootFolderSize struct {
	Total int64 `json:"total" yaml:"total"`
	Used  int64 `json:"used" yaml:"used"`
	Free  int64 `json:"free" yaml:"free"`
}

// Raw API response types (internal)

type rawEnvelope struct {
	Error  json.RawMessage `json:"error"`
	Result json.RawMessage `json:"result"`
}

type rawVolume struct {
	ID          flexID     `json:"id"`
	ComicvineID flexID     `json:"comicvine_id"`
	Title       string     `json:"title"`
	Year        flexID     `json:"year"`
	Publisher   string     `json:"publisher"`
	Folder      string     `json:"folder"`
	Monitored   bool       `json:"monitored"`
	Issues      []rawIssue `json:"issues"`
}

type rawIssue struct {
	ID          flexID            `json:"id"`
	IssueNumber flexID            `json:"issue_number"`
	Files       []json.RawMessage `json:"files"`
}

type addVolumeRequest struct {
	ComicvineID      string `json:"comicvine_id"`
	RootFolderID     int    `json:"root_folder_id"`
	Monitor          bool   `json:"monitor"`
	MonitorNewIssues bool   `json:"monitor_new_issues"`
}

type taskRequest struct {
	Cmd      string `json:"cmd"`
	VolumeID int    `json:"volume_id"`
}

type taskResult struct {
	ID flexID `json:"id"`
}
