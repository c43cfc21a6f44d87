package migrate

// Options control what a run does.
type Options struct {
	CopyFiles   bool   `json:"copy_files" yaml:"copy_files"`
	RefreshScan bool   `json:"refresh_scan" yaml:"refresh_scan"`
	MassRename  bool   `json:"mass_rename" yaml:"mass_rename"`
	DryRun      bool   `json:"dry_run" yaml:"dry_run"`
	Limit       int    `json:"limit" yaml:"limit"`
	ResumeFrom  string `json:"resume_from,omitempty" yaml:"resume_from,omitempty"`
}
