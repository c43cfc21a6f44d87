package domain

// SeriesRecord represents one comic series as known to either catalog.
// Two records with equal ExternalID are the same series regardless of title.
type SeriesRecord struct {
	ExternalID string `json:"external_id" yaml:"external_id"`
	// SourceRef is the source's own ID when it differs from ExternalID.
	SourceRef string `json:"source_ref,omitempty" yaml:"source_ref,omitempty"`
	Title     string `json:"title" yaml:"title"`
	Monitored bool   `json:"monitored" yaml:"monitored"`
	// DestinationID is empty until the destination assigns one.
	DestinationID string `json:"destination_id,omitempty" yaml:"destination_id,omitempty"`
	// Folder is the destination-assigned folder, as the destination reports it.
	Folder    string `json:"folder,omitempty" yaml:"folder,omitempty"`
	Publisher string `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Year      string `json:"year,omitempty" yaml:"year,omitempty"`
	// Description is raw HTML as the source serves it.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SourceKey returns the identifier the source expects for this series.
func (s SeriesRecord) SourceKey() string {
	if s.SourceRef != "" {
		return s.SourceRef
	}
	return s.ExternalID
}

// HasDestination reports whether the destination has assigned an ID.
func (s SeriesRecord) HasDestination() bool {
	return s.DestinationID != ""
}
