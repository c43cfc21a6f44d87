// Package match pairs source entities with their destination counterparts.
//
// Series are joined on ExternalID (exact, case-sensitive). Issues are joined
// on their normalized issue number. Results never depend on list order: when
// several destination entries share a key, the one with the smallest
// DestinationID wins.
package match

import (
	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/normalize"
)

// SeriesIndex is a lookup table over a destination series list.
type SeriesIndex struct {
	byExternalID map[string]domain.SeriesRecord
}

// NewSeriesIndex builds an index over dst.
func NewSeriesIndex(dst []domain.SeriesRecord) *SeriesIndex {
	idx := &SeriesIndex{byExternalID: make(map[string]domain.SeriesRecord, len(dst))}
	for _, s := range dst {
		idx.Add(s)
	}
	return idx
}

// Add inserts s, keeping the existing entry if it has a smaller DestinationID.
// Entries without an ExternalID are ignored.
func (idx *SeriesIndex) Add(s domain.SeriesRecord) {
	if s.ExternalID == "" {
		return
	}
	if cur, ok := idx.byExternalID[s.ExternalID]; ok && !preferred(s.DestinationID, cur.DestinationID) {
		return
	}
	idx.byExternalID[s.ExternalID] = s
}

// Lookup returns the destination series matching src.
func (idx *SeriesIndex) Lookup(src domain.SeriesRecord) (domain.SeriesRecord, bool) {
	if src.ExternalID == "" {
		return domain.SeriesRecord{}, false
	}
	s, ok := idx.byExternalID[src.ExternalID]
	return s, ok
}

// Len returns the number of distinct external IDs indexed.
func (idx *SeriesIndex) Len() int {
	return len(idx.byExternalID)
}

// Series returns the destination series matching src, if any.
func Series(src domain.SeriesRecord, dst []domain.SeriesRecord) (domain.SeriesRecord, bool) {
	return NewSeriesIndex(dst).Lookup(src)
}

// IssueIndex is a lookup table over a destination issue list.
type IssueIndex struct {
	byNumber map[string]domain.IssueRecord
}

// NewIssueIndex builds an index over dst keyed by normalized issue number.
func NewIssueIndex(dst []domain.IssueRecord) *IssueIndex {
	idx := &IssueIndex{byNumber: make(map[string]domain.IssueRecord, len(dst))}
	for _, is := range dst {
		key := normalize.IssueNumber(is.IssueNumber)
		if key == "" {
			continue
		}
		if cur, ok := idx.byNumber[key]; ok && !preferred(is.DestinationIssueID, cur.DestinationIssueID) {
			continue
		}
		idx.byNumber[key] = is
	}
	return idx
}

// Lookup returns the destination issue matching src.
func (idx *IssueIndex) Lookup(src domain.IssueRecord) (domain.IssueRecord, bool) {
	key := normalize.IssueNumber(src.IssueNumber)
	if key == "" {
		return domain.IssueRecord{}, false
	}
	is, ok := idx.byNumber[key]
	return is, ok
}

// Issue returns the destination issue matching src, if any.
func Issue(src domain.IssueRecord, dst []domain.IssueRecord) (domain.IssueRecord, bool) {
	return NewIssueIndex(dst).Lookup(src)
}

// Marker reports whether s is the series a resume marker points at:
// either its external ID equals the marker exactly, or its title equals
// the marker ignoring case.
func Marker(s domain.SeriesRecord, marker string) bool {
	if marker == "" {
		return false
	}
	if s.ExternalID == marker {
		return true
	}
	return normalize.SameTitle(s.Title, marker)
}

// preferred orders candidates sharing a key. Shorter IDs sort first so that
// numeric IDs compare numerically.
func preferred(candidate, current string) bool {
	if len(candidate) != len(current) {
		return len(candidate) < len(current)
	}
	return candidate < current
}
