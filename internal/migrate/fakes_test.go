package migrate

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/comicbridge/comicbridge/internal/domain"
	"github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/id"
	"github.com/comicbridge/comicbridge/internal/normalize"
)

// fakeSource is an in-memory source catalog that logs every call.
type fakeSource struct {
	series []domain.SeriesRecord
	issues map[string][]domain.IssueRecord // by series ref
	files  map[string]string               // issue ref -> content; missing means placeholder

	listSeriesErr error
	listIssuesErr map[string]error // by series ref
	fetchErr      map[string]error // by issue ref
	onFetch       func(ref string)

	calls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		issues:        make(map[string][]domain.IssueRecord),
		files:         make(map[string]string),
		listIssuesErr: make(map[string]error),
		fetchErr:      make(map[string]error),
	}
}

// addSeries adds a series whose issues are given as number:hasFile pairs.
// Issues with files get a fetchable body.
func (s *fakeSource) addSeries(externalID, title string, issues ...string) {
	s.series = append(s.series, domain.SeriesRecord{ExternalID: externalID, Title: title, Monitored: true})
	for _, pair := range issues {
		number, hasFile, _ := strings.Cut(pair, ":")
		ref := externalID + "-" + number
		s.issues[externalID] = append(s.issues[externalID], domain.IssueRecord{
			SeriesExternalID: externalID,
			IssueNumber:      number,
			HasFile:          hasFile == "file",
			SourceFileRef:    ref,
			SourceFileName:   ref + ".cbz",
		})
		if hasFile == "file" {
			s.files[ref] = "content of " + ref
		}
	}
}

func (s *fakeSource) ListSeries(ctx context.Context) ([]domain.SeriesRecord, error) {
	s.calls = append(s.calls, "listSeries")
	if s.listSeriesErr != nil {
		return nil, s.listSeriesErr
	}
	return append([]domain.SeriesRecord(nil), s.series...), nil
}

func (s *fakeSource) ListIssues(ctx context.Context, seriesRef string) ([]domain.IssueRecord, error) {
	s.calls = append(s.calls, "listIssues:"+seriesRef)
	if err := s.listIssuesErr[seriesRef]; err != nil {
		return nil, err
	}
	return append([]domain.IssueRecord(nil), s.issues[seriesRef]...), nil
}

func (s *fakeSource) FetchFile(ctx context.Context, issueRef string) (*domain.File, error) {
	s.calls = append(s.calls, "fetch:"+issueRef)
	if s.onFetch != nil {
		s.onFetch(issueRef)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.fetchErr[issueRef]; err != nil {
		return nil, err
	}
	content, ok := s.files[issueRef]
	if !ok {
		return nil, domain.ErrPlaceholder
	}
	return &domain.File{
		Name: issueRef + ".cbz",
		Size: int64(len(content)),
		Body: io.NopCloser(strings.NewReader(content)),
	}, nil
}

// fetchCount returns how many FetchFile calls were made.
func (s *fakeSource) fetchCount() int {
	n := 0
	for _, c := range s.calls {
		if strings.HasPrefix(c, "fetch:") {
			n++
		}
	}
	return n
}

// touched reports whether any call referenced the series.
func (s *fakeSource) touched(externalID string) bool {
	for _, c := range s.calls {
		if c == "listIssues:"+externalID || strings.HasPrefix(c, "fetch:"+externalID+"-") {
			return true
		}
	}
	return false
}

// fakeDestination is an in-memory destination catalog. Like Kapowarr before
// a scan, it lists stored files on no issue; they are only visible through
// FileExists.
type fakeDestination struct {
	dryRun bool

	series []domain.SeriesRecord
	issues map[string][]domain.IssueRecord // by destination id
	files  map[string]string               // destination id + "#" + issue -> content
	nextID int

	createErr      error
	duplicateOnAdd map[string]domain.SeriesRecord // external id -> series that appears on duplicate
	storeErr       map[string]error               // by issue number
	existsErr      error
	refreshErr     error
	renameErr      error

	listSeriesCalls int
	existsChecks    int
	created         []string
	stored          []string // issue numbers passed to StoreFile
	refreshed       []string
	renamed         []string
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{
		issues:         make(map[string][]domain.IssueRecord),
		files:          make(map[string]string),
		duplicateOnAdd: make(map[string]domain.SeriesRecord),
		storeErr:       make(map[string]error),
		nextID:         100,
	}
}

func (d *fakeDestination) fileKey(destinationID, issueNumber string) string {
	return destinationID + "#" + normalize.IssueNumber(issueNumber)
}

func (d *fakeDestination) ListSeries(ctx context.Context) ([]domain.SeriesRecord, error) {
	d.listSeriesCalls++
	return append([]domain.SeriesRecord(nil), d.series...), nil
}

func (d *fakeDestination) CreateSeries(ctx context.Context, s domain.SeriesRecord) (domain.SeriesRecord, error) {
	if d.createErr != nil {
		return s, d.createErr
	}
	if existing, ok := d.duplicateOnAdd[s.ExternalID]; ok {
		d.series = append(d.series, existing)
		delete(d.duplicateOnAdd, s.ExternalID)
		return s, errors.DuplicateSeriesf("volume already added")
	}
	d.created = append(d.created, s.ExternalID)
	if d.dryRun {
		s.DestinationID = id.MustGenerate(id.DryRunPrefix)
		return s, nil
	}
	d.nextID++
	s.DestinationID = strconv.Itoa(d.nextID)
	s.Folder = "/comics-1/" + s.Title
	d.series = append(d.series, s)
	return s, nil
}

func (d *fakeDestination) ListIssues(ctx context.Context, destinationID string) ([]domain.IssueRecord, error) {
	if id.IsSynthetic(destinationID) {
		return nil, nil
	}
	return append([]domain.IssueRecord(nil), d.issues[destinationID]...), nil
}

func (d *fakeDestination) StoreFile(ctx context.Context, destinationID, issueNumber string, file *domain.File) (string, error) {
	defer file.Body.Close()
	d.stored = append(d.stored, issueNumber)
	path := fmt.Sprintf("/library/%s/%s.cbz", destinationID, issueNumber)

	if err := d.storeErr[issueNumber]; err != nil {
		return "", err
	}
	key := d.fileKey(destinationID, issueNumber)
	if _, ok := d.files[key]; ok {
		return path, errors.AlreadyExistsf("file exists: %s", path)
	}
	if d.dryRun {
		return path, nil
	}

	data, err := io.ReadAll(file.Body)
	if err != nil {
		return "", err
	}
	d.files[key] = string(data)
	return path, nil
}

func (d *fakeDestination) FileExists(ctx context.Context, destinationID, issueNumber, sourceName string) (string, bool, error) {
	d.existsChecks++
	if d.existsErr != nil {
		return "", false, d.existsErr
	}
	path := fmt.Sprintf("/library/%s/%s.cbz", destinationID, issueNumber)
	_, ok := d.files[d.fileKey(destinationID, issueNumber)]
	return path, ok, nil
}

func (d *fakeDestination) RefreshScan(ctx context.Context, destinationID string) error {
	d.refreshed = append(d.refreshed, destinationID)
	return d.refreshErr
}

func (d *fakeDestination) MassRename(ctx context.Context, destinationID string) error {
	d.renamed = append(d.renamed, destinationID)
	return d.renameErr
}

// fakeRecorder keeps every outcome in memory.
type fakeRecorder struct {
	started  []string
	outcomes []domain.Outcome
	finished []domain.Stats
	runErrs  []error
}

func (r *fakeRecorder) StartRun(ctx context.Context, runID string, opts Options) error {
	r.started = append(r.started, runID)
	return nil
}

func (r *fakeRecorder) Record(ctx context.Context, runID string, outcome domain.Outcome) error {
	r.outcomes = append(r.outcomes, outcome)
	return nil
}

func (r *fakeRecorder) FinishRun(ctx context.Context, runID string, stats domain.Stats, runErr error) error {
	r.finished = append(r.finished, stats)
	r.runErrs = append(r.runErrs, runErr)
	return nil
}

func (r *fakeRecorder) count(kind domain.OutcomeKind) int {
	n := 0
	for _, o := range r.outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// fakeSuggester returns a fixed list.
type fakeSuggester struct {
	suggestions []string
}

func (s fakeSuggester) Suggest([]domain.SeriesRecord, string, int) []string {
	return s.suggestions
}
