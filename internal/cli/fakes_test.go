package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

const (
	mylarKey    = "mylar-key"
	kapowarrKey = "kapowarr-key"
	issueBody   = "CBZ-BYTES"
)

// newFakeMylar serves two series: Saga (ComicVine-prefixed id, one
// downloaded issue and one wanted) and Paper Girls (no issues). Served
// downloads are counted in downloads.
func newFakeMylar(t *testing.T, downloads *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != mylarKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		switch q.Get("cmd") {
		case "getIndex":
			writeMylar(w, `[
				{"ComicID": "4050-1", "ComicName": "Saga", "Status": "Active", "ComicYear": "2012", "ComicPublisher": "Image"},
				{"ComicID": "2", "ComicName": "Paper Girls", "Status": "Paused", "ComicYear": "2015", "ComicPublisher": "Image"}
			]`)
		case "getComic":
			switch q.Get("id") {
			case "4050-1":
				writeMylar(w, `{
					"comic": [{"ComicID": "4050-1", "ComicName": "Saga", "Status": "Active", "ComicYear": "2012",
						"ComicPublisher": "Image", "ComicDescription": "<p>An <b>epic</b> space opera.</p>"}],
					"issues": [
						{"IssueID": "i1", "Issue_Number": "1", "Status": "Downloaded", "Location": "Saga 001.cbz"},
						{"IssueID": "i2", "Issue_Number": "2", "Status": "Wanted"}
					]}`)
			case "2":
				writeMylar(w, `{"comic": [{"ComicID": "2", "ComicName": "Paper Girls", "Status": "Paused"}], "issues": []}`)
			default:
				_, _ = fmt.Fprint(w, `{"success": false, "error": {"message": "Comic not found"}}`)
			}
		case "downloadIssue":
			if q.Get("id") != "i1" {
				w.Header().Set("Content-Type", "application/json")
				_, _ = fmt.Fprint(w, `{"success": false, "error": {"message": "issue has no file"}}`)
				return
			}
			downloads.Add(1)
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Disposition", `attachment; filename="Saga 001.cbz"`)
			_, _ = fmt.Fprint(w, issueBody)
		default:
			_, _ = fmt.Fprint(w, `{"success": false, "error": {"message": "unknown command"}}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeMylar(w http.ResponseWriter, data string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"success": true, "data": %s}`, data)
}

type fakeVolume struct {
	ID          int    `json:"id"`
	ComicvineID string `json:"comicvine_id"`
	Title       string `json:"title"`
	Folder      string `json:"folder"`
	Monitored   bool   `json:"monitored"`
	Issues      []any  `json:"issues"`
}

// fakeKapowarr is an in-memory Kapowarr API.
type fakeKapowarr struct {
	*httptest.Server

	mu      sync.Mutex
	titles  map[string]string // comicvine id -> title for added volumes
	volumes []fakeVolume
	tasks   []string
	posts   int
}

func newFakeKapowarr(t *testing.T) *fakeKapowarr {
	t.Helper()

	f := &fakeKapowarr{titles: map[string]string{"1": "Saga", "2": "Paper Girls"}}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeKapowarr) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("api_key") != kapowarrKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/")
	switch {
	case path == "auth/check":
		writeKapowarr(w, map[string]any{})
	case path == "rootfolder":
		writeKapowarr(w, []map[string]any{{
			"id": 2, "folder": "/comics-1/",
			"size": map[string]int64{"total": 4 << 30, "used": 1 << 30, "free": 3 << 30},
		}})
	case path == "volumes" && r.Method == http.MethodGet:
		writeKapowarr(w, f.volumes)
	case path == "volumes" && r.Method == http.MethodPost:
		f.posts++
		var req struct {
			ComicvineID string `json:"comicvine_id"`
			Monitor     bool   `json:"monitor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, v := range f.volumes {
			if v.ComicvineID == req.ComicvineID {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprint(w, `{"error": "VolumeAlreadyAdded", "result": {}}`)
				return
			}
		}
		title := f.titles[req.ComicvineID]
		v := fakeVolume{
			ID:          len(f.volumes) + 1,
			ComicvineID: req.ComicvineID,
			Title:       title,
			Folder:      "/comics-1/" + title,
			Monitored:   req.Monitor,
			Issues:      []any{},
		}
		f.volumes = append(f.volumes, v)
		writeKapowarr(w, v)
	case strings.HasPrefix(path, "volumes/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(path, "volumes/"))
		for _, v := range f.volumes {
			if v.ID == id {
				writeKapowarr(w, v)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"error": "VolumeNotFound", "result": {}}`)
	case path == "system/tasks":
		var req struct {
			Cmd      string `json:"cmd"`
			VolumeID int    `json:"volume_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.tasks = append(f.tasks, fmt.Sprintf("%s:%d", req.Cmd, req.VolumeID))
		writeKapowarr(w, map[string]any{"id": len(f.tasks)})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeKapowarr) volumeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.volumes)
}

func (f *fakeKapowarr) taskList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tasks...)
}

func (f *fakeKapowarr) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts
}

func writeKapowarr(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"error": nil, "result": result})
}
