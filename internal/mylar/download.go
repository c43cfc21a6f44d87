package mylar

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/comicbridge/comicbridge/internal/domain"
	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
)

// dispositionFilename is the lenient fallback for Content-Disposition
// headers that mime.ParseMediaType rejects.
var dispositionFilename = regexp.MustCompile(`filename="?([^";]+)"?`)

// FetchFile starts downloading an issue's file. The caller must close the
// returned body. Issues Mylar has no file for yield ErrPlaceholder.
func (c *Client) FetchFile(ctx context.Context, issueRef string) (*domain.File, error) {
	resp, err := c.send(ctx, "downloadIssue", url.Values{"id": {issueRef}})
	if err != nil {
		return nil, wrapError("downloadIssue", issueRef, err)
	}

	// Mylar answers with a JSON envelope instead of a file when it has
	// nothing to serve.
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		c.logger.Debug("mylar returned json for download", "issue_id", issueRef, "body", string(body))
		if failure := downloadFailure(body); failure != nil {
			return nil, wrapError("downloadIssue", issueRef, failure)
		}
		return nil, wrapError("downloadIssue", issueRef, ErrPlaceholder)
	}

	name := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if name == "" {
		resp.Body.Close()
		return nil, wrapError("downloadIssue", issueRef, ErrPlaceholder)
	}

	return &domain.File{
		Name: name,
		Size: resp.ContentLength,
		Body: resp.Body,
	}, nil
}

// downloadFailure returns an error for JSON download answers that signal
// the source itself is unusable, such as a rejected API key. Anything else
// is treated as a missing file.
func downloadFailure(body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil
	}
	if env.Success == nil || *env.Success {
		return nil
	}
	if err := classifyFailure(env.Error); domainerrors.Is(err, domainerrors.ErrSourceUnavailable) {
		return err
	}
	return nil
}

// filenameFromDisposition extracts a safe base filename from a
// Content-Disposition header value.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}

	var name string
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := dispositionFilename.FindStringSubmatch(header); m != nil {
			name = m[1]
		}
	}

	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
