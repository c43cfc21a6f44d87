// Package kapowarr is a client for the Kapowarr API, the destination catalog.
// Besides API calls it places issue files under the host path Kapowarr's
// container root is mounted at.
package kapowarr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
)

const (
	defaultTimeout       = 60 * time.Second
	defaultContainerRoot = "/comics-1"
	userAgent            = "comicbridge/1.0"
)

// Config holds connection and storage settings for a Kapowarr instance.
type Config struct {
	URL          string
	APIKey       string
	RootFolderID int
	// Root is the host directory Kapowarr's ContainerRoot is mounted from.
	Root string
	// ContainerRoot is the path prefix Kapowarr reports folders under.
	ContainerRoot string
	Timeout       time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDryRun makes every mutating operation report what it would do
// without doing it. Created series get synthetic IDs.
func WithDryRun(dryRun bool) Option {
	return func(c *Client) {
		c.dryRun = dryRun
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// Client talks to the Kapowarr API and writes into its library on disk.
type Client struct {
	http          *http.Client
	baseURL       string
	apiKey        string
	rootFolderID  int
	root          string
	containerRoot string
	dryRun        bool
	logger        *slog.Logger

	// folders caches each volume's reported folder by volume ID.
	mu      sync.Mutex
	folders map[string]string
}

// New creates a new Kapowarr client.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	containerRoot := strings.TrimRight(cfg.ContainerRoot, "/")
	if containerRoot == "" {
		containerRoot = defaultContainerRoot
	}

	c := &Client{
		http:          &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(cfg.URL, "/"),
		apiKey:        cfg.APIKey,
		rootFolderID:  cfg.RootFolderID,
		root:          cfg.Root,
		containerRoot: containerRoot,
		logger:        logger,
		folders:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DryRun reports whether the client skips side effects.
func (c *Client) DryRun() bool {
	return c.dryRun
}

// doRequest executes an API call and decodes the envelope's result into out.
// A nil out discards the result.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	u := c.baseURL + "/api/" + strings.TrimLeft(path, "/") + "?" + url.Values{"api_key": {c.apiKey}}.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("kapowarr request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return domainerrors.Wrap(err, domainerrors.CodeDestinationUnavailable, "kapowarr unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return domainerrors.Wrap(err, domainerrors.CodeDestinationUnavailable, "read kapowarr response")
	}

	var env rawEnvelope
	decodeErr := json.Unmarshal(data, &env)
	apiErr := errorText(env.Error)

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return domainerrors.DestinationUnavailablef("kapowarr rejected credentials (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		return domainerrors.DestinationUnavailablef("kapowarr server error (status %d): %s", resp.StatusCode, apiErr)
	case strings.Contains(apiErr, "VolumeAlreadyAdded"), strings.Contains(string(data), "VolumeAlreadyAdded"):
		return domainerrors.DuplicateSeriesf("kapowarr: volume already added")
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 300:
		if apiErr == "" {
			apiErr = strings.TrimSpace(string(data))
		}
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiErr)
	case decodeErr != nil:
		return fmt.Errorf("decode response: %w", decodeErr)
	case apiErr != "":
		return fmt.Errorf("kapowarr error: %s", apiErr)
	}

	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// errorText renders the envelope's error field, which Kapowarr sends as a
// string, an object, or null.
func errorText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// CheckAuth verifies the API key.
func (c *Client) CheckAuth(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "auth/check", nil, nil); err != nil {
		return wrapError("checkAuth", "", err)
	}
	return nil
}

// RootFolders lists the storage roots Kapowarr knows.
func (c *Client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	var folders []RootFolder
	if err := c.doRequest(ctx, http.MethodGet, "rootfolder", nil, &folders); err != nil {
		return nil, wrapError("rootFolders", "", err)
	}
	return folders, nil
}

func (c *Client) rememberFolder(volumeID, folder string) {
	if volumeID == "" || folder == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.folders[volumeID] = folder
}

func (c *Client) cachedFolder(volumeID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	folder, ok := c.folders[volumeID]
	return folder, ok
}
