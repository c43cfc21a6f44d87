// Package mylar is a read-only client for the Mylar3 API, the source catalog.
package mylar

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
	"time"

	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
)

const (
	defaultTimeout = 60 * time.Second
	userAgent      = "comicbridge/1.0"
)

// Config holds connection settings for a Mylar instance.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the Mylar API. It never issues mutating commands and does
// not rate limit itself; callers space out requests.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// New creates a new Mylar client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		logger:  logger,
	}
}

// envelope is the JSON wrapper Mylar puts around every API answer.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

// apiURL builds the request URL for a command.
func (c *Client) apiURL(cmd string, params url.Values) string {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("apikey", c.apiKey)
	query.Set("cmd", cmd)
	return c.baseURL + "/api?" + query.Encode()
}

// send performs a GET for cmd and classifies transport and status failures.
// The caller owns the returned response body.
func (c *Client) send(ctx context.Context, cmd string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(cmd, params), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("mylar request", "cmd", cmd, "id", params.Get("id"))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeSourceUnavailable, "mylar unreachable")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, domainerrors.SourceUnavailablef("mylar rejected credentials (status %d)", resp.StatusCode)
	case resp.StatusCode >= 500:
		resp.Body.Close()
		return nil, domainerrors.SourceUnavailablef("mylar server error (status %d)", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}

// doRequest executes a command and returns the envelope's data field.
func (c *Client) doRequest(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	resp, err := c.send(ctx, cmd, params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeSourceUnavailable, "read mylar response")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return nil, classifyFailure(env.Error)
	}
	return env.Data, nil
}

// classifyFailure maps a {"success": false} error payload to an error.
// Mylar reports bad keys and disabled APIs this way rather than with 401.
func classifyFailure(raw json.RawMessage) error {
	msg := failureMessage(raw)
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "apikey"),
		strings.Contains(lower, "api not enabled"), strings.Contains(lower, "unauthorized"):
		return domainerrors.SourceUnavailablef("mylar: %s", msg)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no comic"),
		strings.Contains(lower, "does not exist"):
		return ErrNotFound
	default:
		return fmt.Errorf("mylar error: %s", msg)
	}
}

func failureMessage(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "request failed"
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return string(raw)
}

// Raw runs an arbitrary read command and returns the envelope's data.
// Used by connectivity checks.
func (c *Client) Raw(ctx context.Context, cmd string, params url.Values) (json.RawMessage, error) {
	data, err := c.doRequest(ctx, cmd, params)
	if err != nil {
		return nil, wrapError(cmd, params.Get("id"), err)
	}
	return data, nil
}

// Ping verifies that Mylar is reachable and accepts the API key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Raw(ctx, "getIndex", nil)
	return err
}
