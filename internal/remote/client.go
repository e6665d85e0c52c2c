// Package remote is a client for the HTTP API served by `cdash serve`.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/theirongolddev/cdash/internal/model"
	"github.com/theirongolddev/cdash/internal/pipeline"
	"github.com/theirongolddev/cdash/internal/store"
)

const (
	accessKeyHeader = "x-access-key"
	requestTimeout  = 30 * time.Second
	maxBodySize     = 64 << 20 // exports can be large
	maxErrorSize    = 4 << 10
)

var (
	// ErrUnauthorized indicates the access key was missing or rejected.
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrBadRequest indicates the server rejected the request as malformed.
	ErrBadRequest = errors.New("remote: bad request")
)

// Client talks to one cdash server with one access key. It satisfies
// pipeline.ObjectSource, so a server can stand in for the local bucket.
type Client struct {
	base *url.URL
	key  string
	http *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, accessKey string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parsing server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("remote: server url %q must be http(s)://host[:port]", baseURL)
	}
	return &Client{
		base: u,
		key:  strings.TrimSpace(accessKey),
		http: &http.Client{},
	}, nil
}

// String returns the server address, for progress messages.
func (c *Client) String() string { return c.base.String() }

// Verify checks the access key against the server's admin key.
func (c *Client) Verify(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/verify", nil, nil, "")
	return err
}

// List returns the export objects on the server, newest first.
func (c *Client) List(ctx context.Context) ([]model.SourceObject, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/s3/list", nil, nil, "")
	if err != nil {
		return nil, err
	}
	var lr listResponse
	if err := json.Unmarshal(body, &lr); err != nil {
		return nil, fmt.Errorf("remote: parsing list: %w", err)
	}
	return lr.Files, nil
}

// Get returns the raw bytes of one export. A missing key wraps
// store.ErrNotFound.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, "/api/s3/content", url.Values{"key": {key}}, nil, "")
}

// Upload stores data on the server under name. Requires the admin key.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("remote: building upload: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("remote: building upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("remote: building upload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/api/s3/upload", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var ur uploadResponse
	if err := json.Unmarshal(body, &ur); err != nil {
		return "", fmt.Errorf("remote: parsing upload response: %w", err)
	}
	return ur.Key, nil
}

// Dashboard asks the server to aggregate one export under criteria. An
// empty key selects the newest export.
func (c *Client) Dashboard(ctx context.Context, key string, criteria pipeline.Criteria) (*DashboardResponse, error) {
	q := url.Values{}
	set := func(name, v string) {
		if v != "" {
			q.Set(name, v)
		}
	}
	set("key", key)
	set("category", criteria.Category)
	set("school", criteria.School)
	set("status", criteria.Status)
	set("q", criteria.Query)

	body, err := c.do(ctx, http.MethodGet, "/api/dashboard", q, nil, "")
	if err != nil {
		return nil, err
	}
	var dr DashboardResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("remote: parsing dashboard: %w", err)
	}
	return &dr, nil
}

// do performs an authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}
	if c.key != "" {
		req.Header.Set(accessKeyHeader, c.key)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "cdash/1.0")

	resp, err := c.http.Do(req) //nolint:gosec // URL is the configured server
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorText(resp.Body)
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case http.StatusNotFound:
			return nil, fmt.Errorf("remote: %s: %w", msg, store.ErrNotFound)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrBadRequest, msg)
		}
		return nil, fmt.Errorf("remote: unexpected status %d: %s", resp.StatusCode, msg)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("remote: reading response: %w", err)
	}
	return data, nil
}

// errorText extracts the {"error": "..."} message, falling back to the
// raw body.
func errorText(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorSize))
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error != "" {
		return er.Error
	}
	return strings.TrimSpace(string(raw))
}
