// Package postgrest implements the remote table store over a
// PostgREST-style HTTP API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finboard/internal/store"
)

// Config carries the connection settings for the remote store.
type Config struct {
	BaseURL string // e.g. https://project.example.co
	APIKey  string
	Timeout time.Duration
}

// Client speaks the PostgREST wire protocol: JSON rows, filters in the
// query string, writes via POST/PATCH/DELETE with Prefer headers.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("postgrest: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("postgrest: api key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    newPooledHTTPClient(timeout),
	}, nil
}

// newPooledHTTPClient configures connection pooling so the four-table
// snapshot load reuses connections instead of dialing per request.
func newPooledHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) tableURL(table string, query url.Values) string {
	u := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, rawURL string, body any, prefer string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, classifyError(resp.StatusCode, data)
	}
	return data, nil
}

// classifyError maps PostgREST failures onto store sentinels so callers
// can show a useful hint for row-level security denials instead of an
// opaque 500.
func classifyError(status int, body []byte) error {
	msg := string(body)
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "row-level security"),
		status == http.StatusUnauthorized,
		status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d: %s", store.ErrPermissionDenied, status, msg)
	case status == http.StatusConflict,
		strings.Contains(lower, "duplicate key"):
		return fmt.Errorf("%w: status %d: %s", store.ErrDuplicateKey, status, msg)
	}
	return fmt.Errorf("store request failed: status %d: %s", status, msg)
}

func (c *Client) getInto(ctx context.Context, table string, query url.Values, out any) error {
	data, err := c.do(ctx, http.MethodGet, c.tableURL(table, query), nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s rows: %w", table, err)
	}
	return nil
}
