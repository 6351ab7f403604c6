// Package client is a typed HTTP client for the lifeboard API. Every call maps
// one endpoint, returns the decoded body, and never retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lifeboard/internal/core"
)

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Unwrap maps the status back onto the core error kinds so callers can use
// errors.Is(err, core.ErrConflict).
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return core.ErrUnauthenticated
	case http.StatusNotFound:
		return core.ErrNotFound
	case http.StatusConflict:
		return core.ErrConflict
	case http.StatusBadRequest:
		return core.ErrValidation
	case http.StatusMethodNotAllowed:
		return core.ErrNotSupported
	}
	if e.Status >= 500 {
		return core.ErrStorage
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sends token as a bearer session on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do performs the request and decodes a 2xx body into T.
func do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, apiError(resp.StatusCode, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return out, nil
}

func apiError(status int, raw []byte) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &APIError{Status: status, Message: body.Error}
	}
	return &APIError{Status: status, Message: fmt.Sprintf("request failed with status %d", status)}
}

type success struct {
	Success bool `json:"success"`
}

func (c *Client) remove(ctx context.Context, path string) error {
	res, err := do[success](ctx, c, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New("delete was not acknowledged")
	}
	return nil
}

func idPath(base string, id int64) string {
	return fmt.Sprintf("%s/%d", base, id)
}

func escape(s string) string { return url.PathEscape(s) }
