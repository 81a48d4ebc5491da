package rest

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
)

// Client is a deliberately thin transport to the catalog REST service: it
// moves raw JSON, and nothing else. Reply interpretation is Envelope's
// job; auth beyond carrying a token is out of scope.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for a catalog server base URL.
func NewClient(baseURL string) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, fmt.Errorf("rest: server URL is required")
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("rest: invalid server URL %q: %w", baseURL, err)
	}
	return &Client{
		baseURL: trimmed,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SetToken installs the session token carried on subsequent requests.
func (c *Client) SetToken(token string) { c.token = strings.TrimSpace(token) }

// Login posts credentials and returns the raw reply for the caller to
// normalize; the token inside is the caller's to extract and set.
func (c *Client) Login(ctx context.Context, user, password string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"user": user, "password": password})
	if err != nil {
		return nil, fmt.Errorf("rest: encode login: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/users/login", nil, body)
}

// Search queries one resource category (files, individuals, samples, ...)
// and returns the raw reply bytes.
func (c *Client) Search(ctx context.Context, category string, params map[string]string) ([]byte, error) {
	category = strings.Trim(strings.TrimSpace(category), "/")
	if category == "" {
		return nil, fmt.Errorf("rest: search category is required")
	}
	return c.do(ctx, http.MethodGet, "/"+category+"/search", params, nil)
}

// Info fetches one record by ID within a resource category.
func (c *Client) Info(ctx context.Context, category, id string, params map[string]string) ([]byte, error) {
	category = strings.Trim(strings.TrimSpace(category), "/")
	id = strings.TrimSpace(id)
	if category == "" || id == "" {
		return nil, fmt.Errorf("rest: info requires category and id")
	}
	return c.do(ctx, http.MethodGet, "/"+category+"/"+url.PathEscape(id)+"/info", params, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body []byte) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for key, value := range params {
			values.Set(key, value)
		}
		endpoint += "?" + values.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("rest: read reply: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rest: %s %s: server returned %s", method, path, resp.Status)
	}
	return payload, nil
}
