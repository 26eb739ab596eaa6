package sdk

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
)

// Option configures the Client.
type Option interface {
	apply(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// WithAPIKey sends the key as a bearer token on every request.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *Client) { c.apiKey = key })
}

// WithHTTPClient replaces http.DefaultClient. Searches stream for as long
// as the pipeline runs, so the client should not carry a short Timeout.
func WithHTTPClient(h *http.Client) Option {
	return optionFunc(func(c *Client) { c.http = h })
}

// Client talks to an ideascout server.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("ideascout: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ideascout: base url %q must be absolute", baseURL)
	}
	c := &Client{baseURL: u, http: http.DefaultClient}
	for _, o := range opts {
		o.apply(c)
	}
	return c, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body any) (*http.Request, error) {
	u := *c.baseURL
	u.Path += path
	if q != nil {
		u.RawQuery = q.Encode()
	}

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ideascout: encode body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return nil, fmt.Errorf("ideascout: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ideascout: %s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}

func decodeJSON(resp *http.Response, dst any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("ideascout: decode response: %w", err)
	}
	return nil
}

// Chat sends one chat turn.
func (c *Client) Chat(ctx context.Context, in *ChatRequest) (ChatResponse, error) {
	if in == nil || strings.TrimSpace(in.Prompt) == "" {
		return ChatResponse{}, errors.New("ideascout: prompt is required")
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/chat", nil, in)
	if err != nil {
		return ChatResponse{}, err
	}
	resp, err := c.do(req)
	if err != nil {
		return ChatResponse{}, err
	}
	var out ChatResponse
	if err := decodeJSON(resp, &out); err != nil {
		return ChatResponse{}, err
	}
	return out, nil
}

// Health returns the server health report. A degraded server answers 503,
// which is reported as a Health value, not an error.
func (c *Client) Health(ctx context.Context) (Health, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		return Health{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Health{}, fmt.Errorf("ideascout: GET /health: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		defer resp.Body.Close()
		return Health{}, decodeAPIError(resp)
	}
	var out Health
	if err := decodeJSON(resp, &out); err != nil {
		return Health{}, err
	}
	return out, nil
}
