// Package api wraps outbound requests to the meeting backend. It
// serializes JSON bodies, attaches the bearer credential when present,
// and normalizes error responses. It never retries on its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxmeet/voxmeet/internal/credential"
	"github.com/voxmeet/voxmeet/internal/observability"
)

// APIError carries the backend's error detail for a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  *credential.Holder
	metrics *observability.Metrics
}

func New(baseURL string, timeout time.Duration, tokens *credential.Holder, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		metrics: metrics,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

type errorBody struct {
	Detail string `json:"detail"`
}

// do issues one request. out may be nil for no-content responses.
// attachAuth controls whether the bearer credential (if any) is sent;
// endpoints serving unauthenticated in-meeting participants omit it.
func (c *Client) do(ctx context.Context, method, path string, body, out any, attachAuth bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if attachAuth {
		if token := c.tokens.Get(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.observe(path, 0)
		return err
	}
	defer res.Body.Close()
	c.observe(path, res.StatusCode)

	data, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var eb errorBody
		if err := json.Unmarshal(data, &eb); err == nil {
			apiErr.Detail = strings.TrimSpace(eb.Detail)
		}
		return apiErr
	}

	if out == nil || res.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) observe(path string, status int) {
	if c.metrics == nil {
		return
	}
	class := "error"
	switch {
	case status >= 200 && status < 300:
		class = "2xx"
	case status >= 400 && status < 500:
		class = "4xx"
	case status >= 500:
		class = "5xx"
	}
	c.metrics.APIRequests.WithLabelValues(path, class).Inc()
}
