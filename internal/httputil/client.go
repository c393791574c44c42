package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// =============================================================================
// Outbound client
// =============================================================================

// Client calls third party JSON APIs (LLM gateway, OAuth userinfo). Transport
// errors and 5xx/429 answers are retried; other statuses are returned as is.
type Client struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	attempts   uint
	delay      time.Duration
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseURL    string
	Headers    map[string]string
	Timeout    time.Duration
	Attempts   uint
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// StatusError is returned by DecodeResponse for non 2xx answers.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

// NewClient creates a client. Zero values select a 30s timeout, 3 attempts
// and a 500ms base delay.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	attempts := cfg.Attempts
	if attempts == 0 {
		attempts = 3
	}
	delay := cfg.RetryDelay
	if delay == 0 {
		delay = 500 * time.Millisecond
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	headers := make(map[string]string, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		headers:    headers,
		attempts:   attempts,
		delay:      delay,
	}
}

type retryableStatus struct{ code int }

func (e retryableStatus) Error() string { return fmt.Sprintf("retryable status %d", e.code) }

// Do sends body (JSON encoded when not nil) and returns the final response.
// The caller closes the body.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	url := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		url = c.baseURL + path
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			var reader io.Reader
			if payload != nil {
				reader = bytes.NewReader(payload)
			}
			req, err := http.NewRequestWithContext(ctx, method, url, reader)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			for k, v := range c.headers {
				req.Header.Set(k, v)
			}
			for k, v := range headers {
				req.Header.Set(k, v)
			}
			r, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
				_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 64<<10))
				r.Body.Close()
				return retryableStatus{code: r.StatusCode}
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		var rs retryableStatus
		if errors.As(err, &rs) {
			return nil, &StatusError{StatusCode: rs.code, Body: "upstream unavailable"}
		}
		return nil, err
	}
	return resp, nil
}

// PostJSON posts body and decodes the JSON answer into target.
func (c *Client) PostJSON(ctx context.Context, path string, body, target interface{}, headers map[string]string) error {
	resp, err := c.Do(ctx, http.MethodPost, path, body, headers)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// GetJSON fetches path and decodes the JSON answer into target.
func (c *Client) GetJSON(ctx context.Context, path string, target interface{}, headers map[string]string) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, headers)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, target)
}

// ReadBody returns the whole response body, bounded to limit bytes.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	defer resp.Body.Close()
	body, truncated, err := ReadAllWithLimit(resp.Body, limit)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if truncated {
			msg += "...(truncated)"
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}
	if truncated {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}

// DecodeResponse decodes a JSON response into target. *[]byte targets
// receive the raw body.
func DecodeResponse(resp *http.Response, target interface{}) error {
	body, err := ReadBody(resp, 4<<20)
	if err != nil {
		return err
	}
	switch t := target.(type) {
	case nil:
		return nil
	case *[]byte:
		*t = body
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ReadAllWithLimit reads at most limit bytes and reports whether more were
// available.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}
