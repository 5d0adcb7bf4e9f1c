package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/httputil"
	"github.com/matzehuels/uptix/pkg/observability"
)

// Client provides shared HTTP functionality for the registry and GitHub
// clients. It handles retry logic and common request headers.
type Client struct {
	http     *http.Client
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient creates a Client with the given default headers and timeout.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed.
func NewClient(headers map[string]string, timeout time.Duration) *Client {
	return &Client{
		http:     NewHTTPClient(timeout),
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithHTTPClient replaces the underlying transport. Tests use it to talk to
// httptest servers.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// WithRetry overrides the retry policy for transient failures.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts = attempts
	c.delay = delay
	return c
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers and handles retries automatically.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
// Non-2xx responses are returned as errors carrying the response body.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	resp, err := c.Do(ctx, http.MethodGet, url, headers)
	if err != nil {
		return err
	}
	if err := CheckStatus(http.MethodGet, url, resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		return errors.Wrap(errors.ErrCodePayload, err, "decode response from %s", url)
	}
	return nil
}

// Do performs a request and reads the whole body. Network failures, 5xx
// and 429 responses are retried, the latter after the server's Retry-After
// delay; any other status is returned to the caller as is.
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string) (*Response, error) {
	var resp *Response
	err := httputil.Retry(ctx, c.attempts, c.delay, func() error {
		r, err := c.doOnce(ctx, method, url, headers)
		if err != nil {
			return err
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return &httputil.RetryableError{
				Err:   statusError(method, url, r),
				After: httputil.ParseRetryAfter(r.Header, time.Now()),
			}
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) doOnce(ctx context.Context, method, url string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, networkError(method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, networkError(method, url, err)
	}
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func networkError(method, url string, err error) error {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeTimeout, err, "%s %s", method, url)}
	}
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", ErrNetwork, err), "%s %s", method, url)}
}

// CheckStatus maps a non-2xx response to an error in the errors taxonomy.
// The response body is included so API error messages reach the user.
func CheckStatus(method, url string, resp *Response) error {
	if resp.OK() {
		return nil
	}
	return statusError(method, url, resp)
}

func statusError(method, url string, resp *Response) error {
	body := strings.TrimSpace(string(resp.Body))
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeRegistry, ErrNotFound, "%s %s: status %d: %s", method, url, code, body)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "%s %s: status %d: %s", method, url, code, body)
	case code == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeRegistry, "%s %s: rate limited (status %d): %s", method, url, code, body)
	case code >= 500:
		return errors.Wrap(errors.ErrCodeRegistry, ErrNetwork, "%s %s: status %d: %s", method, url, code, body)
	default:
		return errors.New(errors.ErrCodeRegistry, "%s %s: status %d: %s", method, url, code, body)
	}
}
