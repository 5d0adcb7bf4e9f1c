package integrations

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/httputil"
)

func newTestClient(server *httptest.Server, headers map[string]string) *Client {
	return NewClient(headers, time.Second).
		WithHTTPClient(server.Client()).
		WithRetry(2, time.Millisecond)
}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(headers, 0)

	if client.http == nil {
		t.Fatal("NewClient() http client is nil")
	}
	if client.http.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.http.Timeout, DefaultTimeout)
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	var resp response
	if err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var gotOverride, gotDefault string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOverride = r.Header.Get("X-Override")
		gotDefault = r.Header.Get("User-Agent")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := newTestClient(server, map[string]string{"X-Override": "default", "User-Agent": "uptix/test"})

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if gotOverride != "overridden" {
		t.Errorf("header = %q, want %q", gotOverride, "overridden")
	}
	if gotDefault != "uptix/test" {
		t.Errorf("User-Agent = %q, want %q", gotDefault, "uptix/test")
	}
}

func TestClientGetErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Branch not found"}`))
	}))
	defer server.Close()

	var resp map[string]string
	err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp)
	if !stderrors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), "Branch not found") {
		t.Errorf("error %q should include response body", err)
	}
	if !errors.Is(err, errors.ErrCodeRegistry) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeRegistry)
	}
}

func TestClientGetUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	var resp map[string]string
	err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, errors.ErrCodeUnauthorized) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeUnauthorized)
	}
}

func TestClientRetries500(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	var resp map[string]string
	err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp)
	if err == nil {
		t.Fatal("Get() should return error for 500")
	}
	if !httputil.IsRetryable(err) {
		t.Errorf("Get() error should be retryable, got %T", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClientRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":"yes"}`))
	}))
	defer server.Close()

	var resp map[string]string
	if err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp["ok"] != "yes" {
		t.Errorf("resp = %v", resp)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestClientMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	var resp map[string]string
	err := newTestClient(server, nil).Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, errors.ErrCodePayload) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodePayload)
	}
}

func TestClientDoReturnsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Bearer realm="x"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	resp, err := newTestClient(server, nil).Do(context.Background(), http.MethodHead, server.URL, nil)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized || resp.OK() {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Error("challenge header missing")
	}
}

func TestClientNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := NewClient(nil, time.Second).WithRetry(1, time.Millisecond).Do(context.Background(), http.MethodGet, url, nil)
	if !stderrors.Is(err, ErrNetwork) {
		t.Errorf("Do() error = %v, want ErrNetwork", err)
	}
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeNetwork)
	}
}
