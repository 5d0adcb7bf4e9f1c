package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/uptix/pkg/errors"
)

func TestBranchHead(t *testing.T) {
	var gotAuth, gotAgent, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		if r.URL.Path != "/repos/home-assistant/core/branches/dev" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"dev","commit":{"sha":"0123456789abcdef0123456789abcdef01234567"}}`))
	}))
	defer server.Close()

	c := testClient(server.URL, "secret")
	sha, err := c.BranchHead(context.Background(), "home-assistant", "core", "dev")
	if err != nil {
		t.Fatalf("BranchHead: %v", err)
	}
	if sha != "0123456789abcdef0123456789abcdef01234567" {
		t.Errorf("sha = %q", sha)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.HasPrefix(gotAgent, "uptix/") {
		t.Errorf("User-Agent = %q", gotAgent)
	}
	if gotAccept != "application/vnd.github.v3+json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestLatestRelease(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/repos/owner/repo/releases/latest" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"tag_name":"2024.1.0","published_at":"2024-01-03T10:00:00Z"}`))
	}))
	defer server.Close()

	rel, err := testClient(server.URL, "").LatestRelease(context.Background(), "owner", "repo")
	if err != nil {
		t.Fatalf("LatestRelease: %v", err)
	}
	want := Release{Tag: "2024.1.0", PublishedAt: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("release mismatch (-want +got):\n%s", diff)
	}
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.Code
		wantText string
	}{
		{"not found", http.StatusNotFound, `{"message":"Not Found"}`, errors.ErrCodeRegistry, "Not Found"},
		{"rate limited", http.StatusForbidden, `{"message":"API rate limit exceeded"}`, errors.ErrCodeUnauthorized, "rate limit"},
		{"empty payload", http.StatusOK, `{}`, errors.ErrCodePayload, "tag_name"},
		{"bad json", http.StatusOK, `{`, errors.ErrCodePayload, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := testClient(server.URL, "").LatestRelease(context.Background(), "owner", "repo")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v", got, tt.wantCode)
			}
			if !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q does not mention %q", err, tt.wantText)
			}
		})
	}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		scheme, domain, want string
	}{
		{"", "", "https://api.github.com"},
		{"http", "", "http://api.github.com"},
		{"", "github.example.com/api/v3", "https://github.example.com/api/v3"},
	}
	for _, tt := range tests {
		if got := BaseURL(tt.scheme, tt.domain); got != tt.want {
			t.Errorf("BaseURL(%q, %q) = %q, want %q", tt.scheme, tt.domain, got, tt.want)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("", "", time.Second)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.Client == nil {
		t.Error("expected HTTP client to be initialized")
	}
}

func testClient(serverURL, token string) *Client {
	c := NewClient(serverURL, token, 5*time.Second)
	c.WithRetry(1, time.Millisecond)
	return c
}

func TestNotFoundNamesResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()

	tests := []struct {
		name string
		call func(*Client) error
		want string
	}{
		{"branch", func(c *Client) error {
			_, err := c.BranchHead(context.Background(), "owner", "repo", "dev")
			return err
		}, "github branch dev of owner/repo not found"},
		{"release", func(c *Client) error {
			_, err := c.LatestRelease(context.Background(), "owner", "repo")
			return err
		}, "github release of owner/repo not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call(testClient(server.URL, ""))
			if got := errors.UserMessage(err); !strings.HasPrefix(got, tt.want) {
				t.Errorf("message = %q, want prefix %q", got, tt.want)
			}
			if !errors.Is(err, errors.ErrCodeRegistry) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeRegistry)
			}
		})
	}
}
