package github

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/uptix/pkg/buildinfo"
	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

// Client talks to a GitHub (or GitHub Enterprise) REST API.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client rooted at baseURL. Pass an empty
// token for unauthenticated requests.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": buildinfo.UserAgent(),
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(headers, timeout),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// BaseURL joins an override scheme and domain. Empty parts fall back to
// https and api.github.com.
func BaseURL(scheme, domain string) string {
	if scheme == "" {
		scheme = "https"
	}
	if domain == "" {
		domain = "api.github.com"
	}
	return scheme + "://" + domain
}

// BranchHead returns the commit SHA at the head of branch.
func (c *Client) BranchHead(ctx context.Context, owner, repo, branch string) (string, error) {
	var data branchResponse
	u := fmt.Sprintf("%s/repos/%s/%s/branches/%s", c.baseURL, owner, repo, url.PathEscape(branch))
	if err := c.Get(ctx, u, &data); err != nil {
		return "", notFound(err, "github branch %s of %s/%s", branch, owner, repo)
	}
	if data.Commit.SHA == "" {
		return "", errors.New(errors.ErrCodePayload, "github branch %s of %s/%s: response has no commit sha", branch, owner, repo)
	}
	return data.Commit.SHA, nil
}

// Release is the latest published release of a repository.
type Release struct {
	Tag         string
	PublishedAt time.Time // zero when the API omits it
}

// LatestRelease returns the latest published release.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (Release, error) {
	var data releaseResponse
	u := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, owner, repo)
	if err := c.Get(ctx, u, &data); err != nil {
		return Release{}, notFound(err, "github release of %s/%s", owner, repo)
	}
	if data.TagName == "" {
		return Release{}, errors.New(errors.ErrCodePayload, "github release of %s/%s: response has no tag_name", owner, repo)
	}
	return Release{Tag: data.TagName, PublishedAt: data.PublishedAt}, nil
}

// notFound names the missing resource, keeping the code of err.
func notFound(err error, format string, args ...any) error {
	if stderrors.Is(err, integrations.ErrNotFound) {
		return errors.Wrap(errors.GetCode(err), err, format+" not found", args...)
	}
	return err
}

type branchResponse struct {
	Name   string `json:"name"`
	Commit struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type releaseResponse struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
}
