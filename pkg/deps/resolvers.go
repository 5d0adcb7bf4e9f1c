package deps

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/uptix/pkg/cache"
	"github.com/matzehuels/uptix/pkg/integrations"
	"github.com/matzehuels/uptix/pkg/integrations/github"
	"github.com/matzehuels/uptix/pkg/integrations/registry"
	"github.com/matzehuels/uptix/pkg/prefetch"
)

// ImageResolver resolves container image references.
type ImageResolver interface {
	Resolve(ctx context.Context, ref registry.Reference) (*registry.Resolution, error)
}

// RefResolver resolves GitHub refs to revisions.
type RefResolver interface {
	BranchHead(ctx context.Context, owner, repo, branch string) (string, error)
	LatestRelease(ctx context.Context, owner, repo string) (github.Release, error)
}

// Resolvers bundles the external services dependencies resolve against.
type Resolvers struct {
	Registry ImageResolver

	// GitHub returns a client for an API base URL. Declarations may point
	// at their own host, so clients are built per call.
	GitHub func(baseURL string) RefResolver

	// GitHubAPI is the base URL used when a declaration has no override.
	// Empty means the public API.
	GitHubAPI string

	Hasher prefetch.Hasher
}

// Options configures [NewResolvers].
type Options struct {
	Timeout      time.Duration
	GitHubToken  string
	GitHubAPI    string
	DockerConfig string // path to a Docker config.json; empty for the default
	HashCommand  string // nix-prefetch-git executable; empty for the default

	// HashCache remembers commit hashes between runs. nil disables it.
	HashCache cache.Cache
}

// NewResolvers builds resolvers backed by the real registry, GitHub API and
// nix-prefetch-git.
func NewResolvers(opts Options) Resolvers {
	if opts.Timeout <= 0 {
		opts.Timeout = integrations.DefaultTimeout
	}
	creds := registry.Chain{registry.EnvCredentials{}, registry.DockerConfig{Path: opts.DockerConfig}}
	api := opts.GitHubAPI
	if api == "" {
		api = github.DefaultBaseURL
	}
	api = strings.TrimSuffix(api, "/")
	return Resolvers{
		Registry: registry.NewClient(opts.Timeout, creds),
		GitHub: func(baseURL string) RefResolver {
			// The token belongs to the configured API; override hosts get
			// anonymous requests.
			token := ""
			if strings.TrimSuffix(baseURL, "/") == api {
				token = opts.GitHubToken
			}
			return github.NewClient(baseURL, token, opts.Timeout)
		},
		GitHubAPI: opts.GitHubAPI,
		Hasher: &prefetch.Cached{
			Hasher: &prefetch.NixPrefetchGit{Command: opts.HashCommand},
			Cache:  opts.HashCache,
		},
	}
}
