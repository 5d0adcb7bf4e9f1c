package deps

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/uptix/pkg/errors"
	"github.com/matzehuels/uptix/pkg/integrations/github"
	"github.com/matzehuels/uptix/pkg/prefetch"
)

// GitHubSource holds the fields shared by branch and release declarations.
type GitHubSource struct {
	Owner           string
	Repo            string
	FetchSubmodules bool
	DeepClone       bool
	LeaveDotGit     bool

	// Overrides point the resolver at another API host or skip hashing.
	OverrideScheme string
	OverrideDomain string
	OverrideHash   string
}

// flags renders the key suffix: one letter per enabled flag in a fixed
// order.
func (s GitHubSource) flags() string {
	var b []byte
	if s.FetchSubmodules {
		b = append(b, 'f')
	}
	if s.DeepClone {
		b = append(b, 'd')
	}
	if s.LeaveDotGit {
		b = append(b, 'l')
	}
	return string(b)
}

func (s GitHubSource) repoPath() string { return s.Owner + "/" + s.Repo }

func (s GitHubSource) client(r Resolvers) (RefResolver, error) {
	if r.GitHub == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no GitHub resolver configured")
	}
	base := github.BaseURL(s.OverrideScheme, s.OverrideDomain)
	if s.OverrideScheme == "" && s.OverrideDomain == "" && r.GitHubAPI != "" {
		base = r.GitHubAPI
	}
	return r.GitHub(base), nil
}

// lock hashes rev and builds the payload stored in the lock file.
func (s GitHubSource) lock(ctx context.Context, r Resolvers, rev string) (json.RawMessage, error) {
	hash := s.OverrideHash
	if hash == "" {
		if r.Hasher == nil {
			return nil, errors.New(errors.ErrCodeHashTool, "no hasher configured for %s", s.repoPath())
		}
		var err error
		hash, err = r.Hasher.Hash(ctx, prefetch.Source{
			Owner:           s.Owner,
			Repo:            s.Repo,
			Rev:             rev,
			FetchSubmodules: s.FetchSubmodules,
			DeepClone:       s.DeepClone,
			LeaveDotGit:     s.LeaveDotGit,
		})
		if err != nil {
			return nil, err
		}
	}

	data, err := json.Marshal(gitHubLock{
		Owner:           s.Owner,
		Repo:            s.Repo,
		Rev:             rev,
		SHA256:          hash,
		FetchSubmodules: s.FetchSubmodules,
		DeepClone:       s.DeepClone,
		LeaveDotGit:     s.LeaveDotGit,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode lock for %s", s.repoPath())
	}
	return data, nil
}

// gitHubLock is the lock payload consumed by fetchFromGitHub.
type gitHubLock struct {
	Owner           string `json:"owner"`
	Repo            string `json:"repo"`
	Rev             string `json:"rev"`
	SHA256          string `json:"sha256"`
	FetchSubmodules bool   `json:"fetchSubmodules"`
	DeepClone       bool   `json:"deepClone"`
	LeaveDotGit     bool   `json:"leaveDotGit"`
}

func (l gitHubLock) source() GitHubSource {
	return GitHubSource{
		Owner:           l.Owner,
		Repo:            l.Repo,
		FetchSubmodules: l.FetchSubmodules,
		DeepClone:       l.DeepClone,
		LeaveDotGit:     l.LeaveDotGit,
	}
}

func decodeGitHubLock(raw json.RawMessage) (gitHubLock, bool) {
	var l gitHubLock
	if err := json.Unmarshal(raw, &l); err != nil || l.Owner == "" || l.Repo == "" {
		return gitHubLock{}, false
	}
	return l, true
}
